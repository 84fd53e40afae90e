package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeStockExceeded, status: http.StatusConflict, publicMsg: "requested quantity exceeds stock", detailsOK: true},
		{code: CodeStockInsufficient, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeInvalidPickupSlot, status: http.StatusBadRequest, publicMsg: "invalid pickup slot", detailsOK: true},
		{code: CodeIncompleteCustomer, status: http.StatusBadRequest, publicMsg: "customer data incomplete, please log in again"},
		{code: CodeCommentsTooLong, status: http.StatusBadRequest, publicMsg: "comments too long", detailsOK: true},
		{code: CodeEmptyCart, status: http.StatusBadRequest, publicMsg: "cart is empty"},
		{code: CodeRemoteUnavailable, status: http.StatusServiceUnavailable, publicMsg: "remote store unavailable, please try again", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeWalksChain(t *testing.T) {
	inner := New(CodeStockExceeded, "maximum stock: 3 units")
	wrapped := fmt.Errorf("add to cart: %w", inner)
	if !IsCode(wrapped, CodeStockExceeded) {
		t.Fatalf("expected wrapped error to report stock exceeded")
	}
	if IsCode(wrapped, CodeEmptyCart) {
		t.Fatalf("unexpected code match")
	}
	if IsCode(nil, CodeEmptyCart) {
		t.Fatalf("nil error must not match")
	}
}

func TestIsDomain(t *testing.T) {
	if !IsDomain(CodeEmptyCart) || !IsDomain(CodeRemoteUnavailable) {
		t.Fatalf("expected storefront codes to be domain codes")
	}
	if IsDomain(CodeValidation) {
		t.Fatalf("validation is a transport code")
	}
}

func TestDumpCapturesChainAndGRPCStatus(t *testing.T) {
	remote := status.Error(codes.Unavailable, "firestore offline")
	err := Wrap(CodeRemoteUnavailable, remote, "create order")

	d := Dump(err)
	if d.Code != CodeRemoteUnavailable {
		t.Fatalf("expected code %s, got %s", CodeRemoteUnavailable, d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
	if d.GRPCCode != codes.Unavailable.String() {
		t.Fatalf("expected grpc code Unavailable, got %q", d.GRPCCode)
	}
}
