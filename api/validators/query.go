package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
)

// ParsePathIndex reads a non-negative integer chi URL parameter.
func ParsePathIndex(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a non-negative integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// RequireConfirm enforces ?confirm=true on destructive requests.
func RequireConfirm(r *http.Request) error {
	if confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !confirmed {
		return pkgerrors.New(pkgerrors.CodeValidation, "confirmation required").WithDetails(map[string]any{"field": "confirm"})
	}
	return nil
}
