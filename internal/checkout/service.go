package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/internal/checkout/helpers"
	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forrajeria-backend/pkg/errors"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
	"github.com/angelmondragon/forrajeria-backend/pkg/metrics"
	"github.com/angelmondragon/forrajeria-backend/pkg/pubsub"
)

type orderCreator interface {
	CreateOrder(ctx context.Context, order *models.Order) (string, error)
}

type eventPublisher interface {
	PublishOrderEvent(ctx context.Context, event pubsub.OrderEvent) error
}

type submissionRecorder interface {
	ObserveSubmission(outcome string, d time.Duration)
	IncRejection(code string)
}

// PickupSlot is the date and time the customer will collect the order.
type PickupSlot struct {
	Date string
	Time string
}

// SubmitInput captures everything needed to turn a cart into an order.
type SubmitInput struct {
	Customer models.OrderCustomer
	Cart     *cart.Engine
	Pickup   PickupSlot
	Comments string
}

// Service executes order submission.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Order, error)
}

// ServiceParams bundles the dependencies of the checkout service.
type ServiceParams struct {
	Orders    orderCreator
	Policy    helpers.PickupPolicy
	Publisher eventPublisher
	Metrics   submissionRecorder
	Logger    *logger.Logger
}

type service struct {
	orders    orderCreator
	policy    helpers.PickupPolicy
	publisher eventPublisher
	metrics   submissionRecorder
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	return &service{
		orders:    params.Orders,
		policy:    params.Policy,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Order, error) {
	started := s.now()
	order, err := s.submit(ctx, input, started)
	s.observe(started, err)
	return order, err
}

func (s *service) submit(ctx context.Context, input SubmitInput, now time.Time) (*models.Order, error) {
	if input.Cart == nil || input.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if err := input.Cart.Validate(); err != nil {
		return nil, err
	}
	if err := s.policy.ValidatePickupDate(now, input.Pickup.Date); err != nil {
		return nil, err
	}
	if err := s.policy.ValidatePickupTime(input.Pickup.Time); err != nil {
		return nil, err
	}
	comments := strings.TrimSpace(input.Comments)
	if err := s.policy.ValidateComments(comments); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Customer.Celular) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeIncompleteCustomer, "customer phone missing")
	}

	lines := helpers.LineItemsFromCart(input.Cart.Items())
	total, count := helpers.SumLineItems(lines)
	order := &models.Order{
		OrderNumber: helpers.OrderNumber(now),
		Customer:    input.Customer,
		LineItems:   lines,
		PickupDate:  strings.TrimSpace(input.Pickup.Date),
		PickupTime:  strings.TrimSpace(input.Pickup.Time),
		PickupAt:    helpers.PickupDisplay(input.Pickup.Date, input.Pickup.Time),
		Comments:    comments,
		Total:       total,
		TotalItems:  count,
		Status:      enums.OrderStatusPending,
		SubmittedAt: now.UTC(),
	}

	id, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "create order")
	}
	order.ID = id

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, id)
	}
	if err := input.Cart.Clear(ctx); err != nil {
		// The order exists; a stale cart is recoverable by the customer.
		s.warn(ctx, "clear cart after submission failed", err)
	}
	s.publish(ctx, order)
	return order, nil
}

func (s *service) publish(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := pubsub.OrderEvent{
		Type:        pubsub.EventOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.Customer.ID,
		Status:      string(order.Status),
		Total:       order.Total.StringFixed(2),
		TotalItems:  order.TotalItems,
		PickupAt:    order.PickupAt,
		OccurredAt:  order.SubmittedAt,
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.warn(ctx, "publish order created failed", err)
	}
}

func (s *service) observe(started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailed
		code := pkgerrors.As(err).Code()
		if pkgerrors.IsDomain(code) && code != pkgerrors.CodeRemoteUnavailable {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.IncRejection(string(code))
	}
	s.metrics.ObserveSubmission(outcome, s.now().Sub(started))
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

// DisplayNumber is the short order reference shown to the customer.
func DisplayNumber(id string) string {
	return helpers.DisplayNumber(id)
}
