// Package checkout turns a session's cart into a pending order request.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/events"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/service/cart"
)

const (
	msgSubmitted    = "Order request submitted successfully!"
	msgSubmitFailed = "Failed to submit order. Please try again."

	publishTimeout = 5 * time.Second
	historyLimit   = 50
)

var ErrEmptyCart = apperr.New(apperr.CodeEmptyCart, "cart is empty")

type OrderStore interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, uid string, limit int) ([]domain.Order, error)
}

type CartOpener interface {
	Open(ctx context.Context, sessionID string) *cart.Store
}

type IdentitySource interface {
	Current(ctx context.Context, sessionID string) (*domain.Identity, bool)
}

type Recorder interface {
	OrderSubmitted()
	OrderFailed()
}

type Deps struct {
	Orders     OrderStore
	Carts      CartOpener
	Identities IdentitySource
	Publisher  events.Publisher
	Notifier   notice.Notifier
	Recorder   Recorder
	Logger     zerolog.Logger
}

type Service struct {
	orders     OrderStore
	carts      CartOpener
	identities IdentitySource
	publisher  events.Publisher
	notifier   notice.Notifier
	recorder   Recorder
	logger     zerolog.Logger
	now        func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		orders:     d.Orders,
		carts:      d.Carts,
		identities: d.Identities,
		publisher:  d.Publisher,
		notifier:   d.Notifier,
		recorder:   d.Recorder,
		logger:     d.Logger,
		now:        time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.notifier == nil {
		s.notifier = notice.Discard{}
	}
	return s
}

// SubmitOrder writes the session's cart as a pending order. The ordered lines
// leave the cart only after the write succeeded; on failure it is left
// untouched. Lines added while the write is in flight stay in the cart.
func (s *Service) SubmitOrder(ctx context.Context, sessionID string, form Form) (*domain.Order, error) {
	if err := ValidateForm(&form); err != nil {
		return nil, err
	}

	store := s.carts.Open(ctx, sessionID)
	snapshot := store.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	uid := ""
	if s.identities != nil {
		if id, ok := s.identities.Current(ctx, sessionID); ok {
			uid = id.UID
		}
	}

	now := s.now().UTC()
	created, err := s.orders.Create(ctx, domain.Order{
		Items:           snapshot.Items,
		Totals:          snapshot.Totals,
		Customer:        form.customer(uid),
		ShippingAddress: form.address(),
		Status:          domain.OrderStatusPending,
		Notes:           form.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("checkout: write order failed")
		s.notifier.Error(sessionID, msgSubmitFailed)
		if s.recorder != nil {
			s.recorder.OrderFailed()
		}
		return nil, apperr.Wrap(apperr.CodeDependency, err, "could not submit order")
	}

	store.RemoveOrdered(snapshot.Items)
	s.notifier.Success(sessionID, msgSubmitted)
	if s.recorder != nil {
		s.recorder.OrderSubmitted()
	}
	s.logger.Info().Str("order_id", created.ID).Str("session_id", sessionID).
		Str("grand_total", created.Totals.GrandTotal.StringFixed(2)).Msg("checkout: order submitted")

	s.publish(ctx, *created)
	return created, nil
}

func (s *Service) publish(ctx context.Context, order domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.OrderRequested(ctx, order); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("checkout: publish order event failed")
	}
}

// GetOrder loads a submitted order for the confirmation view.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDependency, err, "could not load order")
	}
	return o, nil
}

// OrderHistory lists the signed-in shopper's orders, newest first. Guest
// orders carry no uid and never show up here.
func (s *Service) OrderHistory(ctx context.Context, sessionID string) ([]domain.Order, error) {
	if s.identities == nil {
		return nil, apperr.New(apperr.CodeUnauthorized, "sign in to see your orders")
	}
	id, ok := s.identities.Current(ctx, sessionID)
	if !ok {
		return nil, apperr.New(apperr.CodeUnauthorized, "sign in to see your orders")
	}
	orders, err := s.orders.ListByCustomer(ctx, id.UID, historyLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDependency, err, "could not load orders")
	}
	return orders, nil
}
