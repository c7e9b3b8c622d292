package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/merchkit/storefront/internal/domain"
)

type PaymentUC struct {
	Orders      domain.OrderRepo
	Gateway     domain.PaymentGateway
	Fulfillment domain.FulfillmentClient
}

// BeginCheckout creates a hosted checkout session for the order and returns
// the redirect URL. The gateway records the session id on the order.
func (uc *PaymentUC) BeginCheckout(ctx context.Context, o *domain.Order) (string, error) {
	if o == nil {
		return "", errors.New("nil order")
	}
	if uc.Gateway == nil {
		return "", errors.New("payment gateway not configured")
	}
	url, err := uc.Gateway.CreateCheckoutSession(ctx, o)
	if err != nil {
		return "", err
	}
	if err := uc.Orders.Save(ctx, o); err != nil {
		return "", err
	}
	return url, nil
}

// HandleSessionEvent applies a checkout session's payment status to its
// order. A completed payment dispatches fulfillment exactly once.
func (uc *PaymentUC) HandleSessionEvent(ctx context.Context, sessionID, paymentStatus string) (*domain.Order, error) {
	o, err := uc.Orders.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	o.ProviderStatus = paymentStatus
	switch paymentStatus {
	case "paid", "no_payment_required":
		if o.Status == domain.OrderStatusAwaitingPay {
			o.Status = domain.OrderStatusPaid
		}
	case "unpaid":
		// session still open, keep awaiting
	}
	dispatch := o.Status == domain.OrderStatusPaid && !o.Dispatched && uc.Fulfillment != nil
	if dispatch {
		o.Dispatched = true
	}
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if dispatch {
		// the goroutine gets its own copy; callers keep reading the
		// returned order while fulfillment is in flight
		cp := *o
		go uc.dispatch(&cp)
	}
	return o, nil
}

func (uc *PaymentUC) dispatch(o *domain.Order) {
	ctx := context.Background()
	id, err := uc.Fulfillment.CreateOrder(ctx, o)
	if err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("fulfillment dispatch")
		return
	}
	o.FulfillmentID = &id
	o.Status = domain.OrderStatusSubmitted
	if err := uc.Orders.Save(ctx, o); err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("save order after dispatch")
	}
}
