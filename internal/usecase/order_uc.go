package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/merchkit/storefront/internal/cart"
	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/variant"
)

type OrderUC struct {
	Orders   domain.OrderRepo
	Products domain.ProductRepo
}

type CheckoutInfo struct {
	Email      string
	Name       string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// CreateFromCart snapshots the cart lines into an order awaiting payment.
// Amounts stay in minor units; the order currency is the first line's.
func (uc *OrderUC) CreateFromCart(ctx context.Context, info CheckoutInfo, lines []domain.CartLine) (*domain.Order, error) {
	if strings.TrimSpace(info.Email) == "" || strings.TrimSpace(info.Name) == "" {
		return nil, errors.New("missing contact data")
	}
	if len(lines) == 0 {
		return nil, errors.New("empty cart")
	}
	o := &domain.Order{
		ID:         uuid.New(),
		Status:     domain.OrderStatusAwaitingPay,
		Email:      strings.TrimSpace(info.Email),
		Name:       strings.TrimSpace(info.Name),
		Phone:      strings.TrimSpace(info.Phone),
		Address:    strings.TrimSpace(info.Address),
		City:       strings.TrimSpace(info.City),
		State:      strings.TrimSpace(info.State),
		PostalCode: strings.TrimSpace(info.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(info.Country)),
		Currency:   cart.Currency(lines),
	}
	for _, l := range lines {
		pid := l.ProductID
		item := domain.OrderItem{
			ID:         uuid.New(),
			ProductID:  &pid,
			PriceID:    l.PriceID,
			Title:      variant.FormatProductName(l.Name, l.Color, l.Size),
			Color:      variant.NormalizePart(l.Color),
			Size:       variant.NormalizePart(l.Size),
			Qty:        l.Quantity,
			UnitAmount: l.Price,
			Currency:   l.Currency,
			ImageURL:   l.Image,
			ExtVariant: uc.extVariant(ctx, l),
		}
		o.Items = append(o.Items, item)
	}
	o.Subtotal = cart.Subtotal(lines)
	o.Total = o.Subtotal
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.Orders.FindByID(ctx, id)
}

// extVariant looks the fulfillment provider's variant id back up from the
// priced variant the line was added from.
func (uc *OrderUC) extVariant(ctx context.Context, l domain.CartLine) string {
	if uc.Products == nil {
		return ""
	}
	prices, err := uc.Products.ListPrices(ctx, l.ProductID)
	if err != nil {
		return ""
	}
	for _, pv := range prices {
		if pv.ID == l.PriceID {
			return pv.Metadata[domain.MetaPrintfulVariant]
		}
	}
	return ""
}
