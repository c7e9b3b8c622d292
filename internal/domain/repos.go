package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByProviderID(ctx context.Context, providerID string) (*Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	SavePrice(ctx context.Context, pv *PricedVariant) error
	ListPrices(ctx context.Context, productID uuid.UUID) ([]PricedVariant, error)
	AddImages(ctx context.Context, productID uuid.UUID, imgs []Image) error
}

type OrderRepo interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindBySession(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context, page, pageSize int) ([]Order, int64, error)
}

type CustomerRepo interface {
	Save(ctx context.Context, c *Customer) error
	FindByEmail(ctx context.Context, email string) (*Customer, error)
}

type PageRepo interface {
	Save(ctx context.Context, p *Page) error
	FindBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]Page, error)
}

// CatalogPrice is one record of the provider's flat price list as returned by
// the payment gateway, before it is attached to a local product.
type CatalogPrice struct {
	PriceID     string
	ProductRef  string
	ProductName string
	ProductDesc string
	UnitAmount  *int64
	Currency    string
	Metadata    map[string]string
	Images      []string
	Active      bool
}

// PaymentGateway is the hosted-checkout provider boundary.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, o *Order) (string, error)
	SessionInfo(ctx context.Context, sessionID string) (status, clientRef string, err error)
	ListPrices(ctx context.Context) ([]CatalogPrice, error)
}

// FulfillmentClient submits paid orders to the print/ship provider.
type FulfillmentClient interface {
	CreateOrder(ctx context.Context, o *Order) (int64, error)
}
