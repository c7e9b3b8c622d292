package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/storefront/internal/domain"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	saves  int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[uuid.UUID]*domain.Order{}}
}

func (m *memOrders) Save(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	m.saves++
	return nil
}

func (m *memOrders) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) FindBySession(ctx context.Context, sessionID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ProviderSession == sessionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) List(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

type memProducts struct {
	prices map[uuid.UUID][]domain.PricedVariant
}

func (m *memProducts) Save(ctx context.Context, p *domain.Product) error { return nil }
func (m *memProducts) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}
func (m *memProducts) FindByProviderID(ctx context.Context, providerID string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}
func (m *memProducts) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	return nil, 0, nil
}
func (m *memProducts) DistinctCategories(ctx context.Context) ([]string, error) { return nil, nil }
func (m *memProducts) SavePrice(ctx context.Context, pv *domain.PricedVariant) error {
	return nil
}
func (m *memProducts) ListPrices(ctx context.Context, productID uuid.UUID) ([]domain.PricedVariant, error) {
	return m.prices[productID], nil
}
func (m *memProducts) AddImages(ctx context.Context, productID uuid.UUID, imgs []domain.Image) error {
	return nil
}

func TestCreateFromCartSnapshotsLines(t *testing.T) {
	pid := uuid.New()
	products := &memProducts{prices: map[uuid.UUID][]domain.PricedVariant{
		pid: {{ID: "price_1", Metadata: map[string]string{domain.MetaPrintfulVariant: "4012"}}},
	}}
	uc := &OrderUC{Orders: newMemOrders(), Products: products}

	lines := []domain.CartLine{
		{ProductID: pid, PriceID: "price_1", Name: "Classic Tee", Price: 2500, Currency: "USD", Quantity: 2, Color: "black", Size: "m"},
		{ProductID: pid, PriceID: "price_2", Name: "Enamel Mug", Price: 1800, Currency: "USD", Quantity: 1},
	}
	o, err := uc.CreateFromCart(context.Background(), CheckoutInfo{
		Email: " buyer@example.com ", Name: "Sam Buyer", Country: "us",
	}, lines)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusAwaitingPay, o.Status)
	assert.Equal(t, "buyer@example.com", o.Email)
	assert.Equal(t, "US", o.Country)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, int64(2500*2+1800), o.Subtotal)
	assert.Equal(t, o.Subtotal, o.Total)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Classic Tee (Black / M)", o.Items[0].Title)
	assert.Equal(t, "Black", o.Items[0].Color)
	assert.Equal(t, "M", o.Items[0].Size)
	assert.Equal(t, "4012", o.Items[0].ExtVariant)
	assert.Equal(t, "Enamel Mug", o.Items[1].Title)
	assert.Equal(t, "", o.Items[1].ExtVariant)
}

func TestCreateFromCartValidation(t *testing.T) {
	uc := &OrderUC{Orders: newMemOrders(), Products: &memProducts{}}
	line := domain.CartLine{ProductID: uuid.New(), PriceID: "p", Name: "X", Price: 100, Currency: "USD", Quantity: 1}

	_, err := uc.CreateFromCart(context.Background(), CheckoutInfo{Name: "Sam"}, []domain.CartLine{line})
	assert.Error(t, err)

	_, err = uc.CreateFromCart(context.Background(), CheckoutInfo{Email: "a@b.c"}, []domain.CartLine{line})
	assert.Error(t, err)

	_, err = uc.CreateFromCart(context.Background(), CheckoutInfo{Email: "a@b.c", Name: "Sam"}, nil)
	assert.Error(t, err)
}
