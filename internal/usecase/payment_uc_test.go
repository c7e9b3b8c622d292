package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/storefront/internal/domain"
)

type stubGateway struct {
	url string
	err error
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, o *domain.Order) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	o.ProviderSession = "cs_" + o.ID.String()[:8]
	return g.url, nil
}

func (g *stubGateway) SessionInfo(ctx context.Context, sessionID string) (string, string, error) {
	return "paid", "", nil
}

func (g *stubGateway) ListPrices(ctx context.Context) ([]domain.CatalogPrice, error) {
	return nil, nil
}

type stubFulfillment struct {
	calls   atomic.Int32
	done    chan struct{}
	release chan struct{}
}

func (f *stubFulfillment) CreateOrder(ctx context.Context, o *domain.Order) (int64, error) {
	if f.release != nil {
		<-f.release
	}
	f.calls.Add(1)
	select {
	case f.done <- struct{}{}:
	default:
	}
	return 9001, nil
}

func awaitingOrder(t *testing.T, repo *memOrders) *domain.Order {
	t.Helper()
	o := &domain.Order{
		ID:              uuid.New(),
		Status:          domain.OrderStatusAwaitingPay,
		ProviderSession: "cs_test_1",
		Email:           "buyer@example.com",
		Currency:        "USD",
		Total:           2500,
	}
	require.NoError(t, repo.Save(context.Background(), o))
	return o
}

func TestBeginCheckoutRecordsSession(t *testing.T) {
	repo := newMemOrders()
	uc := &PaymentUC{Orders: repo, Gateway: &stubGateway{url: "https://pay.example/cs"}}
	o := awaitingOrder(t, repo)
	o.ProviderSession = ""

	url, err := uc.BeginCheckout(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs", url)
	assert.NotEmpty(t, o.ProviderSession)

	saved, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ProviderSession, saved.ProviderSession)
}

func TestHandleSessionEventMarksPaidAndDispatchesOnce(t *testing.T) {
	repo := newMemOrders()
	ful := &stubFulfillment{done: make(chan struct{}, 1)}
	uc := &PaymentUC{Orders: repo, Gateway: &stubGateway{}, Fulfillment: ful}
	awaitingOrder(t, repo)

	o, err := uc.HandleSessionEvent(context.Background(), "cs_test_1", "paid")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.True(t, o.Dispatched)

	select {
	case <-ful.done:
	case <-time.After(2 * time.Second):
		t.Fatal("fulfillment never dispatched")
	}

	// a retried webhook must not dispatch again
	_, err = uc.HandleSessionEvent(context.Background(), "cs_test_1", "paid")
	require.NoError(t, err)
	assert.Equal(t, int32(1), ful.calls.Load())
}

// The returned order must stay readable while the fulfillment goroutine is
// still running; run with -race.
func TestHandleSessionEventReturnedOrderStableDuringDispatch(t *testing.T) {
	repo := newMemOrders()
	ful := &stubFulfillment{done: make(chan struct{}, 1), release: make(chan struct{})}
	uc := &PaymentUC{Orders: repo, Gateway: &stubGateway{}, Fulfillment: ful}
	awaitingOrder(t, repo)

	o, err := uc.HandleSessionEvent(context.Background(), "cs_test_1", "paid")
	require.NoError(t, err)

	// the page render path reads these immediately after the redirect back
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.Nil(t, o.FulfillmentID)
	assert.Equal(t, int64(2500), o.Total)

	close(ful.release)
	require.Eventually(t, func() bool {
		saved, err := repo.FindByID(context.Background(), o.ID)
		return err == nil && saved.Status == domain.OrderStatusSubmitted && saved.FulfillmentID != nil
	}, 2*time.Second, 10*time.Millisecond)

	// the caller's copy is untouched by the background transition
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	assert.Nil(t, o.FulfillmentID)
}

func TestHandleSessionEventUnpaidKeepsAwaiting(t *testing.T) {
	repo := newMemOrders()
	uc := &PaymentUC{Orders: repo, Gateway: &stubGateway{}}
	awaitingOrder(t, repo)

	o, err := uc.HandleSessionEvent(context.Background(), "cs_test_1", "unpaid")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAwaitingPay, o.Status)
	assert.False(t, o.Dispatched)
	assert.Equal(t, "unpaid", o.ProviderStatus)
}

func TestHandleSessionEventUnknownSession(t *testing.T) {
	uc := &PaymentUC{Orders: newMemOrders(), Gateway: &stubGateway{}}
	_, err := uc.HandleSessionEvent(context.Background(), "cs_missing", "paid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
