package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","payment_status":"paid","client_reference_id":"abc|def"}}}`

func TestVerifyWebhook(t *testing.T) {
	g := NewGateway("sk_test", "whsec_test")
	now := time.Now()

	ev, err := g.VerifyWebhook([]byte(payload), SignPayload("whsec_test", []byte(payload), now), now)
	require.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", ev.Type)
	assert.Equal(t, "cs_test_1", ev.Session.ID)
	assert.Equal(t, "paid", ev.Session.PaymentStatus)
	assert.Equal(t, "abc|def", ev.Session.ClientReference)
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	g := NewGateway("sk_test", "whsec_test")
	now := time.Now()

	_, err := g.VerifyWebhook([]byte(payload), SignPayload("whsec_other", []byte(payload), now), now)
	assert.ErrorIs(t, err, ErrBadSignature)

	tampered := payload + " "
	_, err = g.VerifyWebhook([]byte(tampered), SignPayload("whsec_test", []byte(payload), now), now)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	g := NewGateway("sk_test", "whsec_test")
	now := time.Now()
	old := now.Add(-DefaultTolerance - time.Minute)

	_, err := g.VerifyWebhook([]byte(payload), SignPayload("whsec_test", []byte(payload), old), now)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestVerifyWebhookMalformedHeader(t *testing.T) {
	g := NewGateway("sk_test", "whsec_test")
	_, err := g.VerifyWebhook([]byte(payload), "v1=deadbeef", time.Now())
	assert.Error(t, err)
}

func TestVerifyReference(t *testing.T) {
	ref := "order-123|" + signReference("order-123")
	id, ok := VerifyReference(ref)
	assert.True(t, ok)
	assert.Equal(t, "order-123", id)

	_, ok = VerifyReference("order-123|bogus")
	assert.False(t, ok)
	_, ok = VerifyReference("noseparator")
	assert.False(t, ok)
}
