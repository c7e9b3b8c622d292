package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/storefront/internal/domain"
)

func price(id, color, size string) domain.PricedVariant {
	meta := map[string]string{}
	if color != "" {
		meta[domain.MetaColor] = color
	}
	if size != "" {
		meta[domain.MetaSize] = size
	}
	amt := int64(2500)
	return domain.PricedVariant{ID: id, UnitAmount: &amt, Currency: "USD", Metadata: meta}
}

func TestSelectRequestedColor(t *testing.T) {
	prices := []domain.PricedVariant{
		price("p1", "Black", "S"),
		price("p2", "Black", "M"),
		price("p3", "Red", "M"),
	}
	sel := Select(prices, "red", "")
	assert.Equal(t, []string{"Black", "Red"}, sel.Colors)
	assert.Equal(t, "Red", sel.Color)
	assert.Equal(t, []string{"M"}, sel.Sizes)
	assert.Equal(t, "M", sel.Size)
	require.NotNil(t, sel.Price)
	assert.Equal(t, "p3", sel.Price.ID)
}

func TestSelectDefaultsToFirst(t *testing.T) {
	prices := []domain.PricedVariant{
		price("p1", "Black", "S"),
		price("p2", "Red", "M"),
	}
	sel := Select(prices, "", "")
	assert.Equal(t, "Black", sel.Color)
	assert.Equal(t, "S", sel.Size)
	require.NotNil(t, sel.Price)
	assert.Equal(t, "p1", sel.Price.ID)
}

func TestSelectSizeWithinColor(t *testing.T) {
	prices := []domain.PricedVariant{
		price("p1", "Black", "S"),
		price("p2", "Black", "M"),
		price("p3", "Red", "M"),
	}
	sel := Select(prices, "BLACK", "m")
	assert.Equal(t, "Black", sel.Color)
	assert.Equal(t, []string{"S", "M"}, sel.Sizes)
	assert.Equal(t, "M", sel.Size)
	require.NotNil(t, sel.Price)
	assert.Equal(t, "p2", sel.Price.ID)
}

func TestSelectUnknownSizeFallsBackToColor(t *testing.T) {
	prices := []domain.PricedVariant{
		price("p1", "Black", "S"),
		price("p2", "Red", "M"),
	}
	sel := Select(prices, "red", "xxl")
	assert.Equal(t, "Red", sel.Color)
	assert.Equal(t, "M", sel.Size)
	require.NotNil(t, sel.Price)
	assert.Equal(t, "p2", sel.Price.ID)
}

func TestSelectNoVariantMetadata(t *testing.T) {
	prices := []domain.PricedVariant{price("p1", "", "")}
	sel := Select(prices, "", "")
	assert.Empty(t, sel.Colors)
	assert.Empty(t, sel.Color)
	assert.Empty(t, sel.Sizes)
	require.NotNil(t, sel.Price)
	assert.Equal(t, "p1", sel.Price.ID)
}

func TestSelectEmptyInput(t *testing.T) {
	sel := Select(nil, "black", "l")
	assert.Empty(t, sel.Colors)
	assert.Empty(t, sel.Color)
	assert.Empty(t, sel.Sizes)
	assert.Empty(t, sel.Size)
	assert.Nil(t, sel.Price)
}

func TestSelectMembershipAndDeterminism(t *testing.T) {
	prices := []domain.PricedVariant{
		price("p1", "black", "s"),
		price("p2", "BLACK", "m"),
		price("p3", "Navy", "m"),
		price("p4", "navy", "l"),
	}
	for _, want := range []struct{ c, s string }{{"", ""}, {"navy", "m"}, {"BLACK", ""}, {"green", "xl"}} {
		a := Select(prices, want.c, want.s)
		b := Select(prices, want.c, want.s)
		assert.Equal(t, a, b)
		if len(a.Colors) > 0 {
			assert.Contains(t, a.Colors, a.Color)
		}
		if len(a.Sizes) > 0 {
			assert.Contains(t, a.Sizes, a.Size)
		}
	}
	// case-insensitive dedup keeps first-seen casing
	sel := Select(prices, "", "")
	assert.Equal(t, []string{"black", "Navy"}, sel.Colors)
}
