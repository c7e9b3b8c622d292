package cart

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/storefront/internal/domain"
)

var hoodieID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func line(priceID, color, size string, qty int, price int64) domain.CartLine {
	return domain.CartLine{
		ProductID: hoodieID,
		PriceID:   priceID,
		Name:      "Hoodie",
		Price:     price,
		Currency:  "USD",
		Quantity:  qty,
		Color:     color,
		Size:      size,
	}
}

func TestAddMergesSameKey(t *testing.T) {
	s := NewStore()
	s.Add(line("price_1", "Black", "L", 1, 2500))
	s.Add(line("price_1", "black", " L ", 2, 2500))
	s.Add(line("price_1", "BLACK", "l", 3, 2500))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 6, lines[0].Quantity)
	assert.Equal(t, "Black", lines[0].Color)
}

func TestAddKeepsDistinctKeysInOrder(t *testing.T) {
	s := NewStore()
	s.Add(line("price_1", "Black", "L", 1, 2500))
	s.Add(line("price_1", "Black", "M", 1, 2500))
	s.Add(line("price_2", "Black", "L", 1, 3000))
	s.Add(line("price_1", "Black", "L", 1, 2500))

	lines := s.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "M", lines[1].Size)
	assert.Equal(t, "price_2", lines[2].PriceID)
}

func TestSetQuantityClampsAndPrunes(t *testing.T) {
	s := NewStore()
	l := line("price_1", "Black", "L", 2, 2500)
	s.Add(l)

	s.SetQuantity(l.Key(), 5)
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, 5, s.Lines()[0].Quantity)

	s.SetQuantity(l.Key(), -3)
	assert.Empty(t, s.Lines())

	// unknown key is a no-op
	s.SetQuantity("nope", 4)
	assert.Empty(t, s.Lines())
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Add(line("price_1", "Black", "L", 1, 2500))
	s.Clear()
	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Subtotal())
}

func TestSubtotal(t *testing.T) {
	assert.Zero(t, Subtotal(nil))

	s := FromLines([]domain.CartLine{
		line("price_1", "Black", "L", 2, 500),
		line("price_2", "Red", "M", 1, 300),
	})
	assert.Equal(t, int64(1300), s.Subtotal())
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, "USD", Currency(s.Lines()))
}

func TestFromLinesDropsNonPositiveAndMerges(t *testing.T) {
	s := FromLines([]domain.CartLine{
		line("price_1", "Black", "L", 0, 2500),
		line("price_1", "Black", "L", 2, 2500),
		line("price_1", "black", "l", 1, 2500),
	})
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestConcurrentAddsSumQuantities(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(line("price_1", "Black", "L", 1, 2500))
		}()
	}
	wg.Wait()
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 50, lines[0].Quantity)
}
