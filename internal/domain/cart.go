package domain

import (
	"strings"

	"github.com/google/uuid"
)

// CartLine is one row of a session cart. Amounts are integer minor units in
// the line's currency, the same representation the payment provider uses.
type CartLine struct {
	ProductID uuid.UUID `json:"id"`
	PriceID   string    `json:"price_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Price     int64     `json:"price"`
	Currency  string    `json:"currency"`
	Quantity  int       `json:"quantity"`
	Color     string    `json:"color,omitempty"`
	Size      string    `json:"size,omitempty"`
}

// Key is the merge identity of a line: product, price and the normalized
// variant attributes. Two lines with equal keys never coexist in a cart.
func (l CartLine) Key() string {
	return strings.Join([]string{
		strings.ToLower(l.ProductID.String()),
		strings.ToLower(strings.TrimSpace(l.PriceID)),
		strings.ToLower(strings.TrimSpace(l.Color)),
		strings.ToLower(strings.TrimSpace(l.Size)),
	}, "|")
}

func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}
