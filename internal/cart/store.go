// Package cart holds a single session's cart lines and computes totals.
// A Store belongs to exactly one session; handlers rebuild it from the
// signed cart cookie, mutate it, and write it back.
package cart

import (
	"sync"

	"github.com/merchkit/storefront/internal/domain"
)

type Store struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

func NewStore() *Store { return &Store{} }

// FromLines builds a store from persisted lines, applying the merge rule so
// a tampered or stale payload cannot introduce duplicate keys.
func FromLines(lines []domain.CartLine) *Store {
	s := &Store{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		s.Add(l)
	}
	return s
}

// Add merges the line into an existing one with the same key, otherwise
// appends it, preserving insertion order. Callers supply positive quantities.
func (s *Store) Add(line domain.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := line.Key()
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity += line.Quantity
			return
		}
	}
	s.lines = append(s.lines, line)
}

// SetQuantity sets the quantity of the line with the given key, clamped at
// zero. A line at zero is pruned. Unknown keys are ignored.
func (s *Store) SetQuantity(key string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty < 0 {
		qty = 0
	}
	for i := range s.lines {
		if s.lines[i].Key() != key {
			continue
		}
		if qty == 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		} else {
			s.lines[i].Quantity = qty
		}
		return
	}
}

func (s *Store) Remove(key string) {
	s.SetQuantity(key, 0)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Lines returns a copy in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Subtotal() int64 {
	return Subtotal(s.Lines())
}

// Subtotal sums price×quantity over the lines, in minor units. All lines are
// assumed to share one currency; mixed-currency carts are summed as-is and
// reported in the first line's currency, no conversion is attempted.
func Subtotal(lines []domain.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// Currency reports the currency the subtotal is denominated in: the first
// line's, or "" for an empty cart.
func Currency(lines []domain.CartLine) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0].Currency
}
