package variant

import (
	"strings"

	"github.com/merchkit/storefront/internal/domain"
)

// Selection is the resolved state of a product page for one price list and
// one requested color/size pair. Empty strings and a nil Price mean "no such
// thing exists"; an empty price list is a routine state, not an error.
type Selection struct {
	Colors []string
	Color  string
	Sizes  []string
	Size   string
	Price  *domain.PricedVariant
}

// Select picks one priced variant out of prices, honoring the requested
// color/size when present. Ordering of Colors/Sizes follows first occurrence
// in the input; dedup and all matching are case-insensitive on trimmed
// labels, first-seen casing is kept for display. Deterministic for identical
// input order.
func Select(prices []domain.PricedVariant, wantColor, wantSize string) Selection {
	sel := Selection{Colors: distinct(prices, func(p domain.PricedVariant) string { return p.Color() })}

	sel.Color = pick(sel.Colors, wantColor)

	var forColor []domain.PricedVariant
	for _, p := range prices {
		if labelEqual(p.Color(), sel.Color) {
			forColor = append(forColor, p)
		}
	}
	sel.Sizes = distinct(forColor, func(p domain.PricedVariant) string { return p.Size() })
	sel.Size = pick(sel.Sizes, wantSize)

	// exact color+size, then color only, then whatever comes first
	for i := range prices {
		if labelEqual(prices[i].Color(), sel.Color) && labelEqual(prices[i].Size(), sel.Size) {
			p := prices[i]
			sel.Price = &p
			return sel
		}
	}
	for i := range prices {
		if labelEqual(prices[i].Color(), sel.Color) {
			p := prices[i]
			sel.Price = &p
			return sel
		}
	}
	if len(prices) > 0 {
		p := prices[0]
		sel.Price = &p
	}
	return sel
}

func distinct(prices []domain.PricedVariant, label func(domain.PricedVariant) string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, p := range prices {
		v := strings.TrimSpace(label(p))
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func pick(options []string, want string) string {
	want = strings.TrimSpace(want)
	for _, o := range options {
		if strings.EqualFold(o, want) && want != "" {
			return o
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return ""
}

func labelEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
