// Package variant resolves and labels color/size variants out of the
// provider's flat price list.
package variant

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizePart canonicalizes one variant label for display:
// "dark_blue" -> "Dark-Blue", "xl" -> "XL", "black" -> "Black".
// Anything that is neither delimited nor purely alphabetic passes through
// trimmed but otherwise untouched.
func NormalizePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.ContainsAny(s, "-_") {
		tokens := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
		for i, t := range tokens {
			tokens[i] = capitalize(t)
		}
		return strings.Join(tokens, "-")
	}
	if isAlpha(s) {
		// short alphabetic labels are sizes/acronyms: s, m, xl, xxl
		if utf8.RuneCountInString(s) <= 3 {
			return strings.ToUpper(s)
		}
		return capitalize(s)
	}
	return s
}

// MergeParts flattens variant labels into a display list: "/"-joined
// compounds are split apart, every piece normalized, duplicates dropped
// case-insensitively keeping the first casing and order seen.
func MergeParts(parts ...string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, raw := range parts {
		for _, piece := range strings.Split(raw, "/") {
			n := NormalizePart(piece)
			if n == "" {
				continue
			}
			k := strings.ToLower(n)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// FormatProductName appends the variant labels in a single parenthetical:
// FormatProductName("Hoodie", "black") -> "Hoodie (Black)". A name that
// already ends in a parenthesized group has the new parts merged into it,
// so FormatProductName("Hoodie (Black)", "L") -> "Hoodie (Black / L)".
func FormatProductName(name string, parts ...string) string {
	base := strings.TrimSpace(name)
	existing := []string{}
	if strings.HasSuffix(base, ")") {
		if i := strings.LastIndex(base, "("); i >= 0 {
			existing = strings.Split(base[i+1:len(base)-1], "/")
			base = strings.TrimSpace(base[:i])
		}
	}
	merged := MergeParts(append(existing, parts...)...)
	if len(merged) == 0 {
		return base
	}
	return base + " (" + strings.Join(merged, " / ") + ")"
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
