// Package money converts between the payment provider's integer minor-unit
// amounts and decimal display amounts, and formats them per locale.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidAmount   = errors.New("amount is not an integer minor-unit value")
)

// Currencies the provider bills without decimals or with three decimals.
// Everything else uses two.
var zeroDecimal = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var threeDecimal = map[string]struct{}{
	"BHD": {}, "JOD": {}, "KWD": {}, "OMR": {}, "TND": {},
}

// Decimals reports how many fractional digits a currency carries.
func Decimals(code string) (int, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return 0, ErrInvalidCurrency
	}
	if _, ok := zeroDecimal[c]; ok {
		return 0, nil
	}
	if _, ok := threeDecimal[c]; ok {
		return 3, nil
	}
	return 2, nil
}

// ToDisplayAmount converts an integer minor-unit amount into the decimal
// amount a human reads (1234 USD-cents -> 12.34).
func ToDisplayAmount(minor int64, code string) (decimal.Decimal, error) {
	d, err := Decimals(code)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(minor, -int32(d)), nil
}

// ToMinorUnits is the inverse of ToDisplayAmount. The amount is rounded half
// away from zero at the currency's decimal count before shifting.
func ToMinorUnits(amount decimal.Decimal, code string) (int64, error) {
	d, err := Decimals(code)
	if err != nil {
		return 0, err
	}
	return amount.Round(int32(d)).Shift(int32(d)).IntPart(), nil
}

// AsMinorUnits guards amounts decoded from JSON: the provider sends minor
// units as numbers, and a fractional value here means someone upstream
// already converted it.
func AsMinorUnits(v float64) (int64, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidAmount
	}
	return int64(v), nil
}

// Format renders a minor-unit amount as a locale-aware currency string.
func Format(minor int64, code, locale string) (string, error) {
	amt, err := ToDisplayAmount(minor, code)
	if err != nil {
		return "", err
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", ErrInvalidCurrency
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	f, _ := amt.Float64()
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(f))), nil
}
