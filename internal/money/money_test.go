package money

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimals(t *testing.T) {
	tests := []struct {
		code    string
		want    int
		wantErr bool
	}{
		{"USD", 2, false},
		{"eur", 2, false},
		{" ars ", 2, false},
		{"JPY", 0, false},
		{"KRW", 0, false},
		{"BHD", 3, false},
		{"KWD", 3, false},
		{"", 0, true},
		{"US", 0, true},
		{"DOLLARS", 0, true},
	}
	for _, tt := range tests {
		got, err := Decimals(tt.code)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidCurrency, tt.code)
			continue
		}
		require.NoError(t, err, tt.code)
		assert.Equal(t, tt.want, got, tt.code)
	}
}

func TestToDisplayAmount(t *testing.T) {
	d, err := ToDisplayAmount(1234, "USD")
	require.NoError(t, err)
	assert.Equal(t, "12.34", d.String())

	d, err = ToDisplayAmount(1234, "JPY")
	require.NoError(t, err)
	assert.Equal(t, "1234", d.String())

	d, err = ToDisplayAmount(1234, "BHD")
	require.NoError(t, err)
	assert.Equal(t, "1.234", d.String())

	_, err = ToDisplayAmount(100, "XX")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestToMinorUnitsRounding(t *testing.T) {
	// half away from zero at the currency's decimal count
	tests := []struct {
		amount string
		code   string
		want   int64
	}{
		{"12.345", "USD", 1235},
		{"-12.345", "USD", -1235},
		{"12.344", "USD", 1234},
		{"0.5", "JPY", 1},
		{"1.2345", "BHD", 1235},
	}
	for _, tt := range tests {
		a := decimal.RequireFromString(tt.amount)
		got, err := ToMinorUnits(a, tt.code)
		require.NoError(t, err, tt.amount)
		assert.Equal(t, tt.want, got, "%s %s", tt.amount, tt.code)
	}
}

func TestRoundTripLaw(t *testing.T) {
	codes := []string{"USD", "EUR", "JPY", "KRW", "BHD", "KWD"}
	amounts := []int64{0, 1, -1, 99, 100, 12345, -98765, 1000000}
	for _, code := range codes {
		for _, m := range amounts {
			d, err := ToDisplayAmount(m, code)
			require.NoError(t, err)
			back, err := ToMinorUnits(d, code)
			require.NoError(t, err)
			assert.Equal(t, m, back, "%d %s", m, code)
		}
	}
}

func TestAsMinorUnits(t *testing.T) {
	v, err := AsMinorUnits(500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	_, err = AsMinorUnits(12.5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormat(t *testing.T) {
	s, err := Format(1234, "USD", "en")
	require.NoError(t, err)
	assert.True(t, strings.Contains(s, "12.34"), s)

	_, err = Format(1234, "NOPE", "en")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	// unknown locale falls back instead of failing the render
	s, err = Format(1234, "USD", "zz-unknown")
	require.NoError(t, err)
	assert.NotEmpty(t, s)
}
