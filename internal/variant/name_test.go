package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"black", "Black"},
		{"  black  ", "Black"},
		{"BLACK", "Black"},
		{"xl", "XL"},
		{"s", "S"},
		{"xxl", "XXL"},
		{"dark_blue", "Dark-Blue"},
		{"dark-blue", "Dark-Blue"},
		{"heather_GREY", "Heather-Grey"},
		{"", ""},
		{"  ", ""},
		{"42", "42"},
		{"2XL ", "2XL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePart(tt.in), "%q", tt.in)
	}
}

func TestMergeParts(t *testing.T) {
	assert.Equal(t, []string{"Black", "L"}, MergeParts("black", "l"))
	assert.Equal(t, []string{"Black", "L"}, MergeParts("Black / l", "BLACK"))
	assert.Equal(t, []string{}, MergeParts("", "  "))
	assert.Equal(t, []string{"Dark-Blue", "XL"}, MergeParts("dark_blue/xl", "Xl"))
}

func TestFormatProductName(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"Hoodie", []string{"black"}, "Hoodie (Black)"},
		{"Hoodie (Black)", []string{"L"}, "Hoodie (Black / L)"},
		{"Hoodie (Black)", []string{"black"}, "Hoodie (Black)"},
		{"Hoodie", nil, "Hoodie"},
		{"Hoodie (Black / L)", []string{"l", "BLACK"}, "Hoodie (Black / L)"},
		{"Mug", []string{""}, "Mug"},
		{"Tee", []string{"heather_grey", "m"}, "Tee (Heather-Grey / M)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatProductName(tt.name, tt.parts...), "%q %v", tt.name, tt.parts)
	}
}
