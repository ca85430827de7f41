package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.com "))
	assert.Equal(t, "ravi.kumar@example.com", NormalizeEmail("Ravi.Kumar@Example.COM"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9876543210", "9876543210"},
		{"+919876543210", "9876543210"},
		{"09876543210", "9876543210"},
		{"98765 43210", "9876543210"},
		{"98765-43210", "9876543210"},
		{" +91 98765 43210 ", "9876543210"},
		// A bare 10-digit number starting with 0 keeps its leading zero
		{"0123456789", "0123456789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMobile(tt.in), "input %q", tt.in)
	}
}
