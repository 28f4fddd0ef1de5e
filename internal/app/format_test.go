package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jackielii/ventas/internal/errors"
)

func TestMoneyFormatter(t *testing.T) {
	m := newMoneyFormatter("en")
	assert.Equal(t, "Q1,234.50", m.Format(123450))
	assert.Equal(t, "Q0.05", m.Format(5))
	assert.Equal(t, "-Q3.00", m.Format(-300))
	assert.Equal(t, "12,000", m.Number(12000))
	// unknown locales fall back instead of failing
	assert.NotEmpty(t, newMoneyFormatter("not a locale").Format(100))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.50", 1250},
		{"Q 1,200", 120000},
		{"7", 700},
		{"0.125", 13},
		{" q3.1 ", 310},
	}
	for _, tt := range tests {
		got, err := parseAmount("price", tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, in := range []string{"", "abc", "NaN", "Q"} {
		_, err := parseAmount("price", in)
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation), "input %q: %v", in, err)
	}
	assert.Equal(t, "12.50", formatAmountInput(1250))
}

func TestParseQuantity(t *testing.T) {
	n, err := parseQuantity("quantity", " 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	for _, in := range []string{"0", "-1", "1.5", ""} {
		_, err := parseQuantity("quantity", in)
		assert.Error(t, err, in)
	}
}

func TestMarkdownRenderer(t *testing.T) {
	md := newMarkdownRenderer()
	out, err := md.Render("Recibe **lunes**\n\n<script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<strong>lunes</strong>")
	assert.NotContains(t, string(out), "<script>")
}

func TestIsoDate(t *testing.T) {
	loc := time.FixedZone("GT", -6*60*60)
	assert.Equal(t, "2026-10-18", isoDate(time.Date(2026, 10, 17, 20, 0, 0, 0, loc)))
}
