package app

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	apperrors "github.com/jackielii/ventas/internal/errors"
)

// moneyFormatter formats centavo amounts as quetzales for a locale.
type moneyFormatter struct {
	printer *message.Printer
}

func newMoneyFormatter(locale string) moneyFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return moneyFormatter{printer: message.NewPrinter(tag)}
}

// Format returns e.g. "Q1,234.50".
func (m moneyFormatter) Format(centavos int64) string {
	sign := ""
	if centavos < 0 {
		sign = "-"
		centavos = -centavos
	}
	return sign + "Q" + m.printer.Sprint(number.Decimal(float64(centavos)/100, number.Scale(2)))
}

// Number formats an integer with the locale's grouping.
func (m moneyFormatter) Number(n int64) string {
	return m.printer.Sprint(number.Decimal(n))
}

// parseAmount reads a quetzal amount such as "12.50", "Q 1,200" or "7" into centavos.
func parseAmount(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Q"), "q")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, apperrors.ValidationFailed(field, "Amount is required")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.ValidationFailed(field, fmt.Sprintf("%q is not a valid amount", s))
	}
	return int64(math.Round(f * 100)), nil
}

// parseQuantity reads a whole positive quantity.
func parseQuantity(field, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.ValidationFailed(field, "Quantity must be a positive whole number")
	}
	return n, nil
}

// formatAmountInput is the inverse of parseAmount for prefilled inputs.
func formatAmountInput(centavos int64) string {
	return strconv.FormatFloat(float64(centavos)/100, 'f', 2, 64)
}

// isoDate is the server-side date used until the browser formats it locally.
func isoDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// markdownRenderer turns client notes into sanitized HTML.
type markdownRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

func (m *markdownRenderer) Render(src string) (trustedHTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return trustedHTML(m.policy.SanitizeBytes(buf.Bytes())), nil
}
