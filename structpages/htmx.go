package structpages

import (
	"net/http"
	"strings"

	"github.com/angelofallars/htmx-go"
)

// HTMXPageConfig is a page configuration function designed for HTMX integration.
// It automatically selects the appropriate component method based on the HX-Target header.
//
// When an HTMX request is detected (via HX-Request header), it converts the HX-Target
// value to a method name. For example:
//   - HX-Target: "content" -> calls Content() method
//   - HX-Target: "invoice-lines" -> calls InvoiceLines() method
//   - No HX-Target or non-HTMX request -> calls Page() method
//
// Enable it for all pages with WithDefaultPageConfig:
//
//	sp := structpages.New(
//	    structpages.WithDefaultPageConfig(structpages.HTMXPageConfig),
//	)
func HTMXPageConfig(r *http.Request) (string, error) {
	if isHTMX(r) {
		if hxTarget, ok := htmx.GetTarget(r); ok && hxTarget != "" {
			return mixedCase(hxTarget), nil
		}
	}
	return "Page", nil
}

// mixedCase turns an element id like "invoice-lines" into a method name like "InvoiceLines".
// Ids with spaces are not valid hx-targets and map to "".
func mixedCase(s string) string {
	if s == "" || strings.Contains(s, " ") {
		return ""
	}
	parts := strings.Split(s, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "")
}

func isHTMX(r *http.Request) bool {
	return htmx.IsHTMX(r)
}
