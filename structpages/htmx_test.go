package structpages

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_mixedCase(t *testing.T) {
	tests := []struct {
		name string // description of this test case
		s    string
		want string
	}{
		{name: "Empty string", s: "", want: ""},
		{name: "Single word", s: "content", want: "Content"},
		{name: "Hyphenated words", s: "invoice-lines", want: "InvoiceLines"},
		{name: "Mixed case with hyphens", s: "invoice-Lines", want: "InvoiceLines"},
		{name: "Multiple hyphenated words", s: "client-notes-preview", want: "ClientNotesPreview"},
		{name: "Double hyphen", s: "stock--list", want: "StockList"},
		{name: "No hyphens, just spaces", s: "invoice lines", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mixedCase(tt.s)
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("mixedCase() mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestHTMXPageConfig(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"not htmx", nil, "Page"},
		{"not htmx with target", map[string]string{"HX-Target": "content"}, "Page"},
		{"htmx without target", map[string]string{"HX-Request": "true"}, "Page"},
		{"htmx with target", map[string]string{"HX-Request": "true", "HX-Target": "client-form"}, "ClientForm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			got, err := HTMXPageConfig(req)
			if err != nil {
				t.Fatalf("HTMXPageConfig() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HTMXPageConfig() = %q, want %q", got, tt.want)
			}
		})
	}
}
