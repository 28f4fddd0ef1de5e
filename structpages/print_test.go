package structpages

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoutes(t *testing.T) {
	routes, err := Routes("/", &nodeTestRoot{})
	if err != nil {
		t.Fatalf("Routes failed: %v", err)
	}
	want := []Route{
		{
			ID:     "/_authenticated/clients/edit-client/$clientId",
			Method: "ALL",
			Path:   "/clients/edit-client/{clientId}",
			Title:  "Edit client",
			Page:   "edit",
		},
		{
			ID:     "/_authenticated/fel/",
			Method: "ALL",
			Path:   "/fel/{$}",
			Title:  "Dashboard",
			Page:   "dashboard",
		},
	}
	if diff := cmp.Diff(want, routes); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutesError(t *testing.T) {
	type pages struct {
		noHandlerPage `route:"/nothing"`
	}
	if _, err := Routes("/", &pages{}); err == nil {
		t.Error("expected error for page without handler")
	}
}

func TestPrintRoutes(t *testing.T) {
	out, err := PrintRoutes("/", &nodeTestRoot{})
	if err != nil {
		t.Fatalf("PrintRoutes failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 routes, got:\n%s", out)
	}
	if fields := strings.Fields(lines[0]); !cmp.Equal(fields, []string{"METHOD", "PATH", "ID", "PAGE", "TITLE"}) {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "ALL") || !strings.Contains(lines[1], "/clients/edit-client/{clientId}") ||
		!strings.HasSuffix(lines[1], "Edit client") {
		t.Errorf("unexpected row %q", lines[1])
	}
	// columns are aligned
	if strings.Index(lines[1], "/clients") != strings.Index(lines[0], "PATH") {
		t.Errorf("PATH column not aligned:\n%s", out)
	}
}
