package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies helper keys stay stable.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Path", KeyPath, "/fel/", Path("/fel/")},
		{"Route", KeyRoute, "/_authenticated/fel/", Route("/_authenticated/fel/")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"GuardID", KeyGuardID, "g1", GuardID("g1")},
		{"Category", KeyCategory, "validation", Category("validation")},
		{"Status", KeyStatus, "404", Status(404)},
		{"ClientID", KeyClientID, "7", ClientID(7)},
		{"InvoiceID", KeyInvoiceID, "9", InvoiceID(9)},
	}
	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestDuration(t *testing.T) {
	attr := Duration(1500 * time.Microsecond)
	if attr.Key != KeyDurationMS {
		t.Fatalf("Duration key mismatch: %s", attr.Key)
	}
	if got := attr.Value.Float64(); got != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", got)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	if attr := Error(nil); attr.Key != KeyError || attr.Value.String() != "" {
		t.Fatalf("unexpected attr for nil error: %v", attr)
	}
	if attr := Error(errors.New("boom")); attr.Value.String() != "boom" {
		t.Fatalf("expected 'boom', got %s", attr.Value.String())
	}
}
