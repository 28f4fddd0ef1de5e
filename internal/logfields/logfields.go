package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by the server, the page framework hooks and the store.
const (
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyRoute      = "route"
	KeyRequestID  = "request_id"
	KeyGuardID    = "guard_id"
	KeyClientID   = "client_id"
	KeyInvoiceID  = "invoice_id"
	KeyCategory   = "category"
	KeyError      = "error"
)

func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Route(id string) slog.Attr       { return slog.String(KeyRoute, id) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func GuardID(id string) slog.Attr     { return slog.String(KeyGuardID, id) }
func ClientID(id int64) slog.Attr     { return slog.Int64(KeyClientID, id) }
func InvoiceID(id int64) slog.Attr    { return slog.Int64(KeyInvoiceID, id) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration reports d in milliseconds under KeyDurationMS.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
