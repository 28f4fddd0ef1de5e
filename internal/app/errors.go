package app

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/angelofallars/htmx-go"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/jackielii/ventas/internal/errors"
	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/structpages"
)

// handleError answers a failed page request. htmx requests get an alert swapped into the
// layout's alert slot, other requests a standalone error page.
func (a *App) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	a.logger.LogAttrs(r.Context(), level, "page failed",
		logfields.Method(r.Method),
		logfields.Path(r.URL.Path),
		logfields.Status(status),
		logfields.Category(string(apperrors.GetCategory(err))),
		logfields.RequestID(middleware.GetReqID(r.Context())),
		logfields.Error(err),
	)

	msg := apperrors.PublicMessage(err)
	if htmx.IsHTMX(r) {
		a.renderResponse(w, r, htmx.NewResponse().Retarget("#alerts").Reswap(htmx.SwapInnerHTML).StatusCode(status),
			alert("error", msg))
		return
	}
	a.render(w, r, status, errorPage(a.name, status, msg))
}

// render writes c with status. The component is buffered so a failure can still become a
// clean 500.
func (a *App) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	a.renderResponse(w, r, htmx.NewResponse().StatusCode(status), c)
}

// renderResponse writes the htmx response headers and status, then c.
func (a *App) renderResponse(w http.ResponseWriter, r *http.Request, res htmx.Response, c templ.Component) {
	var buf bytes.Buffer
	if err := structpages.Render(r.Context(), c, &buf); err != nil {
		a.logger.LogAttrs(r.Context(), slog.LevelError, "render failed",
			logfields.Path(r.URL.Path), logfields.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := res.Write(w); err != nil {
		a.logger.LogAttrs(r.Context(), slog.LevelError, "write htmx headers", logfields.Error(err))
	}
	_, _ = buf.WriteTo(w)
}

func alert(kind, msg string) templ.Component {
	return component(func(h *htmlWriter) {
		h.printf(`<div class="alert alert-%s" role="alert">%s</div>`, kind, msg)
	})
}

func errorPage(appName string, status int, msg string) templ.Component {
	return component(func(h *htmlWriter) {
		h.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%d · %s</title></head>`,
			status, appName)
		h.printf(`<body><main class="error-page"><h1>%d %s</h1>`, status, http.StatusText(status))
		h.render(alert("error", msg))
		h.raw(`<p><a href="/">Back to the dashboard</a></p></main></body></html>`)
	})
}
