package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackielii/ctxkey"
	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/structpages"
)

// requestLogger logs every request once it has been served.
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		a.logger.LogAttrs(r.Context(), level, "request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(status),
			logfields.Duration(a.now().Sub(start)),
			logfields.RequestID(middleware.GetReqID(r.Context())),
		)
	})
}

// observe records the page request under its route ID.
func (a *App) observe(next http.Handler, node *structpages.PageNode) http.Handler {
	route := node.ID()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.recorder.ObserveRequest(route, r.Method, status, a.now().Sub(start))
	})
}

var requestPath = ctxkey.New[string]("app.requestPath", "")

// withRequestPath stores the request path for the layout's navigation.
func withRequestPath(next http.Handler, _ *structpages.PageNode) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestPath.WithValue(r.Context(), r.URL.Path)))
	})
}

// noStore keeps back-office pages out of shared caches and tells caches that htmx
// fragments differ from full pages.
func noStore(next http.Handler, _ *structpages.PageNode) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r)
	})
}

// wrapMiddleware converts a standard middleware to a structpages.MiddlewareFunc.
func wrapMiddleware(mw func(http.Handler) http.Handler) structpages.MiddlewareFunc {
	return func(next http.Handler, _ *structpages.PageNode) http.Handler {
		return mw(next)
	}
}

