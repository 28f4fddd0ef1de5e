// Package chirouter adapts a chi router to structpages.Router.
package chirouter

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackielii/ventas/structpages"
)

type chiRouter struct {
	router chi.Router
}

var _ structpages.Router = (*chiRouter)(nil)

func NewChiRouter(r chi.Router) *chiRouter {
	return &chiRouter{router: r}
}

// HandleMethod registers handler on chi. chi matches "/fel/" exactly, so the ServeMux
// exact-match marker {$} is dropped.
func (r *chiRouter) HandleMethod(method, path string, handler http.Handler) {
	path = strings.ReplaceAll(path, "{$}", "")
	if method == "ALL" || method == "" {
		r.router.Handle(path, handler)
	} else {
		r.router.Method(method, path, handler)
	}
}

func (r *chiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
