package structpages

import (
	"net/http"
)

// Router receives the handlers of MountPages and Hydrator.Register. Patterns are written
// in ServeMux syntax, so "/fel/{$}" matches only "/fel/" and "/clients/{id}" binds id.
// method is an HTTP method, or "ALL" when the page accepts any method.
//
// The app mounts on chi through the chirouter package.
type Router interface {
	HandleMethod(method, pattern string, handler http.Handler)
}

// ServeMux registers pages on a standard library mux. It needs no pattern translation and
// is what the package tests mount on.
type ServeMux struct {
	mux *http.ServeMux
}

var _ Router = (*ServeMux)(nil)

// NewRouter wraps mux, or a fresh mux when mux is nil.
func NewRouter(mux *http.ServeMux) *ServeMux {
	if mux == nil {
		mux = http.NewServeMux()
	}
	return &ServeMux{mux: mux}
}

// HandleMethod registers handler for "METHOD pattern", or for pattern alone when any
// method is accepted.
func (m *ServeMux) HandleMethod(method, pattern string, handler http.Handler) {
	m.mux.Handle(muxPattern(method, pattern), handler)
}

func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

func muxPattern(method, pattern string) string {
	if method == "" || method == methodAll {
		return pattern
	}
	return method + " " + pattern
}
