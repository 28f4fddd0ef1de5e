package structpages

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"

	"github.com/a-h/templ"
	"github.com/angelofallars/htmx-go"
)

// MiddlewareFunc wraps the handler of a page. It receives the page node the handler serves.
type MiddlewareFunc func(http.Handler, *PageNode) http.Handler

// StructPages mounts page trees onto a Router.
type StructPages struct {
	onError           func(http.ResponseWriter, *http.Request, error)
	middlewares       []MiddlewareFunc
	defaultPageConfig func(r *http.Request) (string, error)
}

// Option configures StructPages.
type Option func(*StructPages)

// New creates a StructPages. Without options errors are answered with a plain 500.
func New(options ...Option) *StructPages {
	sp := &StructPages{
		onError: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
	for _, opt := range options {
		opt(sp)
	}
	return sp
}

// WithErrorHandler sets the function that answers requests whose page failed.
func WithErrorHandler(onError func(http.ResponseWriter, *http.Request, error)) Option {
	return func(sp *StructPages) {
		sp.onError = onError
	}
}

// WithMiddlewares adds middlewares applied to every page, outside of page middlewares.
func WithMiddlewares(middlewares ...MiddlewareFunc) Option {
	return func(sp *StructPages) {
		sp.middlewares = append(sp.middlewares, middlewares...)
	}
}

// WithDefaultPageConfig sets the component selection for pages without a PageConfig method.
func WithDefaultPageConfig(config func(r *http.Request) (string, error)) Option {
	return func(sp *StructPages) {
		sp.defaultPageConfig = config
	}
}

// MountPages parses page and registers every page of the tree on router under route.
// args are injected into page methods by type.
func (sp *StructPages) MountPages(router Router, page any, route, title string, args ...any) error {
	pc, err := parsePageTree(route, page, args...)
	if err != nil {
		return err
	}
	if title != "" {
		pc.root.Title = title
	}
	middlewares := []MiddlewareFunc{withPcCtx(pc), extractURLParams}
	middlewares = append(middlewares, sp.middlewares...)
	return sp.registerPageItem(router, pc, pc.root, middlewares)
}

func (sp *StructPages) registerPageItem(router Router, pc *parseContext, page *PageNode,
	inherited []MiddlewareFunc) error {
	if page.Route == "" {
		return fmt.Errorf("page item route is empty: %s", page.Name)
	}
	middlewares := slices.Clone(inherited)
	if page.Middlewares != nil {
		own, err := sp.pageMiddlewares(pc, page)
		if err != nil {
			return err
		}
		middlewares = append(middlewares, own...)
	}
	// nested pages have to be registered first to avoid conflicts with the parent route
	for _, child := range page.Children {
		if err := sp.registerPageItem(router, pc, child, middlewares); err != nil {
			return err
		}
	}
	handler, err := sp.buildHandler(page, pc)
	if err != nil {
		return err
	}
	if handler == nil {
		return nil
	}
	for _, mw := range slices.Backward(middlewares) {
		handler = mw(handler, page)
	}
	router.HandleMethod(page.Method, page.FullRoute(), handler)
	return nil
}

func (sp *StructPages) pageMiddlewares(pc *parseContext, page *PageNode) ([]MiddlewareFunc, error) {
	res, err := pc.callMethod(page, page.Middlewares)
	if err != nil {
		return nil, fmt.Errorf("error calling Middlewares method on %s: %w", page.Name, err)
	}
	res, err = extractError(res)
	if err != nil {
		return nil, fmt.Errorf("error calling Middlewares method on %s: %w", page.Name, err)
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("middlewares method on %s did not return single result", page.Name)
	}
	middlewares, ok := res[0].Interface().([]MiddlewareFunc)
	if !ok {
		return nil, fmt.Errorf("middlewares method on %s did not return []MiddlewareFunc", page.Name)
	}
	return middlewares, nil
}

func (sp *StructPages) buildHandler(page *PageNode, pc *parseContext) (http.Handler, error) {
	if h := sp.getHTTPHandler(page.Value); h != nil {
		return h, nil
	}
	if len(page.Components) == 0 && page.Config == nil {
		if len(page.Children) > 0 {
			return nil, nil // route group
		}
		return nil, fmt.Errorf("page item %s does not have a Page or PageConfig method", page.Name)
	}
	if _, ok := page.Components["Page"]; !ok && page.Config == nil && sp.defaultPageConfig == nil {
		return nil, fmt.Errorf("page item %s does not have a Page or PageConfig method", page.Name)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := sp.componentName(pc, page, r)
		if err != nil {
			sp.onError(w, r, err)
			return
		}
		comp, err := sp.buildComponent(pc, page, name, r)
		if err != nil {
			sp.onError(w, r, err)
			return
		}

		buf := getBuffer()
		defer releaseBuffer(buf)
		if err := Render(r.Context(), comp, buf); err != nil {
			sp.onError(w, r, err)
			return
		}
		if isHTMX(r) && name == "Page" {
			// a full page asked for by htmx replaces the whole body
			_ = htmx.NewResponse().Retarget("body").Write(w)
		}
		_, _ = buf.WriteTo(w)
	}), nil
}

// componentName resolves which component of page serves r.
func (sp *StructPages) componentName(pc *parseContext, page *PageNode, r *http.Request) (string, error) {
	var name string
	switch {
	case page.Config != nil:
		res, err := pc.callMethod(page, page.Config, reflect.ValueOf(r))
		if err != nil {
			return "", fmt.Errorf("error calling PageConfig method for %s: %w", page.Name, err)
		}
		res, err = extractError(res)
		if err != nil {
			return "", fmt.Errorf("error calling PageConfig method for %s: %w", page.Name, err)
		}
		if len(res) != 1 || res[0].Kind() != reflect.String {
			return "", fmt.Errorf("PageConfig method for %s must return a component name", page.Name)
		}
		name = res[0].String()
		if _, ok := page.Components[name]; !ok {
			return "", fmt.Errorf("PageConfig method for %s returned unknown component name: %s", page.Name, name)
		}
		return name, nil
	case sp.defaultPageConfig != nil:
		var err error
		name, err = sp.defaultPageConfig(r)
		if err != nil {
			return "", fmt.Errorf("default PageConfig for %s: %w", page.Name, err)
		}
		if _, ok := page.Components[name]; !ok {
			// htmx targets that are not components of this page fall back to the full page
			if _, ok := page.Components["Page"]; ok && isHTMX(r) {
				return "Page", nil
			}
			return "", fmt.Errorf("default PageConfig for %s returned unknown component name: %s", page.Name, name)
		}
		return name, nil
	default:
		return "Page", nil
	}
}

// buildComponent calls the props method of the component, if any, and the component method
// with the props results. Pages with an ErrorBoundary method get the component wrapped.
func (sp *StructPages) buildComponent(pc *parseContext, page *PageNode, name string,
	r *http.Request) (component, error) {
	method := page.Components[name]
	var args []reflect.Value
	props, ok := page.Props[name+"Props"]
	if !ok {
		props, ok = page.Props["Props"]
	}
	if ok {
		res, err := pc.callMethod(page, &props, reflect.ValueOf(r))
		if err != nil {
			return nil, fmt.Errorf("error calling props component %s.%s: %w", page.Name, name, err)
		}
		args, err = extractError(res)
		if err != nil {
			return nil, fmt.Errorf("error calling props component %s.%s: %w", page.Name, name, err)
		}
	}
	comp, err := pc.callComponentMethod(page, &method, args...)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, fmt.Errorf("component %s.%s is nil", page.Name, name)
	}
	if page.ErrorBoundary == nil {
		return comp, nil
	}
	boundary := page.ErrorBoundary
	return ErrorBoundary(comp, func(renderErr error) templ.Component {
		fallback, err := pc.callComponentMethod(page, boundary, reflect.ValueOf(renderErr))
		if err != nil {
			return errorComponent{errors.Join(renderErr, err)}
		}
		return fallback
	}), nil
}

func (sp *StructPages) getHTTPHandler(v reflect.Value) http.Handler {
	st, pt := v.Type(), v.Type()
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	} else {
		pt = reflect.PointerTo(st)
	}
	method, ok := st.MethodByName("ServeHTTP")
	if !ok || isPromotedMethod(&method) {
		method, ok = pt.MethodByName("ServeHTTP")
		if !ok || isPromotedMethod(&method) {
			return nil
		}
	}

	if v.Type().Implements(handlerType) {
		return v.Interface().(http.Handler)
	}
	if v.Type().Implements(errHandlerType) {
		h := v.Interface().(httpErrHandler)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := h.ServeHTTP(w, r); err != nil {
				sp.onError(w, r, err)
			}
		})
	}
	return nil
}
