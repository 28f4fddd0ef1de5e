package structpages

import (
	"fmt"
	"iter"
	"path"
	"reflect"
	"strings"
)

// PageNode is a parsed page in the route tree.
type PageNode struct {
	Name          string
	Title         string
	Method        string
	Route         string
	Value         reflect.Value
	Props         map[string]reflect.Method
	Components    map[string]reflect.Method
	Config        *reflect.Method
	Middlewares   *reflect.Method
	ErrorBoundary *reflect.Method
	Parent        *PageNode
	Children      []*PageNode
}

// Pathless reports whether the node is a layout group without its own URL segment.
func (pn *PageNode) Pathless() bool {
	return strings.HasPrefix(pn.Route, "/_")
}

// FullRoute returns the URL pattern the node is registered at.
func (pn *PageNode) FullRoute() string {
	route := pn.Route
	if pn.Pathless() {
		route = "/"
	}
	if pn.Parent == nil {
		return route
	}
	return path.Join(pn.Parent.FullRoute(), route)
}

// ID returns the route identifier, which keeps pathless group segments and writes path
// parameters as $name, e.g. /_authenticated/clients/edit-client/$clientId.
func (pn *PageNode) ID() string {
	id := pn.Route
	if pn.Parent != nil {
		id = path.Join(pn.Parent.ID(), pn.Route)
	}
	segments, err := parseSegments(id)
	if err != nil {
		return id
	}
	var sb strings.Builder
	for _, seg := range segments {
		switch {
		case seg.name == "{$}":
			// exact-match marker, the trailing slash already says it
		case seg.param:
			sb.WriteString("$" + seg.name)
		default:
			sb.WriteString(seg.name)
		}
	}
	return sb.String()
}

// All iterates the node and all of its descendants, depth first.
func (pn *PageNode) All() iter.Seq[*PageNode] {
	return func(yield func(*PageNode) bool) {
		pn.walk(yield)
	}
}

func (pn *PageNode) walk(yield func(*PageNode) bool) bool {
	if !yield(pn) {
		return false
	}
	for _, child := range pn.Children {
		if !child.walk(yield) {
			return false
		}
	}
	return true
}

func (p PageNode) String() string {
	var sb strings.Builder
	sb.WriteString("PageItem{")
	sb.WriteString("\n  name: " + p.Name)
	sb.WriteString("\n  title: " + p.Title)
	sb.WriteString("\n  route: " + p.Route)
	sb.WriteString("\n  middlewares: " + formatMethod(p.Middlewares))
	if len(p.Components) == 0 {
		sb.WriteString("\n  components: []")
	}
	if p.Value.IsValid() && p.Value.Type().Implements(handlerType) {
		sb.WriteString("\n  is http.Handler: true")
	}
	for _, name := range sortedKeys(p.Components) {
		comp := p.Components[name]
		sb.WriteString("\n  component: " + name + " -> " + formatMethod(&comp))
	}
	for _, name := range sortedKeys(p.Props) {
		prop := p.Props[name]
		sb.WriteString("\n  props: " + name + " -> " + formatMethod(&prop))
	}
	if p.ErrorBoundary != nil {
		sb.WriteString("\n  error boundary: " + formatMethod(p.ErrorBoundary))
	}
	for i, child := range p.Children {
		fmt.Fprintf(&sb, "\n  child %d:", i+1)
		childStr := strings.TrimRight(child.String(), "\n")
		for _, line := range strings.SplitAfter(childStr, "\n") {
			sb.WriteString("  " + line)
		}
	}
	sb.WriteString("\n}")
	return sb.String()
}
