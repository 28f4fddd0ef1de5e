package structpages

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Route describes one registered page.
type Route struct {
	ID     string
	Method string
	Path   string
	Title  string
	Page   string
}

// Routes parses page and lists the routes it would register, in registration order.
// Route groups without a handler are left out.
func Routes(route string, page any, args ...any) ([]Route, error) {
	pc, err := parsePageTree(route, page, args...)
	if err != nil {
		return nil, err
	}
	sp := New()
	var routes []Route
	var collect func(node *PageNode) error
	collect = func(node *PageNode) error {
		for _, child := range node.Children {
			if err := collect(child); err != nil {
				return err
			}
		}
		h, err := sp.buildHandler(node, pc)
		if err != nil {
			return err
		}
		if h == nil {
			return nil
		}
		routes = append(routes, Route{
			ID:     node.ID(),
			Method: node.Method,
			Path:   node.FullRoute(),
			Title:  node.Title,
			Page:   node.Name,
		})
		return nil
	}
	if err := collect(pc.root); err != nil {
		return nil, err
	}
	return routes, nil
}

// PrintRoutes renders Routes as an aligned table.
func PrintRoutes(route string, page any, args ...any) (string, error) {
	routes, err := Routes(route, page, args...)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tID\tPAGE\tTITLE")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Method, r.Path, r.ID, r.Page, r.Title)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
