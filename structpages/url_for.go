package structpages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackielii/ctxkey"
)

var (
	pcCtx        = ctxkey.New[*parseContext]("structpages.parseContext", nil)
	urlParamsCtx = ctxkey.New[map[string]string]("structpages.urlParams", nil)
)

func withPcCtx(pc *parseContext) MiddlewareFunc {
	return func(next http.Handler, node *PageNode) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := pcCtx.WithValue(r.Context(), pc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractURLParams stores the matched path parameters of the page route in the context,
// so URLFor can reuse them when linking to sibling pages.
func extractURLParams(next http.Handler, node *PageNode) http.Handler {
	segments, _ := parseSegments(node.FullRoute())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := make(map[string]string)
		for _, seg := range segments {
			if !seg.param {
				continue
			}
			if value := r.PathValue(seg.name); value != "" {
				params[seg.name] = value
			}
		}
		if len(params) > 0 {
			r = r.WithContext(urlParamsCtx.WithValue(r.Context(), params))
		}
		next.ServeHTTP(w, r)
	})
}

// URLFor returns the URL for a given page type. If args is provided, it'll replace
// the path segments. Supported format is similar to http.ServeMux
//
// If multiple page type matches are found, the first one is returned.
// In such situation, use a func(*PageNode) bool as page argument to match a specific page.
//
// Additionally, you can pass []any to page to join multiple path segments together.
// Strings will be joined as is. Example:
//
//	URLFor(ctx, []any{editClientPage{}, "?tab={tab}"}, "clientId", 7, "tab", "notes")
//
// Arguments are either positional values, key/value pairs, or a single map[string]any.
// Parameters of the current request fill whatever the arguments leave out.
func URLFor(ctx context.Context, page any, args ...any) (string, error) {
	pc := pcCtx.Value(ctx)
	if pc == nil {
		return "", errors.New("parse context not found in context")
	}

	var pattern string
	parts, ok := page.([]any)
	if !ok {
		parts = []any{page}
	}
	for _, part := range parts {
		if s, ok := part.(string); ok {
			pattern += s
			continue
		}
		p, err := pc.urlFor(part)
		if err != nil {
			return "", err
		}
		pattern += p
	}
	path, err := formatPathSegments(ctx, pattern, args...)
	if err != nil {
		return "", fmt.Errorf("urlfor: %w", err)
	}
	return path, nil
}

// formatPathSegments fills the {name} segments of pattern.
func formatPathSegments(ctx context.Context, pattern string, args ...any) (string, error) {
	segments, err := parseSegments(pattern)
	if err != nil {
		return pattern, fmt.Errorf("pattern %s: %w", pattern, err)
	}
	values := make(map[string]string)
	for name, value := range urlParamsCtx.Value(ctx) {
		values[name] = value
	}

	var params []string
	for _, seg := range segments {
		if seg.param {
			params = append(params, seg.name)
		}
	}

	switch named := namedArgs(params, args); {
	case named != nil:
		for name, value := range named {
			values[name] = fmt.Sprint(value)
		}
	case len(args) == len(params):
		for i, name := range params {
			values[name] = fmt.Sprint(args[i])
		}
	default:
		// positional args fill the params the request did not provide
		next := 0
		for _, name := range params {
			if _, ok := values[name]; ok {
				continue
			}
			if next >= len(args) {
				return pattern, fmt.Errorf("pattern %s: not enough arguments provided, args: %v", pattern, args)
			}
			values[name] = fmt.Sprint(args[next])
			next++
		}
	}

	var sb strings.Builder
	for _, seg := range segments {
		switch {
		case seg.name == "{$}":
		case seg.param:
			value, ok := values[seg.name]
			if !ok || value == "" {
				return pattern, fmt.Errorf("pattern %s: argument %s not found in provided args: %v", pattern, seg.name, args)
			}
			sb.WriteString(value)
		default:
			sb.WriteString(seg.name)
		}
	}
	return sb.String(), nil
}

// namedArgs returns args as a name->value map when they are a single map or key/value pairs
// naming at least one of params.
func namedArgs(params []string, args []any) map[string]any {
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			return m
		}
	}
	if len(args) < 2 || len(args)%2 != 0 {
		return nil
	}
	m := make(map[string]any, len(args)/2)
	matched := false
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil
		}
		for _, p := range params {
			if p == key {
				matched = true
			}
		}
		m[key] = args[i+1]
	}
	if !matched {
		return nil
	}
	return m
}

type segment struct {
	name  string
	param bool
}

func parseSegments(pattern string) (segments []segment, err error) {
	rest := pattern
	for rest != "" {
		start := strings.Index(rest, "{")
		if start == -1 {
			segments = append(segments, segment{name: rest})
			break
		}
		if start > 0 {
			segments = append(segments, segment{name: rest[:start]})
		}
		rest = rest[start+1:] // move over the '{'
		end := strings.Index(rest, "}")
		if end == -1 {
			return nil, fmt.Errorf("pattern %s: unmatched {", pattern)
		}
		name := rest[:end]
		rest = rest[end+1:]
		if name == "$" {
			segments = append(segments, segment{name: "{$}"})
			continue
		}
		segments = append(segments, segment{name: strings.TrimSuffix(name, "..."), param: true})
	}
	return segments, nil
}
