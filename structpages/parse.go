package structpages

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

type parseContext struct {
	root *PageNode
	args argRegistry
}

func parsePageTree(route string, page any, args ...any) (*parseContext, error) {
	pc := &parseContext{args: make(argRegistry)}
	for _, v := range args {
		if err := pc.args.addArg(v); err != nil {
			return nil, fmt.Errorf("error adding argument to registry: %w", err)
		}
	}
	topNode, err := pc.parsePageTree(route, "", page)
	if err != nil {
		return nil, err
	}
	pc.root = topNode
	return pc, nil
}

func (p *parseContext) parsePageTree(route, fieldName string, page any) (*PageNode, error) {
	st := reflect.TypeOf(page) // struct type
	pt := reflect.TypeOf(page) // pointer type
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	} else {
		pt = reflect.PointerTo(st)
	}
	if st.Kind() != reflect.Struct {
		return nil, fmt.Errorf("page %s must be a struct, got %s", cmp.Or(fieldName, st.String()), st.Kind())
	}
	item := &PageNode{Value: reflect.ValueOf(page), Name: cmp.Or(fieldName, st.Name())}
	item.Method, item.Route, item.Title = parseTag(route)

	for i := range st.NumField() {
		field := st.Field(i)
		route, ok := field.Tag.Lookup("route")
		if !ok {
			continue
		}
		typ := field.Type
		if typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}
		childPage := reflect.New(typ)
		childItem, err := p.parsePageTree(route, field.Name, childPage.Interface())
		if err != nil {
			return nil, err
		}
		childItem.Parent = item
		item.Children = append(item.Children, childItem)
	}

	var initMethod *reflect.Method
	for _, t := range []reflect.Type{st, pt} {
		for i := range t.NumMethod() {
			method := t.Method(i)
			if isPromotedMethod(&method) {
				continue
			}
			switch method.Name {
			case "PageConfig":
				item.Config = &method
				continue
			case "Middlewares":
				item.Middlewares = &method
				continue
			case "ErrorBoundary":
				item.ErrorBoundary = &method
				continue
			case "Init":
				initMethod = &method
				continue
			}
			if isComponent(&method) {
				if item.Components == nil {
					item.Components = make(map[string]reflect.Method)
				}
				item.Components[method.Name] = method
				continue
			}
			if strings.HasSuffix(method.Name, "Props") {
				if item.Props == nil {
					item.Props = make(map[string]reflect.Method)
				}
				item.Props[method.Name] = method
			}
		}
	}
	if initMethod != nil {
		res, err := p.callMethod(item, initMethod)
		if err != nil {
			return nil, fmt.Errorf("error calling Init method on %s: %w", item.Name, err)
		}
		if _, err := extractError(res); err != nil {
			return nil, fmt.Errorf("error calling Init method on %s: %w", item.Name, err)
		}
	}

	return item, nil
}

// callMethod calls the method with receiver pn.Value. Each parameter is filled from args when
// the next provided value is assignable to it, otherwise from the current *PageNode or the
// registry of injected values.
func (p *parseContext) callMethod(pn *PageNode, method *reflect.Method,
	args ...reflect.Value) ([]reflect.Value, error) {
	v := pn.Value
	receiver := method.Type.In(0)
	// make sure receiver and value match, if method takes a pointer, convert value to pointer
	if receiver.Kind() == reflect.Ptr && v.Kind() != reflect.Ptr {
		if !v.CanAddr() {
			ptr := reflect.New(v.Type())
			ptr.Elem().Set(v)
			v = ptr
		} else {
			v = v.Addr()
		}
	}
	if receiver.Kind() != reflect.Ptr && v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if receiver.Kind() != v.Kind() {
		return nil, fmt.Errorf("method %s receiver type mismatch: expected %s, got %s",
			formatMethod(method), receiver.String(), v.Type().String())
	}
	in := make([]reflect.Value, method.Type.NumIn())
	in[0] = v
	pnv := reflect.ValueOf(pn)
	next := 0
	for i := 1; i < len(in); i++ {
		argType := method.Type.In(i)
		switch {
		case next < len(args) && args[next].IsValid() && args[next].Type().AssignableTo(argType):
			in[i] = args[next]
			next++
		case argType == pnv.Type():
			in[i] = pnv
		case argType == pnv.Type().Elem():
			in[i] = pnv.Elem()
		default:
			val, ok := p.args.getArg(argType)
			if !ok {
				return nil, fmt.Errorf("method %s requires argument of type %s, but not found",
					formatMethod(method), argType.String())
			}
			in[i] = val
		}
	}
	return method.Func.Call(in), nil
}

func (p *parseContext) callComponentMethod(pn *PageNode, method *reflect.Method,
	args ...reflect.Value) (component, error) {
	results, err := p.callMethod(pn, method, args...)
	if err != nil {
		return nil, fmt.Errorf("error calling component method %s: %w", formatMethod(method), err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("method %s must return a single result, got %d", formatMethod(method), len(results))
	}
	comp, ok := results[0].Interface().(component)
	if !ok {
		return nil, fmt.Errorf("method %s does not return value of type component", formatMethod(method))
	}
	return comp, nil
}

// urlFor finds the route of a page by type, or by predicate when v is a func(*PageNode) bool.
func (p *parseContext) urlFor(v any) (string, error) {
	if f, ok := v.(func(*PageNode) bool); ok {
		for node := range p.root.All() {
			if f(node) {
				return node.FullRoute(), nil
			}
		}
		return "", fmt.Errorf("urlfor: no page node matched the predicate")
	}
	ptv := pointerType(reflect.TypeOf(v))
	for node := range p.root.All() {
		if pointerType(node.Value.Type()) == ptv {
			return node.FullRoute(), nil
		}
	}
	return "", fmt.Errorf("urlfor: no page node found for %s", ptv.String())
}

func pointerType(v reflect.Type) reflect.Type {
	if v.Kind() == reflect.Ptr {
		return v
	}
	return reflect.PointerTo(v)
}

func parseTag(route string) (method, path, title string) {
	method = methodAll
	parts := strings.Fields(route)
	if len(parts) == 0 {
		path = "/"
		return
	}
	if len(parts) == 1 {
		path = parts[0]
		return
	}
	method = strings.ToUpper(parts[0])
	if slices.Contains(validMethod, method) {
		path = parts[1]
		title = strings.Join(parts[2:], " ")
	} else {
		method = methodAll
		path = parts[0]
		title = strings.Join(parts[1:], " ")
	}
	return
}

const methodAll = "ALL"

var validMethod = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
	methodAll,
}

type component interface {
	Render(context.Context, io.Writer) error
}

var componentType = reflect.TypeOf((*component)(nil)).Elem()

func isComponent(t *reflect.Method) bool {
	if t.Type.NumOut() != 1 {
		return false
	}
	return t.Type.Out(0).Implements(componentType)
}

func isPromotedMethod(method *reflect.Method) bool {
	// Check if the method is promoted from an embedded type
	// https://github.com/golang/go/issues/73883
	wPC := method.Func.Pointer()
	wFunc := runtime.FuncForPC(wPC)
	wFile, wLine := wFunc.FileLine(wPC)
	return wFile == "<autogenerated>" && wLine == 1
}
