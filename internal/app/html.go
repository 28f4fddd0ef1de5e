package app

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"regexp"

	"github.com/a-h/templ"
	"github.com/jackielii/ventas/structpages"
)

// trustedHTML is markup that printf writes without escaping, e.g. sanitized markdown.
type trustedHTML string

// htmlWriter writes markup for a component. Every string argument of printf is escaped.
// The first error sticks and is returned by the component.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

// component turns f into a templ.Component.
func component(f func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		f(h)
		return h.err
	})
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = escapeArg(arg)
	}
	_, h.err = fmt.Fprintf(h.w, format, escaped...)
}

func (h *htmlWriter) render(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

// url resolves the URL of page. A failure becomes the component's error.
func (h *htmlWriter) url(page any, args ...any) string {
	if h.err != nil {
		return ""
	}
	u, err := structpages.URLFor(h.ctx, page, args...)
	if err != nil {
		h.err = err
		return ""
	}
	return u
}

func (h *htmlWriter) fail(err error) {
	if h.err == nil {
		h.err = err
	}
}

func escapeArg(arg any) any {
	switch v := arg.(type) {
	case trustedHTML:
		return string(v)
	case string:
		return templ.EscapeString(v)
	case templ.SafeURL:
		return templ.EscapeString(string(v))
	case fmt.Stringer:
		return templ.EscapeString(v.String())
	}
	if rv := reflect.ValueOf(arg); rv.Kind() == reflect.String {
		return templ.EscapeString(rv.String())
	}
	return arg
}

// text is a component writing escaped s.
func text(s string) templ.Component {
	return component(func(h *htmlWriter) { h.printf("%s", s) })
}

// formField is one labelled input of a form.
type formField struct {
	Name, Label, Type, Value string
	Required                 bool
	Attrs                    templ.Attributes // extra attributes, values escaped
}

func (f formField) render(h *htmlWriter) {
	typ := f.Type
	if typ == "" {
		typ = "text"
	}
	req := ""
	if f.Required {
		req = " required"
	}
	h.printf(`<label for="%s">%s</label>`, f.Name, f.Label)
	if typ == "textarea" {
		h.printf(`<textarea id="%s" name="%s"%s`, f.Name, f.Name, req)
		h.attrs(f.Attrs)
		h.printf(`>%s</textarea>`, f.Value)
		return
	}
	h.printf(`<input id="%s" name="%s" type="%s" value="%s"%s`, f.Name, f.Name, typ, f.Value, req)
	h.attrs(f.Attrs)
	h.raw(`>`)
}

var attrName = regexp.MustCompile(`^[a-z][a-z0-9:-]*$`)

// attrs writes a in name order. Names outside [a-z][a-z0-9:-]* fail the component.
func (h *htmlWriter) attrs(a templ.Attributes) {
	if h.err != nil {
		return
	}
	for name := range a {
		if !attrName.MatchString(name) {
			h.err = fmt.Errorf("invalid attribute name %q", name)
			return
		}
	}
	h.err = templ.RenderAttributes(h.ctx, h.w, a)
}

// formError renders the validation message of a form, if any.
func formError(h *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	h.printf(`<p class="form-error" role="alert">%s</p>`, msg)
}
