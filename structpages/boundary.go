package structpages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// PanicError is the error an ErrorBoundary reports when the wrapped component panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("component panicked: %v", e.Value)
}

// ErrorBoundary renders c, substituting onError's output when c returns an error or panics.
// Whatever c wrote before failing is discarded, including the guards its ClientOnly
// components mounted. A nil onError renders nothing on failure.
//
// Pages get the same behaviour by declaring a method
//
//	func (p page) ErrorBoundary(err error) templ.Component
func ErrorBoundary(c templ.Component, onError func(error) templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if c == nil {
			return nil
		}
		buf := getBuffer()
		defer releaseBuffer(buf)
		tracked, guards := trackGuards(ctx)
		if err := renderRecover(tracked, c, buf); err != nil {
			guards.discard()
			if onError == nil {
				return nil
			}
			fallback := onError(err)
			if fallback == nil {
				return nil
			}
			return fallback.Render(ctx, w)
		}
		guards.commit(ctx)
		_, err := buf.WriteTo(w)
		return err
	})
}

func renderRecover(ctx context.Context, c templ.Component, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return c.Render(ctx, w)
}

// errorComponent renders an error message. It is used when an error boundary cannot build
// its own fallback.
type errorComponent struct {
	err error
}

func (e errorComponent) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, `<div role="alert">`+templ.EscapeString(e.err.Error())+`</div>`)
	return err
}
