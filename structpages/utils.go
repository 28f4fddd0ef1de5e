package structpages

import (
	"bytes"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"sync"
)

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func releaseBuffer(b *bytes.Buffer) {
	b.Reset()
	bufferPool.Put(b)
}

var (
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	handlerType    = reflect.TypeOf((*http.Handler)(nil)).Elem()
	errHandlerType = reflect.TypeOf((*httpErrHandler)(nil)).Elem()
)

// httpErrHandler is a handler that reports failures to the configured error handler.
type httpErrHandler interface {
	ServeHTTP(http.ResponseWriter, *http.Request) error
}

// extractError splits a trailing error result off a method's results.
func extractError(args []reflect.Value) ([]reflect.Value, error) {
	if len(args) == 0 || !args[len(args)-1].Type().AssignableTo(errorType) {
		return args, nil
	}
	last := args[len(args)-1]
	args = args[:len(args)-1]
	if last.IsNil() {
		return args, nil
	}
	return args, last.Interface().(error)
}

func formatMethod(method *reflect.Method) string {
	if method == nil || method.Func == (reflect.Value{}) {
		return "<nil>"
	}
	return fmt.Sprintf("%s.%s", method.Type.In(0).String(), method.Name)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
