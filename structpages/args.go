package structpages

import (
	"fmt"
	"reflect"
)

// argRegistry holds the values injected into page methods by type.
type argRegistry map[reflect.Type]reflect.Value

func (args argRegistry) addArg(v any) error {
	if v == nil {
		return nil
	}
	typ := reflect.TypeOf(v)
	if _, ok := args[typ]; ok {
		return fmt.Errorf("duplicate type %s in args registry", typ)
	}
	args[typ] = reflect.ValueOf(v)
	return nil
}

// getArg finds a value for the requested type. An exact match wins, then the pointer or
// element form of the type, then the first registered value assignable to it.
func (args argRegistry) getArg(want reflect.Type) (reflect.Value, bool) {
	if v, ok := args[want]; ok {
		return v, true
	}
	if want.Kind() == reflect.Ptr {
		if v, ok := args[want.Elem()]; ok && v.CanAddr() {
			return v.Addr(), true
		}
	} else if v, ok := args[reflect.PointerTo(want)]; ok && !v.IsNil() {
		return v.Elem(), true
	}
	for t, v := range args {
		if t.AssignableTo(want) {
			return v, true
		}
	}
	return reflect.Value{}, false
}
