package structpages

import (
	"reflect"
	"testing"
)

type clientRepo struct {
	DSN string
}

type notifier interface {
	Notify()
}

type smsNotifier struct {
	Sender string
}

func (t smsNotifier) Notify() {}

func TestArgRegistry_addArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []any
		wantLen int
		wantErr bool
	}{
		{
			name:    "add nil value",
			args:    []any{nil},
			wantLen: 0,
		},
		{
			name:    "add store",
			args:    []any{&clientRepo{DSN: "ventas.db"}},
			wantLen: 1,
		},
		{
			name:    "add store, app name and port",
			args:    []any{&clientRepo{DSN: "ventas.db"}, "Ventas", 8080},
			wantLen: 3,
		},
		{
			name:    "add duplicate type returns error",
			args:    []any{&clientRepo{DSN: "primary.db"}, &clientRepo{DSN: "replica.db"}},
			wantLen: 1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := make(argRegistry)
			var gotErr error
			for _, arg := range tt.args {
				if err := args.addArg(arg); err != nil {
					gotErr = err
				}
			}
			if (gotErr != nil) != tt.wantErr {
				t.Errorf("argRegistry.addArg() error = %v, wantErr %v", gotErr, tt.wantErr)
			}
			if got := len(args); got != tt.wantLen {
				t.Errorf("argRegistry.addArg() length = %v, want %v", got, tt.wantLen)
			}
		})
	}
}

func TestArgRegistry_getArg(t *testing.T) {
	repo := &clientRepo{DSN: "ventas.db"}
	sms := &smsNotifier{Sender: "+50255550100"}
	inMemory := clientRepo{DSN: "file::memory:"}

	tests := []struct {
		name       string
		registry   argRegistry
		lookupType reflect.Type
		wantFound  bool
		wantValue  string
	}{
		{
			name:       "exact pointer type",
			registry:   argRegistry{reflect.TypeOf(repo): reflect.ValueOf(repo)},
			lookupType: reflect.TypeOf(repo),
			wantFound:  true,
			wantValue:  "ventas.db",
		},
		{
			name:       "value type when pointer stored",
			registry:   argRegistry{reflect.TypeOf(repo): reflect.ValueOf(repo)},
			lookupType: reflect.TypeOf(clientRepo{}),
			wantFound:  true,
			wantValue:  "ventas.db",
		},
		{
			name: "pointer when addressable value stored",
			registry: argRegistry{
				reflect.TypeOf(inMemory): reflect.ValueOf(&inMemory).Elem(),
			},
			lookupType: reflect.TypeOf(&clientRepo{}),
			wantFound:  true,
			wantValue:  "file::memory:",
		},
		{
			name: "pointer when non-addressable value stored",
			registry: argRegistry{
				reflect.TypeOf(clientRepo{}): reflect.ValueOf(clientRepo{DSN: "copy.db"}),
			},
			lookupType: reflect.TypeOf(&clientRepo{}),
			wantFound:  false,
		},
		{
			name:       "interface from implementation",
			registry:   argRegistry{reflect.TypeOf(sms): reflect.ValueOf(sms)},
			lookupType: reflect.TypeOf((*notifier)(nil)).Elem(),
			wantFound:  true,
		},
		{
			name:       "missing type",
			registry:   argRegistry{reflect.TypeOf(""): reflect.ValueOf("s")},
			lookupType: reflect.TypeOf(0),
			wantFound:  false,
		},
		{
			name:       "empty registry",
			registry:   argRegistry{},
			lookupType: reflect.TypeOf(repo),
			wantFound:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := tt.registry.getArg(tt.lookupType)
			if found != tt.wantFound {
				t.Fatalf("argRegistry.getArg() found = %v, want %v", found, tt.wantFound)
			}
			if !found || tt.wantValue == "" {
				return
			}
			if got.Kind() == reflect.Ptr {
				got = got.Elem()
			}
			if v := got.Interface().(clientRepo).DSN; v != tt.wantValue {
				t.Errorf("argRegistry.getArg() value = %q, want %q", v, tt.wantValue)
			}
		})
	}
}
