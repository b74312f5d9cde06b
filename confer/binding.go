package confer

import (
	"reflect"
	"strings"

	"github.com/confer-dev/confer/log"
)

// Binding is the descriptor produced by Bind[T]: everything Construct,
// Load, and Save need to map a Go struct onto one section of a store,
// pre-computed once and reused for every record of that type.
type Binding[T any] struct {
	section string
	fields  []fieldSpec
	typ     reflect.Type
	logger  log.Logger
}

type bindOptions struct {
	section string
	inits   map[string]func() any
	logger  log.Logger
}

// BindOption configures Bind.
type BindOption func(*bindOptions)

// WithSection overrides the section name a binding reads and writes.
// Without it, the section name is derived from the type's name.
func WithSection(name string) BindOption {
	return func(o *bindOptions) { o.section = name }
}

// WithLogger attaches a log.Logger that Construct, Load, and Save log
// through: Debug for a routine acquisition, Warn when Save prunes a
// stored key with no corresponding field, Error immediately before
// returning a failure. Without it, the binding logs nowhere.
func WithLogger(l log.Logger) BindOption {
	return func(o *bindOptions) { o.logger = l }
}

// WithInit registers a field initializer function for fieldName. This
// is the supported replacement for an "init=" struct tag: Go has no
// safe way to evaluate an arbitrary expression string at binding
// time, so an initializer is a real function instead. It is mutually
// exclusive with a default= tag on the same field.
func WithInit[F any](fieldName string, fn func() F) BindOption {
	return func(o *bindOptions) {
		o.inits[fieldName] = func() any { return fn() }
	}
}

// Bind builds (or retrieves, if T was already bound) the descriptor
// for T. Panics if T's struct tags describe an invalid binding: two
// fields resolving to the same stored key, a default paired with an
// init, a default literal that does not fit the field's type, or a
// field of an unsupported Go type.
func Bind[T any](opts ...BindOption) *Binding[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		panic("confer: Bind requires a struct type")
	}

	o := &bindOptions{inits: map[string]func() any{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.section == "" {
		o.section = defaultSectionName(t)
	}
	if o.logger == nil {
		o.logger = log.NewNoOp()
	}

	fields := fieldsFor(t, o.inits)
	return &Binding[T]{section: o.section, fields: fields, typ: t, logger: o.logger}
}

// defaultSectionName derives a section name from a bound type's name:
// a leading "Confer" prefix is stripped when present, otherwise the
// full type name is used unchanged.
func defaultSectionName(t reflect.Type) string {
	return strings.TrimPrefix(t.Name(), "Confer")
}
