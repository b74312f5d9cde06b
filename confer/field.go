package confer

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/confer-dev/confer/value"
)

// shape is the type category a field resolves to: scalars, vectors,
// optional-scalars, and optional-vectors all reduce to one of these
// underlying shapes plus the vector/optional flags on fieldSpec.
type shape int

const (
	shapeString shape = iota
	shapeInt
	shapeFloat
	shapeBool
	shapeDatetime
)

var timeType = reflect.TypeOf(time.Time{})

// fieldSpec is the runtime descriptor for one bound field — a
// data-driven stand-in for the field accessor a derive macro would
// otherwise generate at compile time.
type fieldSpec struct {
	structField int // index into reflect.Type.Field
	name        string
	key         string
	shape       shape
	vector      bool
	optional    bool
	elemType    reflect.Type // the concrete Go type assigned to (e.g. uint16, float32, time.Time)
	elemKind    reflect.Kind // elemType.Kind(), cached for narrowing dispatch
	ignore      bool

	hasDefault bool
	defaultVal reflect.Value // pre-converted to the field's type

	init func() any
}

// buildFields reflects over t (a struct type) and its confer struct
// tags, producing one fieldSpec per exported field and validating
// generation-time rules eagerly. It panics on violation: a binding
// mistake is a programming error that should surface at process
// start, not at runtime deep in a request path.
func buildFields(t reflect.Type, inits map[string]func() any) []fieldSpec {
	seenKeys := map[string]string{} // key -> owning field name
	var specs []fieldSpec

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}

		tag := sf.Tag.Get("confer")
		directives := parseTag(tag)

		spec := fieldSpec{
			structField: i,
			name:        sf.Name,
			key:         sf.Name,
		}

		if _, ok := directives["ignore"]; ok {
			spec.ignore = true
			specs = append(specs, spec)
			continue
		}

		if rename, ok := directives["rename"]; ok {
			spec.key = rename
		}

		if owner, dup := seenKeys[spec.key]; dup {
			panic(fmt.Sprintf("confer: fields %q and %q both resolve to stored key %q in %s",
				owner, spec.name, spec.key, t.Name()))
		}
		seenKeys[spec.key] = spec.name

		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			spec.optional = true
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Slice {
			spec.vector = true
			ft = ft.Elem()
		}

		spec.shape = classify(ft, sf.Name, t.Name())
		spec.elemType = ft
		spec.elemKind = ft.Kind()

		_, hasDefault := directives["default"]
		initFn, hasInit := inits[sf.Name]
		if _, tagInit := directives["init"]; tagInit {
			panic(fmt.Sprintf(
				"confer: field %q of %s declares init= as a tag value; "+
					"register an initializer function via WithInit instead (arbitrary expression strings are not evaluated)",
				sf.Name, t.Name()))
		}
		if hasDefault && hasInit {
			panic(fmt.Sprintf("confer: field %q of %s has both a default and an init — they are mutually exclusive", sf.Name, t.Name()))
		}

		if hasDefault {
			spec.hasDefault = true
			spec.defaultVal = parseDefaultLiteral(directives["default"], spec, sf.Type, t.Name(), sf.Name)
		}
		if hasInit {
			spec.init = initFn
		}

		specs = append(specs, spec)
	}

	for name := range inits {
		if !fieldExists(specs, name) {
			panic(fmt.Sprintf("confer: WithInit registered for unknown field %q on %s", name, t.Name()))
		}
	}

	return specs
}

func fieldExists(specs []fieldSpec, name string) bool {
	for _, s := range specs {
		if s.name == name {
			return true
		}
	}
	return false
}

func classify(ft reflect.Type, fieldName, typeName string) shape {
	if ft == timeType {
		return shapeDatetime
	}
	switch ft.Kind() {
	case reflect.String:
		return shapeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return shapeInt
	case reflect.Float32, reflect.Float64:
		return shapeFloat
	case reflect.Bool:
		return shapeBool
	default:
		panic(fmt.Sprintf("confer: field %q of %s has unsupported type %s", fieldName, typeName, ft))
	}
}

// parseTag splits a confer struct tag into its directives. "ignore"
// is a bare flag; "rename=x", "default=x", "init=x" carry a value.
// Commas inside a bracketed default array are respected.
func parseTag(tag string) map[string]string {
	out := map[string]string{}
	if tag == "" {
		return out
	}

	var parts []string
	depth := 0
	start := 0
	for i, r := range tag {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, tag[start:])

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			out[part[:eq]] = part[eq+1:]
		} else {
			out[part] = ""
		}
	}
	return out
}

// parseDefaultLiteral converts the textual default into a
// reflect.Value assignable to fieldType, rejecting a default that is
// incompatible with the field's type category or out of range for it.
func parseDefaultLiteral(lit string, spec fieldSpec, fieldType reflect.Type, typeName, fieldName string) reflect.Value {
	targetType := fieldType
	if spec.optional {
		targetType = targetType.Elem()
	}

	var elemVal reflect.Value
	if spec.vector {
		items := splitArrayLiteral(lit, typeName, fieldName)
		elemType := targetType.Elem()
		slice := reflect.MakeSlice(targetType, len(items), len(items))
		for i, item := range items {
			slice.Index(i).Set(parseScalarLiteral(item, spec.shape, spec.elemKind, elemType, typeName, fieldName))
		}
		elemVal = slice
	} else {
		elemVal = parseScalarLiteral(lit, spec.shape, spec.elemKind, targetType, typeName, fieldName)
	}

	if spec.optional {
		ptr := reflect.New(targetType)
		ptr.Elem().Set(elemVal)
		return ptr
	}
	return elemVal
}

func splitArrayLiteral(lit, typeName, fieldName string) []string {
	lit = strings.TrimSpace(lit)
	if !strings.HasPrefix(lit, "[") || !strings.HasSuffix(lit, "]") {
		panic(fmt.Sprintf("confer: default for vector field %q of %s must be bracketed, got %q", fieldName, typeName, lit))
	}
	inner := strings.TrimSpace(lit[1 : len(lit)-1])
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseScalarLiteral(lit string, sh shape, kind reflect.Kind, targetType reflect.Type, typeName, fieldName string) reflect.Value {
	switch sh {
	case shapeString:
		return reflect.ValueOf(lit).Convert(targetType)
	case shapeBool:
		b, err := strconv.ParseBool(lit)
		if err != nil {
			panic(fmt.Sprintf("confer: default %q for field %q of %s is not a bool", lit, fieldName, typeName))
		}
		return reflect.ValueOf(b)
	case shapeInt:
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			panic(fmt.Sprintf("confer: default %q for field %q of %s is not an integer", lit, fieldName, typeName))
		}
		checked, rerr := value.NarrowInt(n, kind)
		if rerr != nil {
			panic(fmt.Sprintf("confer: default %d for field %q of %s: %v", n, fieldName, typeName, rerr))
		}
		return reflect.ValueOf(checked).Convert(targetType)
	case shapeFloat:
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			panic(fmt.Sprintf("confer: default %q for field %q of %s is not a float", lit, fieldName, typeName))
		}
		if kind == reflect.Float32 {
			f32, ferr := value.NarrowFloat32(f)
			if ferr != nil {
				panic(fmt.Sprintf("confer: default %g for field %q of %s: %v", f, fieldName, typeName, ferr))
			}
			return reflect.ValueOf(f32).Convert(targetType)
		}
		return reflect.ValueOf(f).Convert(targetType)
	case shapeDatetime:
		t, err := value.ParseDatetime(lit)
		if err != nil {
			panic(fmt.Sprintf("confer: default %q for field %q of %s does not parse as a datetime: %v", lit, fieldName, typeName, err))
		}
		return reflect.ValueOf(t)
	default:
		panic(fmt.Sprintf("confer: field %q of %s has an unrecognized shape", fieldName, typeName))
	}
}
