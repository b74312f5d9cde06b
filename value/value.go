// Package value implements the closed value algebra of the
// configuration store: the fixed set of shapes a section's keys may
// hold, and the presence/absence distinction typed reads rely on.
package value

import "time"

// Kind tags the shape held by a Value. The set is closed to exactly
// these ten scalar/array shapes plus sub-table.
type Kind int

const (
	String Kind = iota
	Int64
	Float64
	Bool
	Datetime
	StringArray
	Int64Array
	Float64Array
	BoolArray
	DatetimeArray
	SubTable
)

// String returns the tag name used in type-mismatch diagnostics.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Datetime:
		return "datetime"
	case StringArray:
		return "string[]"
	case Int64Array:
		return "int64[]"
	case Float64Array:
		return "float64[]"
	case BoolArray:
		return "bool[]"
	case DatetimeArray:
		return "datetime[]"
	case SubTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the value algebra. The zero Value is
// not meaningful on its own; use one of the constructors below.
type Value struct {
	kind Kind

	str string
	i64 int64
	f64 float64
	b   bool
	dt  time.Time

	strArr []string
	i64Arr []int64
	f64Arr []float64
	bArr   []bool
	dtArr  []time.Time

	sub map[string]Value
}

func (v Value) Kind() Kind { return v.kind }

func NewString(s string) Value           { return Value{kind: String, str: s} }
func NewInt64(i int64) Value             { return Value{kind: Int64, i64: i} }
func NewFloat64(f float64) Value         { return Value{kind: Float64, f64: f} }
func NewBool(b bool) Value               { return Value{kind: Bool, b: b} }
func NewDatetime(t time.Time) Value      { return Value{kind: Datetime, dt: t} }
func NewStringArray(a []string) Value    { return Value{kind: StringArray, strArr: cloneSlice(a)} }
func NewInt64Array(a []int64) Value      { return Value{kind: Int64Array, i64Arr: cloneSlice(a)} }
func NewFloat64Array(a []float64) Value  { return Value{kind: Float64Array, f64Arr: cloneSlice(a)} }
func NewBoolArray(a []bool) Value        { return Value{kind: BoolArray, bArr: cloneSlice(a)} }
func NewDatetimeArray(a []time.Time) Value {
	return Value{kind: DatetimeArray, dtArr: cloneSlice(a)}
}

// NewSubTable wraps a nested table. Sub-tables are retained on raw
// reads but are not addressable through typed section/key operations
// the store has no typed getter/setter for SubTable.
func NewSubTable(m map[string]Value) Value {
	clone := make(map[string]Value, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return Value{kind: SubTable, sub: clone}
}

func cloneSlice[T any](a []T) []T {
	if a == nil {
		return nil
	}
	out := make([]T, len(a))
	copy(out, a)
	return out
}

// AsString, AsInt64, ... return the underlying Go value along with
// whether the Value actually holds that kind. These are the building
// blocks typed getters and the conversion rules in convert.go compose;
// they never themselves attempt promotion or fallback.
func (v Value) AsString() (string, bool)             { return v.str, v.kind == String }
func (v Value) AsInt64() (int64, bool)                { return v.i64, v.kind == Int64 }
func (v Value) AsFloat64() (float64, bool)             { return v.f64, v.kind == Float64 }
func (v Value) AsBool() (bool, bool)                   { return v.b, v.kind == Bool }
func (v Value) AsDatetime() (time.Time, bool)          { return v.dt, v.kind == Datetime }
func (v Value) AsStringArray() ([]string, bool)        { return cloneSlice(v.strArr), v.kind == StringArray }
func (v Value) AsInt64Array() ([]int64, bool)          { return cloneSlice(v.i64Arr), v.kind == Int64Array }
func (v Value) AsFloat64Array() ([]float64, bool)      { return cloneSlice(v.f64Arr), v.kind == Float64Array }
func (v Value) AsBoolArray() ([]bool, bool)            { return cloneSlice(v.bArr), v.kind == BoolArray }
func (v Value) AsDatetimeArray() ([]time.Time, bool)   { return cloneSlice(v.dtArr), v.kind == DatetimeArray }
func (v Value) AsSubTable() (map[string]Value, bool) {
	if v.kind != SubTable {
		return nil, false
	}
	clone := make(map[string]Value, len(v.sub))
	for k, sv := range v.sub {
		clone[k] = sv
	}
	return clone, true
}

// Clone returns a deep copy. Sections hand these out for their
// snapshot operation so subsequent caller mutation can never reach
// back into the store.
func (v Value) Clone() Value {
	clone := v
	clone.strArr = cloneSlice(v.strArr)
	clone.i64Arr = cloneSlice(v.i64Arr)
	clone.f64Arr = cloneSlice(v.f64Arr)
	clone.bArr = cloneSlice(v.bArr)
	clone.dtArr = cloneSlice(v.dtArr)
	if v.sub != nil {
		clone.sub = make(map[string]Value, len(v.sub))
		for k, sv := range v.sub {
			clone.sub[k] = sv.Clone()
		}
	}
	return clone
}

// Interface converts a Value back to the plain Go representation the
// TOML codec understands (map[string]interface{}, []interface{}, ...).
func (v Value) Interface() interface{} {
	switch v.kind {
	case String:
		return v.str
	case Int64:
		return v.i64
	case Float64:
		return v.f64
	case Bool:
		return v.b
	case Datetime:
		return v.dt
	case StringArray:
		out := make([]interface{}, len(v.strArr))
		for i, s := range v.strArr {
			out[i] = s
		}
		return out
	case Int64Array:
		out := make([]interface{}, len(v.i64Arr))
		for i, n := range v.i64Arr {
			out[i] = n
		}
		return out
	case Float64Array:
		out := make([]interface{}, len(v.f64Arr))
		for i, f := range v.f64Arr {
			out[i] = f
		}
		return out
	case BoolArray:
		out := make([]interface{}, len(v.bArr))
		for i, b := range v.bArr {
			out[i] = b
		}
		return out
	case DatetimeArray:
		out := make([]interface{}, len(v.dtArr))
		for i, t := range v.dtArr {
			out[i] = t
		}
		return out
	case SubTable:
		out := make(map[string]interface{}, len(v.sub))
		for k, sv := range v.sub {
			out[k] = sv.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface classifies a plain Go value produced by the TOML
// codec into the closed value algebra. Heterogeneous arrays are
// rejected with ok=false.
func FromInterface(raw interface{}) (Value, bool) {
	switch x := raw.(type) {
	case string:
		return NewString(x), true
	case int64:
		return NewInt64(x), true
	case int:
		return NewInt64(int64(x)), true
	case float64:
		return NewFloat64(x), true
	case bool:
		return NewBool(x), true
	case time.Time:
		return NewDatetime(x), true
	case map[string]interface{}:
		sub := make(map[string]Value, len(x))
		for k, raw := range x {
			v, ok := FromInterface(raw)
			if !ok {
				return Value{}, false
			}
			sub[k] = v
		}
		return NewSubTable(sub), true
	case map[string]Value:
		return NewSubTable(x), true
	case []interface{}:
		return arrayFromInterface(x)
	default:
		return Value{}, false
	}
}

func arrayFromInterface(items []interface{}) (Value, bool) {
	if len(items) == 0 {
		return NewStringArray(nil), true
	}
	elems := make([]Value, 0, len(items))
	for _, raw := range items {
		v, ok := FromInterface(raw)
		if !ok {
			return Value{}, false
		}
		elems = append(elems, v)
	}
	kind := elems[0].kind
	for _, e := range elems[1:] {
		if e.kind != kind {
			return Value{}, false
		}
	}
	switch kind {
	case String:
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i], _ = e.AsString()
		}
		return NewStringArray(out), true
	case Int64:
		out := make([]int64, len(elems))
		for i, e := range elems {
			out[i], _ = e.AsInt64()
		}
		return NewInt64Array(out), true
	case Float64:
		out := make([]float64, len(elems))
		for i, e := range elems {
			out[i], _ = e.AsFloat64()
		}
		return NewFloat64Array(out), true
	case Bool:
		out := make([]bool, len(elems))
		for i, e := range elems {
			out[i], _ = e.AsBool()
		}
		return NewBoolArray(out), true
	case Datetime:
		out := make([]time.Time, len(elems))
		for i, e := range elems {
			out[i], _ = e.AsDatetime()
		}
		return NewDatetimeArray(out), true
	default:
		return Value{}, false
	}
}
