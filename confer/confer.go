// Package confer implements the Module Binding Layer: a reflection-
// driven substitute for the field accessors a compile-time derive
// macro would otherwise generate, projecting a plain Go struct onto
// one section of a shared configuration store.
package confer

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/confer-dev/confer/store"
	"github.com/confer-dev/confer/value"
)

// Construct builds a new record of T from the current contents of s,
// applying defaults and initializers for absent fields, and wraps it
// in a shared Handle. It never writes to s.
func Construct[T any](s *store.Store, b *Binding[T]) (*Handle[T], error) {
	rec, err := populate(s, b)
	if err != nil {
		b.logger.WithField("section", b.section).Error(err)
		return nil, err
	}
	b.logger.WithField("section", b.section).Debug("constructed bound record")
	return NewHandle(rec), nil
}

// Load refreshes h's record in place from the current contents of s,
// under h's write acquisition, applying the same default/init/
// required rules as Construct.
func Load[T any](h *Handle[T], s *store.Store, b *Binding[T]) error {
	rec, err := populate(s, b)
	if err != nil {
		b.logger.WithField("section", b.section).Error(err)
		return err
	}
	h.Replace(rec)
	b.logger.WithField("section", b.section).Debug("reloaded bound record")
	return nil
}

// Save reconciles s's section with h's current record under one
// store write acquisition: every bound field is written (or, for an
// absent optional field, deleted), and only once every field write
// has succeeded are stored keys with no corresponding field removed.
// A reconciliation that fails partway through leaves the section's
// keys and values exactly as they were before the save (a section that
// did not exist is created empty) — readers never observe a section with
// some fields updated and others stale, and the prune pass never runs
// on a failed attempt.
func Save[T any](h *Handle[T], s *store.Store, b *Binding[T]) error {
	rec := h.View()
	rv := reflect.ValueOf(rec)

	var reconcileErr error
	s.ReconcileSection(b.section, func(cur store.Section) store.Section {
		next := cur.Clone()
		known := make(map[string]bool, len(b.fields))

		for _, spec := range b.fields {
			if spec.ignore {
				continue
			}
			known[spec.key] = true

			fieldVal := rv.Field(spec.structField)
			if spec.optional {
				if fieldVal.IsNil() {
					delete(next, spec.key)
					continue
				}
				fieldVal = fieldVal.Elem()
			}

			v, err := fieldValue(b.section, spec, fieldVal)
			if err != nil {
				reconcileErr = err
				return cur
			}
			next[spec.key] = v
		}

		for key := range next {
			if !known[key] {
				delete(next, key)
				b.logger.WithFields(map[string]interface{}{"section": b.section, "key": key}).Warn("pruned stored key with no corresponding bound field")
			}
		}
		return next
	})

	if reconcileErr != nil {
		b.logger.WithField("section", b.section).Error(reconcileErr)
		return reconcileErr
	}
	b.logger.WithField("section", b.section).Debug("saved bound record")
	return nil
}

func populate[T any](s *store.Store, b *Binding[T]) (T, error) {
	var record T
	rv := reflect.ValueOf(&record).Elem()

	for _, spec := range b.fields {
		if spec.ignore {
			continue
		}
		fieldVal := rv.Field(spec.structField)

		elemVal, present, err := readField(s, b.section, spec)
		if err != nil && !store.IsMissingKey(err) {
			return record, err
		}
		if !present {
			switch {
			case spec.hasDefault:
				fieldVal.Set(spec.defaultVal)
			case spec.init != nil:
				assignInit(fieldVal, spec)
			case spec.optional:
				// Leave the pointer nil.
			default:
				// err is the store's own MissingKeyErr, carrying
				// section/key and any "did you mean" hint.
				return record, err
			}
			continue
		}

		if spec.optional {
			ptr := reflect.New(fieldVal.Type().Elem())
			ptr.Elem().Set(elemVal)
			fieldVal.Set(ptr)
		} else {
			fieldVal.Set(elemVal)
		}
	}

	return record, nil
}

func assignInit(fieldVal reflect.Value, spec fieldSpec) {
	raw := reflect.ValueOf(spec.init())
	if spec.optional {
		elemType := fieldVal.Type().Elem()
		ptr := reflect.New(elemType)
		ptr.Elem().Set(raw.Convert(elemType))
		fieldVal.Set(ptr)
		return
	}
	fieldVal.Set(raw.Convert(fieldVal.Type()))
}

// readField returns the elemType-shaped value read from the store for
// spec (never the outer optional pointer wrapper, which the caller
// applies), whether the key was present, and any conversion error the
// store reported for a present-but-wrong-shape value.
func readField(s *store.Store, section string, spec fieldSpec) (reflect.Value, bool, error) {
	if spec.vector {
		return readVector(s, section, spec)
	}
	return readScalar(s, section, spec)
}

// readScalar returns the store's own error verbatim when the key is
// absent (present=false, a MissingKeyErr the caller may still use to
// fall back to a default/init/optional) or when a present value fails
// to convert (present=false, any other code, which the caller always
// propagates).
func readScalar(s *store.Store, section string, spec fieldSpec) (reflect.Value, bool, error) {
	switch spec.shape {
	case shapeString:
		v, err := s.GetString(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return reflect.ValueOf(v), true, nil

	case shapeBool:
		v, err := s.GetBool(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return reflect.ValueOf(v), true, nil

	case shapeDatetime:
		v, err := s.GetDatetime(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return reflect.ValueOf(v), true, nil

	case shapeInt:
		n, err := s.GetInt64(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		rv, cerr := narrowedInt(n, spec.elemType, spec.elemKind)
		if cerr != nil {
			return reflect.Value{}, false, store.NewValueParseError(section, spec.key, cerr.Error())
		}
		return rv, true, nil

	case shapeFloat:
		f, err := s.GetFloat64(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		rv, cerr := narrowedFloat(f, spec.elemType, spec.elemKind)
		if cerr != nil {
			return reflect.Value{}, false, store.NewValueParseError(section, spec.key, cerr.Error())
		}
		return rv, true, nil
	}
	panic("confer: unreachable shape")
}

func readVector(s *store.Store, section string, spec fieldSpec) (reflect.Value, bool, error) {
	sliceType := reflect.SliceOf(spec.elemType)

	switch spec.shape {
	case shapeString:
		v, err := s.GetStringArray(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return reflect.ValueOf(v), true, nil

	case shapeBool:
		v, err := s.GetBoolArray(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return reflect.ValueOf(v), true, nil

	case shapeDatetime:
		v, err := s.GetDatetimeArray(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return reflect.ValueOf(v), true, nil

	case shapeInt:
		arr, err := s.GetInt64Array(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		out := reflect.MakeSlice(sliceType, len(arr), len(arr))
		for i, n := range arr {
			elem, cerr := narrowedInt(n, spec.elemType, spec.elemKind)
			if cerr != nil {
				return reflect.Value{}, false, store.NewValueParseError(section, spec.key, cerr.Error())
			}
			out.Index(i).Set(elem)
		}
		return out, true, nil

	case shapeFloat:
		arr, err := s.GetFloat64Array(section, spec.key)
		if err != nil {
			return reflect.Value{}, false, err
		}
		out := reflect.MakeSlice(sliceType, len(arr), len(arr))
		for i, f := range arr {
			elem, cerr := narrowedFloat(f, spec.elemType, spec.elemKind)
			if cerr != nil {
				return reflect.Value{}, false, store.NewValueParseError(section, spec.key, cerr.Error())
			}
			out.Index(i).Set(elem)
		}
		return out, true, nil
	}
	panic("confer: unreachable shape")
}

// fieldValue converts v, a field's live Go value, into the store's
// Value algebra for Save's reconciliation. Unlike readField, this
// never touches the store directly: Save writes the returned Value
// into its own in-progress section table under one write acquisition.
func fieldValue(section string, spec fieldSpec, v reflect.Value) (value.Value, error) {
	if spec.vector {
		return vectorValue(section, spec, v)
	}
	switch spec.shape {
	case shapeString:
		return value.NewString(v.String()), nil
	case shapeBool:
		return value.NewBool(v.Bool()), nil
	case shapeDatetime:
		return value.NewDatetime(v.Interface().(time.Time)), nil
	case shapeInt:
		n, err := widenInt(section, spec, v)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt64(n), nil
	case shapeFloat:
		return value.NewFloat64(v.Float()), nil
	default:
		return value.Value{}, fmt.Errorf("confer: field %q has an unrecognized shape", spec.name)
	}
}

func vectorValue(section string, spec fieldSpec, v reflect.Value) (value.Value, error) {
	n := v.Len()
	switch spec.shape {
	case shapeString:
		out := make([]string, n)
		for i := range out {
			out[i] = v.Index(i).String()
		}
		return value.NewStringArray(out), nil
	case shapeBool:
		out := make([]bool, n)
		for i := range out {
			out[i] = v.Index(i).Bool()
		}
		return value.NewBoolArray(out), nil
	case shapeDatetime:
		out := make([]time.Time, n)
		for i := range out {
			out[i] = v.Index(i).Interface().(time.Time)
		}
		return value.NewDatetimeArray(out), nil
	case shapeInt:
		out := make([]int64, n)
		for i := range out {
			w, err := widenInt(section, spec, v.Index(i))
			if err != nil {
				return value.Value{}, err
			}
			out[i] = w
		}
		return value.NewInt64Array(out), nil
	case shapeFloat:
		out := make([]float64, n)
		for i := range out {
			out[i] = v.Index(i).Float()
		}
		return value.NewFloat64Array(out), nil
	default:
		return value.Value{}, fmt.Errorf("confer: field %q has an unrecognized shape", spec.name)
	}
}

// widenInt widens v (any sized signed or unsigned Go integer kind) to
// int64 for storage. An unsigned value exceeding int64's positive
// range cannot be represented and fails as a value-parse error rather
// than silently wrapping to a negative number.
func widenInt(section string, spec fieldSpec, v reflect.Value) (int64, error) {
	switch spec.elemKind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, store.NewValueParseError(section, spec.key,
				fmt.Sprintf("%d exceeds int64's positive range", u))
		}
		return int64(u), nil
	default:
		return v.Int(), nil
	}
}

func narrowedInt(n int64, elemType reflect.Type, kind reflect.Kind) (reflect.Value, error) {
	checked, err := value.NarrowInt(n, kind)
	if err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.New(elemType).Elem()
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(uint64(checked))
	default:
		rv.SetInt(checked)
	}
	return rv, nil
}

func narrowedFloat(f float64, elemType reflect.Type, kind reflect.Kind) (reflect.Value, error) {
	rv := reflect.New(elemType).Elem()
	if kind == reflect.Float32 {
		f32, err := value.NarrowFloat32(f)
		if err != nil {
			return reflect.Value{}, err
		}
		rv.SetFloat(float64(f32))
		return rv, nil
	}
	rv.SetFloat(f)
	return rv, nil
}
