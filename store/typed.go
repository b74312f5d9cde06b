package store

import (
	"time"

	"github.com/confer-dev/confer/log"
	"github.com/confer-dev/confer/value"
)

// typedGet centralizes the missing-key / type-mismatch bookkeeping
// shared by every GetXxx below; conv performs the shape-specific
// conversion (including the datetime fallback) and returns ok=false
// only when the value is present but of the wrong, non-convertible
// shape.
func (s *Store) typedGet(section, key string, want value.Kind, conv func(value.Value) (bool, *Error)) *Error {
	s.mu.RLock()
	v, present := s.sections[section][key]
	s.mu.RUnlock()

	s.metrics.recordRead(section)

	if !present {
		err := missingKeyError(section, key, s.ListKeys(section))
		s.metrics.recordError(err.Code)
		s.logger.WithFields(log.Fields{"section": section, "key": key}).Error(err)
		return err
	}
	if ok, err := conv(v); !ok {
		if err == nil {
			err = typeMismatchError(section, key, want, v.Kind())
		}
		s.metrics.recordError(err.Code)
		s.logger.WithFields(log.Fields{"section": section, "key": key}).Error(err)
		return err
	}
	return nil
}

func (s *Store) GetString(section, key string) (string, error) {
	var out string
	err := s.typedGet(section, key, value.String, func(v value.Value) (bool, *Error) {
		str, ok := v.AsString()
		out = str
		return ok, nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (s *Store) SetString(section, key, v string) {
	s.SetRaw(section, key, value.NewString(v))
}

func (s *Store) GetInt64(section, key string) (int64, error) {
	var out int64
	err := s.typedGet(section, key, value.Int64, func(v value.Value) (bool, *Error) {
		i, ok := v.AsInt64()
		out = i
		return ok, nil
	})
	if err != nil {
		return 0, err
	}
	return out, nil
}

func (s *Store) SetInt64(section, key string, v int64) {
	s.SetRaw(section, key, value.NewInt64(v))
}

func (s *Store) GetFloat64(section, key string) (float64, error) {
	var out float64
	err := s.typedGet(section, key, value.Float64, func(v value.Value) (bool, *Error) {
		if f, ok := v.AsFloat64(); ok {
			out = f
			return true, nil
		}
		// Int64 auto-promotes to Float64.
		if i, ok := v.AsInt64(); ok {
			out = float64(i)
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return 0, err
	}
	return out, nil
}

func (s *Store) SetFloat64(section, key string, v float64) {
	s.SetRaw(section, key, value.NewFloat64(v))
}

func (s *Store) GetBool(section, key string) (bool, error) {
	var out bool
	err := s.typedGet(section, key, value.Bool, func(v value.Value) (bool, *Error) {
		b, ok := v.AsBool()
		out = b
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return out, nil
}

func (s *Store) SetBool(section, key string, v bool) {
	s.SetRaw(section, key, value.NewBool(v))
}

func (s *Store) GetDatetime(section, key string) (time.Time, error) {
	var out time.Time
	err := s.typedGet(section, key, value.Datetime, func(v value.Value) (bool, *Error) {
		if t, ok := v.AsDatetime(); ok {
			out = time.Time(t)
			return true, nil
		}
		// String → datetime fallback: only attempted because a
		// value is present with the wrong shape, never to synthesize
		// an absent value.
		if str, ok := v.AsString(); ok {
			t, perr := value.ParseDatetime(str)
			if perr != nil {
				return false, valueParseError(section, key, perr.Error())
			}
			out = time.Time(t)
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return out, nil
}

func (s *Store) SetDatetime(section, key string, v time.Time) {
	s.SetRaw(section, key, value.NewDatetime(v))
}

func (s *Store) GetStringArray(section, key string) ([]string, error) {
	var out []string
	err := s.typedGet(section, key, value.StringArray, func(v value.Value) (bool, *Error) {
		arr, ok := v.AsStringArray()
		out = arr
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetStringArray(section, key string, v []string) {
	s.SetRaw(section, key, value.NewStringArray(v))
}

func (s *Store) GetInt64Array(section, key string) ([]int64, error) {
	var out []int64
	err := s.typedGet(section, key, value.Int64Array, func(v value.Value) (bool, *Error) {
		arr, ok := v.AsInt64Array()
		out = arr
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetInt64Array(section, key string, v []int64) {
	s.SetRaw(section, key, value.NewInt64Array(v))
}

func (s *Store) GetFloat64Array(section, key string) ([]float64, error) {
	var out []float64
	err := s.typedGet(section, key, value.Float64Array, func(v value.Value) (bool, *Error) {
		if arr, ok := v.AsFloat64Array(); ok {
			out = arr
			return true, nil
		}
		if arr, ok := v.AsInt64Array(); ok {
			out = make([]float64, len(arr))
			for i, n := range arr {
				out[i] = float64(n)
			}
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetFloat64Array(section, key string, v []float64) {
	s.SetRaw(section, key, value.NewFloat64Array(v))
}

func (s *Store) GetBoolArray(section, key string) ([]bool, error) {
	var out []bool
	err := s.typedGet(section, key, value.BoolArray, func(v value.Value) (bool, *Error) {
		arr, ok := v.AsBoolArray()
		out = arr
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetBoolArray(section, key string, v []bool) {
	s.SetRaw(section, key, value.NewBoolArray(v))
}

func (s *Store) GetDatetimeArray(section, key string) ([]time.Time, error) {
	var out []time.Time
	err := s.typedGet(section, key, value.DatetimeArray, func(v value.Value) (bool, *Error) {
		if arr, ok := v.AsDatetimeArray(); ok {
			out = arr
			return true, nil
		}
		// Element-wise string → datetime fallback, same rule as the scalar case.
		if strs, ok := v.AsStringArray(); ok {
			parsed := make([]time.Time, len(strs))
			for i, str := range strs {
				t, perr := value.ParseDatetime(str)
				if perr != nil {
					return false, valueParseError(section, key, perr.Error())
				}
				parsed[i] = t
			}
			out = parsed
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetDatetimeArray(section, key string, v []time.Time) {
	s.SetRaw(section, key, value.NewDatetimeArray(v))
}
