package value

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// datetimeLayouts are attempted in order when a present Value is a
// String but the declared field type is Datetime.
// RFC3339Nano covers the common TOML offset-datetime representation;
// the others cover the local-date/local-time forms TOML also permits.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDatetime attempts the string→datetime fallback. It is
// used only when a value is present but of the wrong shape; it is
// never used to synthesize a value for an absent key.
func ParseDatetime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("%q does not parse as a datetime: %w", s, lastErr)
}

// NarrowInt checks that i fits within the range of the Go integer
// kind a struct field declares (int8 through uint64) and returns it
// unchanged on success. Negative values never fit an unsigned kind.
func NarrowInt(i int64, kind reflect.Kind) (int64, error) {
	switch kind {
	case reflect.Int64, reflect.Int:
		return i, nil
	case reflect.Int8:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return 0, fmt.Errorf("%d out of range for int8", i)
		}
	case reflect.Int16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return 0, fmt.Errorf("%d out of range for int16", i)
		}
	case reflect.Int32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("%d out of range for int32", i)
		}
	case reflect.Uint, reflect.Uint64:
		if i < 0 {
			return 0, fmt.Errorf("%d is negative, cannot assign to unsigned field", i)
		}
	case reflect.Uint8:
		if i < 0 || i > math.MaxUint8 {
			return 0, fmt.Errorf("%d out of range for uint8", i)
		}
	case reflect.Uint16:
		if i < 0 || i > math.MaxUint16 {
			return 0, fmt.Errorf("%d out of range for uint16", i)
		}
	case reflect.Uint32:
		if i < 0 || i > math.MaxUint32 {
			return 0, fmt.Errorf("%d out of range for uint32", i)
		}
	default:
		return 0, fmt.Errorf("kind %s is not an integer type", kind)
	}
	return i, nil
}

// NarrowFloat32 converts f to float32 and rejects the result if it is
// not finite (overflow to +/-Inf, or an infinite or NaN input) — TOML
// has no way to represent a narrowed-to-infinity value as anything
// other than a lossy surprise.
func NarrowFloat32(f float64) (float32, error) {
	f32 := float32(f)
	if math.IsInf(float64(f32), 0) || math.IsNaN(float64(f32)) {
		return 0, fmt.Errorf("%g does not narrow to a finite float32", f)
	}
	return f32, nil
}
