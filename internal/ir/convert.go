package ir

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/tempo/internal/calendar"
)

// Tag keys for values that have no direct IR form.
const (
	TagMoment   = "moment"
	TagDuration = "duration"
	TagNumber   = "number"
	TagOther    = "other"
)

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

// FromRuntime converts a runtime value to its canonical form:
//
//	calendar.Moment    {"moment": "2024-03-10T12:00:00.000Z"}
//	calendar.Duration  {"duration": "P1M", "ms": 2592000000}
//	whole number       IRInt
//	other number       {"number": "0.5"}
//	string, bool       IRString, IRBool
//
// Values of unregistered Go types are written as {"other": "%T"} so a
// failed call can still be recorded.
func FromRuntime(v any) IRValue {
	switch val := v.(type) {
	case IRValue:
		return val
	case calendar.Moment:
		return IRObject{TagMoment: IRString(val.String())}
	case calendar.Duration:
		return IRObject{
			TagDuration: IRString(val.String()),
			"ms":        IRInt(val.AsMilliseconds()),
		}
	case string:
		return IRString(val)
	case bool:
		return IRBool(val)
	case int:
		return IRInt(val)
	case int64:
		return IRInt(val)
	case int32:
		return IRInt(val)
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	default:
		return IRObject{TagOther: IRString(fmt.Sprintf("%T", v))}
	}
}

func fromFloat(f float64) IRValue {
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return IRInt(int64(f))
	}
	return IRObject{TagNumber: IRString(strconv.FormatFloat(f, 'g', -1, 64))}
}

// FromRuntimeArgs converts a call's arguments.
func FromRuntimeArgs(args []any) IRArray {
	out := make(IRArray, len(args))
	for i, a := range args {
		out[i] = FromRuntime(a)
	}
	return out
}

// ToRuntime converts a canonical value back to the runtime value it was
// made from. Whole numbers come back as float64, the form the dispatch
// registry passes to implementations. Moments are read in loc.
func ToRuntime(v IRValue, loc *time.Location) (any, error) {
	switch val := v.(type) {
	case IRString:
		return string(val), nil
	case IRBool:
		return bool(val), nil
	case IRInt:
		return float64(val), nil
	case IRObject:
		return taggedToRuntime(val, loc)
	case IRArray:
		return nil, fmt.Errorf("arrays have no runtime form")
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

func taggedToRuntime(obj IRObject, loc *time.Location) (any, error) {
	if s, ok := obj[TagMoment].(IRString); ok {
		return calendar.ParseMoment(string(s), loc)
	}
	if s, ok := obj[TagDuration].(IRString); ok {
		return calendar.ParseDuration(string(s))
	}
	if s, ok := obj[TagNumber].(IRString); ok {
		f, err := strconv.ParseFloat(string(s), 64)
		if err != nil {
			return nil, fmt.Errorf("tagged number %q: %w", s, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("object has no runtime form: keys %v", obj.SortedKeys())
}
