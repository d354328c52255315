package lang

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindNil    Kind = iota // nil
	KindString             // string
	KindNumber             // number
	KindBool               // bool
	KindRef                // ref
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRef:
		return "ref"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged union of the values a binding can hold: a string,
// a number (integer or floating point), a boolean, or an opaque reference
// to anything else the evaluator produced (lists, maps, functions).
//
// The zero Value is nil.
type Value struct {
	kind  Kind
	str   string
	num   float64
	whole int64
	isInt bool
	flag  bool
	ref   any
}

// NilValue returns the nil Value.
func NilValue() Value { return Value{} }

// StringValue returns a Value for a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns a Value for an integer number.
func IntValue(i int64) Value {
	return Value{kind: KindNumber, whole: i, num: float64(i), isInt: true}
}

// FloatValue returns a Value for a floating point number.
func FloatValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// BoolValue returns a Value for a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// RefValue returns a Value holding an opaque reference. A nil reference
// yields the nil Value.
func RefValue(v any) Value {
	if v == nil {
		return Value{}
	}

	return Value{kind: KindRef, ref: v}
}

// ValueOf converts a Go value into a Value, choosing the most specific
// variant available.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return uintValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	default:
		return RefValue(v)
	}
}

func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return FloatValue(float64(u))
	}

	return IntValue(int64(u))
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is the nil Value.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsInt reports whether v is a number with an integer representation.
func (v Value) IsInt() bool { return v.kind == KindNumber && v.isInt }

// Int returns the integer held by v, truncating floating point numbers.
func (v Value) Int() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	if v.isInt {
		return v.whole, true
	}

	return int64(v.num), true
}

// Float returns the number held by v as a float64.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Any returns the Go value held by v, suitable for handing to an evaluator.
// Integers are returned as int, floating point numbers as float64.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.isInt {
			return int(v.whole)
		}

		return v.num
	case KindBool:
		return v.flag
	case KindRef:
		return v.ref
	default:
		return nil
	}
}

// String returns the stringified form of v as it appears in generated text.
// Nil renders as the empty string and floats in their shortest exact form.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(v.whole, 10)
		}

		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindRef:
		return fmt.Sprint(v.ref)
	default:
		return ""
	}
}

// Equal reports whether v and w hold the same variant and contents.
// References are compared with [reflect.DeepEqual].
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindString:
		return v.str == w.str
	case KindNumber:
		if v.isInt && w.isInt {
			return v.whole == w.whole
		}

		return v.num == w.num
	case KindBool:
		return v.flag == w.flag
	case KindRef:
		return reflect.DeepEqual(v.ref, w.ref)
	default:
		return true
	}
}

// Elements returns the values a block iterates over when its header
// expression evaluates to v:
//
//   - a list or array yields its elements;
//   - a map yields its keys in sorted order;
//   - true yields itself once, false yields nothing;
//   - nil, or an empty list or map, yields nothing;
//   - any other value yields itself once.
func (v Value) Elements() []Value {
	switch v.kind {
	case KindNil:
		return nil
	case KindBool:
		if v.flag {
			return []Value{v}
		}

		return nil
	case KindRef:
		return refElements(v)
	default:
		return []Value{v}
	}
}

func refElements(v Value) []Value {
	rv := reflect.ValueOf(v.ref)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			elems[i] = ValueOf(rv.Index(i).Interface())
		}

		return elems

	case reflect.Map:
		keys := make([]Value, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, ValueOf(k.Interface()))
		}

		slices.SortFunc(keys, compareValues)

		return keys

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}

	return []Value{v}
}

// compareValues orders numbers numerically ahead of everything else, which
// is ordered by its string form.
func compareValues(a, b Value) int {
	an, aok := a.Float()
	bn, bok := b.Float()

	switch {
	case aok && bok:
		return cmp.Compare(an, bn)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return cmp.Compare(a.String(), b.String())
	}
}
