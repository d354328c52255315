package lang

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		in   any
		kind Kind
		str  string
	}{
		{nil, KindNil, ""},
		{"s", KindString, "s"},
		{true, KindBool, "true"},
		{int8(-3), KindNumber, "-3"},
		{uint16(7), KindNumber, "7"},
		{int64(math.MaxInt64), KindNumber, "9223372036854775807"},
		{uint64(math.MaxUint64), KindNumber, "18446744073709551616"},
		{float32(0.5), KindNumber, "0.5"},
		{2.0, KindNumber, "2"},
		{[]int{1, 2}, KindRef, "[1 2]"},
		{StringValue("v"), KindString, "v"},
	}

	for _, tt := range tests {
		v := ValueOf(tt.in)
		if v.Kind() != tt.kind || v.String() != tt.str {
			t.Errorf("ValueOf(%#v) = %s %q, want %s %q",
				tt.in, v.Kind(), v.String(), tt.kind, tt.str)
		}
	}
}

func TestValue_Accessors(t *testing.T) {
	v := IntValue(42)
	if n, ok := v.Int(); !ok || n != 42 {
		t.Errorf("Int() = %d, %v", n, ok)
	}

	if f, ok := v.Float(); !ok || f != 42 {
		t.Errorf("Float() = %v, %v", f, ok)
	}

	if got, ok := v.Any().(int); !ok || got != 42 {
		t.Errorf("Any() = %#v", v.Any())
	}

	if n, ok := FloatValue(2.9).Int(); !ok || n != 2 {
		t.Errorf("FloatValue(2.9).Int() = %d, %v", n, ok)
	}

	if FloatValue(2).IsInt() {
		t.Error("FloatValue reported IsInt")
	}

	if _, ok := StringValue("1").Int(); ok {
		t.Error("string converted to int")
	}

	if b, ok := BoolValue(true).Bool(); !ok || !b {
		t.Errorf("Bool() = %v, %v", b, ok)
	}

	if !RefValue(nil).IsNil() || !NilValue().IsNil() {
		t.Error("nil reference is not the nil Value")
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{IntValue(1), IntValue(1), true},
		{IntValue(1), FloatValue(1), true},
		{IntValue(1), StringValue("1"), false},
		{StringValue("a"), StringValue("a"), true},
		{BoolValue(true), BoolValue(false), false},
		{RefValue([]int{1}), RefValue([]int{1}), true},
		{RefValue([]int{1}), RefValue([]int{2}), false},
		{NilValue(), Value{}, true},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValue_Elements(t *testing.T) {
	var nilMap map[string]int

	var nilPtr *int

	tests := []struct {
		name string
		in   Value
		want []string
	}{
		{"nil", NilValue(), nil},
		{"false", BoolValue(false), nil},
		{"true", BoolValue(true), []string{"true"}},
		{"scalar", StringValue("x"), []string{"x"}},
		{"number", IntValue(0), []string{"0"}},
		{"slice", RefValue([]string{"a", "b"}), []string{"a", "b"}},
		{"array", RefValue([2]int{3, 4}), []string{"3", "4"}},
		{"empty slice", RefValue([]int{}), []string{}},
		{"map keys sorted", RefValue(map[string]bool{"b": true, "a": false}), []string{"a", "b"}},
		{"numeric keys sorted numerically", RefValue(map[int]string{10: "", 9: "", 100: ""}), []string{"9", "10", "100"}},
		{"nil map", RefValue(nilMap), []string{}},
		{"nil pointer", RefValue(nilPtr), nil},
		{"struct", RefValue(struct{ A int }{1}), []string{"{1}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			if elems := tt.in.Elements(); elems != nil {
				got = make([]string, 0, len(elems))
				for _, v := range elems {
					got = append(got, v.String())
				}
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Elements() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{
		KindNil:    "nil",
		KindString: "string",
		KindNumber: "number",
		KindBool:   "bool",
		KindRef:    "ref",
	} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
