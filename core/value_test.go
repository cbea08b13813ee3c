package sexpr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	cases := []struct {
		raw  string
		want Value
	}{
		{"42", IntVal(42)},
		{"-7", IntVal(-7)},
		{"+5", IntVal(5)},
		{"3.14159", FloatVal(3.14)},
		{"5.2", FloatVal(5.2)},
		{"2.0", IntVal(2)},
		{"1e3", IntVal(1000)},
		{".5", FloatVal(0.5)},
		{"5.", IntVal(5)},
		{"true", BoolVal(true)},
		{"false", BoolVal(false)},
		{"abc", TextVal("abc")},
		{"True", TextVal("True")},
		{"inf", TextVal("inf")},
		{"NaN", TextVal("NaN")},
		{"0x10", TextVal("0x10")},
		{"1_000", TextVal("1_000")},
		{"+", TextVal("+")},
		{"-", TextVal("-")},
		{"", TextVal("")},
	}
	for _, tc := range cases {
		got := Coerce(tc.raw)
		assert.True(t, ValuesEqual(tc.want, got), "Coerce(%q) = %s %s, want %s %s",
			tc.raw, got.KindName(), got, tc.want.KindName(), tc.want)
	}
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, IntVal(3), CoerceValue(FloatVal(3.0)))
	assert.Equal(t, FloatVal(3.9), CoerceValue(FloatVal(3.9000000000000004)))
	assert.Equal(t, FloatVal(0.33), CoerceValue(FloatVal(1.0/3)))
	assert.Equal(t, IntVal(12), CoerceValue(TextVal("12")))
	assert.Equal(t, TextVal("hi"), CoerceValue(TextVal("hi")))
	assert.Equal(t, BoolVal(true), CoerceValue(BoolVal(true)))
	assert.Equal(t, UnitVal(), CoerceValue(UnitVal()))
	assert.True(t, math.IsInf(CoerceValue(FloatVal(math.Inf(1))).Float, 1))
}

func TestValueString(t *testing.T) {
	cases := []struct {
		val  Value
		want string
	}{
		{IntVal(12586269025), "12586269025"},
		{FloatVal(3.9), "3.9"},
		{FloatVal(-0.25), "-0.25"},
		{FloatVal(1e21), "1e+21"},
		{FloatVal(math.Inf(1)), "Infinity"},
		{FloatVal(math.Inf(-1)), "-Infinity"},
		{FloatVal(math.NaN()), "NaN"},
		{BoolVal(false), "false"},
		{TextVal("a b"), "a b"},
		{UnitVal(), "undefined"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.val.String())
	}
}

func TestValueTruthy(t *testing.T) {
	cases := []struct {
		val    Value
		truthy bool
	}{
		{UnitVal(), false},
		{BoolVal(false), false},
		{BoolVal(true), true},
		{IntVal(0), false},
		{IntVal(-1), true},
		{FloatVal(0.5), true},
		{FloatVal(math.NaN()), false},
		{TextVal(""), false},
		{TextVal("0"), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.truthy, tc.val.Truthy(), "%s %s", tc.val.KindName(), tc.val)
	}
}

func TestLooseEqual(t *testing.T) {
	cases := []struct {
		a, b Value
		want bool
	}{
		{IntVal(10), IntVal(10), true},
		{IntVal(10), FloatVal(10), true},
		{FloatVal(2.5), FloatVal(2.5), true},
		{BoolVal(true), IntVal(1), true},
		{BoolVal(false), IntVal(0), true},
		{TextVal("5"), IntVal(5), true},
		{IntVal(5), TextVal(" 5 "), true},
		{TextVal(""), IntVal(0), true},
		{TextVal("a"), IntVal(0), false},
		{TextVal("a"), TextVal("a"), true},
		{TextVal("1"), TextVal("1.0"), false},
		{UnitVal(), UnitVal(), true},
		{UnitVal(), IntVal(0), false},
		{FloatVal(math.NaN()), FloatVal(math.NaN()), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LooseEqual(tc.a, tc.b), "%s %s == %s %s",
			tc.a.KindName(), tc.a, tc.b.KindName(), tc.b)
	}
}

func TestValueToGo(t *testing.T) {
	assert.Equal(t, int64(3), ValueToGo(IntVal(3)))
	assert.Equal(t, 0.5, ValueToGo(FloatVal(0.5)))
	assert.Equal(t, "Infinity", ValueToGo(FloatVal(math.Inf(1))))
	assert.Equal(t, true, ValueToGo(BoolVal(true)))
	assert.Equal(t, "x", ValueToGo(TextVal("x")))
	assert.Nil(t, ValueToGo(UnitVal()))
}
