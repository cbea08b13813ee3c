package sexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ValueKind int

const (
	ValUnit ValueKind = iota
	ValInt
	ValFloat
	ValBool
	ValText
)

// Value is a runtime scalar. The zero Value is Unit.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func UnitVal() Value           { return Value{Kind: ValUnit} }
func IntVal(n int64) Value     { return Value{Kind: ValInt, Int: n} }
func FloatVal(f float64) Value { return Value{Kind: ValFloat, Float: f} }
func BoolVal(b bool) Value     { return Value{Kind: ValBool, Bool: b} }
func TextVal(s string) Value   { return Value{Kind: ValText, Str: s} }

// Floats whose rounded value is integral collapse to Int inside this range.
const maxExactInt = 1 << 53

// Rounding to two places is skipped past this magnitude, where the float has
// no fractional precision left to round.
const roundLimit = 1e15

// Coerce classifies raw literal text: an integer, a float rounded to two
// decimal places, the booleans true and false, or opaque text.
func Coerce(raw string) Value {
	if isDecimal(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntVal(n)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return roundFloat(f)
		}
	}
	switch raw {
	case "true":
		return BoolVal(true)
	case "false":
		return BoolVal(false)
	}
	return TextVal(raw)
}

// CoerceValue runs a computed result back through the literal classification,
// so 3.0 comes back as Int 3 and the text "12" as Int 12.
func CoerceValue(v Value) Value {
	switch v.Kind {
	case ValFloat:
		return roundFloat(v.Float)
	case ValText:
		// Text results are reclassified like literals.
		return Coerce(v.Str)
	default:
		return v
	}
}

func roundFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return FloatVal(f)
	}
	r := f
	if math.Abs(f) < roundLimit {
		r = math.Round(f*100) / 100
	}
	if r == math.Trunc(r) && r >= -maxExactInt && r <= maxExactInt {
		return IntVal(int64(r))
	}
	return FloatVal(r)
}

// isDecimal reports whether s is a plain decimal number: optional sign,
// digits with an optional fraction, optional exponent. Spellings such as
// "inf", "NaN", hex floats and '_' separators are rejected.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// IsNumber reports whether v is an Int or a Float.
func (v Value) IsNumber() bool {
	return v.Kind == ValInt || v.Kind == ValFloat
}

// Truthy: Unit, false, zero, NaN and the empty text are falsy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValInt:
		return v.Int != 0
	case ValFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case ValBool:
		return v.Bool
	case ValText:
		return v.Str != ""
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ValInt:
		return strconv.FormatInt(v.Int, 10)
	case ValFloat:
		return formatFloat(v.Float)
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValText:
		return v.Str
	case ValUnit:
		return "undefined"
	default:
		return fmt.Sprintf("<unknown:%d>", v.Kind)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

func (v Value) KindName() string {
	switch v.Kind {
	case ValUnit:
		return "unit"
	case ValInt:
		return "int"
	case ValFloat:
		return "float"
	case ValBool:
		return "bool"
	case ValText:
		return "text"
	default:
		return "unknown"
	}
}

// toNumber converts v for arithmetic and loose comparison. Bools count as
// 1 and 0. Text converts only when it holds a decimal number or is blank.
func (v Value) toNumber() (float64, bool) {
	switch v.Kind {
	case ValInt:
		return float64(v.Int), true
	case ValFloat:
		return v.Float, true
	case ValBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case ValText:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, true
		}
		if !isDecimal(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return f, true
	default:
		return math.NaN(), false
	}
}

// LooseEqual compares the way the equality chain does: numbers, bools and
// numeric text compare by value, text against text compares exactly, and
// Unit only equals Unit.
func LooseEqual(a, b Value) bool {
	switch {
	case a.Kind == ValUnit || b.Kind == ValUnit:
		return a.Kind == b.Kind
	case a.Kind == ValText && b.Kind == ValText:
		return a.Str == b.Str
	case a.Kind == ValInt && b.Kind == ValInt:
		return a.Int == b.Int
	}
	x, ok := a.toNumber()
	if !ok {
		return false
	}
	y, ok := b.toNumber()
	if !ok {
		return false
	}
	return x == y
}

// ValuesEqual is strict equality: same kind, same payload.
func ValuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValInt:
		return a.Int == b.Int
	case ValFloat:
		return a.Float == b.Float || (math.IsNaN(a.Float) && math.IsNaN(b.Float))
	case ValBool:
		return a.Bool == b.Bool
	case ValText:
		return a.Str == b.Str
	case ValUnit:
		return true
	}
	return false
}

// ValueToGo converts v to a native Go value for JSON encoding. Unit maps to
// nil; non-finite floats map to their text form since JSON has no spelling
// for them.
func ValueToGo(v Value) any {
	switch v.Kind {
	case ValInt:
		return v.Int
	case ValFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return formatFloat(v.Float)
		}
		return v.Float
	case ValBool:
		return v.Bool
	case ValText:
		return v.Str
	default:
		return nil
	}
}
