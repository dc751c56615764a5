package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the tag of a Value's active variant.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a tagged union over {nil, boolean, number, heap-object
// reference}. It is the currency of both the constant pool and the VM's
// value stack.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Obj  Obj
}

// Nil returns the nil value.
func Nil() Value { return Value{Kind: KindNil} }

// BoolVal wraps a boolean.
func BoolVal(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NumberVal wraps an IEEE-754 double.
func NumberVal(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// ObjVal wraps a heap object reference.
func ObjVal(o Obj) Value { return Value{Kind: KindObj, Obj: o} }

// IsNil, IsBool, IsNumber, IsObj test the active variant.
func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsObj() bool    { return v.Kind == KindObj }

// IsString, IsList, IsRange, IsFunction test both the variant and the
// concrete object type.
func (v Value) IsString() bool   { return v.IsObj() && v.Obj.Type() == ObjTypeString }
func (v Value) IsList() bool     { return v.IsObj() && v.Obj.Type() == ObjTypeList }
func (v Value) IsRange() bool    { return v.IsObj() && v.Obj.Type() == ObjTypeRange }
func (v Value) IsFunction() bool { return v.IsObj() && v.Obj.Type() == ObjTypeFunction }

// AsString, AsList, AsRange, AsFunction downcast; callers must have checked
// the corresponding Is* predicate first.
func (v Value) AsString() *ObjString     { return v.Obj.(*ObjString) }
func (v Value) AsList() *ObjList         { return v.Obj.(*ObjList) }
func (v Value) AsRange() *ObjRange       { return v.Obj.(*ObjRange) }
func (v Value) AsFunction() *ObjFunction { return v.Obj.(*ObjFunction) }

// IsTruthy reports whether a value counts as true in a boolean context:
// nil and false are falsy, everything else is truthy.
func IsTruthy(v Value) bool {
	if v.IsNil() {
		return false
	}
	if v.IsBool() {
		return v.Bool
	}
	return true
}

// ValuesEqual implements the equality rules of section 3: same tag
// required; nil==nil; numbers compare bit-equivalent; booleans by
// identity; heap objects by reference (strings are interned, so
// byte-equal strings already share one object).
func ValuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Num == b.Num
	case KindObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// String renders a value the way `println` does: %g-formatted numbers,
// true/false, nil (spelled nil, even though the source keyword is null),
// raw string bytes, [v0, v1, ...] for lists, and S..E for ranges.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return formatNumber(v.Num)
	case KindObj:
		switch v.Obj.Type() {
		case ObjTypeString:
			return v.AsString().Chars
		case ObjTypeList:
			return formatList(v.AsList())
		case ObjTypeRange:
			r := v.AsRange()
			return fmt.Sprintf("%s..%s", formatNumber(r.Start), formatNumber(r.End))
		case ObjTypeFunction:
			fn := v.AsFunction()
			if fn.Name == nil {
				return "<script>"
			}
			return fmt.Sprintf("<fn %s>", fn.Name.Chars)
		}
	}
	return "<invalid value>"
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func formatList(l *ObjList) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range l.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	b.WriteByte(']')
	return b.String()
}
