package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNothing Kind = iota
	KindString
	KindBool
	KindNumber
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNothing:
		return "nothing"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the closed set of dynamically typed values that flow through
// expressions, capabilities and Memory. The zero Value is Nothing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
}

// Nothing is the absent value.
var Nothing = Value{}

// String builds a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool builds a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number builds a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// List builds a list Value. The slice is copied.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Strings builds a list of string Values.
func Strings(items []string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = String(s)
	}
	return Value{kind: KindList, list: vals}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNothing reports whether v is the absent value.
func (v Value) IsNothing() bool { return v.kind == KindNothing }

// Truthy is true only for Bool(true). Every other value coerces to false.
func (v Value) Truthy() bool { return v.kind == KindBool && v.b }

// Text returns the string payload, or "" when v is not a string.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.str
	}
	return ""
}

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsList returns a copy of the list payload and whether v is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Equal is structural equality. Values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNothing:
		return true
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for logs and for display to users.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Any converts v to its natural Go representation (nil, string, bool, float64, []any).
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts a Go value into a Value. Unsupported types yield an error.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Nothing, nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Nothing, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return Number(f), nil
	case []string:
		return Strings(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Nothing, err
			}
			items[i] = v
		}
		return Value{kind: KindList, list: items}, nil
	default:
		return Nothing, fmt.Errorf("%w: unsupported value type %T", ErrInvalidArgument, x)
	}
}

// MarshalJSON encodes v as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes any JSON scalar, array or null into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
