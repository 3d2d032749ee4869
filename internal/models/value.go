package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FieldType тип скалярного поля схемы.
// Набор типов фиксирован и совпадает у всех пиров.
type FieldType string

const (
	FieldString FieldType = "STRING"
	FieldBool   FieldType = "BOOLEAN"
	FieldInt    FieldType = "INT"
	FieldLong   FieldType = "LONG"
)

// Valid reports whether t is one of the supported scalar types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldBool, FieldInt, FieldLong:
		return true
	default:
		return false
	}
}

// Value is a tagged scalar: exactly one of Str, Bool or Num is meaningful,
// selected by Type. INT values are kept in Num but are range checked to int32.
type Value struct {
	Str  string
	Num  int64
	Type FieldType
	Bool bool
}

// StringValue creates a STRING value
func StringValue(s string) Value { return Value{Type: FieldString, Str: s} }

// BoolValue creates a BOOLEAN value
func BoolValue(b bool) Value { return Value{Type: FieldBool, Bool: b} }

// IntValue creates an INT value
func IntValue(n int32) Value { return Value{Type: FieldInt, Num: int64(n)} }

// LongValue creates a LONG value
func LongValue(n int64) Value { return Value{Type: FieldLong, Num: n} }

// ZeroValue returns the zero value for a field type.
func ZeroValue(t FieldType) Value { return Value{Type: t} }

// Interface returns the plain Go value used in field maps:
// string, bool, int32 or int64.
func (v Value) Interface() any {
	switch v.Type {
	case FieldString:
		return v.Str
	case FieldBool:
		return v.Bool
	case FieldInt:
		return int32(v.Num)
	case FieldLong:
		return v.Num
	default:
		return nil
	}
}

// Equal compares type and the active member.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case FieldString:
		return v.Str == other.Str
	case FieldBool:
		return v.Bool == other.Bool
	default:
		return v.Num == other.Num
	}
}

func (v Value) String() string {
	switch v.Type {
	case FieldString:
		return v.Str
	case FieldBool:
		return strconv.FormatBool(v.Bool)
	case FieldInt, FieldLong:
		return strconv.FormatInt(v.Num, 10)
	default:
		return ""
	}
}

type valueJSON struct {
	Value any       `json:"value"`
	Type  FieldType `json:"type"`
}

// MarshalJSON stores the type tag next to the value so that
// LONG values survive a round trip through float64-based decoders.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Type: v.Type, Value: v.Interface()}
	if v.Type == FieldLong {
		// int64 теряет точность в JSON number, храним строкой
		out.Value = strconv.FormatInt(v.Num, 10)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged form produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"value"`
		Type  FieldType       `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	var inner any
	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.UseNumber()
	if err := dec.Decode(&inner); err != nil {
		return fmt.Errorf("failed to unmarshal %s value: %w", raw.Type, err)
	}

	decoded, err := Coerce(raw.Type, inner)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// Coerce converts a loosely typed value (as delivered by JSON decoders or
// other peers) into a Value of type t. This is the only place where numeric
// width and representation differences are reconciled.
func Coerce(t FieldType, raw any) (Value, error) {
	switch t {
	case FieldString:
		switch s := raw.(type) {
		case string:
			return StringValue(s), nil
		case nil:
			return ZeroValue(FieldString), nil
		}
	case FieldBool:
		switch b := raw.(type) {
		case bool:
			return BoolValue(b), nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, b)
			}
			return BoolValue(parsed), nil
		case nil:
			return ZeroValue(FieldBool), nil
		}
	case FieldInt, FieldLong:
		if raw == nil {
			return ZeroValue(t), nil
		}
		n, err := toInt64(raw)
		if err != nil {
			return Value{}, err
		}
		if t == FieldInt {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return Value{}, fmt.Errorf("%w: %d overflows INT", ErrTypeMismatch, n)
			}
			return IntValue(int32(n)), nil
		}
		return LongValue(n), nil
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, t)
	}

	return Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrTypeMismatch, raw, t)
}

func toInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows LONG", ErrTypeMismatch, n)
		}
		return int64(n), nil
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, n.String())
		}
		return floatToInt64(f)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: cannot use %T as integer", ErrTypeMismatch, raw)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %v is not integral", ErrTypeMismatch, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows LONG", ErrTypeMismatch, f)
	}
	return int64(f), nil
}
