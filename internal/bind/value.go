package bind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is a sealed interface over the dynamic value representations the
// compiled declarations produce and consume. Only the types in this file
// implement it.
type Value interface {
	value()
}

// Null represents an absent or nullable-and-unset value.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Int represents any signed integer value (int8 through int64, and enum
// member values).
type Int int64

func (Int) value() {}

// Uint represents any unsigned integer value, including bits compositions.
type Uint uint64

func (Uint) value() {}

// Float represents a float32 or float64 value.
type Float float64

func (Float) value() {}

// Str represents a string value.
type Str string

func (Str) value() {}

// List represents a vector or array value.
type List []Value

func (List) value() {}

// Record represents a struct or table value: field name to value. Structs
// carry every declared field; tables omit absent fields entirely.
type Record map[string]Value

func (Record) value() {}

// Handle represents a transferred handle by its raw value. Endpoint values
// are handles too.
type Handle uint32

func (Handle) value() {}

// UnionValue represents a union with at most one variant set. An empty
// variant name is the empty union. Result reports whether the declaring
// union has result semantics, which gates Unwrap.
type UnionValue struct {
	// TypeName is the declaring union's qualified name, for diagnostics.
	TypeName string
	Variant  string
	Value    Value
	Result   bool
}

func (UnionValue) value() {}

// Args carries named construction or call arguments.
type Args map[string]Value

// MarshalValue serializes a value to JSON with sorted record keys, so equal
// values always produce identical bytes. Union values are encoded as an
// object carrying a "$variant" key; handles as an object carrying "$handle".
// This serialization backs the exchange journal and golden traces; it is not
// the wire format.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Int:
		fmt.Fprintf(buf, "%d", int64(val))
	case Uint:
		fmt.Fprintf(buf, "%d", uint64(val))
	case Float:
		b, err := json.Marshal(float64(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Str:
		b, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Handle:
		fmt.Fprintf(buf, `{"$handle":%d}`, uint32(val))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalValue(buf, elem); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Record:
		buf.WriteByte('{')
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := marshalValue(buf, val[k]); err != nil {
				return fmt.Errorf("record[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case UnionValue:
		buf.WriteByte('{')
		fmt.Fprintf(buf, `"$type":%s,`, mustJSON(val.TypeName))
		fmt.Fprintf(buf, `"$variant":%s`, mustJSON(val.Variant))
		if val.Variant != "" {
			buf.WriteString(`,"value":`)
			if err := marshalValue(buf, val.Value); err != nil {
				return fmt.Errorf("union %s variant %s: %w", val.TypeName, val.Variant, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}
	return nil
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// ValueFromJSON parses the serialization produced by MarshalValue back into
// a value. Integral numbers become Int; numbers with a fraction or exponent
// become Float. Objects carrying "$variant" or "$handle" round-trip to
// UnionValue and Handle.
func ValueFromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return valueFromAny(raw)
}

func valueFromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return Str(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			f, err := val.Float64()
			if err != nil {
				return nil, fmt.Errorf("number %s: %w", s, err)
			}
			return Float(f), nil
		}
		i, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(i), nil
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			ev, err := valueFromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		if variant, ok := val["$variant"].(string); ok {
			u := UnionValue{Variant: variant}
			u.TypeName, _ = val["$type"].(string)
			if inner, ok := val["value"]; ok {
				iv, err := valueFromAny(inner)
				if err != nil {
					return nil, fmt.Errorf("union variant %s: %w", variant, err)
				}
				u.Value = iv
			}
			return u, nil
		}
		if h, ok := val["$handle"]; ok && len(val) == 1 {
			n, ok := h.(json.Number)
			if !ok {
				return nil, fmt.Errorf("$handle must be a number, got %T", h)
			}
			i, err := n.Int64()
			if err != nil {
				return nil, err
			}
			return Handle(uint32(i)), nil
		}
		out := make(Record, len(val))
		for k, elem := range val {
			ev, err := valueFromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("record[%q]: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value type: %T", v)
	}
}
