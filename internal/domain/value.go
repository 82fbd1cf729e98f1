package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	// KindNull is an absent or explicit null value.
	KindNull ValueKind = iota
	// KindBool is a boolean.
	KindBool
	// KindNumber is any numeric value.
	KindNumber
	// KindString is a string.
	KindString
	// KindArray is an ordered list of values.
	KindArray
	// KindObject is a string-keyed mapping of values.
	KindObject
)

// String returns the JSON type name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a typed view of a decoded front matter value.
// Numbers and booleans carry only their kind. The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	arr  []Value
	obj  map[string]Value
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ArrayValue returns an array Value holding items.
func ArrayValue(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// ObjectValue returns an object Value holding fields.
func ObjectValue(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

// FromAny converts a decoded YAML or JSON value into a Value.
// Mapping keys that are not strings are formatted with fmt.Sprint.
// Unrecognized types are kept as their string representation.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case bool:
		return Value{kind: KindBool}
	case string:
		return StringValue(x)
	case int, int64, int32, uint, uint64, uint32, float32, float64:
		return Value{kind: KindNumber}
	case json.Number:
		if _, err := x.Float64(); err != nil {
			return StringValue(x.String())
		}
		return Value{kind: KindNumber}
	case time.Time:
		return StringValue(x.Format(time.RFC3339Nano))
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return ArrayValue(items...)
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = FromAny(item)
		}
		return ObjectValue(fields)
	case map[any]any:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[fmt.Sprint(k)] = FromAny(item)
		}
		return ObjectValue(fields)
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string held by v and whether v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Items returns the elements of an array value.
func (v Value) Items() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Field returns the named field of an object value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// Keys returns the field names of an object value in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Metadata is the decoded front matter of a document.
type Metadata map[string]Value

// NewMetadata converts a decoded front matter mapping into Metadata.
func NewMetadata(raw map[string]any) Metadata {
	m := make(Metadata, len(raw))
	for k, v := range raw {
		m[k] = FromAny(v)
	}
	return m
}

// String returns the named field when it holds a string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.Str()
}

// ID returns the declared id when it is a string.
func (m Metadata) ID() (string, bool) { return m.String("id") }

// Title returns the declared title when it is a string.
func (m Metadata) Title() (string, bool) { return m.String("title") }

// Steps returns the steps field and whether it is present.
func (m Metadata) Steps() (Value, bool) {
	v, ok := m["steps"]
	return v, ok
}
