// Package jsonvalue decodes JSON into an explicit, order-preserving value
// tree so that callers can walk arbitrarily nested payloads without a fixed
// schema.
//
// Objects keep their members in document order. When a key repeats, the
// member keeps its first position and takes the last value, which mirrors
// how most dynamic-language JSON decoders behave.
package jsonvalue

import (
	"encoding/json"
	"strconv"
)

// Kind identifies the variant held by a Value
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is a single key/value pair of an object
type Member struct {
	Key   string
	Value *Value
}

// Value is one node of a decoded JSON document
type Value struct {
	kind    Kind
	boolean bool
	number  json.Number
	str     string
	elems   []*Value
	members []Member
}

// NewNull returns a null value
func NewNull() *Value { return &Value{kind: Null} }

// NewBool returns a boolean value
func NewBool(b bool) *Value { return &Value{kind: Bool, boolean: b} }

// NewNumber returns a number value holding the literal n
func NewNumber(n json.Number) *Value { return &Value{kind: Number, number: n} }

// NewString returns a string value
func NewString(s string) *Value { return &Value{kind: String, str: s} }

// NewArray returns an array value with the given elements
func NewArray(elems ...*Value) *Value { return &Value{kind: Array, elems: elems} }

// NewObject returns an empty object value
func NewObject() *Value { return &Value{kind: Object} }

// Set stores value under key. An existing key keeps its position.
func (v *Value) Set(key string, value *Value) *Value {
	for i := range v.members {
		if v.members[i].Key == key {
			v.members[i].Value = value
			return v
		}
	}
	v.members = append(v.members, Member{Key: key, Value: value})
	return v
}

// Kind returns the variant of v. A nil Value reports Null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

// IsObject reports whether v is an object
func (v *Value) IsObject() bool { return v.Kind() == Object }

// IsArray reports whether v is an array
func (v *Value) IsArray() bool { return v.Kind() == Array }

// Get returns the member stored under key and whether it exists.
// Non-object values never have members.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Has reports whether an object has key
func (v *Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Members returns the object's members in document order
func (v *Value) Members() []Member {
	if v.Kind() != Object {
		return nil
	}
	return v.members
}

// Elems returns the array's elements in document order
func (v *Value) Elems() []*Value {
	if v.Kind() != Array {
		return nil
	}
	return v.elems
}

// Index returns the i-th array element, or nil when out of range
func (v *Value) Index(i int) *Value {
	elems := v.Elems()
	if i < 0 || i >= len(elems) {
		return nil
	}
	return elems[i]
}

// Len returns the number of elements, members, or string bytes
func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.elems)
	case Object:
		return len(v.members)
	case String:
		return len(v.str)
	default:
		return 0
	}
}

// Str returns the string held by v
func (v *Value) Str() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.str, true
}

// NumberValue returns the number literal held by v
func (v *Value) NumberValue() (json.Number, bool) {
	if v.Kind() != Number {
		return "", false
	}
	return v.number, true
}

// Int64 interprets v as an integer. Numbers and numeric strings qualify.
func (v *Value) Int64() (int64, bool) {
	var literal string
	switch v.Kind() {
	case Number:
		literal = v.number.String()
	case String:
		literal = v.str
	default:
		return 0, false
	}
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// Truthy follows the usual dynamic-language convention: null, false, zero,
// and empty strings, arrays and objects are falsy.
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case Bool:
		return v.boolean
	case Number:
		f, err := v.number.Float64()
		return err != nil || f != 0
	case String, Array, Object:
		return v.Len() > 0
	default:
		return false
	}
}
