// Package value defines the closed set of typed values a store can hold
// and the codec that turns them into tagged byte payloads.
package value

import (
	"bytes"
	"math"
	"slices"
	"strconv"
)

// Kind identifies the concrete type stored in a Value.
//
// The numeric values double as the on-disk type tags; they must not be
// reordered or reused.
type Kind uint8

const (
	// KindInt is a signed 64-bit integer.
	KindInt Kind = iota
	// KindUint is an unsigned 64-bit integer.
	KindUint
	// KindFloat32 is an IEEE-754 32-bit float.
	KindFloat32
	// KindFloat64 is an IEEE-754 64-bit float.
	KindFloat64
	// KindBool is a boolean.
	KindBool
	// KindString is UTF-8 text.
	KindString
	// KindBlob is an arbitrary byte sequence.
	KindBlob
)

// Valid reports whether k is one of the defined value kinds.
func (k Kind) Valid() bool { return k <= KindBlob }

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a typed scalar or byte value as stored under a key.
//
// The kind set is closed: values are built through the constructors and
// inspected through the As* accessors, so every encode and decode site
// switches exhaustively over the kinds above. Numeric payloads are held
// as raw bits, which keeps float round-trips exact (NaN payloads and
// negative zero included).
type Value struct {
	kind Kind
	num  uint64 // integer value, float bits, or bool
	str  string
	blob []byte
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// Int returns a signed 64-bit integer Value.
func Int(v int64) Value { return Value{kind: KindInt, num: uint64(v)} }

// Uint returns an unsigned 64-bit integer Value.
func Uint(v uint64) Value { return Value{kind: KindUint, num: v} }

// Float32 returns a 32-bit float Value.
func Float32(v float32) Value {
	return Value{kind: KindFloat32, num: uint64(math.Float32bits(v))}
}

// Float64 returns a 64-bit float Value.
func Float64(v float64) Value {
	return Value{kind: KindFloat64, num: math.Float64bits(v)}
}

// Bool returns a boolean Value.
func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

// String returns a text Value. Text is persisted as UTF-8 and validated
// on decode.
func String(v string) Value { return Value{kind: KindString, str: v} }

// Blob returns a byte Value. The bytes are copied, so mutating v after
// the call does not affect the Value.
func Blob(v []byte) Value { return Value{kind: KindBlob, blob: slices.Clone(v)} }

// AsInt returns the signed integer value if the kind is KindInt.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int64(v.num), true
}

// AsUint returns the unsigned integer value if the kind is KindUint.
func (v Value) AsUint() (uint64, bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.num, true
}

// AsFloat32 returns the float value if the kind is KindFloat32.
func (v Value) AsFloat32() (float32, bool) {
	if v.kind != KindFloat32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.num)), true
}

// AsFloat64 returns the float value if the kind is KindFloat64.
func (v Value) AsFloat64() (float64, bool) {
	if v.kind != KindFloat64 {
		return 0, false
	}
	return math.Float64frombits(v.num), true
}

// AsBool returns the boolean value if the kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.num != 0, true
}

// AsString returns the text value if the kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBlob returns the byte value if the kind is KindBlob.
func (v Value) AsBlob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return v.blob, true
}

// Equal reports whether two values have the same kind and payload.
// Floats compare by bit pattern, so NaNs with equal payloads are equal
// and negative zero differs from positive zero.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindString {
		return v.str == o.str
	}
	if v.kind == KindBlob {
		return bytes.Equal(v.blob, o.blob)
	}
	return v.num == o.num
}
