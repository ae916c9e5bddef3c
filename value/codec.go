package value

import (
	"encoding/binary"
	"errors"
	"slices"
	"unicode/utf8"
)

var (
	// ErrInvalidKind reports a type tag outside the defined kind set.
	ErrInvalidKind = errors.New("invalid value kind")
	// ErrInvalidLength reports a payload whose size does not match its kind.
	ErrInvalidLength = errors.New("invalid value length")
	// ErrInvalidBool reports a boolean payload other than 0 or 1.
	ErrInvalidBool = errors.New("invalid bool value")
	// ErrInvalidUTF8 reports text that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 text")
)

// Encode returns the payload bytes for v. The type tag travels separately
// as v.Kind(). The returned slice is freshly allocated and never aliases
// the Value. Integers and floats are fixed-width little-endian regardless
// of the host platform.
//
// Text is checked here as well as on decode: Go strings may carry
// arbitrary bytes, and rejecting them at encode time keeps every
// persisted text payload valid UTF-8.
func Encode(v Value) ([]byte, error) {
	switch v.kind {
	case KindInt, KindUint, KindFloat64:
		return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), v.num), nil
	case KindFloat32:
		return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), uint32(v.num)), nil
	case KindBool:
		if v.num != 0 {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case KindString:
		if !utf8.ValidString(v.str) {
			return nil, ErrInvalidUTF8
		}
		return []byte(v.str), nil
	case KindBlob:
		return slices.Clone(v.blob), nil
	default:
		return nil, ErrInvalidKind
	}
}

// Decode reconstructs a Value of kind k from its payload bytes.
//
// Fixed-width kinds require the exact payload size. Booleans accept only
// 0 or 1. Text must be valid UTF-8. Blob bytes are copied so the Value
// does not alias data.
func Decode(k Kind, data []byte) (Value, error) {
	switch k {
	case KindInt, KindUint, KindFloat64:
		if len(data) != 8 {
			return Value{}, ErrInvalidLength
		}
		return Value{kind: k, num: binary.LittleEndian.Uint64(data)}, nil
	case KindFloat32:
		if len(data) != 4 {
			return Value{}, ErrInvalidLength
		}
		return Value{kind: KindFloat32, num: uint64(binary.LittleEndian.Uint32(data))}, nil
	case KindBool:
		if len(data) != 1 {
			return Value{}, ErrInvalidLength
		}
		switch data[0] {
		case 0:
			return Value{kind: KindBool}, nil
		case 1:
			return Value{kind: KindBool, num: 1}, nil
		default:
			return Value{}, ErrInvalidBool
		}
	case KindString:
		if !utf8.Valid(data) {
			return Value{}, ErrInvalidUTF8
		}
		return Value{kind: KindString, str: string(data)}, nil
	case KindBlob:
		b := make([]byte, len(data))
		copy(b, data)
		return Value{kind: KindBlob, blob: b}, nil
	default:
		return Value{}, ErrInvalidKind
	}
}
