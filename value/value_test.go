package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		val  Value
	}{
		{"Int", Int(-42)},
		{"IntZero", Int(0)},
		{"IntMin", Int(math.MinInt64)},
		{"IntMax", Int(math.MaxInt64)},
		{"Uint", Uint(42)},
		{"UintMax", Uint(math.MaxUint64)},
		{"Float32", Float32(3.14)},
		{"Float32NegZero", Float32(float32(math.Copysign(0, -1)))},
		{"Float32Inf", Float32(float32(math.Inf(-1)))},
		{"Float64", Float64(2.718281828459045)},
		{"Float64NegZero", Float64(math.Copysign(0, -1))},
		{"Float64Inf", Float64(math.Inf(1))},
		{"BoolTrue", Bool(true)},
		{"BoolFalse", Bool(false)},
		{"String", String("hello world")},
		{"StringEmpty", String("")},
		{"StringNonASCII", String("こんにちは")},
		{"Blob", Blob([]byte{0x00, 0xFF, 0x7F, 0x80})},
		{"BlobEmpty", Blob([]byte{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.val)
			require.NoError(t, err)

			got, err := Decode(tt.val.Kind(), b)
			require.NoError(t, err)

			assert.True(t, tt.val.Equal(got), "want %v-kind value to round-trip", tt.val.Kind())
			assert.Equal(t, tt.val.Kind(), got.Kind())
		})
	}
}

func TestFloatBitsSurviveRoundTrip(t *testing.T) {
	// NaN payload bits must come back untouched, so compare the raw bits
	// rather than the float values.
	t.Run("Float64NaNPayload", func(t *testing.T) {
		bits := uint64(0x7FF8_0000_DEAD_BEEF)
		v := Float64(math.Float64frombits(bits))

		b, err := Encode(v)
		require.NoError(t, err)

		got, err := Decode(KindFloat64, b)
		require.NoError(t, err)

		f, ok := got.AsFloat64()
		require.True(t, ok)
		assert.Equal(t, bits, math.Float64bits(f))
	})

	t.Run("Float32NaNPayload", func(t *testing.T) {
		bits := uint32(0x7FC0_BEEF)
		v := Float32(math.Float32frombits(bits))

		b, err := Encode(v)
		require.NoError(t, err)

		got, err := Decode(KindFloat32, b)
		require.NoError(t, err)

		f, ok := got.AsFloat32()
		require.True(t, ok)
		assert.Equal(t, bits, math.Float32bits(f))
	})

	t.Run("NegativeZeroSign", func(t *testing.T) {
		b, err := Encode(Float64(math.Copysign(0, -1)))
		require.NoError(t, err)

		got, err := Decode(KindFloat64, b)
		require.NoError(t, err)

		f, ok := got.AsFloat64()
		require.True(t, ok)
		assert.True(t, math.Signbit(f))
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		data []byte
		want error
	}{
		{"IntShort", KindInt, []byte{1, 2, 3}, ErrInvalidLength},
		{"IntLong", KindInt, make([]byte, 9), ErrInvalidLength},
		{"UintShort", KindUint, nil, ErrInvalidLength},
		{"Float32Wrong", KindFloat32, make([]byte, 8), ErrInvalidLength},
		{"Float64Wrong", KindFloat64, make([]byte, 4), ErrInvalidLength},
		{"BoolEmpty", KindBool, []byte{}, ErrInvalidLength},
		{"BoolTwoBytes", KindBool, []byte{1, 0}, ErrInvalidLength},
		{"BoolBadByte", KindBool, []byte{2}, ErrInvalidBool},
		{"BoolHighByte", KindBool, []byte{0xFF}, ErrInvalidBool},
		{"StringBadUTF8", KindString, []byte{0xFF, 0xFE}, ErrInvalidUTF8},
		{"StringTruncatedRune", KindString, []byte{0xE3, 0x81}, ErrInvalidUTF8},
		{"UnknownKind", Kind(42), []byte{1}, ErrInvalidKind},
		{"TombstoneTagIsNotAKind", Kind(255), nil, ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	v := String(string([]byte{0xFF, 0xFE}))

	_, err := Encode(v)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestEncodeWidths(t *testing.T) {
	for _, tt := range []struct {
		name string
		val  Value
		size int
	}{
		{"Int", Int(1), 8},
		{"Uint", Uint(1), 8},
		{"Float32", Float32(1), 4},
		{"Float64", Float64(1), 8},
		{"Bool", Bool(true), 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.val)
			require.NoError(t, err)
			assert.Len(t, b, tt.size)
		})
	}
}

func TestAccessorsRejectOtherKinds(t *testing.T) {
	v := Bool(true)

	_, ok := v.AsInt()
	assert.False(t, ok)
	_, ok = v.AsUint()
	assert.False(t, ok)
	_, ok = v.AsFloat32()
	assert.False(t, ok)
	_, ok = v.AsFloat64()
	assert.False(t, ok)
	_, ok = v.AsString()
	assert.False(t, ok)
	_, ok = v.AsBlob()
	assert.False(t, ok)

	b, ok := v.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestNarrowerNumericKindsStayDistinct(t *testing.T) {
	// A value written as one numeric kind is never readable as another,
	// even when the payload width matches.
	v := Uint(7)

	_, ok := v.AsInt()
	assert.False(t, ok)

	b, err := Encode(v)
	require.NoError(t, err)

	got, err := Decode(KindUint, b)
	require.NoError(t, err)
	_, ok = got.AsInt()
	assert.False(t, ok)
}

func TestBlobDoesNotAliasInput(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Blob(src)

	src[0] = 99

	got, ok := v.AsBlob()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestEqual(t *testing.T) {
	assert.True(t, Int(1).Equal(Int(1)))
	assert.False(t, Int(1).Equal(Int(2)))
	assert.False(t, Int(1).Equal(Uint(1)))
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(Blob([]byte("a"))))
	assert.True(t, Blob([]byte{1}).Equal(Blob([]byte{1})))
	assert.False(t, Float64(0).Equal(Float64(math.Copysign(0, -1))))

	nan := math.Float64frombits(0x7FF8_0000_0000_0001)
	assert.True(t, Float64(nan).Equal(Float64(nan)))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "uint", KindUint.String())
	assert.Equal(t, "float32", KindFloat32.String())
	assert.Equal(t, "float64", KindFloat64.String())
	assert.Equal(t, "bool", KindBool.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "blob", KindBlob.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
