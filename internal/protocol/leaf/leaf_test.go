package leaf

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/structwire/internal/protocol"
)

func TestFixedWidthBigEndian(t *testing.T) {
	assert.Equal(t, []byte{0xff}, Int8.Encode(-1))
	assert.Equal(t, []byte{0x01, 0x02}, Uint16.Encode(0x0102))
	assert.Equal(t, []byte{0xff, 0xff, 0xfe, 0xd4}, Int32.Encode(-300))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 8}, Uint64.Encode(8))
	assert.Equal(t, []byte{0x3f, 0xf8, 0, 0, 0, 0, 0, 0}, Float64.Encode(1.5))
	assert.Equal(t, []byte{0x3f, 0xc0, 0, 0}, Float32.Encode(1.5))
}

func TestShortInputFails(t *testing.T) {
	cases := []struct {
		name   string
		decode func([]byte) error
		width  int
	}{
		{"i8", func(b []byte) error { _, err := Int8.Decode(b); return err }, 1},
		{"i16", func(b []byte) error { _, err := Int16.Decode(b); return err }, 2},
		{"i32", func(b []byte) error { _, err := Int32.Decode(b); return err }, 4},
		{"i64", func(b []byte) error { _, err := Int64.Decode(b); return err }, 8},
		{"i128", func(b []byte) error { _, err := Int128.Decode(b); return err }, 16},
		{"u8", func(b []byte) error { _, err := Uint8.Decode(b); return err }, 1},
		{"u16", func(b []byte) error { _, err := Uint16.Decode(b); return err }, 2},
		{"u32", func(b []byte) error { _, err := Uint32.Decode(b); return err }, 4},
		{"u64", func(b []byte) error { _, err := Uint64.Decode(b); return err }, 8},
		{"u128", func(b []byte) error { _, err := Uint128.Decode(b); return err }, 16},
		{"f32", func(b []byte) error { _, err := Float32.Decode(b); return err }, 4},
		{"f64", func(b []byte) error { _, err := Float64.Decode(b); return err }, 8},
		{"bool", func(b []byte) error { _, err := Bool.Decode(b); return err }, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.decode(make([]byte, tc.width)))
			require.ErrorIs(t, tc.decode(make([]byte, tc.width-1)), protocol.ErrInvalidLength)
			require.ErrorIs(t, tc.decode(make([]byte, tc.width+1)), protocol.ErrInvalidLength)
		})
	}
}

func TestBoolNonZeroIsTrue(t *testing.T) {
	for _, b := range []byte{1, 2, 0x80, 0xff} {
		v, err := Bool.Decode([]byte{b})
		require.NoError(t, err)
		assert.True(t, v, "byte 0x%02x", b)
	}
	v, err := Bool.Decode([]byte{0})
	require.NoError(t, err)
	assert.False(t, v)
	assert.Equal(t, []byte{1}, Bool.Encode(true))
	assert.Equal(t, []byte{0}, Bool.Encode(false))
}

func TestStringUsesFourBytePrefix(t *testing.T) {
	enc := String.Encode("abc")
	assert.Equal(t, []byte{0, 0, 0, 3, 'a', 'b', 'c'}, enc)

	got, err := String.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	empty, err := String.Decode([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestStringMalformed(t *testing.T) {
	_, err := String.Decode([]byte{0, 0, 1})
	require.ErrorIs(t, err, protocol.ErrInvalidLength)

	_, err = String.Decode([]byte{0, 0, 0, 5, 'a'})
	require.ErrorIs(t, err, protocol.ErrInvalidLength)

	_, err = String.Decode([]byte{0, 0, 0, 1, 'a', 'b'})
	require.ErrorIs(t, err, protocol.ErrInvalidLength)

	_, err = String.Decode([]byte{0, 0, 0, 1, 0xff})
	require.ErrorIs(t, err, protocol.ErrInvalidFieldData)
}

func TestBytesCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	enc := Bytes.Encode(src)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, enc)

	dec, err := Bytes.Decode(enc)
	require.NoError(t, err)
	enc[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, dec)
}

func TestFloatSpecialValuesRoundTrip(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1), math.SmallestNonzeroFloat64, math.Copysign(0, -1)} {
		got, err := Float64.Decode(Float64.Encode(f))
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(f), math.Float64bits(got))
	}
	nan, err := Float64.Decode(Float64.Encode(math.NaN()))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(nan))
}

func TestInt128BigConversions(t *testing.T) {
	minusOne := I128{Hi: -1, Lo: math.MaxUint64}
	assert.Equal(t, "-1", minusOne.String())
	assert.Equal(t, []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}, Int128.Encode(minusOne))

	for _, s := range []string{
		"0",
		"-1",
		"170141183460469231731687303715884105727",
		"-170141183460469231731687303715884105728",
		"18446744073709551616",
	} {
		b, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		v, err := I128FromBig(b)
		require.NoError(t, err, s)
		assert.Equal(t, s, v.String())

		back, err := Int128.Decode(Int128.Encode(v))
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}

	tooBig, _ := new(big.Int).SetString("170141183460469231731687303715884105728", 10)
	_, err := I128FromBig(tooBig)
	require.ErrorIs(t, err, protocol.ErrInvalidFieldData)
}

func TestUint128BigConversions(t *testing.T) {
	maxU, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	v, err := U128FromBig(maxU)
	require.NoError(t, err)
	assert.Equal(t, U128{Hi: math.MaxUint64, Lo: math.MaxUint64}, v)
	assert.Equal(t, maxU.String(), v.String())

	_, err = U128FromBig(new(big.Int).Add(maxU, big.NewInt(1)))
	require.ErrorIs(t, err, protocol.ErrInvalidFieldData)
	_, err = U128FromBig(big.NewInt(-1))
	require.ErrorIs(t, err, protocol.ErrInvalidFieldData)

	enc := Uint128.Encode(U128{Hi: 1, Lo: 2})
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2}, enc)
}
