// Package leaf implements protocol.Codec for primitive value types.
//
// Fixed-width values are big-endian and must be exactly their width.
// Strings carry their own 4 byte length prefix inside the record value.
package leaf

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/danmuck/structwire/internal/protocol"
)

// StringLenSize is the width of the length prefix inside a string value.
const StringLenSize = 4

var (
	Int8    protocol.Codec[int8]    = int8Codec{}
	Int16   protocol.Codec[int16]   = int16Codec{}
	Int32   protocol.Codec[int32]   = int32Codec{}
	Int64   protocol.Codec[int64]   = int64Codec{}
	Int128  protocol.Codec[I128]    = int128Codec{}
	Uint8   protocol.Codec[uint8]   = uint8Codec{}
	Uint16  protocol.Codec[uint16]  = uint16Codec{}
	Uint32  protocol.Codec[uint32]  = uint32Codec{}
	Uint64  protocol.Codec[uint64]  = uint64Codec{}
	Uint128 protocol.Codec[U128]    = uint128Codec{}
	Float32 protocol.Codec[float32] = float32Codec{}
	Float64 protocol.Codec[float64] = float64Codec{}
	Bool    protocol.Codec[bool]    = boolCodec{}
	String  protocol.Codec[string]  = stringCodec{}
	Bytes   protocol.Codec[[]byte]  = bytesCodec{}
)

func fixed(b []byte, width int, kind string) error {
	if len(b) != width {
		return &protocol.LengthError{What: kind + " value", Need: uint64(width), Have: len(b)}
	}
	return nil
}

type int8Codec struct{}

func (int8Codec) Encode(v int8) []byte { return []byte{byte(v)} }

func (int8Codec) Decode(b []byte) (int8, error) {
	if err := fixed(b, 1, "i8"); err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

type int16Codec struct{}

func (int16Codec) Encode(v int16) []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(v))
}

func (int16Codec) Decode(b []byte) (int16, error) {
	if err := fixed(b, 2, "i16"); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

type int32Codec struct{}

func (int32Codec) Encode(v int32) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

func (int32Codec) Decode(b []byte) (int32, error) {
	if err := fixed(b, 4, "i32"); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

type int64Codec struct{}

func (int64Codec) Encode(v int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

func (int64Codec) Decode(b []byte) (int64, error) {
	if err := fixed(b, 8, "i64"); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

type uint8Codec struct{}

func (uint8Codec) Encode(v uint8) []byte { return []byte{v} }

func (uint8Codec) Decode(b []byte) (uint8, error) {
	if err := fixed(b, 1, "u8"); err != nil {
		return 0, err
	}
	return b[0], nil
}

type uint16Codec struct{}

func (uint16Codec) Encode(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func (uint16Codec) Decode(b []byte) (uint16, error) {
	if err := fixed(b, 2, "u16"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

type uint32Codec struct{}

func (uint32Codec) Encode(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func (uint32Codec) Decode(b []byte) (uint32, error) {
	if err := fixed(b, 4, "u32"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

type uint64Codec struct{}

func (uint64Codec) Encode(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func (uint64Codec) Decode(b []byte) (uint64, error) {
	if err := fixed(b, 8, "u64"); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

type float32Codec struct{}

func (float32Codec) Encode(v float32) []byte {
	return binary.BigEndian.AppendUint32(nil, math.Float32bits(v))
}

func (float32Codec) Decode(b []byte) (float32, error) {
	if err := fixed(b, 4, "f32"); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

type float64Codec struct{}

func (float64Codec) Encode(v float64) []byte {
	return binary.BigEndian.AppendUint64(nil, math.Float64bits(v))
}

func (float64Codec) Decode(b []byte) (float64, error) {
	if err := fixed(b, 8, "f64"); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

type boolCodec struct{}

func (boolCodec) Encode(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// Decode treats any nonzero byte as true.
func (boolCodec) Decode(b []byte) (bool, error) {
	if err := fixed(b, 1, "bool"); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

type stringCodec struct{}

// Encode panics if v is longer than a 4 byte length can describe; callers
// framing such values must use Bytes.
func (stringCodec) Encode(v string) []byte {
	if uint64(len(v)) > math.MaxUint32 {
		panic(fmt.Sprintf("leaf: string of %d bytes exceeds the 4 byte length prefix", len(v)))
	}
	buf := make([]byte, StringLenSize, StringLenSize+len(v))
	binary.BigEndian.PutUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

func (stringCodec) Decode(b []byte) (string, error) {
	if len(b) < StringLenSize {
		return "", &protocol.LengthError{What: "string length", Need: StringLenSize, Have: len(b)}
	}
	n := binary.BigEndian.Uint32(b[:StringLenSize])
	body := b[StringLenSize:]
	if uint64(n) != uint64(len(body)) {
		return "", &protocol.LengthError{What: "string value", Offset: StringLenSize, Need: uint64(n), Have: len(body)}
	}
	if !utf8.Valid(body) {
		return "", fmt.Errorf("%w: string is not valid UTF-8", protocol.ErrInvalidFieldData)
	}
	return string(body), nil
}

type bytesCodec struct{}

func (bytesCodec) Encode(v []byte) []byte {
	buf := make([]byte, len(v))
	copy(buf, v)
	return buf
}

func (bytesCodec) Decode(b []byte) ([]byte, error) {
	buf := make([]byte, len(b))
	copy(buf, b)
	return buf, nil
}
