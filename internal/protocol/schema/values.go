package schema

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/danmuck/structwire/internal/protocol"
	"github.com/danmuck/structwire/internal/protocol/leaf"
)

func decodeValue(t Type, raw []byte) (any, error) {
	switch t {
	case TypeI8:
		return decodeWith(leaf.Int8, raw)
	case TypeI16:
		return decodeWith(leaf.Int16, raw)
	case TypeI32:
		return decodeWith(leaf.Int32, raw)
	case TypeI64:
		return decodeWith(leaf.Int64, raw)
	case TypeI128:
		return decodeWith(leaf.Int128, raw)
	case TypeU8:
		return decodeWith(leaf.Uint8, raw)
	case TypeU16:
		return decodeWith(leaf.Uint16, raw)
	case TypeU32:
		return decodeWith(leaf.Uint32, raw)
	case TypeU64:
		return decodeWith(leaf.Uint64, raw)
	case TypeU128:
		return decodeWith(leaf.Uint128, raw)
	case TypeF32:
		return decodeWith(leaf.Float32, raw)
	case TypeF64:
		return decodeWith(leaf.Float64, raw)
	case TypeBool:
		return decodeWith(leaf.Bool, raw)
	case TypeString:
		return decodeWith(leaf.String, raw)
	case TypeBytes:
		return decodeWith(leaf.Bytes, raw)
	default:
		return nil, fmt.Errorf("%w: %s", protocol.ErrInvalidDataType, t)
	}
}

func decodeWith[T any](c protocol.Codec[T], raw []byte) (any, error) {
	v, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func encodeValue(t Type, v any) ([]byte, error) {
	switch t {
	case TypeI8, TypeI16, TypeI32, TypeI64:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return encodeSigned(t, n)
	case TypeU8, TypeU16, TypeU32, TypeU64:
		n, err := toUint64(v)
		if err != nil {
			return nil, err
		}
		return encodeUnsigned(t, n)
	case TypeI128:
		if x, ok := v.(leaf.I128); ok {
			return leaf.Int128.Encode(x), nil
		}
		b, err := toBig(v)
		if err != nil {
			return nil, err
		}
		x, err := leaf.I128FromBig(b)
		if err != nil {
			return nil, err
		}
		return leaf.Int128.Encode(x), nil
	case TypeU128:
		if x, ok := v.(leaf.U128); ok {
			return leaf.Uint128.Encode(x), nil
		}
		b, err := toBig(v)
		if err != nil {
			return nil, err
		}
		x, err := leaf.U128FromBig(b)
		if err != nil {
			return nil, err
		}
		return leaf.Uint128.Encode(x), nil
	case TypeF32:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, outOfRange(v, t)
		}
		return leaf.Float32.Encode(float32(f)), nil
	case TypeF64:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return leaf.Float64.Encode(f), nil
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, wrongType(v, t)
		}
		return leaf.Bool.Encode(b), nil
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, wrongType(v, t)
		}
		return leaf.String.Encode(s), nil
	case TypeBytes:
		switch b := v.(type) {
		case []byte:
			return leaf.Bytes.Encode(b), nil
		case string:
			raw, err := hex.DecodeString(strings.TrimPrefix(b, "0x"))
			if err != nil {
				return nil, fmt.Errorf("%w: bytes value is not hex: %v", protocol.ErrInvalidFieldData, err)
			}
			return raw, nil
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			// TOML and YAML read an unquoted 0x0102 as an integer.
			return nil, fmt.Errorf("%w: bytes value %v must be a quoted hex string", protocol.ErrWrongDataType, v)
		default:
			return nil, wrongType(v, t)
		}
	default:
		return nil, fmt.Errorf("%w: %s", protocol.ErrInvalidDataType, t)
	}
}

func encodeSigned(t Type, n int64) ([]byte, error) {
	switch t {
	case TypeI8:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, outOfRange(n, t)
		}
		return leaf.Int8.Encode(int8(n)), nil
	case TypeI16:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, outOfRange(n, t)
		}
		return leaf.Int16.Encode(int16(n)), nil
	case TypeI32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, outOfRange(n, t)
		}
		return leaf.Int32.Encode(int32(n)), nil
	default:
		return leaf.Int64.Encode(n), nil
	}
}

func encodeUnsigned(t Type, n uint64) ([]byte, error) {
	switch t {
	case TypeU8:
		if n > math.MaxUint8 {
			return nil, outOfRange(n, t)
		}
		return leaf.Uint8.Encode(uint8(n)), nil
	case TypeU16:
		if n > math.MaxUint16 {
			return nil, outOfRange(n, t)
		}
		return leaf.Uint16.Encode(uint16(n)), nil
	case TypeU32:
		if n > math.MaxUint32 {
			return nil, outOfRange(n, t)
		}
		return leaf.Uint32.Encode(uint32(n)), nil
	default:
		return leaf.Uint64.Encode(n), nil
	}
}

// toInt64 accepts the integer shapes produced by TOML, YAML and JSON
// decoders, including integral floats.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
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
	case uint, uint64:
		u, _ := toUint64(n)
		if u > math.MaxInt64 {
			return 0, outOfRange(v, TypeI64)
		}
		return int64(u), nil
	case float32:
		return toInt64(float64(n))
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, outOfRange(v, TypeI64)
		}
		return int64(n), nil
	default:
		return 0, wrongType(v, TypeI64)
	}
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int, int8, int16, int32, int64:
		s, _ := toInt64(n)
		if s < 0 {
			return 0, outOfRange(v, TypeU64)
		}
		return uint64(s), nil
	case float32:
		return toUint64(float64(n))
	case float64:
		if n != math.Trunc(n) || n < 0 || n >= math.MaxUint64 {
			return 0, outOfRange(v, TypeU64)
		}
		return uint64(n), nil
	default:
		return 0, wrongType(v, TypeU64)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int, int8, int16, int32, int64:
		s, _ := toInt64(n)
		return float64(s), nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint64(n)
		return float64(u), nil
	default:
		return 0, wrongType(v, TypeF64)
	}
}

// toBig accepts integers, *big.Int and decimal strings for 128-bit fields.
func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case string:
		b, ok := new(big.Int).SetString(strings.TrimSpace(n), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a decimal integer", protocol.ErrInvalidFieldData, n)
		}
		return b, nil
	case uint, uint64:
		u, _ := toUint64(n)
		return new(big.Int).SetUint64(u), nil
	default:
		s, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return big.NewInt(s), nil
	}
}

func wrongType(v any, t Type) error {
	return fmt.Errorf("%w: %T cannot be encoded as %s", protocol.ErrWrongDataType, v, t)
}

func outOfRange(v any, t Type) error {
	return fmt.Errorf("%w: %v does not fit %s", protocol.ErrInvalidFieldData, v, t)
}
