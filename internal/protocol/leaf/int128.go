package leaf

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/danmuck/structwire/internal/protocol"
)

// U128 is an unsigned 128-bit integer split into two 64-bit halves.
type U128 struct {
	Hi uint64
	Lo uint64
}

// I128 is a two's complement signed 128-bit integer. Hi carries the sign.
type I128 struct {
	Hi int64
	Lo uint64
}

var (
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	mask64  = new(big.Int).SetUint64(^uint64(0))
)

// Big returns v as a big.Int.
func (v U128) Big() *big.Int {
	out := new(big.Int).SetUint64(v.Hi)
	out.Lsh(out, 64)
	return out.Or(out, new(big.Int).SetUint64(v.Lo))
}

func (v U128) String() string { return v.Big().String() }

// Big returns v as a big.Int.
func (v I128) Big() *big.Int {
	out := U128{Hi: uint64(v.Hi), Lo: v.Lo}.Big()
	if v.Hi < 0 {
		out.Sub(out, two128)
	}
	return out
}

func (v I128) String() string { return v.Big().String() }

// U128FromBig converts b, failing when it is negative or wider than 128 bits.
func U128FromBig(b *big.Int) (U128, error) {
	if b.Sign() < 0 || b.BitLen() > 128 {
		return U128{}, fmt.Errorf("%w: %s does not fit u128", protocol.ErrInvalidFieldData, b)
	}
	lo := new(big.Int).And(b, mask64).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return U128{Hi: hi, Lo: lo}, nil
}

// I128FromBig converts b, failing when it is outside the signed 128-bit range.
func I128FromBig(b *big.Int) (I128, error) {
	if b.Cmp(minI128) < 0 || b.Cmp(maxI128) > 0 {
		return I128{}, fmt.Errorf("%w: %s does not fit i128", protocol.ErrInvalidFieldData, b)
	}
	u := new(big.Int).Set(b)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	w, err := U128FromBig(u)
	if err != nil {
		return I128{}, err
	}
	return I128{Hi: int64(w.Hi), Lo: w.Lo}, nil
}

type uint128Codec struct{}

func (uint128Codec) Encode(v U128) []byte {
	buf := binary.BigEndian.AppendUint64(make([]byte, 0, 16), v.Hi)
	return binary.BigEndian.AppendUint64(buf, v.Lo)
}

func (uint128Codec) Decode(b []byte) (U128, error) {
	if err := fixed(b, 16, "u128"); err != nil {
		return U128{}, err
	}
	return U128{Hi: binary.BigEndian.Uint64(b[:8]), Lo: binary.BigEndian.Uint64(b[8:])}, nil
}

type int128Codec struct{}

func (int128Codec) Encode(v I128) []byte {
	return uint128Codec{}.Encode(U128{Hi: uint64(v.Hi), Lo: v.Lo})
}

func (int128Codec) Decode(b []byte) (I128, error) {
	u, err := uint128Codec{}.Decode(b)
	if err != nil {
		return I128{}, err
	}
	return I128{Hi: int64(u.Hi), Lo: u.Lo}, nil
}
