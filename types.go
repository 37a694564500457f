package sirius

import (
	"errors"
	"math/big"
)

// Char is a single Unicode scalar value. Fields of this type are encoded
// with the character codec (1-4 UTF-8 bytes); plain rune and int32 fields
// are encoded as 32-bit integers.
type Char rune

// Union marks a struct as a tagged union when embedded as its first field.
// Every other exported field must be a pointer and is one variant, numbered
// in declaration order from zero. Exactly one variant may be non-nil.
//
//	type Shape struct {
//		sirius.Union
//		Unit    *struct{}
//		Wrapper *uint16
//		Named   *Named
//	}
type Union struct{}

// MaxVariants is the most variants a union can declare: the discriminant is
// a single byte.
const MaxVariants = 256

// Uint128 is an unsigned 128-bit integer, encoded as Hi then Lo, big-endian.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a signed 128-bit two's complement integer spread across Hi:Lo.
type Int128 struct {
	Hi int64
	Lo uint64
}

var (
	two64  = new(big.Int).Lsh(big.NewInt(1), 64)
	two128 = new(big.Int).Lsh(big.NewInt(1), 128)
	min128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	max128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

	errRange = errors.New("value out of range")
)

func Uint128From64(v uint64) Uint128 { return Uint128{Lo: v} }

// Int128From64 sign-extends v.
func Int128From64(v int64) Int128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Int128{Hi: hi, Lo: uint64(v)}
}

func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string { return u.Big().String() }

func (i Int128) Big() *big.Int {
	b := Uint128{Hi: uint64(i.Hi), Lo: i.Lo}.Big()
	if i.Hi < 0 {
		b.Sub(b, two128)
	}
	return b
}

func (i Int128) String() string { return i.Big().String() }

// Uint128FromBig converts b, failing if it is negative or does not fit.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 || b.BitLen() > 128 {
		return Uint128{}, errRange
	}
	var hi, lo big.Int
	hi.QuoRem(b, two64, &lo)
	return Uint128{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

// Int128FromBig converts b, failing if it does not fit in 128 bits.
func Int128FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(min128) < 0 || b.Cmp(max128) > 0 {
		return Int128{}, errRange
	}
	u := new(big.Int).Set(b)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	v, err := Uint128FromBig(u)
	if err != nil {
		return Int128{}, err
	}
	return Int128{Hi: int64(v.Hi), Lo: v.Lo}, nil
}
