package babyjub

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
)

// ScalarBits returns the ScalarBitLen binary digits of s, least significant
// first. Only scalars in [0, p) have such a decomposition.
func ScalarBits(s *big.Int) ([]uint, error) {
	if s == nil || s.Sign() < 0 || s.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrMalformedScalar
	}
	digits := make([]uint, ScalarBitLen)
	for i := range digits {
		digits[i] = s.Bit(i)
	}
	return digits, nil
}

// ScalarMul computes s·pt by double-and-add over the digits of s, starting
// from the identity. Every step performs the addition even when the digit is
// zero, exactly like the gadget does.
func (p *Params) ScalarMul(pt Point, s *big.Int) (Point, error) {
	digits, err := ScalarBits(s)
	if err != nil {
		return Point{}, err
	}
	return p.ScalarMulDigits(pt, digits)
}

// ScalarBaseMul computes s·G.
func (p *Params) ScalarBaseMul(s *big.Int) (Point, error) {
	return p.ScalarMul(p.Base, s)
}

// ScalarMulDigits folds an explicit digit sequence. Digits other than 0 and 1
// are rejected.
func (p *Params) ScalarMulDigits(pt Point, digits []uint) (Point, error) {
	acc := Identity()
	base := pt
	for i, b := range digits {
		if b > 1 {
			return Point{}, ErrMalformedScalar
		}
		sum, err := p.Add(acc, base)
		if err != nil {
			return Point{}, err
		}
		if b == 1 {
			acc = sum
		}
		if i == len(digits)-1 {
			break
		}
		if base, err = p.Double(base); err != nil {
			return Point{}, err
		}
	}
	return acc, nil
}

// ScalarMul computes s·P in-circuit. The decomposition of s is constrained to
// be the canonical one over the full field width, so a prover cannot pick an
// alternative digit sequence for the same field element.
func (c *Curve) ScalarMul(p twistededwards.Point, s frontend.Variable) twistededwards.Point {
	digits := c.api.ToBinary(s, ScalarBitLen)
	return c.ScalarMulBits(p, digits)
}

// ScalarBaseMul computes s·G with G the fixed generator.
func (c *Curve) ScalarBaseMul(s frontend.Variable) twistededwards.Point {
	return c.ScalarMul(c.Generator(), s)
}

// ScalarMulBits folds double-and-add over boolean digits, least significant
// first. The digits must already be constrained to be boolean.
func (c *Curve) ScalarMulBits(p twistededwards.Point, digits []frontend.Variable) twistededwards.Point {
	acc := c.Identity()
	base := p
	for i, b := range digits {
		acc = c.Select(b, c.Add(acc, base), acc)
		if i < len(digits)-1 {
			base = c.Double(base)
		}
	}
	return acc
}
