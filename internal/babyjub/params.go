package babyjub

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	CoeffA = 168700
	CoeffD = 168696

	// ScalarBitLen is the number of binary digits a scalar is decomposed into.
	ScalarBitLen = fr.Bits
)

const (
	baseX = "5299619240641551281634865583518297030282874472190772894086521144482721001553"
	baseY = "16950150798460657717958625567821834550301663161624707787222815936182638968203"
	order = "2736030358979909402780800718157159386076813972158567259200215660948447373041"
)

// Params are the curve constants shared by native and in-circuit code.
// They are never mutated once built.
type Params struct {
	A     fr.Element
	D     fr.Element
	Base  Point
	Order *big.Int
}

// DefaultParams returns Baby Jubjub with the Base8 generator of the prime
// order subgroup.
var DefaultParams = sync.OnceValue(func() *Params {
	var base Point
	if _, err := base.X.SetString(baseX); err != nil {
		panic(err)
	}
	if _, err := base.Y.SetString(baseY); err != nil {
		panic(err)
	}
	l, ok := new(big.Int).SetString(order, 10)
	if !ok {
		panic("babyjub: invalid subgroup order")
	}
	params, err := NewParams(CoeffA, CoeffD, base, l)
	if err != nil {
		panic(err)
	}
	return params
})

// NewParams validates and builds a parameter set. The generator must lie on
// the curve defined by a and d.
func NewParams(a, d uint64, base Point, order *big.Int) (*Params, error) {
	if a == 0 || d == 0 || a == d {
		return nil, fmt.Errorf("babyjub: invalid coefficients a=%d d=%d", a, d)
	}
	if order == nil || order.Sign() <= 0 {
		return nil, fmt.Errorf("babyjub: invalid subgroup order")
	}
	p := &Params{Base: base, Order: new(big.Int).Set(order)}
	p.A.SetUint64(a)
	p.D.SetUint64(d)
	if !p.IsOnCurve(base) {
		return nil, fmt.Errorf("generator: %w", ErrPointNotOnCurve)
	}
	return p, nil
}

// RandomScalar samples a uniform scalar in [1, Order).
func (p *Params) RandomScalar() (*big.Int, error) {
	bound := new(big.Int).Sub(p.Order, big.NewInt(1))
	s, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return nil, err
	}
	return s.Add(s, big.NewInt(1)), nil
}
