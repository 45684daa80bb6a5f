package balance

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"

	"zether/internal/babyjub"
)

// Variables is a ciphertext inside a circuit.
type Variables struct {
	L twistededwards.Point
	R twistededwards.Point
}

// Assign places a native ciphertext into a witness assignment.
func Assign(ct Ciphertext) Variables {
	return Variables{L: babyjub.Constant(ct.L), R: babyjub.Constant(ct.R)}
}

// Codec performs ciphertext arithmetic with a curve gadget.
type Codec struct {
	curve *babyjub.Curve
}

func NewCodec(curve *babyjub.Curve) *Codec {
	return &Codec{curve: curve}
}

// AssignBalanceEnc loads both components with the curve check.
func (c *Codec) AssignBalanceEnc(ct Variables) Variables {
	return Variables{
		L: c.curve.LoadPointChecked(ct.L.X, ct.L.Y),
		R: c.curve.LoadPointChecked(ct.R.X, ct.R.Y),
	}
}

// Encode returns (v·G + r·pk, r·G).
func (c *Codec) Encode(v frontend.Variable, pk twistededwards.Point, r frontend.Variable) Variables {
	rG := c.curve.ScalarBaseMul(r)
	return c.EncodeWithRandPoint(v, c.curve.ScalarMul(pk, r), rG)
}

// EncodeWithRandPoint builds (v·G + shared, randPoint) from a precomputed
// shared secret, which is either r·pk or, by key switching, priv·(r·G).
func (c *Codec) EncodeWithRandPoint(v frontend.Variable, shared, randPoint twistededwards.Point) Variables {
	vG := c.curve.ScalarBaseMul(v)
	return Variables{L: c.curve.Add(vG, shared), R: randPoint}
}

// Add combines two ciphertexts component-wise.
func (c *Codec) Add(a, b Variables) Variables {
	return Variables{L: c.curve.Add(a.L, b.L), R: c.curve.Add(a.R, b.R)}
}

func (c *Codec) AssertIsEqual(a, b Variables) {
	c.curve.AssertIsEqual(a.L, b.L)
	c.curve.AssertIsEqual(a.R, b.R)
}
