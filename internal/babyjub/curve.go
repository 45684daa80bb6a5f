package babyjub

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
)

// Curve is the in-circuit arithmetic engine for one fixed parameter set.
type Curve struct {
	api    frontend.API
	params *Params
	a, d   *big.Int
}

// New returns a gadget bound to api. A nil params selects DefaultParams.
func New(api frontend.API, params *Params) *Curve {
	if params == nil {
		params = DefaultParams()
	}
	return &Curve{
		api:    api,
		params: params,
		a:      params.A.BigInt(new(big.Int)),
		d:      params.D.BigInt(new(big.Int)),
	}
}

func (c *Curve) API() frontend.API { return c.api }

func (c *Curve) Params() *Params { return c.params }

// LoadPointUnchecked wraps two coordinates without constraining them. Use it
// only for values derived from points that were already checked.
func (c *Curve) LoadPointUnchecked(x, y frontend.Variable) twistededwards.Point {
	return twistededwards.Point{X: x, Y: y}
}

// LoadPointChecked wraps two coordinates and asserts the curve equation.
func (c *Curve) LoadPointChecked(x, y frontend.Variable) twistededwards.Point {
	p := c.LoadPointUnchecked(x, y)
	c.AssertIsOnCurve(p)
	return p
}

// AssertIsOnCurve asserts a·x² + y² == 1 + d·x²·y².
func (c *Curve) AssertIsOnCurve(p twistededwards.Point) {
	api := c.api
	x2 := api.Mul(p.X, p.X)
	y2 := api.Mul(p.Y, p.Y)
	lhs := api.Add(api.Mul(c.a, x2), y2)
	rhs := api.Add(1, api.Mul(c.d, x2, y2))
	api.AssertIsEqual(lhs, rhs)
}

// Add applies the unified addition law. Both quotients are witnessed and
// checked with one multiplication each.
func (c *Curve) Add(p1, p2 twistededwards.Point) twistededwards.Point {
	api := c.api
	beta := api.Mul(p1.X, p2.Y)
	gamma := api.Mul(p1.Y, p2.X)
	delta := api.Mul(
		api.Sub(p1.Y, api.Mul(c.a, p1.X)),
		api.Add(p2.X, p2.Y),
	)
	tau := api.Mul(beta, gamma)
	dtau := api.Mul(c.d, tau)

	x3 := c.div(api.Add(beta, gamma), api.Add(1, dtau))
	y3 := c.div(api.Sub(api.Add(delta, api.Mul(c.a, beta)), gamma), api.Sub(1, dtau))
	return twistededwards.Point{X: x3, Y: y3}
}

// Double returns Add(p, p).
func (c *Curve) Double(p twistededwards.Point) twistededwards.Point {
	return c.Add(p, p)
}

// IsEqual returns 1 when both coordinates match, 0 otherwise.
func (c *Curve) IsEqual(p1, p2 twistededwards.Point) frontend.Variable {
	api := c.api
	ex := api.IsZero(api.Sub(p1.X, p2.X))
	ey := api.IsZero(api.Sub(p1.Y, p2.Y))
	return api.And(ex, ey)
}

// AssertIsEqual constrains p1 == p2.
func (c *Curve) AssertIsEqual(p1, p2 twistededwards.Point) {
	c.api.AssertIsEqual(p1.X, p2.X)
	c.api.AssertIsEqual(p1.Y, p2.Y)
}

// Select returns p1 if b is 1 and p2 if b is 0.
func (c *Curve) Select(b frontend.Variable, p1, p2 twistededwards.Point) twistededwards.Point {
	return twistededwards.Point{
		X: c.api.Select(b, p1.X, p2.X),
		Y: c.api.Select(b, p1.Y, p2.Y),
	}
}

// Identity returns the constant (0, 1).
func (c *Curve) Identity() twistededwards.Point {
	return twistededwards.Point{X: 0, Y: 1}
}

// Generator returns the fixed generator as a constant point.
func (c *Curve) Generator() twistededwards.Point {
	return Constant(c.params.Base)
}

// Constant converts a native point into circuit constants. It is also the
// way native points are placed into a witness assignment.
func Constant(p Point) twistededwards.Point {
	x, y := p.BigInts()
	return twistededwards.Point{X: x, Y: y}
}

// div returns num/den. Constant operands are folded at compile time;
// otherwise the quotient comes from DivHint and q·den == num is asserted.
func (c *Curve) div(num, den frontend.Variable) frontend.Variable {
	api := c.api
	if n, ok := api.Compiler().ConstantValue(num); ok {
		if d, ok := api.Compiler().ConstantValue(den); ok {
			field := api.Compiler().Field()
			if new(big.Int).Mod(d, field).Sign() == 0 {
				panic(ErrDegenerateAddition)
			}
			inv := new(big.Int).ModInverse(d, field)
			return new(big.Int).Mod(new(big.Int).Mul(n, inv), field)
		}
	}
	q, err := api.Compiler().NewHint(DivHint, 1, num, den)
	if err != nil {
		panic(err)
	}
	api.AssertIsEqual(api.Mul(q[0], den), num)
	return q[0]
}
