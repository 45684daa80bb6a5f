package babyjub

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// PointSize is the length of the canonical point encoding (x‖y, little-endian).
const PointSize = 2 * fr.Bytes

// Point is an affine point with native field coordinates.
type Point struct {
	X fr.Element
	Y fr.Element
}

// Identity returns the neutral element (0, 1).
func Identity() Point {
	var p Point
	p.Y.SetOne()
	return p
}

// NewPoint reduces x and y into the field without any curve check.
func NewPoint(x, y *big.Int) Point {
	var p Point
	p.X.SetBigInt(x)
	p.Y.SetBigInt(y)
	return p
}

// Load builds a point from coordinates and checks the curve equation.
func (p *Params) Load(x, y *big.Int) (Point, error) {
	pt := NewPoint(x, y)
	if !p.IsOnCurve(pt) {
		return Point{}, fmt.Errorf("(%s, %s): %w", x, y, ErrPointNotOnCurve)
	}
	return pt, nil
}

// IsOnCurve reports whether a·x² + y² = 1 + d·x²·y².
func (p *Params) IsOnCurve(pt Point) bool {
	var x2, y2, lhs, rhs fr.Element
	x2.Square(&pt.X)
	y2.Square(&pt.Y)

	lhs.Mul(&p.A, &x2).Add(&lhs, &y2)

	rhs.Mul(&x2, &y2).Mul(&rhs, &p.D)
	var one fr.Element
	one.SetOne()
	rhs.Add(&rhs, &one)

	return lhs.Equal(&rhs)
}

// Add applies the unified addition law. It fails only when a denominator
// vanishes, which cannot happen for two points on the curve.
func (p *Params) Add(p1, p2 Point) (Point, error) {
	var beta, gamma, delta, tau, t0, t1 fr.Element
	beta.Mul(&p1.X, &p2.Y)
	gamma.Mul(&p1.Y, &p2.X)

	t0.Mul(&p.A, &p1.X)
	t0.Sub(&p1.Y, &t0)
	t1.Add(&p2.X, &p2.Y)
	delta.Mul(&t0, &t1)

	tau.Mul(&beta, &gamma)

	var one, dtau, denX, denY fr.Element
	one.SetOne()
	dtau.Mul(&p.D, &tau)
	denX.Add(&one, &dtau)
	denY.Sub(&one, &dtau)
	if denX.IsZero() || denY.IsZero() {
		return Point{}, ErrDegenerateAddition
	}

	var res Point
	res.X.Add(&beta, &gamma)
	res.X.Div(&res.X, &denX)

	var numY fr.Element
	numY.Mul(&p.A, &beta).Add(&numY, &delta).Sub(&numY, &gamma)
	res.Y.Div(&numY, &denY)
	return res, nil
}

// Double returns pt + pt through the same law.
func (p *Params) Double(pt Point) (Point, error) {
	return p.Add(pt, pt)
}

// Neg returns (-x, y).
func (p *Params) Neg(pt Point) Point {
	var res Point
	res.X.Neg(&pt.X)
	res.Y.Set(&pt.Y)
	return res
}

// Sub returns p1 - p2.
func (p *Params) Sub(p1, p2 Point) (Point, error) {
	return p.Add(p1, p.Neg(p2))
}

// Equal compares both coordinates.
func (pt Point) Equal(o Point) bool {
	return pt.X.Equal(&o.X) && pt.Y.Equal(&o.Y)
}

// IsIdentity reports whether pt is (0, 1).
func (pt Point) IsIdentity() bool {
	return pt.Equal(Identity())
}

// BigInts returns the coordinates as integers in [0, p).
func (pt Point) BigInts() (x, y *big.Int) {
	return pt.X.BigInt(new(big.Int)), pt.Y.BigInt(new(big.Int))
}

// Bytes returns the canonical encoding: each coordinate as 32 little-endian bytes.
func (pt Point) Bytes() [PointSize]byte {
	var out [PointSize]byte
	x := FieldBytesLE(pt.X)
	y := FieldBytesLE(pt.Y)
	copy(out[:fr.Bytes], x[:])
	copy(out[fr.Bytes:], y[:])
	return out
}

// SetBytes decodes the canonical encoding. Coordinates must be reduced.
func (pt *Point) SetBytes(b []byte) error {
	if len(b) != PointSize {
		return fmt.Errorf("babyjub: point encoding must be %d bytes, got %d", PointSize, len(b))
	}
	var x, y [fr.Bytes]byte
	copy(x[:], b[:fr.Bytes])
	copy(y[:], b[fr.Bytes:])
	ex, err := SetFieldBytesLE(x)
	if err != nil {
		return err
	}
	ey, err := SetFieldBytesLE(y)
	if err != nil {
		return err
	}
	pt.X, pt.Y = ex, ey
	return nil
}

// FieldBytesLE encodes a field element as 32 little-endian bytes.
func FieldBytesLE(e fr.Element) [fr.Bytes]byte {
	var b [fr.Bytes]byte
	fr.LittleEndian.PutElement(&b, e)
	return b
}

// SetFieldBytesLE decodes 32 little-endian bytes, rejecting values >= p.
func SetFieldBytesLE(b [fr.Bytes]byte) (fr.Element, error) {
	e, err := fr.LittleEndian.Element(&b)
	if err != nil {
		return fr.Element{}, fmt.Errorf("babyjub: non-canonical field element: %w", err)
	}
	return e, nil
}

type pointJSON struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func (pt Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{X: pt.X.String(), Y: pt.Y.String()})
}

func (pt *Point) UnmarshalJSON(data []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, err := pt.X.SetString(raw.X); err != nil {
		return fmt.Errorf("babyjub: x: %w", err)
	}
	if _, err := pt.Y.SetString(raw.Y); err != nil {
		return fmt.Errorf("babyjub: y: %w", err)
	}
	return nil
}
