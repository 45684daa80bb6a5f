package babyjub

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/test"
)

type loadCheckedCircuit struct {
	P twistededwards.Point
}

func (c *loadCheckedCircuit) Define(api frontend.API) error {
	New(api, nil).LoadPointChecked(c.P.X, c.P.Y)
	return nil
}

func TestCurve_LoadPointChecked(t *testing.T) {
	assert := test.NewAssert(t)
	params := DefaultParams()

	assert.CheckCircuit(
		&loadCheckedCircuit{},
		test.WithValidAssignment(&loadCheckedCircuit{P: Constant(params.Base)}),
		test.WithInvalidAssignment(&loadCheckedCircuit{P: twistededwards.Point{X: 1, Y: 1}}),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16, backend.PLONK),
		test.NoFuzzing(),
	)
}

type addCircuit struct {
	P, Q twistededwards.Point
	R    twistededwards.Point `gnark:",public"`
}

func (c *addCircuit) Define(api frontend.API) error {
	curve := New(api, nil)
	p := curve.LoadPointChecked(c.P.X, c.P.Y)
	q := curve.LoadPointChecked(c.Q.X, c.Q.Y)
	curve.AssertIsEqual(curve.Add(p, q), c.R)
	curve.AssertIsEqual(curve.Double(p), curve.Add(p, p))
	return nil
}

func TestCurve_AddMatchesNative(t *testing.T) {
	assert := test.NewAssert(t)
	params := DefaultParams()

	_, p := randomPoint(t, params)
	_, q := randomPoint(t, params)
	r, err := params.Add(p, q)
	assert.NoError(err)

	assert.CheckCircuit(
		&addCircuit{},
		test.WithValidAssignment(&addCircuit{P: Constant(p), Q: Constant(q), R: Constant(r)}),
		test.WithInvalidAssignment(&addCircuit{P: Constant(p), Q: Constant(q), R: Constant(p)}),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
		test.NoFuzzing(),
	)
}

type uncheckedAddCircuit struct {
	P, Q twistededwards.Point
}

func (c *uncheckedAddCircuit) Define(api frontend.API) error {
	curve := New(api, nil)
	p := curve.LoadPointUnchecked(c.P.X, c.P.Y)
	q := curve.LoadPointUnchecked(c.Q.X, c.Q.Y)
	curve.Add(p, q)
	return nil
}

func TestCurve_DegenerateAdditionUnsatisfiable(t *testing.T) {
	params := DefaultParams()
	var y fr.Element
	y.Inverse(&params.D).Neg(&y)

	witness := &uncheckedAddCircuit{
		P: twistededwards.Point{X: 1, Y: 1},
		Q: twistededwards.Point{X: 1, Y: y.BigInt(new(big.Int))},
	}
	err := test.IsSolved(&uncheckedAddCircuit{}, witness, ecc.BN254.ScalarField())
	if err == nil {
		t.Fatal("expected a zero denominator to leave the circuit unsatisfiable")
	}
}

type scalarMulCircuit struct {
	P twistededwards.Point
	S frontend.Variable
	R twistededwards.Point `gnark:",public"`
}

func (c *scalarMulCircuit) Define(api frontend.API) error {
	curve := New(api, nil)
	p := curve.LoadPointChecked(c.P.X, c.P.Y)
	curve.AssertIsEqual(curve.ScalarMul(p, c.S), c.R)
	return nil
}

func TestCurve_ScalarMulMatchesNative(t *testing.T) {
	assert := test.NewAssert(t)
	params := DefaultParams()

	_, p := randomPoint(t, params)
	s, err := params.RandomScalar()
	assert.NoError(err)
	r, err := params.ScalarMul(p, s)
	assert.NoError(err)

	assert.CheckCircuit(
		&scalarMulCircuit{},
		test.WithValidAssignment(&scalarMulCircuit{P: Constant(p), S: s, R: Constant(r)}),
		test.WithValidAssignment(&scalarMulCircuit{P: Constant(p), S: 0, R: Constant(Identity())}),
		test.WithInvalidAssignment(&scalarMulCircuit{P: Constant(p), S: 1, R: Constant(r)}),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
		test.NoFuzzing(),
	)
}

type scalarBaseMulCircuit struct {
	S frontend.Variable
	R twistededwards.Point `gnark:",public"`
}

func (c *scalarBaseMulCircuit) Define(api frontend.API) error {
	curve := New(api, nil)
	curve.AssertIsEqual(curve.ScalarBaseMul(c.S), c.R)
	return nil
}

func TestCurve_ScalarBaseMulKnownMultiple(t *testing.T) {
	params := DefaultParams()
	r, err := params.ScalarBaseMul(big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}
	witness := &scalarBaseMulCircuit{S: 100, R: Constant(r)}
	if err := test.IsSolved(&scalarBaseMulCircuit{}, witness, ecc.BN254.ScalarField()); err != nil {
		t.Fatalf("100·G: %v", err)
	}
}

type isEqualCircuit struct {
	P, Q     twistededwards.Point
	Expected frontend.Variable `gnark:",public"`
}

func (c *isEqualCircuit) Define(api frontend.API) error {
	curve := New(api, nil)
	api.AssertIsEqual(curve.IsEqual(c.P, c.Q), c.Expected)
	return nil
}

func TestCurve_IsEqual(t *testing.T) {
	params := DefaultParams()
	_, p := randomPoint(t, params)
	q := params.Neg(p)

	field := ecc.BN254.ScalarField()
	if err := test.IsSolved(&isEqualCircuit{}, &isEqualCircuit{P: Constant(p), Q: Constant(p), Expected: 1}, field); err != nil {
		t.Fatalf("equal points: %v", err)
	}
	if err := test.IsSolved(&isEqualCircuit{}, &isEqualCircuit{P: Constant(p), Q: Constant(q), Expected: 0}, field); err != nil {
		t.Fatalf("x differs: %v", err)
	}
	if err := test.IsSolved(&isEqualCircuit{}, &isEqualCircuit{P: Constant(p), Q: Constant(p), Expected: 0}, field); err == nil {
		t.Fatal("expected mismatch on equal points flagged unequal")
	}
}
