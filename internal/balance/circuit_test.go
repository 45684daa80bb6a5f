package balance

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"zether/internal/babyjub"
)

type encodeCircuit struct {
	V, Rand frontend.Variable
	Pk      twistededwards.Point `gnark:",public"`
	Ct      Variables            `gnark:",public"`
}

func (c *encodeCircuit) Define(api frontend.API) error {
	codec := NewCodec(babyjub.New(api, nil))
	pk := babyjub.New(api, nil).LoadPointChecked(c.Pk.X, c.Pk.Y)
	codec.AssertIsEqual(codec.Encode(c.V, pk, c.Rand), codec.AssignBalanceEnc(c.Ct))
	return nil
}

func TestCodec_EncodeMatchesNative(t *testing.T) {
	assert := test.NewAssert(t)
	params := babyjub.DefaultParams()
	_, pk := keypair(t, params)
	r, err := params.RandomScalar()
	require.NoError(t, err)

	ct, err := Encode(params, 100, pk, r)
	require.NoError(t, err)
	other, err := Encode(params, 101, pk, r)
	require.NoError(t, err)

	assert.CheckCircuit(
		&encodeCircuit{},
		test.WithValidAssignment(&encodeCircuit{V: 100, Rand: r, Pk: babyjub.Constant(pk), Ct: Assign(ct)}),
		test.WithInvalidAssignment(&encodeCircuit{V: 100, Rand: r, Pk: babyjub.Constant(pk), Ct: Assign(other)}),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
		test.NoFuzzing(),
	)
}

type addCircuit struct {
	A, B, Sum Variables
}

func (c *addCircuit) Define(api frontend.API) error {
	codec := NewCodec(babyjub.New(api, nil))
	a := codec.AssignBalanceEnc(c.A)
	b := codec.AssignBalanceEnc(c.B)
	codec.AssertIsEqual(codec.Add(a, b), c.Sum)
	return nil
}

func TestCodec_AddAndCheckedLoad(t *testing.T) {
	params := babyjub.DefaultParams()
	_, pk := keypair(t, params)
	r1, err := params.RandomScalar()
	require.NoError(t, err)
	r2, err := params.RandomScalar()
	require.NoError(t, err)

	a, err := Encode(params, 5, pk, r1)
	require.NoError(t, err)
	b, err := Encode(params, 9, pk, r2)
	require.NoError(t, err)
	sum, err := a.Add(params, b)
	require.NoError(t, err)

	field := ecc.BN254.ScalarField()
	require.NoError(t, test.IsSolved(&addCircuit{}, &addCircuit{A: Assign(a), B: Assign(b), Sum: Assign(sum)}, field))

	bad := a
	bad.L = babyjub.NewPoint(big.NewInt(1), big.NewInt(1))
	require.Error(t, test.IsSolved(&addCircuit{}, &addCircuit{A: Assign(bad), B: Assign(b), Sum: Assign(sum)}, field))
}
