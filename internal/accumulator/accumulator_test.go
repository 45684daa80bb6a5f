package accumulator

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"zether/internal/babyjub"
	"zether/internal/balance"
)

func randomElement(t *testing.T) fr.Element {
	t.Helper()
	var e fr.Element
	_, err := e.SetRandom()
	require.NoError(t, err)
	return e
}

func TestTree_ProveVerify(t *testing.T) {
	tree, err := NewTree(8)
	require.NoError(t, err)

	empty := tree.Commit()
	leaves := map[uint64]fr.Element{}
	for _, idx := range []uint64{0, 1, 7, 200, 255} {
		leaves[idx] = randomElement(t)
		require.NoError(t, tree.Set(idx, leaves[idx]))
	}
	root := tree.Commit()
	require.False(t, root.Equal(&empty))

	for idx, leaf := range leaves {
		p, err := tree.Prove(idx)
		require.NoError(t, err)
		require.True(t, p.Leaf.Equal(&leaf))
		require.True(t, VerifyInclusion(root, p), "slot %d", idx)

		p.Leaf = randomElement(t)
		require.False(t, VerifyInclusion(root, p))
	}

	// An unset slot proves the zero leaf.
	p, err := tree.Prove(42)
	require.NoError(t, err)
	require.True(t, p.Leaf.IsZero())
	require.True(t, VerifyInclusion(root, p))

	p.Index = 1 << 8
	require.False(t, VerifyInclusion(root, p))

	// Moving a proof onto a set sibling's slot swaps the hash order.
	p, err = tree.Prove(0)
	require.NoError(t, err)
	p.Index = 1
	require.False(t, VerifyInclusion(root, p))
	p.Index = 0
	require.True(t, VerifyInclusion(root, p))

	require.ErrorIs(t, tree.Set(1<<8, fr.Element{}), ErrIndexOutOfRange)
	_, err = tree.Prove(1 << 8)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTree_RootIndependentOfOrder(t *testing.T) {
	a, err := NewTree(6)
	require.NoError(t, err)
	b, err := NewTree(6)
	require.NoError(t, err)

	x, y := randomElement(t), randomElement(t)
	require.NoError(t, a.Set(3, x))
	require.NoError(t, a.Set(60, y))
	require.NoError(t, b.Set(60, y))
	require.NoError(t, b.Set(3, x))

	ra, rb := a.Commit(), b.Commit()
	require.True(t, ra.Equal(&rb))

	_, err = NewTree(0)
	require.Error(t, err)
}

type compressCircuit struct {
	X, Y frontend.Variable
	Out  frontend.Variable `gnark:",public"`
}

func (c *compressCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(NewPermutation(api).Compress(c.X, c.Y), c.Out)
	return nil
}

func TestPermutation_MatchesNative(t *testing.T) {
	assert := test.NewAssert(t)
	for i := 0; i < 4; i++ {
		x, y := randomElement(t), randomElement(t)
		out := Compress(x, y)
		wrong := randomElement(t)
		assert.CheckCircuit(
			&compressCircuit{},
			test.WithValidAssignment(&compressCircuit{X: x.String(), Y: y.String(), Out: out.String()}),
			test.WithInvalidAssignment(&compressCircuit{X: x.String(), Y: y.String(), Out: wrong.String()}),
			test.WithCurves(ecc.BN254),
			test.WithBackends(backend.GROTH16),
			test.NoFuzzing(),
		)
	}
}

func TestInclusionCircuit(t *testing.T) {
	const height = 4
	params := babyjub.DefaultParams()

	priv, err := params.RandomScalar()
	require.NoError(t, err)
	pub, err := params.ScalarBaseMul(priv)
	require.NoError(t, err)
	r, err := params.RandomScalar()
	require.NoError(t, err)
	ct, err := balance.Encode(params, 12, pub, r)
	require.NoError(t, err)

	tree, err := NewTree(height)
	require.NoError(t, err)
	require.NoError(t, tree.Set(5, LeafHash(pub, ct, 3)))
	require.NoError(t, tree.Set(9, randomElement(t)))
	root := tree.Commit()

	proof, err := tree.Prove(5)
	require.NoError(t, err)
	require.True(t, VerifyInclusion(root, proof))

	valid := AssignInclusion(root, pub, ct, 3, proof)
	staleVersion := AssignInclusion(root, pub, ct, 2, proof)
	wrongSlot := AssignInclusion(root, pub, ct, 3, proof)
	wrongSlot.Index = 6

	assert := test.NewAssert(t)
	assert.CheckCircuit(
		NewInclusionCircuit(height),
		test.WithValidAssignment(valid),
		test.WithInvalidAssignment(staleVersion),
		test.WithInvalidAssignment(wrongSlot),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
		test.NoFuzzing(),
	)
}
