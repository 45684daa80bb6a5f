package rangecheck

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"
)

type checkCircuit struct {
	V    frontend.Variable
	mode Mode `gnark:"-"`
}

func (c *checkCircuit) Define(api frontend.API) error {
	New(api, c.mode).Check(c.V, 32)
	return nil
}

// wrapped returns p - k, the field image of -k.
func wrapped(k int64) *big.Int {
	return new(big.Int).Sub(fr.Modulus(), big.NewInt(k))
}

func TestChecker_Boundary(t *testing.T) {
	maxU32 := new(big.Int).SetUint64(1<<32 - 1)
	overflow := new(big.Int).Lsh(big.NewInt(1), 32)

	for _, mode := range []Mode{Bits, Lookup} {
		t.Run(mode.String(), func(t *testing.T) {
			assert := test.NewAssert(t)
			assert.CheckCircuit(
				&checkCircuit{mode: mode},
				test.WithValidAssignment(&checkCircuit{V: 0}),
				test.WithValidAssignment(&checkCircuit{V: maxU32}),
				test.WithInvalidAssignment(&checkCircuit{V: overflow}),
				test.WithInvalidAssignment(&checkCircuit{V: wrapped(60)}),
				test.WithCurves(ecc.BN254),
				test.WithBackends(backend.GROTH16),
				test.NoFuzzing(),
			)
		})
	}
}

func TestCheck_Native(t *testing.T) {
	require.NoError(t, Check(big.NewInt(0), 32))
	require.NoError(t, Check(new(big.Int).SetUint64(1<<32-1), 32))
	require.ErrorIs(t, Check(new(big.Int).Lsh(big.NewInt(1), 32), 32), ErrRangeExceeded)
	require.ErrorIs(t, Check(wrapped(60), 32), ErrRangeExceeded)
	require.ErrorIs(t, Check(big.NewInt(-1), 32), ErrRangeExceeded)
	require.ErrorIs(t, Check(nil, 32), ErrRangeExceeded)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Lookup")
	require.NoError(t, err)
	require.Equal(t, Lookup, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	require.Equal(t, Bits, m)

	_, err = ParseMode("table")
	require.Error(t, err)
}
