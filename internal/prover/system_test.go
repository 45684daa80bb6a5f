package prover

import (
	"os"
	"testing"

	"github.com/consensys/gnark/frontend"
	"github.com/stretchr/testify/require"
)

type squareCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *squareCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Mul(c.X, c.X), c.Y)
	return nil
}

func TestSystem_ProveVerify(t *testing.T) {
	for _, scheme := range []Scheme{Groth16, Plonk} {
		t.Run(scheme.String(), func(t *testing.T) {
			sys, err := Compile(&squareCircuit{}, scheme)
			require.NoError(t, err)
			require.Positive(t, sys.NbConstraints())

			_, err = sys.Prove(&squareCircuit{X: 3, Y: 9})
			require.ErrorIs(t, err, ErrNoKeys)

			require.NoError(t, sys.Setup())
			proof, err := sys.Prove(&squareCircuit{X: 3, Y: 9})
			require.NoError(t, err)
			require.NoError(t, sys.Verify(proof, &squareCircuit{Y: 9}))
			require.Error(t, sys.Verify(proof, &squareCircuit{Y: 10}))

			_, err = sys.Prove(&squareCircuit{X: 3, Y: 10})
			require.Error(t, err)
		})
	}
}

func TestSystem_SetupOrLoadKeys(t *testing.T) {
	dir := t.TempDir()

	first, err := Compile(&squareCircuit{}, Groth16)
	require.NoError(t, err)
	require.NoError(t, first.SetupOrLoadKeys(dir, "square"))

	pkPath, vkPath := first.KeyPaths(dir, "square")
	require.FileExists(t, pkPath)
	require.FileExists(t, vkPath)

	proof, err := first.Prove(&squareCircuit{X: 5, Y: 25})
	require.NoError(t, err)

	second, err := Compile(&squareCircuit{}, Groth16)
	require.NoError(t, err)
	require.NoError(t, second.SetupOrLoadKeys(dir, "square"))
	require.NoError(t, second.Verify(proof, &squareCircuit{Y: 25}))

	require.NoError(t, os.WriteFile(vkPath, []byte("garbage"), 0o644))
	third, err := Compile(&squareCircuit{}, Groth16)
	require.NoError(t, err)
	require.Error(t, third.SetupOrLoadKeys(dir, "square"))
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("PLONK")
	require.NoError(t, err)
	require.Equal(t, Plonk, s)

	s, err = ParseScheme("")
	require.NoError(t, err)
	require.Equal(t, Groth16, s)

	_, err = ParseScheme("stark")
	require.Error(t, err)
}
