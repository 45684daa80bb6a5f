package balance

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"zether/internal/babyjub"
)

func keypair(t *testing.T, params *babyjub.Params) (*big.Int, babyjub.Point) {
	t.Helper()
	priv, err := params.RandomScalar()
	require.NoError(t, err)
	pk, err := params.ScalarBaseMul(priv)
	require.NoError(t, err)
	return priv, pk
}

func TestEncode_KeySwitch(t *testing.T) {
	params := babyjub.DefaultParams()
	priv, pk := keypair(t, params)
	r, err := params.RandomScalar()
	require.NoError(t, err)

	ct, err := Encode(params, 42, pk, r)
	require.NoError(t, err)
	require.NoError(t, ct.Validate(params))

	viaPriv, err := KeySwitch(params, priv, ct.R)
	require.NoError(t, err)
	viaRand, err := params.ScalarMul(pk, r)
	require.NoError(t, err)
	require.True(t, viaPriv.Equal(viaRand))

	// L - priv·R == 42·G
	m, err := params.Sub(ct.L, viaPriv)
	require.NoError(t, err)
	want, err := params.ScalarBaseMul(big.NewInt(42))
	require.NoError(t, err)
	require.True(t, m.Equal(want))
}

func TestCiphertext_Homomorphism(t *testing.T) {
	params := babyjub.DefaultParams()
	_, pk := keypair(t, params)

	for i := 0; i < 4; i++ {
		r1, err := params.RandomScalar()
		require.NoError(t, err)
		r2, err := params.RandomScalar()
		require.NoError(t, err)
		v1, v2 := uint64(1000+i), uint64(1<<31+i)

		c1, err := Encode(params, v1, pk, r1)
		require.NoError(t, err)
		c2, err := Encode(params, v2, pk, r2)
		require.NoError(t, err)
		sum, err := c1.Add(params, c2)
		require.NoError(t, err)

		direct, err := Encode(params, v1+v2, pk, new(big.Int).Add(r1, r2))
		require.NoError(t, err)
		require.True(t, sum.Equal(direct))

		back, err := sum.Sub(params, c2)
		require.NoError(t, err)
		require.True(t, back.Equal(c1))
	}
}

func TestZero_IsIdentityPair(t *testing.T) {
	params := babyjub.DefaultParams()
	priv, pk := keypair(t, params)

	zero, err := Encode(params, 0, pk, big.NewInt(0))
	require.NoError(t, err)
	require.True(t, zero.Equal(Zero()))

	v, err := Decrypt(params, Zero(), priv)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestDecrypt(t *testing.T) {
	params := babyjub.DefaultParams()
	priv, pk := keypair(t, params)

	for _, v := range []uint64{0, 1, 30, 65535, 65536, 1<<20 + 7, 1<<32 - 1} {
		r, err := params.RandomScalar()
		require.NoError(t, err)
		ct, err := Encode(params, v, pk, r)
		require.NoError(t, err)

		got, err := Decrypt(params, ct, priv)
		require.NoError(t, err)
		require.Equal(t, uint32(v), got)
	}

	r, err := params.RandomScalar()
	require.NoError(t, err)
	ct, err := Encode(params, 1<<32, pk, r)
	require.NoError(t, err)
	_, err = Decrypt(params, ct, priv)
	require.ErrorIs(t, err, ErrNotDecryptable)
}

func TestCiphertext_Encoding(t *testing.T) {
	params := babyjub.DefaultParams()
	_, pk := keypair(t, params)
	r, err := params.RandomScalar()
	require.NoError(t, err)
	ct, err := Encode(params, 7, pk, r)
	require.NoError(t, err)

	b := ct.Bytes()
	var back Ciphertext
	require.NoError(t, back.SetBytes(b[:]))
	require.True(t, back.Equal(ct))
	require.Error(t, back.SetBytes(b[:CiphertextSize-1]))

	off := Ciphertext{L: babyjub.NewPoint(big.NewInt(1), big.NewInt(1)), R: ct.R}
	require.ErrorIs(t, off.Validate(params), babyjub.ErrPointNotOnCurve)
}
