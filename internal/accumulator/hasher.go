// Package accumulator commits to the set of account states with a sparse
// Merkle tree hashed by Poseidon2, natively and in-circuit.
package accumulator

import (
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"zether/internal/babyjub"
	"zether/internal/balance"
)

// Poseidon2 instance for 2-to-1 compression.
const (
	width         = 2
	fullRounds    = 6
	partialRounds = 50
)

var getPermutation = sync.OnceValue(func() *poseidon2.Permutation {
	return poseidon2.NewPermutation(width, fullRounds, partialRounds)
})

var getParameters = sync.OnceValue(func() *poseidon2.Parameters {
	return poseidon2.NewParameters(width, fullRounds, partialRounds)
})

// Compress returns perm([x, y])[1] + y.
func Compress(x, y fr.Element) fr.Element {
	vars := [width]fr.Element{x, y}
	if err := getPermutation().Permutation(vars[:]); err != nil {
		panic(err)
	}
	var ret fr.Element
	ret.Add(&vars[1], &y)
	return ret
}

// HashSum folds vals into one element, starting from zero.
func HashSum(vals ...fr.Element) fr.Element {
	var acc fr.Element
	for i := range vals {
		acc = Compress(acc, vals[i])
	}
	return acc
}

// LeafHash commits to one account state.
func LeafHash(pub babyjub.Point, ct balance.Ciphertext, version uint64) fr.Element {
	var v fr.Element
	v.SetUint64(version)
	return HashSum(pub.X, pub.Y, ct.L.X, ct.L.Y, ct.R.X, ct.R.Y, v)
}

// roundKeys returns the round constants as integers for circuit use.
func roundKeys() [][]big.Int {
	params := getParameters()
	keys := make([][]big.Int, len(params.RoundKeys))
	for i := range keys {
		keys[i] = make([]big.Int, len(params.RoundKeys[i]))
		for j := range keys[i] {
			params.RoundKeys[i][j].BigInt(&keys[i][j])
		}
	}
	return keys
}
