package accumulator

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"

	"zether/internal/babyjub"
	"zether/internal/balance"
)

// Permutation is the Poseidon2 permutation as a gadget, width 2 only.
type Permutation struct {
	api       frontend.API
	roundKeys [][]big.Int
}

func NewPermutation(api frontend.API) *Permutation {
	return &Permutation{api: api, roundKeys: roundKeys()}
}

// sBox raises input[index] to the fifth power.
func (h *Permutation) sBox(index int, input []frontend.Variable) {
	tmp := input[index]
	input[index] = h.api.Mul(input[index], input[index])
	input[index] = h.api.Mul(input[index], input[index])
	input[index] = h.api.Mul(input[index], tmp)
}

func (h *Permutation) matMulExternalInPlace(input []frontend.Variable) {
	tmp := h.api.Add(input[0], input[1])
	input[0] = h.api.Add(tmp, input[0])
	input[1] = h.api.Add(tmp, input[1])
}

func (h *Permutation) matMulInternalInPlace(input []frontend.Variable) {
	sum := h.api.Add(input[0], input[1])
	input[0] = h.api.Add(input[0], sum)
	input[1] = h.api.Add(h.api.Mul(input[1], 2), sum)
}

func (h *Permutation) addRoundKeyInPlace(round int, input []frontend.Variable) {
	for i := range h.roundKeys[round] {
		input[i] = h.api.Add(input[i], &h.roundKeys[round][i])
	}
}

// Permutation applies the permutation to a two element state in place.
func (h *Permutation) Permutation(input []frontend.Variable) {
	if len(input) != width {
		panic("accumulator: permutation state must have two elements")
	}
	h.matMulExternalInPlace(input)

	rf := fullRounds / 2
	for i := 0; i < rf; i++ {
		h.addRoundKeyInPlace(i, input)
		h.sBox(0, input)
		h.sBox(1, input)
		h.matMulExternalInPlace(input)
	}
	for i := rf; i < rf+partialRounds; i++ {
		h.addRoundKeyInPlace(i, input)
		h.sBox(0, input)
		h.matMulInternalInPlace(input)
	}
	for i := rf + partialRounds; i < fullRounds+partialRounds; i++ {
		h.addRoundKeyInPlace(i, input)
		h.sBox(0, input)
		h.sBox(1, input)
		h.matMulExternalInPlace(input)
	}
}

// Compress matches the native Compress.
func (h *Permutation) Compress(left, right frontend.Variable) frontend.Variable {
	vars := [width]frontend.Variable{left, right}
	h.Permutation(vars[:])
	return h.api.Add(vars[1], right)
}

// HashSum matches the native HashSum.
func (h *Permutation) HashSum(vals ...frontend.Variable) frontend.Variable {
	var acc frontend.Variable = 0
	for i := range vals {
		acc = h.Compress(acc, vals[i])
	}
	return acc
}

// LeafHash matches the native LeafHash.
func (h *Permutation) LeafHash(pub twistededwards.Point, ct balance.Variables, version frontend.Variable) frontend.Variable {
	return h.HashSum(pub.X, pub.Y, ct.L.X, ct.L.Y, ct.R.X, ct.R.Y, version)
}

// VerifyPath asserts that leaf sits at index under root. The index is
// decomposed into len(siblings) bits, so it must be below the capacity.
func (h *Permutation) VerifyPath(root, leaf, index frontend.Variable, siblings []frontend.Variable) {
	api := h.api
	bits := api.ToBinary(index, len(siblings))
	cur := leaf
	for i, sib := range siblings {
		left := api.Select(bits[i], sib, cur)
		right := api.Select(bits[i], cur, sib)
		cur = h.Compress(left, right)
	}
	api.AssertIsEqual(cur, root)
}

// InclusionCircuit proves that an account state is committed under Root
// without revealing its slot.
type InclusionCircuit struct {
	Root    frontend.Variable    `gnark:",public"`
	PubKey  twistededwards.Point `gnark:",public"`
	Balance balance.Variables    `gnark:",public"`
	Version frontend.Variable    `gnark:",public"`

	Index    frontend.Variable
	Siblings []frontend.Variable
}

// NewInclusionCircuit sizes the path for a tree of the given height.
func NewInclusionCircuit(height int) *InclusionCircuit {
	return &InclusionCircuit{Siblings: make([]frontend.Variable, height)}
}

// AssignInclusion builds a full assignment from native values.
func AssignInclusion(root Root, pub babyjub.Point, ct balance.Ciphertext, version uint64, proof Proof) *InclusionCircuit {
	c := &InclusionCircuit{
		Root:     root.String(),
		PubKey:   babyjub.Constant(pub),
		Balance:  balance.Assign(ct),
		Version:  version,
		Index:    proof.Index,
		Siblings: make([]frontend.Variable, len(proof.Siblings)),
	}
	for i := range proof.Siblings {
		c.Siblings[i] = proof.Siblings[i].String()
	}
	return c
}

func (c *InclusionCircuit) Define(api frontend.API) error {
	h := NewPermutation(api)
	leaf := h.LeafHash(c.PubKey, c.Balance, c.Version)
	h.VerifyPath(c.Root, leaf, c.Index, c.Siblings)
	return nil
}
