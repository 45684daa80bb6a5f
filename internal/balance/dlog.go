package balance

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"zether/internal/babyjub"
)

// ErrNotDecryptable is returned when the plaintext is not a 32-bit balance
// or the key does not match the ciphertext.
var ErrNotDecryptable = errors.New("balance: plaintext outside the 32-bit range")

const (
	babyStepBits = 16
	valueBits    = 32
)

// Table holds j·G for j in [0, 2^16), used by the baby-step giant-step search
// that recovers v from v·G.
type Table struct {
	params *babyjub.Params
	steps  map[babyjub.Point]uint32
	giant  babyjub.Point // -(2^16)·G
}

// NewTable precomputes the baby steps for params.
func NewTable(params *babyjub.Params) (*Table, error) {
	n := 1 << babyStepBits
	t := &Table{params: params, steps: make(map[babyjub.Point]uint32, n)}
	acc := babyjub.Identity()
	for j := 0; j < n; j++ {
		t.steps[acc] = uint32(j)
		next, err := params.Add(acc, params.Base)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	// acc is now 2^16·G.
	t.giant = params.Neg(acc)
	return t, nil
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return NewTable(babyjub.DefaultParams())
})

// DefaultTable returns the shared table for the default curve parameters.
func DefaultTable() (*Table, error) {
	return defaultTable()
}

// Log returns v such that v·G == m, for v < 2^32.
func (t *Table) Log(m babyjub.Point) (uint32, error) {
	cur := m
	for i := uint64(0); i < 1<<(valueBits-babyStepBits); i++ {
		if j, ok := t.steps[cur]; ok {
			return uint32(i<<babyStepBits | uint64(j)), nil
		}
		next, err := t.params.Add(cur, t.giant)
		if err != nil {
			return 0, err
		}
		cur = next
	}
	return 0, ErrNotDecryptable
}

// Decrypt recovers the balance held by ct for the owner of priv.
func Decrypt(params *babyjub.Params, ct Ciphertext, priv *big.Int) (uint32, error) {
	table, err := tableFor(params)
	if err != nil {
		return 0, err
	}
	shared, err := KeySwitch(params, priv, ct.R)
	if err != nil {
		return 0, err
	}
	m, err := params.Sub(ct.L, shared)
	if err != nil {
		return 0, err
	}
	v, err := table.Log(m)
	if err != nil {
		return 0, fmt.Errorf("decrypt: %w", err)
	}
	return v, nil
}

func tableFor(params *babyjub.Params) (*Table, error) {
	if params == babyjub.DefaultParams() {
		return DefaultTable()
	}
	return NewTable(params)
}
