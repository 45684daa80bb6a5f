package babyjub

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(DivHint)
}

// DivHint computes ins[0] / ins[1] in the field.
//
// ins  = [ numerator, denominator ]
// outs = [ quotient ]
//
// A zero denominator has no quotient: the hint fails and the solver reports
// the statement as unsatisfiable.
func DivHint(field *big.Int, ins, outs []*big.Int) error {
	if len(ins) != 2 || len(outs) != 1 {
		return fmt.Errorf("babyjub: DivHint expects 2 inputs and 1 output, got %d and %d", len(ins), len(outs))
	}
	den := new(big.Int).Mod(ins[1], field)
	if den.Sign() == 0 {
		return ErrDegenerateAddition
	}
	den.ModInverse(den, field)
	outs[0].Mul(ins[0], den)
	outs[0].Mod(outs[0], field)
	return nil
}
