// statement.go - native evaluation of the transfer statement.
//
// Prepare mirrors Circuit.Define step by step so that a prover learns why a
// transfer cannot be authorized before spending time on a proof, and so that
// the public outputs and the witness assignment come from one computation.

package transfer

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"zether/internal/babyjub"
	"zether/internal/balance"
	"zether/internal/rangecheck"
)

// Inputs are the values a sender supplies for one transfer. SenderBalance and
// Amount are meant to be 32-bit; wider values are representable so that the
// range checks can reject them.
type Inputs struct {
	SenderPriv          *big.Int
	RecipientPub        babyjub.Point
	SenderBalance       uint64
	SenderBalanceEnc    balance.Ciphertext
	RecipientBalanceEnc balance.Ciphertext
	Amount              uint64
	Randomness          *big.Int
}

// Statement is an evaluated transfer: its inputs plus every public output.
type Statement struct {
	Inputs  Inputs
	Options Options

	SenderPub       babyjub.Point
	Remaining       *big.Int // SenderBalance - Amount in the field
	NewSenderEnc    balance.Ciphertext
	NewRecipientEnc balance.Ciphertext
}

// Prepare evaluates the transfer and returns the first violated check:
// babyjub.ErrPointNotOnCurve, babyjub.ErrMalformedScalar,
// rangecheck.ErrRangeExceeded or ErrConsistencyMismatch. No statement is
// returned on failure.
func Prepare(params *babyjub.Params, in Inputs, opts Options) (*Statement, error) {
	return evaluate(params, in, opts, true)
}

// Compute evaluates the transfer without any validity check. Its statement
// can be unsatisfiable; Prepare is the entry point for honest provers.
func Compute(params *babyjub.Params, in Inputs, opts Options) (*Statement, error) {
	return evaluate(params, in, opts, false)
}

func evaluate(params *babyjub.Params, in Inputs, opts Options, check bool) (*Statement, error) {
	if params == nil {
		params = babyjub.DefaultParams()
	}
	if _, err := babyjub.ScalarBits(in.SenderPriv); err != nil {
		return nil, fmt.Errorf("sender key: %w", err)
	}
	if _, err := babyjub.ScalarBits(in.Randomness); err != nil {
		return nil, fmt.Errorf("randomness: %w", err)
	}
	if check {
		if err := in.SenderBalanceEnc.Validate(params); err != nil {
			return nil, fmt.Errorf("sender ciphertext: %w", err)
		}
		if err := in.RecipientBalanceEnc.Validate(params); err != nil {
			return nil, fmt.Errorf("recipient ciphertext: %w", err)
		}
	}

	senderPub, err := params.ScalarBaseMul(in.SenderPriv)
	if err != nil {
		return nil, err
	}

	// Step 1: recipient key
	if check && !params.IsOnCurve(in.RecipientPub) {
		return nil, fmt.Errorf("recipient key: %w", babyjub.ErrPointNotOnCurve)
	}

	// Step 2: amount fits in 32 bits
	amount := new(big.Int).SetUint64(in.Amount)
	if check {
		if err := rangecheck.Check(amount, AmountBits); err != nil {
			return nil, fmt.Errorf("amount: %w", err)
		}
	}

	// Step 3: remaining balance, reduced in the field like the circuit does
	remaining := new(big.Int).SetUint64(in.SenderBalance)
	remaining.Sub(remaining, amount).Mod(remaining, fr.Modulus())
	if check {
		if err := rangecheck.Check(remaining, AmountBits); err != nil {
			return nil, fmt.Errorf("remaining balance: %w", err)
		}
	}

	// Step 4: consistency of the sender ciphertext
	if check {
		shared, err := balance.KeySwitch(params, in.SenderPriv, in.SenderBalanceEnc.R)
		if err != nil {
			return nil, err
		}
		vG, err := params.ScalarBaseMul(new(big.Int).SetUint64(in.SenderBalance))
		if err != nil {
			return nil, err
		}
		expectedL, err := params.Add(vG, shared)
		if err != nil {
			return nil, err
		}
		if !expectedL.Equal(in.SenderBalanceEnc.L) {
			return nil, ErrConsistencyMismatch
		}
	}

	// Step 5: fresh randomness
	randPoint, err := params.ScalarBaseMul(in.Randomness)
	if err != nil {
		return nil, err
	}

	// Step 6: new sender ciphertext
	senderShared, err := balance.KeySwitch(params, in.SenderPriv, randPoint)
	if err != nil {
		return nil, err
	}
	newSender, err := withRandPoint(params, remaining, senderShared, randPoint)
	if err != nil {
		return nil, err
	}

	// Step 7: new recipient ciphertext
	recipientShared, err := params.ScalarMul(in.RecipientPub, in.Randomness)
	if err != nil {
		return nil, err
	}
	delta, err := withRandPoint(params, amount, recipientShared, randPoint)
	if err != nil {
		return nil, err
	}
	newRecipient, err := in.RecipientBalanceEnc.Add(params, delta)
	if err != nil {
		return nil, err
	}

	return &Statement{
		Inputs:          in,
		Options:         opts,
		SenderPub:       senderPub,
		Remaining:       remaining,
		NewSenderEnc:    newSender,
		NewRecipientEnc: newRecipient,
	}, nil
}

func withRandPoint(params *babyjub.Params, v *big.Int, shared, randPoint babyjub.Point) (balance.Ciphertext, error) {
	vG, err := params.ScalarBaseMul(v)
	if err != nil {
		return balance.Ciphertext{}, err
	}
	l, err := params.Add(vG, shared)
	if err != nil {
		return balance.Ciphertext{}, err
	}
	return balance.Ciphertext{L: l, R: randPoint}, nil
}

// DisclosedAmount is the value of the public amount input.
func (s *Statement) DisclosedAmount() uint64 {
	if s.Options.DiscloseAmount {
		return s.Inputs.Amount
	}
	return 0
}

// Assignment returns the full witness assignment.
func (s *Statement) Assignment() *Circuit {
	c := s.publicAssignment()
	c.SenderPriv = s.Inputs.SenderPriv
	c.SenderBalance = s.Inputs.SenderBalance
	c.Amount = s.Inputs.Amount
	c.Randomness = s.Inputs.Randomness
	return c
}

func (s *Statement) publicAssignment() *Circuit {
	return &Circuit{
		SenderPub:           babyjub.Constant(s.SenderPub),
		RecipientPub:        babyjub.Constant(s.Inputs.RecipientPub),
		SenderBalanceEnc:    balance.Assign(s.Inputs.SenderBalanceEnc),
		RecipientBalanceEnc: balance.Assign(s.Inputs.RecipientBalanceEnc),
		NewSenderEnc:        balance.Assign(s.NewSenderEnc),
		NewRecipientEnc:     balance.Assign(s.NewRecipientEnc),
		DisclosedAmount:     s.DisclosedAmount(),
	}
}
