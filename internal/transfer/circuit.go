package transfer

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"

	"zether/internal/babyjub"
	"zether/internal/balance"
	"zether/internal/rangecheck"
)

// AmountBits is the width of balances and amounts.
const AmountBits = 32

// Options select the variant of the statement. Circuits compiled with
// different options have different keys.
type Options struct {
	// DiscloseAmount binds the public DisclosedAmount to the amount. When
	// false, DisclosedAmount must be zero and the amount stays secret.
	DiscloseAmount bool
	// RangeCheck selects the range check arithmetization.
	RangeCheck rangecheck.Mode
}

// Circuit is the transfer statement.
type Circuit struct {
	// Public inputs
	SenderPub           twistededwards.Point `gnark:",public"`
	RecipientPub        twistededwards.Point `gnark:",public"`
	SenderBalanceEnc    balance.Variables    `gnark:",public"`
	RecipientBalanceEnc balance.Variables    `gnark:",public"`
	NewSenderEnc        balance.Variables    `gnark:",public"`
	NewRecipientEnc     balance.Variables    `gnark:",public"`
	DisclosedAmount     frontend.Variable    `gnark:",public"`

	// Private inputs
	SenderPriv    frontend.Variable
	SenderBalance frontend.Variable
	Amount        frontend.Variable
	Randomness    frontend.Variable

	opts   Options         `gnark:"-"`
	params *babyjub.Params `gnark:"-"`
}

// NewCircuit returns an empty circuit for compilation. A nil params selects
// babyjub.DefaultParams.
func NewCircuit(params *babyjub.Params, opts Options) *Circuit {
	return &Circuit{params: params, opts: opts}
}

func (c *Circuit) Define(api frontend.API) error {
	curve := babyjub.New(api, c.params)
	codec := balance.NewCodec(curve)
	rc := rangecheck.New(api, c.opts.RangeCheck)

	senderEnc := codec.AssignBalanceEnc(c.SenderBalanceEnc)
	recipientEnc := codec.AssignBalanceEnc(c.RecipientBalanceEnc)

	// The proof is bound to the registered sender key.
	senderPub := curve.LoadPointChecked(c.SenderPub.X, c.SenderPub.Y)
	curve.AssertIsEqual(curve.ScalarBaseMul(c.SenderPriv), senderPub)

	if c.opts.DiscloseAmount {
		api.AssertIsEqual(c.DisclosedAmount, c.Amount)
	} else {
		api.AssertIsEqual(c.DisclosedAmount, 0)
	}

	// Step 1: recipient key
	recipientPub := curve.LoadPointChecked(c.RecipientPub.X, c.RecipientPub.Y)

	// Step 2: amount fits in 32 bits
	rc.Check(c.Amount, AmountBits)

	// Step 3: no overdraft; an underflow wraps to a value above 2^32
	remaining := api.Sub(c.SenderBalance, c.Amount)
	rc.Check(remaining, AmountBits)

	// Step 4: the public ciphertext encrypts SenderBalance under SenderPriv
	shared := curve.ScalarMul(senderEnc.R, c.SenderPriv)
	expectedL := curve.Add(curve.ScalarBaseMul(c.SenderBalance), shared)
	curve.AssertIsEqual(expectedL, senderEnc.L)

	// Step 5: fresh randomness
	randPoint := curve.ScalarBaseMul(c.Randomness)

	// Step 6: sender ciphertext for the remaining balance, r·pk via priv·(r·G)
	newSender := codec.EncodeWithRandPoint(remaining, curve.ScalarMul(randPoint, c.SenderPriv), randPoint)
	codec.AssertIsEqual(newSender, c.NewSenderEnc)

	// Step 7: recipient ciphertext plus Enc(amount, r)
	delta := codec.EncodeWithRandPoint(c.Amount, curve.ScalarMul(recipientPub, c.Randomness), randPoint)
	codec.AssertIsEqual(codec.Add(recipientEnc, delta), c.NewRecipientEnc)

	return nil
}
