// tx.go - transfer transactions and their proofs.
//
// A Tx carries only public data: both keys, the two ciphertexts the transfer
// consumed, the two it produced, the optional disclosed amount and the proof.
// The account versions it names are checked by the ledger, not by the proof.

package transfer

import (
	"fmt"

	"zether/internal/babyjub"
	"zether/internal/balance"
	"zether/internal/prover"
)

// Tx is a proved confidential transfer.
type Tx struct {
	SenderPub           babyjub.Point      `json:"sender_pub"`
	RecipientPub        babyjub.Point      `json:"recipient_pub"`
	SenderBalanceEnc    balance.Ciphertext `json:"sender_balance_enc"`
	RecipientBalanceEnc balance.Ciphertext `json:"recipient_balance_enc"`
	NewSenderEnc        balance.Ciphertext `json:"new_sender_enc"`
	NewRecipientEnc     balance.Ciphertext `json:"new_recipient_enc"`
	DisclosedAmount     uint64             `json:"disclosed_amount"`

	SenderVersion    uint64 `json:"sender_version"`
	RecipientVersion uint64 `json:"recipient_version"`

	Proof []byte `json:"proof"`
}

// CreateTx proves a prepared statement.
// Steps:
//  1. Build the witness assignment from the statement
//  2. Prove with the compiled system
//  3. Copy the public outputs into the transaction
func CreateTx(sys *prover.System, st *Statement) (*Tx, error) {
	// Step 1: witness
	assignment := st.Assignment()

	// Step 2: proof
	proof, err := sys.Prove(assignment)
	if err != nil {
		return nil, fmt.Errorf("transfer proof: %w", err)
	}

	// Step 3: public data
	return &Tx{
		SenderPub:           st.SenderPub,
		RecipientPub:        st.Inputs.RecipientPub,
		SenderBalanceEnc:    st.Inputs.SenderBalanceEnc,
		RecipientBalanceEnc: st.Inputs.RecipientBalanceEnc,
		NewSenderEnc:        st.NewSenderEnc,
		NewRecipientEnc:     st.NewRecipientEnc,
		DisclosedAmount:     st.DisclosedAmount(),
		Proof:               proof,
	}, nil
}

// PublicAssignment returns the public inputs of tx as a circuit assignment.
func (tx *Tx) PublicAssignment() *Circuit {
	return &Circuit{
		SenderPub:           babyjub.Constant(tx.SenderPub),
		RecipientPub:        babyjub.Constant(tx.RecipientPub),
		SenderBalanceEnc:    balance.Assign(tx.SenderBalanceEnc),
		RecipientBalanceEnc: balance.Assign(tx.RecipientBalanceEnc),
		NewSenderEnc:        balance.Assign(tx.NewSenderEnc),
		NewRecipientEnc:     balance.Assign(tx.NewRecipientEnc),
		DisclosedAmount:     tx.DisclosedAmount,
	}
}

// VerifyTx checks the proof of tx against its public data.
func VerifyTx(sys *prover.System, tx *Tx) error {
	if len(tx.Proof) == 0 {
		return fmt.Errorf("transfer: missing proof")
	}
	return sys.Verify(tx.Proof, tx.PublicAssignment())
}
