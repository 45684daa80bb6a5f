// wallet.go - participant key material and balance handling.
//
// A Wallet holds one Baby Jubjub key pair. It decrypts the balance of its
// account and builds transfers from it. Each participant keeps its wallet in
// its own JSON file (e.g. alice_wallet.json).

package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"zether/internal/accounts"
	"zether/internal/babyjub"
	"zether/internal/balance"
	"zether/internal/prover"
	"zether/internal/transfer"
)

// ErrNotOwner indicates an account whose key is not the wallet's.
var ErrNotOwner = errors.New("wallet: account belongs to another key")

// Wallet stores a participant's key pair.
type Wallet struct {
	Name string        `json:"name"`
	Priv *big.Int      `json:"priv"`
	Pub  babyjub.Point `json:"pub"`

	params *babyjub.Params
}

// New samples a private key in [1, l) and derives its public key.
func New(name string, params *babyjub.Params) (*Wallet, error) {
	if params == nil {
		params = babyjub.DefaultParams()
	}
	priv, err := params.RandomScalar()
	if err != nil {
		return nil, err
	}
	pub, err := params.ScalarBaseMul(priv)
	if err != nil {
		return nil, err
	}
	return &Wallet{Name: name, Priv: priv, Pub: pub, params: params}, nil
}

// LoadWallet reads a wallet file and checks that its keys match.
func LoadWallet(path string, params *babyjub.Params) (*Wallet, error) {
	if params == nil {
		params = babyjub.DefaultParams()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var w Wallet
	if err := json.NewDecoder(f).Decode(&w); err != nil {
		return nil, fmt.Errorf("wallet: decode %s: %w", path, err)
	}
	pub, err := params.ScalarBaseMul(w.Priv)
	if err != nil {
		return nil, fmt.Errorf("wallet: %s: %w", path, err)
	}
	if !pub.Equal(w.Pub) {
		return nil, fmt.Errorf("wallet: %s: public key does not match private key", path)
	}
	w.params = params
	return &w, nil
}

// Save writes the wallet as indented JSON. The file holds the private key.
func (w *Wallet) Save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// ID returns the account ID of the wallet key.
func (w *Wallet) ID() accounts.ID {
	return accounts.DeriveID(w.Pub)
}

// Balance decrypts ct.
func (w *Wallet) Balance(ct balance.Ciphertext) (uint32, error) {
	return balance.Decrypt(w.params, ct, w.Priv)
}

// PrepareTransfer evaluates a transfer of amount from sender, which must be
// the wallet's account, to recipient, using both accounts' current state.
func (w *Wallet) PrepareTransfer(sender, recipient *accounts.Account, amount uint32, opts transfer.Options) (*transfer.Statement, error) {
	if !sender.PubKey.Equal(w.Pub) {
		return nil, ErrNotOwner
	}
	current, err := w.Balance(sender.Balance)
	if err != nil {
		return nil, err
	}
	r, err := w.params.RandomScalar()
	if err != nil {
		return nil, err
	}
	return transfer.Prepare(w.params, transfer.Inputs{
		SenderPriv:          w.Priv,
		RecipientPub:        recipient.PubKey,
		SenderBalance:       uint64(current),
		SenderBalanceEnc:    sender.Balance,
		RecipientBalanceEnc: recipient.Balance,
		Amount:              uint64(amount),
		Randomness:          r,
	}, opts)
}

// Transfer prepares and proves a transfer and stamps it with the account
// versions it was built on.
func (w *Wallet) Transfer(sys *prover.System, sender, recipient *accounts.Account, amount uint32, opts transfer.Options) (*transfer.Tx, error) {
	st, err := w.PrepareTransfer(sender, recipient, amount, opts)
	if err != nil {
		return nil, err
	}
	tx, err := transfer.CreateTx(sys, st)
	if err != nil {
		return nil, err
	}
	tx.SenderVersion = sender.Version
	tx.RecipientVersion = recipient.Version
	return tx, nil
}
