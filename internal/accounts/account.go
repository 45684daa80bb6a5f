// Package accounts stores the public state of every registered account: its
// key, its encrypted balance and a version bumped on every update.
package accounts

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"zether/internal/babyjub"
	"zether/internal/balance"
)

var (
	ErrNotFound        = errors.New("accounts: account not found")
	ErrExists          = errors.New("accounts: account already exists")
	ErrVersionOverflow = errors.New("accounts: version overflow")
)

// IDSize is the length of an account ID.
const IDSize = 32

// ID identifies an account: the MiMC hash of its public key.
type ID [IDSize]byte

// DeriveID computes MiMC(pk.x, pk.y).
func DeriveID(pub babyjub.Point) ID {
	h := mimc.NewMiMC()
	x, y := pub.X.Bytes(), pub.Y.Bytes()
	h.Write(x[:])
	h.Write(y[:])
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// ParseID decodes the hex form produced by ID.String.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("accounts: id: %w", err)
	}
	if len(b) != IDSize {
		return id, fmt.Errorf("accounts: id must be %d bytes, got %d", IDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id ID) String() string { return hex.EncodeToString(id[:]) }

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Account is the public state of one participant.
type Account struct {
	ID      ID                 `json:"id"`
	Index   uint64             `json:"index"` // accumulator slot
	PubKey  babyjub.Point      `json:"pub_key"`
	Balance balance.Ciphertext `json:"balance"`
	Version uint64             `json:"version"`
}

// New returns a fresh account holding the zero ciphertext.
func New(index uint64, pub babyjub.Point) *Account {
	return &Account{
		ID:      DeriveID(pub),
		Index:   index,
		PubKey:  pub,
		Balance: balance.Zero(),
	}
}

// Update replaces the balance and bumps the version.
func (a *Account) Update(ct balance.Ciphertext) error {
	if a.Version == math.MaxUint64 {
		return ErrVersionOverflow
	}
	a.Balance = ct
	a.Version++
	return nil
}

// Clone returns a copy that shares nothing with a.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// Store persists accounts. Implementations return copies, so callers may
// modify what they get without affecting the store.
type Store interface {
	// GetAccount returns ErrNotFound for unknown IDs.
	GetAccount(id ID) (*Account, error)
	// AccountAt returns the account in slot index, or ErrNotFound.
	AccountAt(index uint64) (*Account, error)
	// PutAccount inserts or replaces an account.
	PutAccount(a *Account) error
	// PutAccounts writes every account or, on error, none of them.
	PutAccounts(accts ...*Account) error
	// Accounts lists every account ordered by slot.
	Accounts() ([]*Account, error)
	Close() error
}
