// ledger.go - Account ledger for confidential transfers.
//
// The Ledger owns the account store and the state accumulator. It registers
// accounts, credits deposits and applies proved transfers, one at a time:
// a transfer is applied only if both accounts still hold the ciphertexts and
// versions the proof was built on, and only after the proof verifies.
// Every change is appended as a Record with the roots before and after.

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"zether/internal/accounts"
	"zether/internal/accumulator"
	"zether/internal/babyjub"
	"zether/internal/balance"
	"zether/internal/prover"
	"zether/internal/transfer"
)

var (
	// ErrStaleState indicates a transfer built on account state that has
	// changed since.
	ErrStaleState = errors.New("ledger: stale account state")
	// ErrSelfTransfer indicates a transfer whose sender is its recipient.
	ErrSelfTransfer = errors.New("ledger: sender and recipient are the same account")
	// ErrNoVerifier indicates a ledger opened without a proving system.
	ErrNoVerifier = errors.New("ledger: no verifier configured")
	// ErrFull indicates that every accumulator slot is taken.
	ErrFull = errors.New("ledger: no free account slot")
)

// Kind is the type of a Record.
type Kind string

const (
	KindRegister Kind = "register"
	KindDeposit  Kind = "deposit"
	KindTransfer Kind = "transfer"
)

// Record is one applied change.
type Record struct {
	Seq       uint64       `json:"seq"`
	Kind      Kind         `json:"kind"`
	Time      time.Time    `json:"time"`
	Account   accounts.ID  `json:"account"`             // registered, credited or sending account
	Recipient *accounts.ID `json:"recipient,omitempty"` // transfers only
	Amount    uint64       `json:"amount,omitempty"`    // deposits, or a disclosed transfer amount
	Tx        *transfer.Tx `json:"tx,omitempty"`
	PrevRoot  string       `json:"prev_root"`
	NewRoot   string       `json:"new_root"`
}

func (r *Record) clone() *Record {
	cp := *r
	if r.Recipient != nil {
		id := *r.Recipient
		cp.Recipient = &id
	}
	if r.Tx != nil {
		tx := *r.Tx
		tx.Proof = append([]byte(nil), r.Tx.Proof...)
		cp.Tx = &tx
	}
	return &cp
}

// Config wires a Ledger to its collaborators.
type Config struct {
	Params     *babyjub.Params // nil selects babyjub.DefaultParams
	Store      accounts.Store
	TreeHeight int             // zero selects accumulator.DefaultHeight
	Verifier   *prover.System  // required by ApplyTransfer
	Logger     *zerolog.Logger // nil disables logging
}

// Ledger serializes every account update.
type Ledger struct {
	params   *babyjub.Params
	store    accounts.Store
	tree     *accumulator.Tree
	verifier *prover.System
	log      zerolog.Logger

	mu      sync.Mutex
	records []*Record
	next    uint64 // next free slot
}

// New opens a ledger over cfg.Store and rebuilds the accumulator from the
// accounts already stored.
func New(cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, errors.New("ledger: nil account store")
	}
	params := cfg.Params
	if params == nil {
		params = babyjub.DefaultParams()
	}
	height := cfg.TreeHeight
	if height == 0 {
		height = accumulator.DefaultHeight
	}
	tree, err := accumulator.NewTree(height)
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "ledger").Logger()
	}

	l := &Ledger{
		params:   params,
		store:    cfg.Store,
		tree:     tree,
		verifier: cfg.Verifier,
		log:      log,
	}
	accts, err := cfg.Store.Accounts()
	if err != nil {
		return nil, fmt.Errorf("ledger: listing accounts: %w", err)
	}
	for _, a := range accts {
		if err := l.commitAccount(a); err != nil {
			return nil, err
		}
		if a.Index >= l.next {
			l.next = a.Index + 1
		}
	}
	root := l.tree.Commit()
	l.log.Debug().Int("accounts", len(accts)).Str("root", root.String()).Msg("ledger opened")
	return l, nil
}

func (l *Ledger) Params() *babyjub.Params { return l.params }

func (l *Ledger) commitAccount(a *accounts.Account) error {
	return l.tree.Set(a.Index, accumulator.LeafHash(a.PubKey, a.Balance, a.Version))
}

// Root returns the current accumulator root.
func (l *Ledger) Root() accumulator.Root {
	return l.tree.Commit()
}

// Account returns the stored state of id.
func (l *Ledger) Account(id accounts.ID) (*accounts.Account, error) {
	return l.store.GetAccount(id)
}

// AccountByKey returns the account registered for pub.
func (l *Ledger) AccountByKey(pub babyjub.Point) (*accounts.Account, error) {
	return l.store.GetAccount(accounts.DeriveID(pub))
}

// Accounts lists every account by slot.
func (l *Ledger) Accounts() ([]*accounts.Account, error) {
	return l.store.Accounts()
}

// ProveAccount returns an inclusion proof of the current state of id.
func (l *Ledger) ProveAccount(id accounts.ID) (*accounts.Account, accumulator.Proof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.store.GetAccount(id)
	if err != nil {
		return nil, accumulator.Proof{}, err
	}
	p, err := l.tree.Prove(a.Index)
	return a, p, err
}

// Register creates an account for pub with a zero balance.
func (l *Ledger) Register(pub babyjub.Point) (*accounts.Account, error) {
	if !l.params.IsOnCurve(pub) {
		return nil, fmt.Errorf("ledger: register: %w", babyjub.ErrPointNotOnCurve)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	id := accounts.DeriveID(pub)
	if _, err := l.store.GetAccount(id); err == nil {
		return nil, fmt.Errorf("%s: %w", id, accounts.ErrExists)
	} else if !errors.Is(err, accounts.ErrNotFound) {
		return nil, err
	}
	if l.next >= l.tree.Capacity() {
		return nil, ErrFull
	}

	a := accounts.New(l.next, pub)
	prev := l.tree.Commit()
	if err := l.store.PutAccounts(a); err != nil {
		return nil, err
	}
	if err := l.commitAccount(a); err != nil {
		return nil, err
	}
	l.next++
	l.append(&Record{Kind: KindRegister, Account: a.ID}, prev)
	l.log.Info().Str("account", a.ID.String()).Uint64("slot", a.Index).Msg("account registered")
	return a, nil
}

// Deposit credits Enc(amount, r) to id. The amount is public.
func (l *Ledger) Deposit(id accounts.ID, amount uint32, r *big.Int) (*accounts.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.store.GetAccount(id)
	if err != nil {
		return nil, err
	}
	credit, err := balance.Encode(l.params, uint64(amount), a.PubKey, r)
	if err != nil {
		return nil, fmt.Errorf("ledger: deposit: %w", err)
	}
	updated, err := a.Balance.Add(l.params, credit)
	if err != nil {
		return nil, err
	}
	if err := a.Update(updated); err != nil {
		return nil, err
	}

	prev := l.tree.Commit()
	if err := l.store.PutAccounts(a); err != nil {
		return nil, err
	}
	if err := l.commitAccount(a); err != nil {
		return nil, err
	}
	l.append(&Record{Kind: KindDeposit, Account: a.ID, Amount: uint64(amount)}, prev)
	l.log.Info().Str("account", a.ID.String()).Uint32("amount", amount).Msg("deposit applied")
	return a, nil
}

// ApplyTransfer checks that tx was built on the current state of both
// accounts, verifies its proof and stores both new ciphertexts. Nothing is
// written if any step fails.
func (l *Ledger) ApplyTransfer(tx *transfer.Tx) error {
	if l.verifier == nil {
		return ErrNoVerifier
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	sender, err := l.store.GetAccount(accounts.DeriveID(tx.SenderPub))
	if err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	recipient, err := l.store.GetAccount(accounts.DeriveID(tx.RecipientPub))
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	if sender.ID == recipient.ID {
		return ErrSelfTransfer
	}

	if sender.Version != tx.SenderVersion || !sender.Balance.Equal(tx.SenderBalanceEnc) {
		return fmt.Errorf("sender %s at version %d, tx built on %d: %w", sender.ID, sender.Version, tx.SenderVersion, ErrStaleState)
	}
	if recipient.Version != tx.RecipientVersion || !recipient.Balance.Equal(tx.RecipientBalanceEnc) {
		return fmt.Errorf("recipient %s at version %d, tx built on %d: %w", recipient.ID, recipient.Version, tx.RecipientVersion, ErrStaleState)
	}

	start := time.Now()
	if err := transfer.VerifyTx(l.verifier, tx); err != nil {
		return err
	}
	took := time.Since(start)

	if err := sender.Update(tx.NewSenderEnc); err != nil {
		return err
	}
	if err := recipient.Update(tx.NewRecipientEnc); err != nil {
		return err
	}

	prev := l.tree.Commit()
	if err := l.store.PutAccounts(sender, recipient); err != nil {
		return err
	}
	if err := l.commitAccount(sender); err != nil {
		return err
	}
	if err := l.commitAccount(recipient); err != nil {
		return err
	}
	rid := recipient.ID
	l.append(&Record{Kind: KindTransfer, Account: sender.ID, Recipient: &rid, Amount: tx.DisclosedAmount, Tx: tx}, prev)
	l.log.Info().
		Str("sender", sender.ID.String()).
		Str("recipient", recipient.ID.String()).
		Dur("verify", took).
		Msg("transfer applied")
	return nil
}

func (l *Ledger) append(r *Record, prev accumulator.Root) {
	newRoot := l.tree.Commit()
	r.Seq = uint64(len(l.records))
	r.Time = time.Now().UTC()
	r.PrevRoot = prev.String()
	r.NewRoot = newRoot.String()
	l.records = append(l.records, r)
}

// Records returns the applied changes in order.
func (l *Ledger) Records() []*Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.clone()
	}
	return out
}

// Record returns the change with sequence number seq.
func (l *Ledger) Record(seq uint64) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq >= uint64(len(l.records)) {
		return nil, fmt.Errorf("ledger: no record %d", seq)
	}
	return l.records[seq].clone(), nil
}

// SaveToFile writes the records as indented JSON, overwriting path.
func (l *Ledger) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(l.Records())
}

// LoadLedgerFromFile opens a ledger over cfg and restores the records saved
// at path. A missing file yields an empty history. The last record must end
// at the root rebuilt from the store.
func LoadLedgerFromFile(path string, cfg Config) (*Ledger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*Record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("ledger: decode %s: %w", path, err)
	}
	if n := len(records); n > 0 {
		root := l.tree.Commit()
		if records[n-1].NewRoot != root.String() {
			return nil, fmt.Errorf("ledger: history ends at root %s, store commits to %s: %w", records[n-1].NewRoot, root.String(), ErrStaleState)
		}
	}
	l.records = records
	return l, nil
}
