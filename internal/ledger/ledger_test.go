package ledger

import (
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"zether/internal/accounts"
	"zether/internal/accumulator"
	"zether/internal/babyjub"
	"zether/internal/prover"
	"zether/internal/transfer"
	"zether/internal/wallet"
)

var verifier = sync.OnceValues(func() (*prover.System, error) {
	sys, err := prover.Compile(transfer.NewCircuit(nil, transfer.Options{}), prover.Groth16)
	if err != nil {
		return nil, err
	}
	return sys, sys.Setup()
})

// failingStore rejects writes once fail is set.
type failingStore struct {
	accounts.Store
	fail bool
}

func (s *failingStore) PutAccount(a *accounts.Account) error { return s.PutAccounts(a) }

func (s *failingStore) PutAccounts(accts ...*accounts.Account) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Store.PutAccounts(accts...)
}

func newWallet(t *testing.T, name string) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New(name, nil)
	require.NoError(t, err)
	return w
}

func TestLedger_RegisterAndDeposit(t *testing.T) {
	store := accounts.NewMemoryStore()
	l, err := New(Config{Store: store, TreeHeight: 4})
	require.NoError(t, err)
	empty := l.Root()

	alice := newWallet(t, "alice")
	a, err := l.Register(alice.Pub)
	require.NoError(t, err)
	require.Equal(t, uint64(0), a.Index)
	require.Equal(t, alice.ID(), a.ID)

	_, err = l.Register(alice.Pub)
	require.ErrorIs(t, err, accounts.ErrExists)
	_, err = l.Register(babyjub.NewPoint(big.NewInt(1), big.NewInt(1)))
	require.ErrorIs(t, err, babyjub.ErrPointNotOnCurve)

	a, err = l.Deposit(a.ID, 250, big.NewInt(12345))
	require.NoError(t, err)
	require.Equal(t, uint64(1), a.Version)
	got, err := alice.Balance(a.Balance)
	require.NoError(t, err)
	require.Equal(t, uint32(250), got)

	a, err = l.Deposit(a.ID, 50, big.NewInt(777))
	require.NoError(t, err)
	got, err = alice.Balance(a.Balance)
	require.NoError(t, err)
	require.Equal(t, uint32(300), got)

	root := l.Root()
	require.False(t, root.Equal(&empty))
	recs := l.Records()
	require.Len(t, recs, 3)
	require.Equal(t, KindRegister, recs[0].Kind)
	require.Equal(t, empty.String(), recs[0].PrevRoot)
	require.Equal(t, recs[1].NewRoot, recs[2].PrevRoot)
	require.Equal(t, root.String(), recs[2].NewRoot)

	acct, proof, err := l.ProveAccount(a.ID)
	require.NoError(t, err)
	require.True(t, accumulator.VerifyInclusion(root, proof))
	leaf := accumulator.LeafHash(acct.PubKey, acct.Balance, acct.Version)
	require.True(t, leaf.Equal(&proof.Leaf))

	// Reopening over the same store rebuilds the same root.
	reopened, err := New(Config{Store: store, TreeHeight: 4})
	require.NoError(t, err)
	rr := reopened.Root()
	require.True(t, rr.Equal(&root))

	_, err = l.Deposit(newWallet(t, "nobody").ID(), 1, big.NewInt(1))
	require.ErrorIs(t, err, accounts.ErrNotFound)

	require.ErrorIs(t, l.ApplyTransfer(&transfer.Tx{}), ErrNoVerifier)
}

func TestLedger_Full(t *testing.T) {
	l, err := New(Config{Store: accounts.NewMemoryStore(), TreeHeight: 1})
	require.NoError(t, err)
	_, err = l.Register(newWallet(t, "a").Pub)
	require.NoError(t, err)
	_, err = l.Register(newWallet(t, "b").Pub)
	require.NoError(t, err)
	_, err = l.Register(newWallet(t, "c").Pub)
	require.ErrorIs(t, err, ErrFull)
}

func TestLedger_ApplyTransfer(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup")
	}
	sys, err := verifier()
	require.NoError(t, err)

	store := accounts.NewMemoryStore()
	l, err := New(Config{Store: store, Verifier: sys})
	require.NoError(t, err)

	alice, bob := newWallet(t, "alice"), newWallet(t, "bob")
	sender, err := l.Register(alice.Pub)
	require.NoError(t, err)
	recipient, err := l.Register(bob.Pub)
	require.NoError(t, err)
	sender, err = l.Deposit(sender.ID, 100, big.NewInt(99))
	require.NoError(t, err)

	tx, err := alice.Transfer(sys, sender, recipient, 70, transfer.Options{})
	require.NoError(t, err)

	// A second transfer built on the same state.
	replay, err := alice.Transfer(sys, sender, recipient, 10, transfer.Options{})
	require.NoError(t, err)

	prev := l.Root()
	require.NoError(t, l.ApplyTransfer(tx))

	sender, err = l.Account(sender.ID)
	require.NoError(t, err)
	recipient, err = l.Account(recipient.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(2), sender.Version)
	require.Equal(t, uint64(1), recipient.Version)

	left, err := alice.Balance(sender.Balance)
	require.NoError(t, err)
	require.Equal(t, uint32(30), left)
	received, err := bob.Balance(recipient.Balance)
	require.NoError(t, err)
	require.Equal(t, uint32(70), received)

	rec := l.Records()[len(l.Records())-1]
	require.Equal(t, KindTransfer, rec.Kind)
	require.Equal(t, prev.String(), rec.PrevRoot)
	require.Zero(t, rec.Amount)

	require.ErrorIs(t, l.ApplyTransfer(replay), ErrStaleState)
	require.ErrorIs(t, l.ApplyTransfer(tx), ErrStaleState)

	// A bad proof leaves both accounts untouched.
	next, err := alice.Transfer(sys, sender, recipient, 5, transfer.Options{})
	require.NoError(t, err)
	next.NewRecipientEnc = next.NewSenderEnc
	require.Error(t, l.ApplyTransfer(next))
	unchanged, err := l.Account(sender.ID)
	require.NoError(t, err)
	require.Equal(t, sender.Version, unchanged.Version)

	self, err := alice.Transfer(sys, sender, sender, 1, transfer.Options{})
	require.NoError(t, err)
	require.ErrorIs(t, l.ApplyTransfer(self), ErrSelfTransfer)

	// History round-trips through a file.
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, l.SaveToFile(path))
	loaded, err := LoadLedgerFromFile(path, Config{Store: store, Verifier: sys})
	require.NoError(t, err)
	require.Len(t, loaded.Records(), len(l.Records()))
	lr, root := loaded.Root(), l.Root()
	require.True(t, lr.Equal(&root))

	_, err = LoadLedgerFromFile(path, Config{Store: accounts.NewMemoryStore(), Verifier: sys})
	require.ErrorIs(t, err, ErrStaleState)
}

func TestLedger_FailedWriteLeavesStateUnchanged(t *testing.T) {
	store := &failingStore{Store: accounts.NewMemoryStore()}
	l, err := New(Config{Store: store, TreeHeight: 4})
	require.NoError(t, err)

	alice := newWallet(t, "alice")
	a, err := l.Register(alice.Pub)
	require.NoError(t, err)
	root := l.Root()

	store.fail = true
	_, err = l.Deposit(a.ID, 10, big.NewInt(3))
	require.Error(t, err)
	_, err = l.Register(newWallet(t, "bob").Pub)
	require.Error(t, err)

	got, err := l.Account(a.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.Version)
	after := l.Root()
	require.True(t, after.Equal(&root))
	require.Len(t, l.Records(), 1)

	// The failed registration did not consume the slot.
	store.fail = false
	b, err := l.Register(newWallet(t, "bob").Pub)
	require.NoError(t, err)
	require.Equal(t, uint64(1), b.Index)
}

func TestLedger_ApplyTransferFailedWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup")
	}
	sys, err := verifier()
	require.NoError(t, err)

	store := &failingStore{Store: accounts.NewMemoryStore()}
	l, err := New(Config{Store: store, Verifier: sys})
	require.NoError(t, err)

	alice, bob := newWallet(t, "alice"), newWallet(t, "bob")
	sender, err := l.Register(alice.Pub)
	require.NoError(t, err)
	recipient, err := l.Register(bob.Pub)
	require.NoError(t, err)
	sender, err = l.Deposit(sender.ID, 100, big.NewInt(99))
	require.NoError(t, err)

	tx, err := alice.Transfer(sys, sender, recipient, 40, transfer.Options{})
	require.NoError(t, err)

	root := l.Root()
	store.fail = true
	require.EqualError(t, l.ApplyTransfer(tx), "disk full")

	s, err := l.Account(sender.ID)
	require.NoError(t, err)
	require.Equal(t, sender.Version, s.Version)
	require.True(t, s.Balance.Equal(sender.Balance))
	r, err := l.Account(recipient.ID)
	require.NoError(t, err)
	require.Equal(t, recipient.Version, r.Version)
	after := l.Root()
	require.True(t, after.Equal(&root))
	require.Len(t, l.Records(), 3)

	// The same transaction still applies once the store recovers.
	store.fail = false
	require.NoError(t, l.ApplyTransfer(tx))
}

func TestLedger_RecordsAreCopies(t *testing.T) {
	l, err := New(Config{Store: accounts.NewMemoryStore(), TreeHeight: 4})
	require.NoError(t, err)
	_, err = l.Register(newWallet(t, "alice").Pub)
	require.NoError(t, err)

	recs := l.Records()
	recs[0].NewRoot = "tampered"
	recs[0].Kind = KindTransfer
	rec, err := l.Record(0)
	require.NoError(t, err)
	require.Equal(t, KindRegister, rec.Kind)
	root := l.Root()
	require.Equal(t, root.String(), rec.NewRoot)

	rec.PrevRoot = "tampered"
	again, err := l.Record(0)
	require.NoError(t, err)
	require.NotEqual(t, "tampered", again.PrevRoot)

	_, err = l.Record(1)
	require.Error(t, err)
}
