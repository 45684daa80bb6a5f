package accounts

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	accountPrefix = []byte("acct-") // acct-<id> -> json(Account)
	slotPrefix    = []byte("slot-") // slot-<index be64> -> id
)

// LevelDBStore keeps accounts in a LevelDB database.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates the database at path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("accounts: open %s: %w", path, err)
	}
	return NewLevelDBStore(db), nil
}

// NewLevelDBStore wraps an open database. The store owns db from then on.
func NewLevelDBStore(db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{db: db}
}

func accountKey(id ID) []byte {
	return append(append([]byte{}, accountPrefix...), id[:]...)
}

func slotKey(index uint64) []byte {
	key := append([]byte{}, slotPrefix...)
	return binary.BigEndian.AppendUint64(key, index)
}

func (s *LevelDBStore) GetAccount(id ID) (*Account, error) {
	raw, err := s.db.Get(accountKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var a Account
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("accounts: decode %s: %w", id, err)
	}
	return &a, nil
}

func (s *LevelDBStore) AccountAt(index uint64) (*Account, error) {
	raw, err := s.db.Get(slotKey(index), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("slot %d: %w", index, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var id ID
	copy(id[:], raw)
	return s.GetAccount(id)
}

func (s *LevelDBStore) PutAccount(a *Account) error { return s.PutAccounts(a) }

// PutAccounts writes the accounts and their slot entries in one batch.
func (s *LevelDBStore) PutAccounts(accts ...*Account) error {
	batch := new(leveldb.Batch)
	claimed := make(map[uint64]ID, len(accts))
	for _, a := range accts {
		owner, ok := claimed[a.Index]
		if !ok {
			raw, err := s.db.Get(slotKey(a.Index), nil)
			switch {
			case err == nil:
				copy(owner[:], raw)
				ok = true
			case !errors.Is(err, leveldb.ErrNotFound):
				return err
			}
		}
		if ok && owner != a.ID {
			return fmt.Errorf("slot %d: %w", a.Index, ErrExists)
		}
		claimed[a.Index] = a.ID

		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		batch.Put(accountKey(a.ID), raw)
		batch.Put(slotKey(a.Index), a.ID[:])
	}
	return s.db.Write(batch, nil)
}

func (s *LevelDBStore) Accounts() ([]*Account, error) {
	iter := s.db.NewIterator(util.BytesPrefix(slotPrefix), nil)
	defer iter.Release()

	var out []*Account
	for iter.Next() {
		var id ID
		copy(id[:], iter.Value())
		a, err := s.GetAccount(id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
