package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// JSONFileStore keeps every account in one indented JSON file, rewritten on
// each change. It suits small demos where the file is read by hand.
type JSONFileStore struct {
	path string
	mem  *MemoryStore
	mu   sync.Mutex
}

// OpenJSONFile loads path, or starts empty if it does not exist yet.
func OpenJSONFile(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path, mem: NewMemoryStore()}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var accts []*Account
	if err := json.Unmarshal(raw, &accts); err != nil {
		return nil, fmt.Errorf("accounts: decode %s: %w", path, err)
	}
	for _, a := range accts {
		if err := s.mem.PutAccount(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *JSONFileStore) GetAccount(id ID) (*Account, error) { return s.mem.GetAccount(id) }

func (s *JSONFileStore) AccountAt(index uint64) (*Account, error) { return s.mem.AccountAt(index) }

func (s *JSONFileStore) Accounts() ([]*Account, error) { return s.mem.Accounts() }

func (s *JSONFileStore) PutAccount(a *Account) error { return s.PutAccounts(a) }

// PutAccounts rewrites the file first and updates memory only once the new
// file is in place.
func (s *JSONFileStore) PutAccounts(accts ...*Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.mem.with(accts)
	if err != nil {
		return err
	}
	if err := s.write(next); err != nil {
		return fmt.Errorf("accounts: write %s: %w", s.path, err)
	}
	return s.mem.PutAccounts(accts...)
}

func (s *JSONFileStore) write(accts []*Account) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *JSONFileStore) Close() error { return nil }
