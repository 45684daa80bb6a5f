package accounts

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps accounts in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[ID]*Account
	bySlot map[uint64]ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[ID]*Account),
		bySlot: make(map[uint64]ID),
	}
}

func (s *MemoryStore) GetAccount(id ID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *MemoryStore) AccountAt(index uint64) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySlot[index]
	if !ok {
		return nil, fmt.Errorf("slot %d: %w", index, ErrNotFound)
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) PutAccount(a *Account) error { return s.PutAccounts(a) }

func (s *MemoryStore) PutAccounts(accts ...*Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSlots(accts); err != nil {
		return err
	}
	for _, a := range accts {
		s.byID[a.ID] = a.Clone()
		s.bySlot[a.Index] = a.ID
	}
	return nil
}

// checkSlots rejects an account whose slot belongs to another ID, either in
// the store or earlier in accts. The caller holds mu.
func (s *MemoryStore) checkSlots(accts []*Account) error {
	claimed := make(map[uint64]ID, len(accts))
	for _, a := range accts {
		owner, ok := claimed[a.Index]
		if !ok {
			owner, ok = s.bySlot[a.Index]
		}
		if ok && owner != a.ID {
			return fmt.Errorf("slot %d: %w", a.Index, ErrExists)
		}
		claimed[a.Index] = a.ID
	}
	return nil
}

// with lists the accounts as they would be after PutAccounts(accts...),
// without changing the store.
func (s *MemoryStore) with(accts []*Account) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSlots(accts); err != nil {
		return nil, err
	}
	next := make(map[ID]*Account, len(s.byID)+len(accts))
	for id, a := range s.byID {
		next[id] = a
	}
	for _, a := range accts {
		next[a.ID] = a.Clone()
	}
	out := make([]*Account, 0, len(next))
	for _, a := range next {
		out = append(out, a)
	}
	sortBySlot(out)
	return out, nil
}

func (s *MemoryStore) Accounts() ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.Clone())
	}
	sortBySlot(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func sortBySlot(accts []*Account) {
	sort.Slice(accts, func(i, j int) bool { return accts[i].Index < accts[j].Index })
}
