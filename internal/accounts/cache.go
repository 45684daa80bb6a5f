package accounts

import (
	lru "github.com/hashicorp/golang-lru"
)

// CachedStore serves reads of recently used accounts from memory and writes
// through to the wrapped store.
type CachedStore struct {
	Store
	cache *lru.Cache // ID -> *Account
}

// NewCachedStore wraps s with a cache of size entries.
func NewCachedStore(s Store, size int) (*CachedStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{Store: s, cache: cache}, nil
}

func (s *CachedStore) GetAccount(id ID) (*Account, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached.(*Account).Clone(), nil
	}
	a, err := s.Store.GetAccount(id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, a.Clone())
	return a, nil
}

func (s *CachedStore) PutAccount(a *Account) error { return s.PutAccounts(a) }

func (s *CachedStore) PutAccounts(accts ...*Account) error {
	if err := s.Store.PutAccounts(accts...); err != nil {
		for _, a := range accts {
			s.cache.Remove(a.ID)
		}
		return err
	}
	for _, a := range accts {
		s.cache.Add(a.ID, a.Clone())
	}
	return nil
}

// Len reports the number of cached accounts.
func (s *CachedStore) Len() int {
	return s.cache.Len()
}
