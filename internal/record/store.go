package record

import (
	"sync"
	"time"
)

// Store is the canonical identity -> Account mapping for the process.
//
// The store guards only the mapping itself: GetOrCreate never returns two
// different Account instances for the same identity, but it makes no
// atomicity promise across records or across fields. Read-modify-write
// sequences belong to the ledger service and run under its lock.
type Store struct {
	mu              sync.RWMutex
	accounts        map[string]*Account
	startingBalance int64

	now func() time.Time // test seam
}

// NewStore creates an empty store. New accounts start with startingBalance
// credits and zero experience.
func NewStore(startingBalance int64) *Store {
	return &Store{
		accounts:        make(map[string]*Account),
		startingBalance: startingBalance,
		now:             time.Now,
	}
}

// GetOrCreate returns the account for id, creating it with default values on
// first access. Repeated calls for the same id return the same instance and
// never reset existing state.
func (s *Store) GetOrCreate(id string) *Account {
	s.mu.RLock()
	a, ok := s.accounts[id]
	s.mu.RUnlock()
	if ok {
		return a
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return a
	}
	a = &Account{
		Balance:  s.startingBalance,
		JoinedAt: s.now(),
	}
	s.accounts[id] = a
	return a
}

// Get returns the account for id without creating one.
func (s *Store) Get(id string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Replace installs a loaded mapping wholesale. Used once at startup, before
// any other access.
func (s *Store) Replace(accounts map[string]*Account) {
	if accounts == nil {
		accounts = make(map[string]*Account)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
}

// Snapshot deep-copies the entire mapping. Serialization works from the
// snapshot so that a save running outside the ledger lock never observes a
// half-applied mutation.
func (s *Store) Snapshot() map[string]*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Account, len(s.accounts))
	for id, a := range s.accounts {
		out[id] = a.Clone()
	}
	return out
}
