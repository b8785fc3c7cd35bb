package inmemory

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.pilab.hu/connections/domain"
)

// ProviderConnectionStore keeps the ranked connections of one local user to one provider.
// Records are unique by provider user id and ranks are unique; rank 1 is the primary
// connection. Records are copied in and out, so callers never share memory with the store.
type ProviderConnectionStore struct {
	userID     string
	providerID string

	mu     sync.RWMutex
	byRank map[int]*domain.ConnectionRecord
}

// NewProviderConnectionStore creates an empty store for the user and provider.
func NewProviderConnectionStore(userID, providerID string) *ProviderConnectionStore {
	return &ProviderConnectionStore{
		userID:     userID,
		providerID: providerID,
		byRank:     make(map[int]*domain.ConnectionRecord),
	}
}

func (s *ProviderConnectionStore) UserID() string     { return s.userID }
func (s *ProviderConnectionStore) ProviderID() string { return s.providerID }

// check validates the record and rejects records of another provider.
func (s *ProviderConnectionStore) check(record *domain.ConnectionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if record.ProviderID != s.providerID {
		return fmt.Errorf("%w: %s does not belong to the %s store", domain.ErrInvalidArgument, record.Key(), s.providerID)
	}
	return nil
}

// Add stores the record at the next rank and returns it.
func (s *ProviderConnectionStore) Add(record *domain.ConnectionRecord) (int, error) {
	if err := s.check(record); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.rankOfLocked(record.ProviderUserID); held {
		return 0, &domain.DuplicateConnectionError{Key: record.Key()}
	}

	rank := s.nextRankLocked()
	s.byRank[rank] = record.Clone()
	return rank, nil
}

// AddAtRank stores the record at rank, replacing the record that occupies it. The duplicate
// check covers every other rank but not the target one, so reloading a seed is idempotent.
func (s *ProviderConnectionStore) AddAtRank(record *domain.ConnectionRecord, rank int) error {
	if err := s.check(record); err != nil {
		return err
	}
	if rank < 1 {
		return fmt.Errorf("%w: rank must be positive, got %d", domain.ErrInvalidArgument, rank)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.rankOfLocked(record.ProviderUserID); ok && held != rank {
		return &domain.DuplicateConnectionError{Key: record.Key()}
	}

	s.byRank[rank] = record.Clone()
	return nil
}

// FindAllOrderedByRank returns every record in ascending rank order.
func (s *ProviderConnectionStore) FindAllOrderedByRank() []*domain.ConnectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ConnectionRecord, 0, len(s.byRank))
	for _, rank := range s.ranksLocked() {
		out = append(out, s.byRank[rank].Clone())
	}
	return out
}

// FindByProviderUserID returns the record of the remote user or nil.
func (s *ProviderConnectionStore) FindByProviderUserID(providerUserID string) *domain.ConnectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rank, ok := s.rankOfLocked(providerUserID)
	if !ok {
		return nil
	}
	return s.byRank[rank].Clone()
}

// FindByRank returns the record at rank or nil.
func (s *ProviderConnectionStore) FindByRank(rank int) *domain.ConnectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byRank[rank].Clone()
}

// FindByProviderUserIDs returns the records of the given remote users in rank order.
func (s *ProviderConnectionStore) FindByProviderUserIDs(providerUserIDs []string) []*domain.ConnectionRecord {
	wanted := make(map[string]struct{}, len(providerUserIDs))
	for _, id := range providerUserIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ConnectionRecord, 0, len(providerUserIDs))
	for _, rank := range s.ranksLocked() {
		if _, ok := wanted[s.byRank[rank].ProviderUserID]; ok {
			out = append(out, s.byRank[rank].Clone())
		}
	}
	return out
}

// UpdateByProviderUserID replaces the record of providerUserID in place, keeping its rank.
// It reports false when there is no such record. A replacement that would take over the
// provider user id of another slot is rejected.
func (s *ProviderConnectionStore) UpdateByProviderUserID(record *domain.ConnectionRecord, providerUserID string) (bool, error) {
	if err := s.check(record); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rank, ok := s.rankOfLocked(providerUserID)
	if !ok {
		return false, nil
	}
	if record.ProviderUserID != providerUserID {
		if _, taken := s.rankOfLocked(record.ProviderUserID); taken {
			return false, &domain.DuplicateConnectionError{Key: record.Key()}
		}
	}

	s.byRank[rank] = record.Clone()
	return true, nil
}

// RemoveByProviderUserID removes the record of the remote user and reports whether it existed.
// Ranks of the remaining records are left untouched.
func (s *ProviderConnectionStore) RemoveByProviderUserID(providerUserID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rank, ok := s.rankOfLocked(providerUserID)
	if ok {
		delete(s.byRank, rank)
	}
	return ok
}

// RemoveAll empties the store and returns the number of removed records.
func (s *ProviderConnectionStore) RemoveAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.byRank)
	clear(s.byRank)
	return n
}

func (s *ProviderConnectionStore) HasProviderUserID(providerUserID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rankOfLocked(providerUserID)
	return ok
}

// NextRank returns the rank the next Add would assign.
func (s *ProviderConnectionStore) NextRank() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nextRankLocked()
}

func (s *ProviderConnectionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byRank)
}

// Ranks returns the occupied ranks in ascending order.
func (s *ProviderConnectionStore) Ranks() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ranksLocked()
}

func (s *ProviderConnectionStore) rankOfLocked(providerUserID string) (int, bool) {
	for rank, record := range s.byRank {
		if record.ProviderUserID == providerUserID {
			return rank, true
		}
	}
	return 0, false
}

func (s *ProviderConnectionStore) nextRankLocked() int {
	max := 0
	for rank := range s.byRank {
		if rank > max {
			max = rank
		}
	}
	return max + 1
}

func (s *ProviderConnectionStore) ranksLocked() []int {
	return slices.Sorted(maps.Keys(s.byRank))
}
