package inmemory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/internal/metrics"
)

// UserConnectionStore holds the connections of a single local user, one
// ProviderConnectionStore per provider.
type UserConnectionStore struct {
	userID  string
	metrics *metrics.ConnectionMetrics

	mu        sync.RWMutex
	providers map[string]*ProviderConnectionStore
}

var _ domain.ConnectionRepository = (*UserConnectionStore)(nil)

// NewUserConnectionStore creates an empty store for the user. A nil metrics is allowed.
func NewUserConnectionStore(userID string, m *metrics.ConnectionMetrics) *UserConnectionStore {
	return &UserConnectionStore{
		userID:    userID,
		metrics:   m,
		providers: make(map[string]*ProviderConnectionStore),
	}
}

func (s *UserConnectionStore) UserID() string { return s.userID }

// StoreFor returns the provider store, creating it on first use. Concurrent first calls
// for the same provider get the same instance.
func (s *UserConnectionStore) StoreFor(providerID string) (*ProviderConnectionStore, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	store, ok := s.providers[providerID]
	s.mu.RUnlock()
	if ok {
		return store, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.providers[providerID]; ok {
		return store, nil
	}
	store = NewProviderConnectionStore(s.userID, providerID)
	s.providers[providerID] = store
	return store, nil
}

// ProviderIDs returns the providers this user has a store for, sorted.
func (s *UserConnectionStore) ProviderIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.providers))
}

// lookup returns the provider store without creating it.
func (s *UserConnectionStore) lookup(providerID string) *ProviderConnectionStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.providers[providerID]
}

func (s *UserConnectionStore) FindAllConnections(ctx context.Context, providerIDs []string) (map[string][]*domain.ConnectionRecord, error) {
	if providerIDs == nil {
		providerIDs = s.ProviderIDs()
	}

	out := make(map[string][]*domain.ConnectionRecord, len(providerIDs))
	for _, providerID := range providerIDs {
		if err := domain.RequireID("providerID", providerID); err != nil {
			return nil, err
		}
		if store := s.lookup(providerID); store != nil {
			out[providerID] = store.FindAllOrderedByRank()
		} else {
			out[providerID] = []*domain.ConnectionRecord{}
		}
	}

	log.Ctx(ctx).Debug().
		Str("user_id", s.userID).
		Int("providers", len(out)).
		Msg("listed all connections")

	return out, nil
}

func (s *UserConnectionStore) FindConnections(_ context.Context, providerID string) ([]*domain.ConnectionRecord, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}

	store := s.lookup(providerID)
	if store == nil {
		return []*domain.ConnectionRecord{}, nil
	}
	return store.FindAllOrderedByRank(), nil
}

func (s *UserConnectionStore) FindConnectionsToUsers(_ context.Context, providerUsers map[string][]string) (map[string][]*domain.ConnectionRecord, error) {
	if len(providerUsers) == 0 {
		return nil, fmt.Errorf("%w: providerUsers must not be empty", domain.ErrInvalidArgument)
	}

	out := make(map[string][]*domain.ConnectionRecord, len(providerUsers))
	for providerID, providerUserIDs := range providerUsers {
		if err := domain.RequireID("providerID", providerID); err != nil {
			return nil, err
		}

		store := s.lookup(providerID)
		if store == nil {
			continue
		}

		aligned := make([]*domain.ConnectionRecord, len(providerUserIDs))
		matched := false
		for i, providerUserID := range providerUserIDs {
			if record := store.FindByProviderUserID(providerUserID); record != nil {
				aligned[i] = record
				matched = true
			}
		}
		if matched {
			out[providerID] = aligned
		}
	}

	return out, nil
}

func (s *UserConnectionStore) FindConnection(_ context.Context, key domain.ConnectionKey) (*domain.ConnectionRecord, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	store := s.lookup(key.ProviderID)
	if store == nil {
		return nil, nil
	}
	return store.FindByProviderUserID(key.ProviderUserID), nil
}

func (s *UserConnectionStore) FindPrimaryConnection(_ context.Context, providerID string) (*domain.ConnectionRecord, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}

	store := s.lookup(providerID)
	if store == nil {
		return nil, nil
	}
	return store.FindByRank(1), nil
}

func (s *UserConnectionStore) HasConnection(_ context.Context, key domain.ConnectionKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	store := s.lookup(key.ProviderID)
	return store != nil && store.HasProviderUserID(key.ProviderUserID), nil
}

// AddConnection stores the record at the next free rank of its provider.
func (s *UserConnectionStore) AddConnection(ctx context.Context, record *domain.ConnectionRecord) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}

	store, err := s.StoreFor(record.ProviderID)
	if err != nil {
		return 0, err
	}

	rank, err := store.Add(record)
	if err != nil {
		s.metrics.ObserveDuplicate(record.ProviderID)
		return 0, err
	}
	s.metrics.ObserveAdded(record.ProviderID)

	log.Ctx(ctx).Debug().
		Str("user_id", s.userID).
		Str("connection", record.Key().String()).
		Int("rank", rank).
		Msg("connection added")

	return rank, nil
}

func (s *UserConnectionStore) AddConnectionAtRank(ctx context.Context, record *domain.ConnectionRecord, rank int) error {
	if err := record.Validate(); err != nil {
		return err
	}

	store, err := s.StoreFor(record.ProviderID)
	if err != nil {
		return err
	}

	if err := store.AddAtRank(record, rank); err != nil {
		if errors.Is(err, domain.ErrDuplicateConnection) {
			s.metrics.ObserveDuplicate(record.ProviderID)
		}
		return err
	}
	s.metrics.ObserveAdded(record.ProviderID)

	log.Ctx(ctx).Debug().
		Str("user_id", s.userID).
		Str("connection", record.Key().String()).
		Int("rank", rank).
		Msg("connection stored at rank")

	return nil
}

func (s *UserConnectionStore) UpdateConnection(ctx context.Context, record *domain.ConnectionRecord) error {
	_, err := s.update(ctx, record)
	return err
}

func (s *UserConnectionStore) ReplaceConnection(ctx context.Context, record *domain.ConnectionRecord) error {
	updated, err := s.update(ctx, record)
	if err != nil {
		return err
	}
	if !updated {
		return &domain.NoSuchConnectionError{Key: record.Key()}
	}
	return nil
}

func (s *UserConnectionStore) update(ctx context.Context, record *domain.ConnectionRecord) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}

	store := s.lookup(record.ProviderID)
	if store == nil {
		return false, nil
	}

	updated, err := store.UpdateByProviderUserID(record, record.ProviderUserID)
	if err != nil {
		return false, err
	}

	log.Ctx(ctx).Debug().
		Str("user_id", s.userID).
		Str("connection", record.Key().String()).
		Bool("updated", updated).
		Msg("connection update")

	return updated, nil
}

func (s *UserConnectionStore) RemoveConnection(ctx context.Context, key domain.ConnectionKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	store := s.lookup(key.ProviderID)
	if store == nil || !store.RemoveByProviderUserID(key.ProviderUserID) {
		return nil
	}
	s.metrics.ObserveRemoved(key.ProviderID, 1)

	log.Ctx(ctx).Debug().
		Str("user_id", s.userID).
		Str("connection", key.String()).
		Msg("connection removed")

	return nil
}

func (s *UserConnectionStore) RemoveConnections(ctx context.Context, providerID string) error {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return err
	}

	store := s.lookup(providerID)
	if store == nil {
		return nil
	}
	n := store.RemoveAll()
	s.metrics.ObserveRemoved(providerID, n)

	log.Ctx(ctx).Debug().
		Str("user_id", s.userID).
		Str("provider_id", providerID).
		Int("removed", n).
		Msg("provider connections removed")

	return nil
}
