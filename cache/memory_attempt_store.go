package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/connections/domain"
)

// MemoryAttemptStore implements AttemptStore using ttlcache.
type MemoryAttemptStore struct {
	cache *ttlcache.Cache[string, *Attempt]
}

var _ AttemptStore = (*MemoryAttemptStore)(nil)

// NewMemoryAttemptStore creates an in-memory attempt store. Attempts saved without an expiry
// live for defaultTTL. Expired attempts are evicted in the background until Stop is called.
func NewMemoryAttemptStore(defaultTTL time.Duration) *MemoryAttemptStore {
	c := ttlcache.New(
		ttlcache.WithTTL[string, *Attempt](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, *Attempt](),
	)

	go c.Start()

	return &MemoryAttemptStore{cache: c}
}

// Save implements AttemptStore.Save.
func (s *MemoryAttemptStore) Save(ctx context.Context, attempt *Attempt) error {
	if attempt == nil || attempt.Token == "" {
		return fmt.Errorf("%w: attempt token is required", domain.ErrInvalidArgument)
	}
	if err := attempt.Record.Validate(); err != nil {
		return err
	}

	ttl := ttlcache.DefaultTTL
	if !attempt.ExpiresAt.IsZero() {
		ttl = time.Until(attempt.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("%w: attempt already expired", domain.ErrInvalidArgument)
		}
	}

	stored := *attempt
	stored.Record = attempt.Record.Clone()
	s.cache.Set(attempt.Token, &stored, ttl)

	log.Ctx(ctx).Debug().
		Str("provider_id", stored.Record.ProviderID).
		Dur("ttl", ttl).
		Msg("sign-in attempt saved")

	return nil
}

// Take implements AttemptStore.Take.
func (s *MemoryAttemptStore) Take(_ context.Context, token string) (*Attempt, error) {
	item, ok := s.cache.GetAndDelete(token)
	if !ok || item == nil || item.IsExpired() {
		return nil, ErrAttemptNotFound
	}

	attempt := *item.Value()
	attempt.Record = attempt.Record.Clone()
	return &attempt, nil
}

// Len returns the number of attempts currently held.
func (s *MemoryAttemptStore) Len() int {
	return s.cache.Len()
}

// Stop ends background eviction.
func (s *MemoryAttemptStore) Stop() {
	s.cache.Stop()
}
