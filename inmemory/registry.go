// Package inmemory is the in-process connection registry: a Registry of per-user stores, each
// holding one ranked ProviderConnectionStore per provider.
package inmemory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/internal/metrics"
	"go.pilab.hu/connections/internal/signup"
)

// Registry maps local user ids to their connection stores and resolves inbound connections
// to local users.
type Registry struct {
	metrics  *metrics.ConnectionMetrics
	resolver *signup.Resolver

	mu    sync.RWMutex
	users map[string]*UserConnectionStore
}

var _ domain.UsersConnectionRepository = (*Registry)(nil)

// Option configures a Registry.
type Option func(*options)

type options struct {
	signUp  domain.ConnectionSignUp
	metrics *metrics.ConnectionMetrics
}

// WithConnectionSignUp sets the hook that creates local users for unmatched connections.
func WithConnectionSignUp(signUp domain.ConnectionSignUp) Option {
	return func(o *options) {
		o.signUp = signUp
	}
}

// WithMetrics records registry activity on m.
func WithMetrics(m *metrics.ConnectionMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Registry{
		metrics:  o.metrics,
		resolver: signup.NewResolver(o.signUp),
		users:    make(map[string]*UserConnectionStore),
	}
}

// StoreFor returns the store of the local user, creating it on first use. Concurrent first
// calls for the same user get the same instance.
func (r *Registry) StoreFor(userID string) (*UserConnectionStore, error) {
	if err := domain.RequireID("userID", userID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	store, ok := r.users[userID]
	r.mu.RUnlock()
	if ok {
		return store, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.users[userID]; ok {
		return store, nil
	}
	store = NewUserConnectionStore(userID, r.metrics)
	r.users[userID] = store
	r.metrics.SetKnownUsers(len(r.users))
	return store, nil
}

// ConnectionRepository returns the store of a known user. For other users it returns a
// repository that reads as empty and creates the store on the first add, so lookups of
// arbitrary user ids do not grow the registry.
//
//nolint:ireturn
func (r *Registry) ConnectionRepository(_ context.Context, userID string) (domain.ConnectionRepository, error) {
	if err := domain.RequireID("userID", userID); err != nil {
		return nil, err
	}
	if store := r.lookup(userID); store != nil {
		return store, nil
	}
	return &lazyUserStore{registry: r, userID: userID}, nil
}

func (r *Registry) lookup(userID string) *UserConnectionStore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.users[userID]
}

// UserIDs returns the ids of all known local users in ascending order.
func (r *Registry) UserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.users))
}

// snapshot returns the user stores ordered by user id. The registry lock is released before
// the caller reads the stores.
func (r *Registry) snapshot() []*UserConnectionStore {
	r.mu.RLock()
	ids := slices.Sorted(maps.Keys(r.users))
	stores := make([]*UserConnectionStore, 0, len(ids))
	for _, id := range ids {
		stores = append(stores, r.users[id])
	}
	r.mu.RUnlock()

	return stores
}

// usersHolding returns, in ascending order, the users whose store contains key.
func (r *Registry) usersHolding(key domain.ConnectionKey) []string {
	var userIDs []string
	for _, store := range r.snapshot() {
		if p := store.lookup(key.ProviderID); p != nil && p.HasProviderUserID(key.ProviderUserID) {
			userIDs = append(userIDs, store.UserID())
		}
	}
	return userIDs
}

// ResolveConnection returns the local users holding the connection. When there are none and a
// signup hook is configured, the hook may create a user that then receives the connection at
// rank 1.
func (r *Registry) ResolveConnection(ctx context.Context, record *domain.ConnectionRecord) (*domain.Resolution, error) {
	scan := func(context.Context) ([]string, error) {
		return r.usersHolding(record.Key()), nil
	}
	link := func(ctx context.Context, userID string) error {
		store, err := r.StoreFor(userID)
		if err != nil {
			return err
		}
		_, err = store.AddConnection(ctx, record)
		return err
	}

	res, err := r.resolver.Resolve(ctx, record, scan, link)
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveResolution(string(res.State))

	log.Ctx(ctx).Debug().
		Str("connection", record.Key().String()).
		Str("state", string(res.State)).
		Strs("user_ids", res.UserIDs).
		Msg("connection resolved")

	return res, nil
}

func (r *Registry) FindUserIDsWithConnection(ctx context.Context, record *domain.ConnectionRecord) ([]string, error) {
	res, err := r.ResolveConnection(ctx, record)
	if err != nil {
		return nil, err
	}
	return res.UserIDs, nil
}

// FindUserIDsConnectedTo returns the users connected to any of the remote users, sorted and
// without repetition.
func (r *Registry) FindUserIDsConnectedTo(_ context.Context, providerID string, providerUserIDs []string) ([]string, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}

	userIDs := []string{}
	if len(providerUserIDs) == 0 {
		return userIDs, nil
	}

	// The snapshot is ordered and holds each user once.
	for _, store := range r.snapshot() {
		p := store.lookup(providerID)
		if p == nil {
			continue
		}
		if len(p.FindByProviderUserIDs(providerUserIDs)) > 0 {
			userIDs = append(userIDs, store.UserID())
		}
	}
	return userIDs, nil
}

// AddConnectionAtRank stores the record for the user at an explicit rank. It is the bulk
// loading path and bypasses resolution.
func (r *Registry) AddConnectionAtRank(ctx context.Context, userID string, record *domain.ConnectionRecord, rank int) error {
	store, err := r.StoreFor(userID)
	if err != nil {
		return err
	}
	return store.AddConnectionAtRank(ctx, record, rank)
}
