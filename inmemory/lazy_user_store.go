package inmemory

import (
	"context"

	"go.pilab.hu/connections/domain"
)

// lazyUserStore is the repository of a user the registry does not know yet. Reads go to the
// user's store once it exists and see no connections before that; adds create the store.
type lazyUserStore struct {
	registry *Registry
	userID   string
}

var _ domain.ConnectionRepository = (*lazyUserStore)(nil)

func (l *lazyUserStore) current() *UserConnectionStore {
	if store := l.registry.lookup(l.userID); store != nil {
		return store
	}
	return NewUserConnectionStore(l.userID, nil)
}

func (l *lazyUserStore) FindAllConnections(ctx context.Context, providerIDs []string) (map[string][]*domain.ConnectionRecord, error) {
	return l.current().FindAllConnections(ctx, providerIDs)
}

func (l *lazyUserStore) FindConnections(ctx context.Context, providerID string) ([]*domain.ConnectionRecord, error) {
	return l.current().FindConnections(ctx, providerID)
}

func (l *lazyUserStore) FindConnectionsToUsers(ctx context.Context, providerUsers map[string][]string) (map[string][]*domain.ConnectionRecord, error) {
	return l.current().FindConnectionsToUsers(ctx, providerUsers)
}

func (l *lazyUserStore) FindConnection(ctx context.Context, key domain.ConnectionKey) (*domain.ConnectionRecord, error) {
	return l.current().FindConnection(ctx, key)
}

func (l *lazyUserStore) FindPrimaryConnection(ctx context.Context, providerID string) (*domain.ConnectionRecord, error) {
	return l.current().FindPrimaryConnection(ctx, providerID)
}

func (l *lazyUserStore) HasConnection(ctx context.Context, key domain.ConnectionKey) (bool, error) {
	return l.current().HasConnection(ctx, key)
}

func (l *lazyUserStore) AddConnection(ctx context.Context, record *domain.ConnectionRecord) (int, error) {
	store, err := l.registry.StoreFor(l.userID)
	if err != nil {
		return 0, err
	}
	return store.AddConnection(ctx, record)
}

func (l *lazyUserStore) AddConnectionAtRank(ctx context.Context, record *domain.ConnectionRecord, rank int) error {
	store, err := l.registry.StoreFor(l.userID)
	if err != nil {
		return err
	}
	return store.AddConnectionAtRank(ctx, record, rank)
}

func (l *lazyUserStore) UpdateConnection(ctx context.Context, record *domain.ConnectionRecord) error {
	return l.current().UpdateConnection(ctx, record)
}

func (l *lazyUserStore) ReplaceConnection(ctx context.Context, record *domain.ConnectionRecord) error {
	return l.current().ReplaceConnection(ctx, record)
}

func (l *lazyUserStore) RemoveConnection(ctx context.Context, key domain.ConnectionKey) error {
	return l.current().RemoveConnection(ctx, key)
}

func (l *lazyUserStore) RemoveConnections(ctx context.Context, providerID string) error {
	return l.current().RemoveConnections(ctx, providerID)
}
