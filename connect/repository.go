package connect

import (
	"context"

	"go.pilab.hu/connections/domain"
)

// Repository is the connection repository of one user as seen by application code: every
// stored record comes back as a live Connection of its provider.
type Repository struct {
	repo    domain.ConnectionRepository
	locator *Locator
}

func NewRepository(repo domain.ConnectionRepository, locator *Locator) *Repository {
	return &Repository{repo: repo, locator: locator}
}

// FindAllConnections returns an entry for every registered provider, empty for providers the
// user has not connected.
func (r *Repository) FindAllConnections(ctx context.Context) (map[string][]*Connection, error) {
	providerIDs := r.locator.RegisteredProviderIDs()
	if len(providerIDs) == 0 {
		return map[string][]*Connection{}, nil
	}

	records, err := r.repo.FindAllConnections(ctx, providerIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]*Connection, len(records))
	for providerID, recs := range records {
		conns, err := r.createAll(recs)
		if err != nil {
			return nil, err
		}
		out[providerID] = conns
	}
	return out, nil
}

func (r *Repository) FindConnections(ctx context.Context, providerID string) ([]*Connection, error) {
	records, err := r.repo.FindConnections(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return r.createAll(records)
}

// FindConnectionsToUsers returns, per provider, connections aligned with the requested remote
// user ids, nil where the user is not connected.
func (r *Repository) FindConnectionsToUsers(ctx context.Context, providerUsers map[string][]string) (map[string][]*Connection, error) {
	records, err := r.repo.FindConnectionsToUsers(ctx, providerUsers)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]*Connection, len(records))
	for providerID, recs := range records {
		conns, err := r.createAll(recs)
		if err != nil {
			return nil, err
		}
		out[providerID] = conns
	}
	return out, nil
}

// GetConnection returns the connection or a NoSuchConnectionError.
func (r *Repository) GetConnection(ctx context.Context, key domain.ConnectionKey) (*Connection, error) {
	record, err := r.repo.FindConnection(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &domain.NoSuchConnectionError{Key: key}
	}
	return r.create(record)
}

// FindPrimaryConnection returns the primary connection to the provider or nil.
func (r *Repository) FindPrimaryConnection(ctx context.Context, providerID string) (*Connection, error) {
	record, err := r.repo.FindPrimaryConnection(ctx, providerID)
	if err != nil || record == nil {
		return nil, err
	}
	return r.create(record)
}

// GetPrimaryConnection returns the primary connection or a NotConnectedError.
func (r *Repository) GetPrimaryConnection(ctx context.Context, providerID string) (*Connection, error) {
	conn, err := r.FindPrimaryConnection(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &domain.NotConnectedError{ProviderID: providerID}
	}
	return conn, nil
}

func (r *Repository) AddConnection(ctx context.Context, conn *Connection) (int, error) {
	return r.repo.AddConnection(ctx, conn.Record())
}

func (r *Repository) UpdateConnection(ctx context.Context, conn *Connection) error {
	return r.repo.UpdateConnection(ctx, conn.Record())
}

func (r *Repository) RemoveConnection(ctx context.Context, key domain.ConnectionKey) error {
	return r.repo.RemoveConnection(ctx, key)
}

func (r *Repository) RemoveConnections(ctx context.Context, providerID string) error {
	return r.repo.RemoveConnections(ctx, providerID)
}

func (r *Repository) create(record *domain.ConnectionRecord) (*Connection, error) {
	f, err := r.locator.Factory(record.ProviderID)
	if err != nil {
		return nil, err
	}
	return f.CreateConnection(record)
}

// createAll keeps nil entries so aligned results stay aligned.
func (r *Repository) createAll(records []*domain.ConnectionRecord) ([]*Connection, error) {
	out := make([]*Connection, len(records))
	for i, record := range records {
		if record == nil {
			continue
		}
		conn, err := r.create(record)
		if err != nil {
			return nil, err
		}
		out[i] = conn
	}
	return out, nil
}
