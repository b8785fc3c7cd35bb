package domain

import (
	"context"
)

// ConnectionRepository manages the connections of a single local user.
//
// Lookups report absence with a nil record, never with an error.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/mock_$GOFILE -package=mock_$GOPACKAGE
type ConnectionRepository interface {
	// FindAllConnections returns one entry per provider id, with an empty slice for providers
	// the user is not connected to. A nil providerIDs selects every provider the user has
	// connections with.
	FindAllConnections(ctx context.Context, providerIDs []string) (map[string][]*ConnectionRecord, error)

	// FindConnections returns the user's connections to one provider in rank order.
	FindConnections(ctx context.Context, providerID string) ([]*ConnectionRecord, error)

	// FindConnectionsToUsers returns, per provider, a slice aligned with the requested provider
	// user ids holding nil where the user is not connected to that remote user.
	FindConnectionsToUsers(ctx context.Context, providerUsers map[string][]string) (map[string][]*ConnectionRecord, error)

	FindConnection(ctx context.Context, key ConnectionKey) (*ConnectionRecord, error)

	// FindPrimaryConnection returns the rank 1 connection to the provider.
	FindPrimaryConnection(ctx context.Context, providerID string) (*ConnectionRecord, error)

	HasConnection(ctx context.Context, key ConnectionKey) (bool, error)

	// AddConnection stores the record at the next free rank and returns that rank.
	AddConnection(ctx context.Context, record *ConnectionRecord) (int, error)

	// AddConnectionAtRank stores the record at an explicit rank, replacing whatever occupied
	// it. Meant for bulk and seed loading only.
	AddConnectionAtRank(ctx context.Context, record *ConnectionRecord, rank int) error

	// UpdateConnection replaces the stored record with the same key, keeping its rank.
	// It is a no-op when no such record exists.
	UpdateConnection(ctx context.Context, record *ConnectionRecord) error

	// ReplaceConnection is UpdateConnection that fails with NoSuchConnectionError when the
	// record does not exist.
	ReplaceConnection(ctx context.Context, record *ConnectionRecord) error

	RemoveConnection(ctx context.Context, key ConnectionKey) error
	RemoveConnections(ctx context.Context, providerID string) error
}

// UsersConnectionRepository resolves connections across all local users.
type UsersConnectionRepository interface {
	// ConnectionRepository returns the repository of one local user. Storage for the user is
	// created by the first add.
	ConnectionRepository(ctx context.Context, userID string) (ConnectionRepository, error)

	// ResolveConnection maps an inbound connection to local users, running the signup hook
	// when nobody holds it.
	ResolveConnection(ctx context.Context, record *ConnectionRecord) (*Resolution, error)

	// FindUserIDsWithConnection returns the user ids of ResolveConnection.
	FindUserIDsWithConnection(ctx context.Context, record *ConnectionRecord) ([]string, error)

	// FindUserIDsConnectedTo returns the sorted set of local users connected to any of the
	// given remote users of one provider.
	FindUserIDsConnectedTo(ctx context.Context, providerID string, providerUserIDs []string) ([]string, error)

	AddConnectionAtRank(ctx context.Context, userID string, record *ConnectionRecord, rank int) error
}

// ConnectionSignUp creates a local user for a connection no existing user holds.
// An empty user id with a nil error declines the signup.
type ConnectionSignUp interface {
	CreateLocalUser(ctx context.Context, record *ConnectionRecord) (string, error)
}

// ConnectionSignUpFunc adapts a function to ConnectionSignUp.
type ConnectionSignUpFunc func(ctx context.Context, record *ConnectionRecord) (string, error)

func (f ConnectionSignUpFunc) CreateLocalUser(ctx context.Context, record *ConnectionRecord) (string, error) {
	return f(ctx, record)
}
