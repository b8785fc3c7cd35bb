package mongodb

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/internal/crypto"
	"go.pilab.hu/connections/internal/metrics"
	"go.pilab.hu/connections/internal/signup"
)

// UsersConnectionRepositoryMongo implements domain.UsersConnectionRepository on a single
// MongoDB collection.
type UsersConnectionRepositoryMongo struct {
	collection *mongo.Collection
	encryptor  crypto.TextEncryptor
	metrics    *metrics.ConnectionMetrics
	resolver   *signup.Resolver
	now        func() time.Time
}

var _ domain.UsersConnectionRepository = (*UsersConnectionRepositoryMongo)(nil)

// Option configures a UsersConnectionRepositoryMongo.
type Option func(*repoOptions)

type repoOptions struct {
	prefix    string
	encryptor crypto.TextEncryptor
	signUp    domain.ConnectionSignUp
	metrics   *metrics.ConnectionMetrics
	now       func() time.Time
}

// WithCollectionPrefix prepends prefix to the collection name.
func WithCollectionPrefix(prefix string) Option {
	return func(o *repoOptions) {
		o.prefix = prefix
	}
}

// WithEncryptor encrypts credentials at rest. The default stores them as is.
func WithEncryptor(enc crypto.TextEncryptor) Option {
	return func(o *repoOptions) {
		o.encryptor = enc
	}
}

func WithConnectionSignUp(signUp domain.ConnectionSignUp) Option {
	return func(o *repoOptions) {
		o.signUp = signUp
	}
}

func WithMetrics(m *metrics.ConnectionMetrics) Option {
	return func(o *repoOptions) {
		o.metrics = m
	}
}

// WithClock overrides the clock used for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *repoOptions) {
		o.now = now
	}
}

// NewUsersConnectionRepositoryMongo returns the repository and ensures its indexes.
func NewUsersConnectionRepositoryMongo(ctx context.Context, db *mongo.Database, opts ...Option) (*UsersConnectionRepositoryMongo, error) {
	o := repoOptions{
		encryptor: crypto.Noop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	repo := &UsersConnectionRepositoryMongo{
		collection: db.Collection(o.prefix + ConnectionsCollection),
		encryptor:  o.encryptor,
		metrics:    o.metrics,
		resolver:   signup.NewResolver(o.signUp),
		now:        o.now,
	}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *UsersConnectionRepositoryMongo) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			// A user holds a remote identity at most once per provider.
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "provider_id", Value: 1},
				{Key: "provider_user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName(indexUserConnection),
		},
		{
			// Ranks are unique within one user's provider.
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "provider_id", Value: 1},
				{Key: "rank", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName(indexUserRank),
		},
		{
			// Reverse lookups from a remote identity to local users.
			Keys: bson.D{
				{Key: "provider_id", Value: 1},
				{Key: "provider_user_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetName("provider_user"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes for %s collection: %w", r.collection.Name(), err)
	}
	log.Ctx(ctx).Info().Msgf("Indexes for %s collection ensured.", r.collection.Name())
	return nil
}

// ConnectionRepository returns the repository of userID. Users exist implicitly, so nothing
// is written until the first connection is added.
//
//nolint:ireturn
func (r *UsersConnectionRepositoryMongo) ConnectionRepository(_ context.Context, userID string) (domain.ConnectionRepository, error) {
	return r.forUser(userID)
}

func (r *UsersConnectionRepositoryMongo) forUser(userID string) (*connectionRepositoryMongo, error) {
	if err := domain.RequireID("userID", userID); err != nil {
		return nil, err
	}
	return &connectionRepositoryMongo{parent: r, userID: userID}, nil
}

// usersHolding returns the ids of the users holding key in ascending order.
func (r *UsersConnectionRepositoryMongo) usersHolding(ctx context.Context, key domain.ConnectionKey) ([]string, error) {
	filter := bson.D{
		{Key: "provider_id", Value: key.ProviderID},
		{Key: "provider_user_id", Value: key.ProviderUserID},
	}
	return r.findUserIDs(ctx, filter)
}

func (r *UsersConnectionRepositoryMongo) findUserIDs(ctx context.Context, filter bson.D) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "user_id", Value: 1}}).
		SetProjection(bson.D{{Key: "user_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find user ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		UserID string `bson:"user_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode user ids: %w", err)
	}

	userIDs := make([]string, 0, len(docs))
	for _, d := range docs {
		userIDs = append(userIDs, d.UserID)
	}
	return slices.Compact(userIDs), nil
}

func (r *UsersConnectionRepositoryMongo) ResolveConnection(ctx context.Context, record *domain.ConnectionRecord) (*domain.Resolution, error) {
	scan := func(ctx context.Context) ([]string, error) {
		return r.usersHolding(ctx, record.Key())
	}
	link := func(ctx context.Context, userID string) error {
		repo, err := r.forUser(userID)
		if err != nil {
			return err
		}
		_, err = repo.AddConnection(ctx, record)
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

func (r *UsersConnectionRepositoryMongo) FindUserIDsWithConnection(ctx context.Context, record *domain.ConnectionRecord) ([]string, error) {
	res, err := r.ResolveConnection(ctx, record)
	if err != nil {
		return nil, err
	}
	return res.UserIDs, nil
}

func (r *UsersConnectionRepositoryMongo) FindUserIDsConnectedTo(ctx context.Context, providerID string, providerUserIDs []string) ([]string, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}
	if len(providerUserIDs) == 0 {
		return []string{}, nil
	}

	filter := bson.D{
		{Key: "provider_id", Value: providerID},
		{Key: "provider_user_id", Value: bson.D{{Key: "$in", Value: providerUserIDs}}},
	}
	return r.findUserIDs(ctx, filter)
}

func (r *UsersConnectionRepositoryMongo) AddConnectionAtRank(ctx context.Context, userID string, record *domain.ConnectionRecord, rank int) error {
	repo, err := r.forUser(userID)
	if err != nil {
		return err
	}
	return repo.AddConnectionAtRank(ctx, record, rank)
}
