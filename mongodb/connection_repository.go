package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.pilab.hu/connections/domain"
)

const (
	indexUserConnection = "user_connection"
	indexUserRank       = "user_rank"

	// maxRankAttempts bounds the retries of AddConnection when concurrent adds race for the
	// same rank.
	maxRankAttempts = 5
)

// connectionRepositoryMongo is the domain.ConnectionRepository of one local user.
type connectionRepositoryMongo struct {
	parent *UsersConnectionRepositoryMongo
	userID string
}

var _ domain.ConnectionRepository = (*connectionRepositoryMongo)(nil)

func (r *connectionRepositoryMongo) filter(elems ...bson.E) bson.D {
	return append(bson.D{{Key: "user_id", Value: r.userID}}, elems...)
}

func (r *connectionRepositoryMongo) keyFilter(key domain.ConnectionKey) bson.D {
	return r.filter(
		bson.E{Key: "provider_id", Value: key.ProviderID},
		bson.E{Key: "provider_user_id", Value: key.ProviderUserID},
	)
}

// find returns the matching records ordered by provider and rank.
func (r *connectionRepositoryMongo) find(ctx context.Context, filter bson.D) ([]*domain.ConnectionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "provider_id", Value: 1}, {Key: "rank", Value: 1}})

	cursor, err := r.parent.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find connections of %s: %w", r.userID, err)
	}
	defer cursor.Close(ctx)

	var docs []connectionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode connections of %s: %w", r.userID, err)
	}

	records := make([]*domain.ConnectionRecord, 0, len(docs))
	for i := range docs {
		record, err := docs[i].record(r.parent.encryptor)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// findOne returns nil when nothing matches.
func (r *connectionRepositoryMongo) findOne(ctx context.Context, filter bson.D) (*connectionDocument, error) {
	var doc connectionDocument
	err := r.parent.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find connection of %s: %w", r.userID, err)
	}
	return &doc, nil
}

func (r *connectionRepositoryMongo) FindAllConnections(ctx context.Context, providerIDs []string) (map[string][]*domain.ConnectionRecord, error) {
	filter := r.filter()
	if providerIDs != nil {
		filter = r.filter(bson.E{Key: "provider_id", Value: bson.D{{Key: "$in", Value: providerIDs}}})
	}

	records, err := r.find(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]*domain.ConnectionRecord, len(providerIDs))
	for _, providerID := range providerIDs {
		out[providerID] = []*domain.ConnectionRecord{}
	}
	for _, record := range records {
		out[record.ProviderID] = append(out[record.ProviderID], record)
	}
	return out, nil
}

func (r *connectionRepositoryMongo) FindConnections(ctx context.Context, providerID string) ([]*domain.ConnectionRecord, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}
	return r.find(ctx, r.filter(bson.E{Key: "provider_id", Value: providerID}))
}

func (r *connectionRepositoryMongo) FindConnectionsToUsers(ctx context.Context, providerUsers map[string][]string) (map[string][]*domain.ConnectionRecord, error) {
	if len(providerUsers) == 0 {
		return nil, fmt.Errorf("%w: providerUsers must not be empty", domain.ErrInvalidArgument)
	}

	out := make(map[string][]*domain.ConnectionRecord, len(providerUsers))
	for providerID, providerUserIDs := range providerUsers {
		if err := domain.RequireID("providerID", providerID); err != nil {
			return nil, err
		}
		if len(providerUserIDs) == 0 {
			continue
		}

		records, err := r.find(ctx, r.filter(
			bson.E{Key: "provider_id", Value: providerID},
			bson.E{Key: "provider_user_id", Value: bson.D{{Key: "$in", Value: providerUserIDs}}},
		))
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}

		byID := make(map[string]*domain.ConnectionRecord, len(records))
		for _, record := range records {
			byID[record.ProviderUserID] = record
		}
		aligned := make([]*domain.ConnectionRecord, len(providerUserIDs))
		for i, providerUserID := range providerUserIDs {
			if record, ok := byID[providerUserID]; ok {
				aligned[i] = record.Clone()
			}
		}
		out[providerID] = aligned
	}

	return out, nil
}

func (r *connectionRepositoryMongo) FindConnection(ctx context.Context, key domain.ConnectionKey) (*domain.ConnectionRecord, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	doc, err := r.findOne(ctx, r.keyFilter(key))
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.record(r.parent.encryptor)
}

func (r *connectionRepositoryMongo) FindPrimaryConnection(ctx context.Context, providerID string) (*domain.ConnectionRecord, error) {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return nil, err
	}

	doc, err := r.findOne(ctx, r.filter(
		bson.E{Key: "provider_id", Value: providerID},
		bson.E{Key: "rank", Value: 1},
	))
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.record(r.parent.encryptor)
}

func (r *connectionRepositoryMongo) HasConnection(ctx context.Context, key domain.ConnectionKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	n, err := r.parent.collection.CountDocuments(ctx, r.keyFilter(key), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count connection of %s: %w", r.userID, err)
	}
	return n > 0, nil
}

// nextRank returns one past the highest rank held for the provider.
func (r *connectionRepositoryMongo) nextRank(ctx context.Context, providerID string) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "rank", Value: -1}}).
		SetProjection(bson.D{{Key: "rank", Value: 1}})

	var doc struct {
		Rank int `bson:"rank"`
	}
	err := r.parent.collection.FindOne(ctx, r.filter(bson.E{Key: "provider_id", Value: providerID}), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 1, nil
		}
		return 0, fmt.Errorf("find highest rank of %s: %w", r.userID, err)
	}
	return doc.Rank + 1, nil
}

// AddConnection inserts the record at the next free rank. A rank taken by a concurrent insert
// is retried with a fresh rank; a key already held is reported as a duplicate.
func (r *connectionRepositoryMongo) AddConnection(ctx context.Context, record *domain.ConnectionRecord) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}

	for range maxRankAttempts {
		rank, err := r.nextRank(ctx, record.ProviderID)
		if err != nil {
			return 0, err
		}

		doc, err := newConnectionDocument(r.parent.encryptor, r.userID, rank, record, r.parent.now().UTC())
		if err != nil {
			return 0, err
		}

		_, err = r.parent.collection.InsertOne(ctx, doc)
		if err == nil {
			r.parent.metrics.ObserveAdded(record.ProviderID)
			log.Ctx(ctx).Debug().
				Str("user_id", r.userID).
				Str("connection", record.Key().String()).
				Int("rank", rank).
				Msg("connection added")
			return rank, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("insert connection %s: %w", record.Key(), err)
		}

		held, herr := r.HasConnection(ctx, record.Key())
		if herr != nil {
			return 0, herr
		}
		if held {
			r.parent.metrics.ObserveDuplicate(record.ProviderID)
			return 0, &domain.DuplicateConnectionError{Key: record.Key()}
		}
		log.Ctx(ctx).Debug().
			Str("user_id", r.userID).
			Str("connection", record.Key().String()).
			Int("rank", rank).
			Msg("rank taken concurrently, retrying")
	}

	return 0, fmt.Errorf("insert connection %s: no free rank after %d attempts", record.Key(), maxRankAttempts)
}

// AddConnectionAtRank upserts the record into the rank slot, replacing its previous occupant.
func (r *connectionRepositoryMongo) AddConnectionAtRank(ctx context.Context, record *domain.ConnectionRecord, rank int) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if rank < 1 {
		return fmt.Errorf("%w: rank must be at least 1, got %d", domain.ErrInvalidArgument, rank)
	}

	existing, err := r.findOne(ctx, r.keyFilter(record.Key()))
	if err != nil {
		return err
	}
	if existing != nil && existing.Rank != rank {
		r.parent.metrics.ObserveDuplicate(record.ProviderID)
		return &domain.DuplicateConnectionError{Key: record.Key()}
	}

	doc, err := newConnectionDocument(r.parent.encryptor, r.userID, rank, record, r.parent.now().UTC())
	if err != nil {
		return err
	}

	slot := r.filter(
		bson.E{Key: "provider_id", Value: record.ProviderID},
		bson.E{Key: "rank", Value: rank},
	)
	_, err = r.parent.collection.ReplaceOne(ctx, slot, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.parent.metrics.ObserveDuplicate(record.ProviderID)
			return &domain.DuplicateConnectionError{Key: record.Key()}
		}
		return fmt.Errorf("store connection %s at rank %d: %w", record.Key(), rank, err)
	}
	r.parent.metrics.ObserveAdded(record.ProviderID)

	log.Ctx(ctx).Debug().
		Str("user_id", r.userID).
		Str("connection", record.Key().String()).
		Int("rank", rank).
		Msg("connection stored at rank")

	return nil
}

func (r *connectionRepositoryMongo) UpdateConnection(ctx context.Context, record *domain.ConnectionRecord) error {
	_, err := r.update(ctx, record)
	return err
}

func (r *connectionRepositoryMongo) ReplaceConnection(ctx context.Context, record *domain.ConnectionRecord) error {
	updated, err := r.update(ctx, record)
	if err != nil {
		return err
	}
	if !updated {
		return &domain.NoSuchConnectionError{Key: record.Key()}
	}
	return nil
}

func (r *connectionRepositoryMongo) update(ctx context.Context, record *domain.ConnectionRecord) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, err
	}

	var doc connectionDocument
	if err := doc.setProfile(r.parent.encryptor, record); err != nil {
		return false, err
	}
	doc.UpdatedAt = r.parent.now().UTC()

	res, err := r.parent.collection.UpdateOne(ctx, r.keyFilter(record.Key()), bson.D{{Key: "$set", Value: doc.profileUpdate()}})
	if err != nil {
		return false, fmt.Errorf("update connection %s: %w", record.Key(), err)
	}

	updated := res.MatchedCount > 0
	log.Ctx(ctx).Debug().
		Str("user_id", r.userID).
		Str("connection", record.Key().String()).
		Bool("updated", updated).
		Msg("connection update")

	return updated, nil
}

func (r *connectionRepositoryMongo) RemoveConnection(ctx context.Context, key domain.ConnectionKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	res, err := r.parent.collection.DeleteOne(ctx, r.keyFilter(key))
	if err != nil {
		return fmt.Errorf("remove connection %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return nil
	}
	r.parent.metrics.ObserveRemoved(key.ProviderID, 1)

	log.Ctx(ctx).Debug().
		Str("user_id", r.userID).
		Str("connection", key.String()).
		Msg("connection removed")

	return nil
}

func (r *connectionRepositoryMongo) RemoveConnections(ctx context.Context, providerID string) error {
	if err := domain.RequireID("providerID", providerID); err != nil {
		return err
	}

	res, err := r.parent.collection.DeleteMany(ctx, r.filter(bson.E{Key: "provider_id", Value: providerID}))
	if err != nil {
		return fmt.Errorf("remove %s connections of %s: %w", providerID, r.userID, err)
	}
	r.parent.metrics.ObserveRemoved(providerID, int(res.DeletedCount))

	log.Ctx(ctx).Debug().
		Str("user_id", r.userID).
		Str("provider_id", providerID).
		Int64("removed", res.DeletedCount).
		Msg("provider connections removed")

	return nil
}
