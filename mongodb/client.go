// Package mongodb is the durable connection registry. Every connection is one document in a
// single collection; the rank invariants are enforced by unique indexes.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
)

// Connect opens an instrumented client, verifies it against the primary and returns the
// client together with the named database. The caller disconnects the client.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	log.Ctx(ctx).Info().Str("database", dbName).Msg("Connecting to MongoDB")

	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := Ping(ctx, client); err != nil {
		if derr := client.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			log.Ctx(ctx).Error().Err(derr).Msg("Error closing MongoDB connection")
		}
		return nil, nil, fmt.Errorf("ping mongodb primary: %w", err)
	}

	log.Ctx(ctx).Info().Msg("MongoDB client initialized successfully")
	return client, client.Database(dbName), nil
}

// Ping checks the primary with a short timeout. It backs the health endpoint.
func Ping(ctx context.Context, client *mongo.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return client.Ping(pingCtx, readpref.Primary())
}
