package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/connections/cache"
	redisstore "go.pilab.hu/connections/cache/redis"
	"go.pilab.hu/connections/config"
	"go.pilab.hu/connections/connect"
	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/inmemory"
	"go.pilab.hu/connections/internal/metrics"
	"go.pilab.hu/connections/mongodb"
)

// connectionStore is the selected registry backend with its lifecycle hooks.
type connectionStore struct {
	users domain.UsersConnectionRepository
	ready func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openConnectionStore(ctx context.Context, cfg *config.Config, m *metrics.ConnectionMetrics, signUp domain.ConnectionSignUp) (*connectionStore, error) {
	nop := func(context.Context) error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMongoDB:
		enc, err := cfg.Encryptor()
		if err != nil {
			return nil, err
		}

		client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}

		users, err := mongodb.NewUsersConnectionRepositoryMongo(ctx, db,
			mongodb.WithCollectionPrefix(cfg.MongoCollectionPrefix),
			mongodb.WithEncryptor(enc),
			mongodb.WithConnectionSignUp(signUp),
			mongodb.WithMetrics(m),
		)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}

		return &connectionStore{
			users: users,
			ready: func(ctx context.Context) error { return mongodb.Ping(ctx, client) },
			close: client.Disconnect,
		}, nil

	case config.BackendMemory:
		log.Ctx(ctx).Warn().Msg("Using the in-memory connection registry, connections are lost on restart")

		opts := []inmemory.Option{inmemory.WithMetrics(m)}
		if signUp != nil {
			opts = append(opts, inmemory.WithConnectionSignUp(signUp))
		}
		return &connectionStore{users: inmemory.NewRegistry(opts...), ready: nop, close: nop}, nil
	}

	return nil, fmt.Errorf("unknown store_backend %q", cfg.StoreBackend)
}

func openAttemptStore(ctx context.Context, cfg *config.Config) (cache.AttemptStore, func(context.Context) error, error) {
	switch cfg.AttemptBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		closeFn := func(context.Context) error { return client.Close() }
		return redisstore.NewAttemptStore(client, cfg.RedisPrefix, cfg.AttemptTTL), closeFn, nil

	case config.BackendMemory:
		store := cache.NewMemoryAttemptStore(cfg.AttemptTTL)
		closeFn := func(context.Context) error {
			store.Stop()
			return nil
		}
		return store, closeFn, nil
	}

	return nil, nil, fmt.Errorf("unknown attempt_backend %q", cfg.AttemptBackend)
}

func newLocator(providers []connect.ProviderConfig) (*connect.Locator, error) {
	locator, err := connect.NewLocator()
	if err != nil {
		return nil, err
	}

	for _, p := range providers {
		f, err := connect.NewOAuth2Factory(p)
		if err != nil {
			return nil, err
		}
		if err := locator.Register(f); err != nil {
			return nil, err
		}
	}
	return locator, nil
}
