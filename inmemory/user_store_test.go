package inmemory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/inmemory"
	"go.pilab.hu/connections/internal/metrics"
)

func TestUserConnectionStore_StoreFor(t *testing.T) {
	store := inmemory.NewUserConnectionStore("u1", nil)

	_, err := store.StoreFor("")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	a, err := store.StoreFor("paypal")
	require.NoError(t, err)
	b, err := store.StoreFor("paypal")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "u1", a.UserID())
	assert.Equal(t, "paypal", a.ProviderID())
}

func TestUserConnectionStore_StoreForConcurrentFirstAccess(t *testing.T) {
	store := inmemory.NewUserConnectionStore("u1", nil)

	const workers = 32
	got := make([]*inmemory.ProviderConnectionStore, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := store.StoreFor("paypal")
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
}

func TestUserConnectionStore_FindAllConnectionsCoversRequestedProviders(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewUserConnectionStore("u1", nil)

	_, err := store.AddConnection(ctx, conn("paypal", "p1"))
	require.NoError(t, err)
	_, err = store.AddConnection(ctx, conn("paypal", "p2"))
	require.NoError(t, err)

	all, err := store.FindAllConnections(ctx, []string{"paypal", "google", "github"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"p1", "p2"}, providerUserIDs(all["paypal"]))
	assert.NotNil(t, all["google"])
	assert.Empty(t, all["google"])
	assert.Empty(t, all["github"])

	assert.Equal(t, []string{"paypal"}, store.ProviderIDs(), "lookups do not create provider stores")

	mine, err := store.FindAllConnections(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Contains(t, mine, "paypal")

	_, err = store.FindAllConnections(ctx, []string{""})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUserConnectionStore_FindConnectionsToUsers(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewUserConnectionStore("u1", nil)
	for _, r := range []*domain.ConnectionRecord{conn("paypal", "a"), conn("paypal", "c"), conn("google", "g")} {
		_, err := store.AddConnection(ctx, r)
		require.NoError(t, err)
	}

	got, err := store.FindConnectionsToUsers(ctx, map[string][]string{
		"paypal": {"a", "b", "c"},
		"google": {"x"},
		"github": {"h"},
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.Len(t, got["paypal"], 3)
	assert.Equal(t, "a", got["paypal"][0].ProviderUserID)
	assert.Nil(t, got["paypal"][1])
	assert.Equal(t, "c", got["paypal"][2].ProviderUserID)

	_, err = store.FindConnectionsToUsers(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUserConnectionStore_PrimaryConnection(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewUserConnectionStore("u1", nil)

	primary, err := store.FindPrimaryConnection(ctx, "paypal")
	require.NoError(t, err)
	assert.Nil(t, primary)

	_, err = store.AddConnection(ctx, conn("paypal", "first"))
	require.NoError(t, err)
	for _, id := range []string{"second", "third"} {
		_, err = store.AddConnection(ctx, conn("paypal", id))
		require.NoError(t, err)
	}
	require.NoError(t, store.RemoveConnection(ctx, domain.NewConnectionKey("paypal", "third")))

	primary, err = store.FindPrimaryConnection(ctx, "paypal")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "first", primary.ProviderUserID)

	_, err = store.FindPrimaryConnection(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUserConnectionStore_FindAndHas(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewUserConnectionStore("u1", nil)
	_, err := store.AddConnection(ctx, conn("paypal", "p1"))
	require.NoError(t, err)

	found, err := store.FindConnection(ctx, domain.NewConnectionKey("paypal", "p1"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "p1@paypal", found.DisplayName)

	found, err = store.FindConnection(ctx, domain.NewConnectionKey("google", "p1"))
	require.NoError(t, err)
	assert.Nil(t, found)

	has, err := store.HasConnection(ctx, domain.NewConnectionKey("paypal", "p1"))
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasConnection(ctx, domain.NewConnectionKey("paypal", "p2"))
	require.NoError(t, err)
	assert.False(t, has)

	_, err = store.HasConnection(ctx, domain.NewConnectionKey("paypal", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUserConnectionStore_UpdateAndReplace(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewUserConnectionStore("u1", nil)
	_, err := store.AddConnection(ctx, conn("paypal", "p1"))
	require.NoError(t, err)
	_, err = store.AddConnection(ctx, conn("paypal", "p2"))
	require.NoError(t, err)

	rec := conn("paypal", "p2")
	rec.AccessToken = "rotated"
	require.NoError(t, store.UpdateConnection(ctx, rec))

	got, err := store.FindConnections(ctx, "paypal")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rotated", got[1].AccessToken, "update keeps the rank")

	require.NoError(t, store.UpdateConnection(ctx, conn("paypal", "missing")))
	require.NoError(t, store.UpdateConnection(ctx, conn("google", "missing")))

	err = store.ReplaceConnection(ctx, conn("paypal", "missing"))
	require.ErrorIs(t, err, domain.ErrNoSuchConnection)
	var noSuch *domain.NoSuchConnectionError
	require.ErrorAs(t, err, &noSuch)
	assert.Equal(t, domain.NewConnectionKey("paypal", "missing"), noSuch.Key)

	require.NoError(t, store.ReplaceConnection(ctx, rec))
}

func TestUserConnectionStore_RemoveConnections(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewConnectionMetrics(reg)
	store := inmemory.NewUserConnectionStore("u1", m)

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := store.AddConnection(ctx, conn("paypal", id))
		require.NoError(t, err)
	}
	_, err := store.AddConnection(ctx, conn("paypal", "p1"))
	require.ErrorIs(t, err, domain.ErrDuplicateConnection)

	require.NoError(t, store.RemoveConnection(ctx, domain.NewConnectionKey("paypal", "p1")))
	require.NoError(t, store.RemoveConnection(ctx, domain.NewConnectionKey("paypal", "p1")))
	require.NoError(t, store.RemoveConnections(ctx, "paypal"))
	require.NoError(t, store.RemoveConnections(ctx, "google"))

	got, err := store.FindConnections(ctx, "paypal")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ConnectionsAdded.WithLabelValues("paypal")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ConnectionsRemoved.WithLabelValues("paypal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateConnections.WithLabelValues("paypal")))
}
