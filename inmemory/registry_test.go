package inmemory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.pilab.hu/connections/domain"
	mock_domain "go.pilab.hu/connections/domain/mock"
	"go.pilab.hu/connections/inmemory"
	"go.pilab.hu/connections/internal/metrics"
)

func TestRegistry_StoreFor(t *testing.T) {
	r := inmemory.NewRegistry()

	_, err := r.StoreFor("")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = r.ConnectionRepository(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	a, err := r.StoreFor("u1")
	require.NoError(t, err)
	repo, err := r.ConnectionRepository(context.Background(), "u1")
	require.NoError(t, err)
	assert.Same(t, a, repo)
}

func TestRegistry_ConnectionRepositoryOfUnknownUser(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewConnectionMetrics(reg)
	r := inmemory.NewRegistry(inmemory.WithMetrics(m))

	repo, err := r.ConnectionRepository(ctx, "ghost")
	require.NoError(t, err)

	all, err := repo.FindAllConnections(ctx, []string{"paypal"})
	require.NoError(t, err)
	assert.Empty(t, all["paypal"])
	primary, err := repo.FindPrimaryConnection(ctx, "paypal")
	require.NoError(t, err)
	assert.Nil(t, primary)
	require.NoError(t, repo.RemoveConnections(ctx, "paypal"))
	assert.ErrorIs(t, repo.ReplaceConnection(ctx, conn("paypal", "p1")), domain.ErrNoSuchConnection)

	assert.Empty(t, r.UserIDs(), "reads do not create the user")
	assert.Zero(t, testutil.ToFloat64(m.KnownUsers))

	rank, err := repo.AddConnection(ctx, conn("paypal", "p1"))
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.Equal(t, []string{"ghost"}, r.UserIDs())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KnownUsers))

	found, err := repo.FindConnection(ctx, domain.NewConnectionKey("paypal", "p1"))
	require.NoError(t, err)
	require.NotNil(t, found)

	store, err := r.StoreFor("ghost")
	require.NoError(t, err)
	again, err := r.ConnectionRepository(ctx, "ghost")
	require.NoError(t, err)
	assert.Same(t, store, again)
}

func TestRegistry_StoreForConcurrentFirstAccess(t *testing.T) {
	r := inmemory.NewRegistry()

	const workers = 32
	got := make([]*inmemory.UserConnectionStore, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.StoreFor("u1")
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, []string{"u1"}, r.UserIDs())
}

func TestRegistry_ResolveMatchedInUserOrder(t *testing.T) {
	ctx := context.Background()
	r := inmemory.NewRegistry()

	for _, userID := range []string{"u99", "u42", "u7"} {
		store, err := r.StoreFor(userID)
		require.NoError(t, err)
		if userID == "u7" {
			continue
		}
		_, err = store.AddConnection(ctx, conn("paypal", "shared"))
		require.NoError(t, err)
	}

	res, err := r.ResolveConnection(ctx, conn("paypal", "shared"))
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionMatched, res.State)
	assert.Equal(t, []string{"u42", "u99"}, res.UserIDs)
}

func TestRegistry_ResolveUnlinkedWithoutHook(t *testing.T) {
	r := inmemory.NewRegistry()

	ids, err := r.FindUserIDsWithConnection(context.Background(), conn("paypal", "nobody"))
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, r.UserIDs(), "an unlinked resolution creates no user")
}

func TestRegistry_ImplicitSignUp(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	signUp := mock_domain.NewMockConnectionSignUp(ctrl)
	record := conn("paypal", "p1")
	signUp.EXPECT().CreateLocalUser(gomock.Any(), record).Return("u1", nil).Times(1)

	r := inmemory.NewRegistry(inmemory.WithConnectionSignUp(signUp))

	ids, err := r.FindUserIDsWithConnection(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)

	store, err := r.StoreFor("u1")
	require.NoError(t, err)
	has, err := store.HasConnection(ctx, record.Key())
	require.NoError(t, err)
	assert.True(t, has)

	primary, err := store.FindPrimaryConnection(ctx, "paypal")
	require.NoError(t, err)
	assert.Equal(t, "p1", primary.ProviderUserID)

	res, err := r.ResolveConnection(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionMatched, res.State, "the hook runs only for unmatched connections")
}

func TestRegistry_SignUpDeclined(t *testing.T) {
	ctx := context.Background()
	r := inmemory.NewRegistry(inmemory.WithConnectionSignUp(
		domain.ConnectionSignUpFunc(func(context.Context, *domain.ConnectionRecord) (string, error) {
			return "", nil
		}),
	))

	res, err := r.ResolveConnection(ctx, conn("paypal", "p1"))
	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionUnlinked, res.State)
	assert.Empty(t, res.UserIDs)
	assert.Empty(t, r.UserIDs())
}

func TestRegistry_SignUpErrorPropagates(t *testing.T) {
	boom := errors.New("directory unavailable")
	r := inmemory.NewRegistry(inmemory.WithConnectionSignUp(
		domain.ConnectionSignUpFunc(func(context.Context, *domain.ConnectionRecord) (string, error) {
			return "", boom
		}),
	))

	_, err := r.ResolveConnection(context.Background(), conn("paypal", "p1"))
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ResolveRejectsInvalidRecord(t *testing.T) {
	r := inmemory.NewRegistry()

	_, err := r.ResolveConnection(context.Background(), &domain.ConnectionRecord{ProviderUserID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRegistry_ConcurrentImplicitSignUpCreatesOneUser(t *testing.T) {
	var created atomic.Int32
	r := inmemory.NewRegistry(inmemory.WithConnectionSignUp(
		domain.ConnectionSignUpFunc(func(context.Context, *domain.ConnectionRecord) (string, error) {
			n := created.Add(1)
			return fmt.Sprintf("user-%d", n), nil
		}),
	))

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := r.FindUserIDsWithConnection(context.Background(), conn("paypal", "p1"))
			assert.NoError(t, err)
			assert.Equal(t, []string{"user-1"}, ids)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, []string{"user-1"}, r.UserIDs())
}

// Two local users link the same PayPal account; both resolve, and a reverse lookup over
// several remote ids returns each user once.
func TestRegistry_PaypalSharedAccountScenario(t *testing.T) {
	ctx := context.Background()
	r := inmemory.NewRegistry()

	for _, userID := range []string{"u99", "u42"} {
		store, err := r.StoreFor(userID)
		require.NoError(t, err)
		_, err = store.AddConnection(ctx, conn("paypal", "pp-1"))
		require.NoError(t, err)
	}
	u99, err := r.StoreFor("u99")
	require.NoError(t, err)
	_, err = u99.AddConnection(ctx, conn("paypal", "pp-2"))
	require.NoError(t, err)

	_, err = u99.AddConnection(ctx, conn("paypal", "pp-1"))
	require.ErrorIs(t, err, domain.ErrDuplicateConnection)

	ids, err := r.FindUserIDsWithConnection(ctx, conn("paypal", "pp-1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u42", "u99"}, ids)

	connected, err := r.FindUserIDsConnectedTo(ctx, "paypal", []string{"pp-2", "pp-1", "pp-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u42", "u99"}, connected)

	connected, err = r.FindUserIDsConnectedTo(ctx, "paypal", []string{"pp-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u99"}, connected)

	connected, err = r.FindUserIDsConnectedTo(ctx, "google", []string{"pp-1"})
	require.NoError(t, err)
	assert.Empty(t, connected)

	_, err = r.FindUserIDsConnectedTo(ctx, "", []string{"pp-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRegistry_AddConnectionAtRank(t *testing.T) {
	ctx := context.Background()
	r := inmemory.NewRegistry()

	require.NoError(t, r.AddConnectionAtRank(ctx, "u1", conn("github", "gh-2"), 2))
	require.NoError(t, r.AddConnectionAtRank(ctx, "u1", conn("github", "gh-1"), 1))
	require.NoError(t, r.AddConnectionAtRank(ctx, "u1", conn("github", "gh-1"), 1))

	store, err := r.StoreFor("u1")
	require.NoError(t, err)
	got, err := store.FindConnections(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, []string{"gh-1", "gh-2"}, providerUserIDs(got))

	err = r.AddConnectionAtRank(ctx, "", conn("github", "gh-3"), 3)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRegistry_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewConnectionMetrics(reg)
	r := inmemory.NewRegistry(
		inmemory.WithMetrics(m),
		inmemory.WithConnectionSignUp(domain.ConnectionSignUpFunc(
			func(_ context.Context, record *domain.ConnectionRecord) (string, error) {
				return "local-" + record.ProviderUserID, nil
			},
		)),
	)

	_, err := r.ResolveConnection(ctx, conn("paypal", "a"))
	require.NoError(t, err)
	_, err = r.ResolveConnection(ctx, conn("paypal", "a"))
	require.NoError(t, err)
	_, err = r.ResolveConnection(ctx, conn("paypal", "b"))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("CREATED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("MATCHED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.KnownUsers))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionsAdded.WithLabelValues("paypal")))
}
