package sessions_test

import (
	"context"
	"sync"
	"testing"

	"github.com/classtrade/classtrade/core/broker"
	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/sessions"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestRegistry(t *testing.T) *sessions.Registry {
	t.Helper()
	log := logging.NewTestLogger()

	secs := securities.NewRegistry(log, securities.NewDefaultConfig())
	secs.List(&securities.Security{
		ID:       "AAPL",
		Symbol:   "AAPL",
		TickSize: num.MustDecimalFromString("0.01"),
		Tradable: true,
	})
	return sessions.NewRegistry(log, sessions.NewDefaultConfig(), secs, broker.New(log, broker.NewDefaultConfig()))
}

func TestRegistry_GetOrCreate(t *testing.T) {
	registry := getTestRegistry(t)

	s1, err := registry.GetOrCreate("class-7b")
	require.NoError(t, err)
	require.NotNil(t, s1)
	assert.Equal(t, types.MarketStatusPending, s1.Execution.MarketStatus())

	s2, err := registry.GetOrCreate("class-7b")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	_, err = registry.GetOrCreate("")
	assert.ErrorIs(t, err, types.ErrInvalidSessionID)
}

func TestRegistry_ConcurrentGetOrCreateConverges(t *testing.T) {
	registry := getTestRegistry(t)

	const goroutines = 50
	out := make([]*sessions.Session, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			s, err := registry.GetOrCreate("class-7b")
			require.NoError(t, err)
			out[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, out[0], out[i])
	}
	assert.Equal(t, []string{"class-7b"}, registry.List())
}

func TestRegistry_GetOrCreateOpen(t *testing.T) {
	registry := getTestRegistry(t)
	ctx := context.Background()

	s, err := registry.GetOrCreateOpen(ctx, "class-7b")
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusOpen, s.Execution.MarketStatus())

	// idempotent on an already open session
	again, err := registry.GetOrCreateOpen(ctx, "class-7b")
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, types.MarketStatusOpen, s.Execution.MarketStatus())

	// a paused session stays paused
	require.NoError(t, s.Execution.PauseMarket(ctx))
	_, err = registry.GetOrCreateOpen(ctx, "class-7b")
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusPaused, s.Execution.MarketStatus())
}

func TestRegistry_GetUnknownSession(t *testing.T) {
	registry := getTestRegistry(t)

	_, err := registry.Get("missing")
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	registry := getTestRegistry(t)
	ctx := context.Background()

	a, err := registry.GetOrCreate("class-a")
	require.NoError(t, err)
	b, err := registry.GetOrCreate("class-b")
	require.NoError(t, err)

	require.NoError(t, a.Execution.OpenMarket(ctx))
	price := num.MustDecimalFromString("10.00")
	_, err = a.Execution.SubmitOrder(ctx, types.OrderSubmission{
		SessionID:   "class-a",
		SecurityID:  "AAPL",
		Party:       "alice",
		Side:        types.SideBuy,
		Type:        types.OrderTypeLimit,
		Size:        10,
		Price:       &price,
		TimeInForce: types.OrderTimeInForceDay,
	})
	require.NoError(t, err)

	// class-b never opened, its book is untouched
	assert.Equal(t, types.MarketStatusPending, b.Execution.MarketStatus())
	md, err := a.Execution.GetMarketData("AAPL")
	require.NoError(t, err)
	assert.EqualValues(t, 10, md.BestBidVolume)
}

func TestRegistry_DisposeClosesAndForgets(t *testing.T) {
	registry := getTestRegistry(t)
	ctx := context.Background()

	s, err := registry.GetOrCreate("class-7b")
	require.NoError(t, err)
	require.NoError(t, s.Execution.OpenMarket(ctx))

	require.NoError(t, registry.Dispose(ctx, "class-7b"))
	assert.Equal(t, types.MarketStatusClosed, s.Execution.MarketStatus())

	_, err = registry.Get("class-7b")
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
	assert.ErrorIs(t, registry.Dispose(ctx, "class-7b"), types.ErrSessionNotFound)
}
