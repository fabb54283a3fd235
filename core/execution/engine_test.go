package execution_test

import (
	"context"
	"testing"

	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/core/execution"
	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLedger struct {
	trades []*types.Trade
}

func (l *stubLedger) ApplyExecution(_ context.Context, trade *types.Trade) {
	l.trades = append(l.trades, trade)
}

type stubBroker struct {
	evts []events.Event
}

func (b *stubBroker) Send(e events.Event)           { b.evts = append(b.evts, e) }
func (b *stubBroker) SendBatch(evts []events.Event) { b.evts = append(b.evts, evts...) }

type tstEngine struct {
	engine *execution.Engine
	ledger *stubLedger
	broker *stubBroker
}

func getTestEngine(t *testing.T, config execution.Config) *tstEngine {
	t.Helper()
	log := logging.NewTestLogger()

	secs := securities.NewRegistry(log, securities.NewDefaultConfig())
	secs.List(&securities.Security{
		ID:       "AAPL",
		Symbol:   "AAPL",
		TickSize: num.MustDecimalFromString("0.01"),
		Tradable: true,
	})
	secs.List(&securities.Security{
		ID:       "HALT",
		Symbol:   "HALT",
		TickSize: num.MustDecimalFromString("0.01"),
		Tradable: false,
	})

	ledger := &stubLedger{}
	broker := &stubBroker{}
	return &tstEngine{
		engine: execution.NewEngine(log, config, "session-1", secs, ledger, broker),
		ledger: ledger,
		broker: broker,
	}
}

func getOpenEngine(t *testing.T) *tstEngine {
	t.Helper()
	te := getTestEngine(t, execution.NewDefaultConfig())
	require.NoError(t, te.engine.OpenMarket(context.Background()))
	return te
}

func decimalPtr(s string) *num.Decimal {
	d := num.MustDecimalFromString(s)
	return &d
}

func limitSubmission(party string, side types.Side, price string, size uint64) types.OrderSubmission {
	return types.OrderSubmission{
		SessionID:   "session-1",
		SecurityID:  "AAPL",
		Party:       party,
		Side:        side,
		Type:        types.OrderTypeLimit,
		Size:        size,
		Price:       decimalPtr(price),
		TimeInForce: types.OrderTimeInForceDay,
	}
}

func marketSubmission(party string, side types.Side, size uint64) types.OrderSubmission {
	return types.OrderSubmission{
		SessionID:   "session-1",
		SecurityID:  "AAPL",
		Party:       party,
		Side:        side,
		Type:        types.OrderTypeMarket,
		Size:        size,
		TimeInForce: types.OrderTimeInForceDay,
	}
}

func stopSubmission(party string, side types.Side, stopPrice string, size uint64) types.OrderSubmission {
	return types.OrderSubmission{
		SessionID:   "session-1",
		SecurityID:  "AAPL",
		Party:       party,
		Side:        side,
		Type:        types.OrderTypeStop,
		Size:        size,
		StopPrice:   decimalPtr(stopPrice),
		TimeInForce: types.OrderTimeInForceGTC,
	}
}

func TestEngine_RejectsSubmissionBeforeOpen(t *testing.T) {
	te := getTestEngine(t, execution.NewDefaultConfig())

	_, err := te.engine.SubmitOrder(context.Background(), limitSubmission("alice", types.SideBuy, "10.00", 10))
	assert.ErrorIs(t, err, types.ErrMarketNotOpen)
}

func TestEngine_ValidatesSubmission(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	sub := limitSubmission("alice", types.SideBuy, "10.00", 10)
	sub.Price = nil
	_, err := te.engine.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, types.ErrMissingPrice)

	sub = marketSubmission("alice", types.SideBuy, 10)
	sub.Price = decimalPtr("10.00")
	_, err = te.engine.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, types.ErrUnexpectedPrice)

	sub = limitSubmission("alice", types.SideBuy, "10.00", 0)
	_, err = te.engine.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, types.ErrInvalidSize)

	sub = limitSubmission("alice", types.SideBuy, "10.005", 10)
	_, err = te.engine.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, types.ErrPriceNotTickMultiple)

	sub = limitSubmission("alice", types.SideBuy, "10.00", 10)
	sub.SecurityID = "UNKNOWN"
	_, err = te.engine.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, types.ErrInvalidSecurityID)

	sub = limitSubmission("alice", types.SideBuy, "10.00", 10)
	sub.SecurityID = "HALT"
	_, err = te.engine.SubmitOrder(ctx, sub)
	assert.ErrorIs(t, err, types.ErrSecurityNotTradable)
}

func TestEngine_LimitOrdersMatchAtRestingPrice(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	conf, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 100))
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusActive, conf.Order.Status)
	assert.Empty(t, conf.Trades)

	conf, err = te.engine.SubmitOrder(ctx, limitSubmission("bob", types.SideSell, "10.00", 50))
	require.NoError(t, err)
	require.Len(t, conf.Trades, 1)
	assert.True(t, conf.Trades[0].Price.Equal(num.MustDecimalFromString("10.00")))
	assert.EqualValues(t, 50, conf.Trades[0].Size)
	assert.Equal(t, types.OrderStatusFilled, conf.Order.Status)

	require.Len(t, conf.PassiveOrdersAffected, 1)
	assert.Equal(t, types.OrderStatusPartiallyFilled, conf.PassiveOrdersAffected[0].Status)
	assert.EqualValues(t, 50, conf.PassiveOrdersAffected[0].Remaining)

	// executions reached the ledger inside the same pass
	require.Len(t, te.ledger.trades, 1)
}

func TestEngine_MarketRemainderCancelled(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 100))
	require.NoError(t, err)

	conf, err := te.engine.SubmitOrder(ctx, marketSubmission("bob", types.SideSell, 150))
	require.NoError(t, err)
	require.Len(t, conf.Trades, 1)
	assert.EqualValues(t, 100, conf.Trades[0].Size)
	assert.Equal(t, types.OrderStatusCancelled, conf.Order.Status)
	assert.EqualValues(t, 50, conf.Order.Remaining)
}

func TestEngine_MarketRemainderRejectPolicy(t *testing.T) {
	config := execution.NewDefaultConfig()
	config.MarketOrderRemainder = execution.MarketRemainderReject
	te := getTestEngine(t, config)
	ctx := context.Background()
	require.NoError(t, te.engine.OpenMarket(ctx))

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 100))
	require.NoError(t, err)

	// cannot fully fill: rejected atomically, nothing printed
	_, err = te.engine.SubmitOrder(ctx, marketSubmission("bob", types.SideSell, 150))
	assert.ErrorIs(t, err, types.ErrMarketOrderCannotFill)
	assert.Empty(t, te.ledger.trades)

	// exact fill passes
	conf, err := te.engine.SubmitOrder(ctx, marketSubmission("bob", types.SideSell, 100))
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, conf.Order.Status)
}

func TestEngine_StopOrderTriggersOnCrossingTrade(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	// establish a last trade at 50.00
	_, err := te.engine.SubmitOrder(ctx, limitSubmission("mm", types.SideBuy, "50.00", 10))
	require.NoError(t, err)
	_, err = te.engine.SubmitOrder(ctx, marketSubmission("alice", types.SideSell, 10))
	require.NoError(t, err)

	conf, err := te.engine.SubmitOrder(ctx, stopSubmission("carol", types.SideSell, "45.00", 5))
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusParked, conf.Order.Status)

	// bids to absorb both the triggering trade and the stop
	_, err = te.engine.SubmitOrder(ctx, limitSubmission("mm", types.SideBuy, "44.00", 20))
	require.NoError(t, err)

	// a print at 44.00 crosses the 45.00 stop
	_, err = te.engine.SubmitOrder(ctx, limitSubmission("dave", types.SideSell, "44.00", 5))
	require.NoError(t, err)

	stop, err := te.engine.GetOrder(conf.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, stop.Status)
	assert.Equal(t, types.OrderTypeMarket, stop.Type)
}

func TestEngine_StopCascade(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("mm", types.SideBuy, "50.00", 10))
	require.NoError(t, err)
	_, err = te.engine.SubmitOrder(ctx, marketSubmission("alice", types.SideSell, 10))
	require.NoError(t, err)

	// first stop at 45, second at 40: the first stop's own print at 40
	// must set off the second
	conf1, err := te.engine.SubmitOrder(ctx, stopSubmission("carol", types.SideSell, "45.00", 5))
	require.NoError(t, err)
	conf2, err := te.engine.SubmitOrder(ctx, stopSubmission("dave", types.SideSell, "40.00", 5))
	require.NoError(t, err)

	// a bid at 44 for the triggering print, deep bids at 40 to absorb the stops
	_, err = te.engine.SubmitOrder(ctx, limitSubmission("mm", types.SideBuy, "44.00", 5))
	require.NoError(t, err)
	_, err = te.engine.SubmitOrder(ctx, limitSubmission("mm", types.SideBuy, "40.00", 30))
	require.NoError(t, err)

	// print at 44 crosses the 45 stop; its fill at 40 crosses the 40 stop
	_, err = te.engine.SubmitOrder(ctx, limitSubmission("erin", types.SideSell, "44.00", 5))
	require.NoError(t, err)

	stop1, err := te.engine.GetOrder(conf1.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, stop1.Status)

	stop2, err := te.engine.GetOrder(conf2.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, stop2.Status)
}

func TestEngine_PauseBlocksAllButStops(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 100))
	require.NoError(t, err)
	require.NoError(t, te.engine.PauseMarket(ctx))

	_, err = te.engine.SubmitOrder(ctx, limitSubmission("bob", types.SideSell, "10.00", 50))
	assert.ErrorIs(t, err, types.ErrMarketNotOpen)

	// stops only park a trigger, they are accepted while paused
	conf, err := te.engine.SubmitOrder(ctx, stopSubmission("carol", types.SideSell, "9.00", 5))
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusParked, conf.Order.Status)

	// resting orders survived the pause
	require.NoError(t, te.engine.ResumeMarket(ctx))
	md, err := te.engine.GetMarketData("AAPL")
	require.NoError(t, err)
	assert.EqualValues(t, 100, md.BestBidVolume)
}

func TestEngine_StatusTransitions(t *testing.T) {
	te := getTestEngine(t, execution.NewDefaultConfig())
	ctx := context.Background()

	assert.Equal(t, types.MarketStatusPending, te.engine.MarketStatus())
	assert.ErrorIs(t, te.engine.PauseMarket(ctx), types.ErrInvalidMarketStatusChange)
	assert.ErrorIs(t, te.engine.ResumeMarket(ctx), types.ErrInvalidMarketStatusChange)
	assert.ErrorIs(t, te.engine.CloseMarket(ctx), types.ErrInvalidMarketStatusChange)

	require.NoError(t, te.engine.OpenMarket(ctx))
	assert.ErrorIs(t, te.engine.OpenMarket(ctx), types.ErrInvalidMarketStatusChange)

	info := te.engine.MarketStatusInfo()
	assert.True(t, info.CanPause)
	assert.True(t, info.CanClose)
	assert.False(t, info.CanOpen)

	require.NoError(t, te.engine.CloseMarket(ctx))
	assert.Equal(t, types.MarketStatusClosed, te.engine.MarketStatus())
	assert.ErrorIs(t, te.engine.OpenMarket(ctx), types.ErrInvalidMarketStatusChange)

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 10))
	assert.ErrorIs(t, err, types.ErrMarketClosed)
}

func TestEngine_CloseExpiresDayAndCancelsGTC(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	dayConf, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 10))
	require.NoError(t, err)

	gtcSub := limitSubmission("bob", types.SideSell, "11.00", 10)
	gtcSub.TimeInForce = types.OrderTimeInForceGTC
	gtcConf, err := te.engine.SubmitOrder(ctx, gtcSub)
	require.NoError(t, err)

	stopConf, err := te.engine.SubmitOrder(ctx, stopSubmission("carol", types.SideSell, "9.00", 5))
	require.NoError(t, err)

	require.NoError(t, te.engine.CloseMarket(ctx))

	day, _ := te.engine.GetOrder(dayConf.Order.ID)
	assert.Equal(t, types.OrderStatusExpired, day.Status)

	gtc, _ := te.engine.GetOrder(gtcConf.Order.ID)
	assert.Equal(t, types.OrderStatusCancelled, gtc.Status)

	stop, _ := te.engine.GetOrder(stopConf.Order.ID)
	assert.Equal(t, types.OrderStatusCancelled, stop.Status)
}

func TestEngine_CancelOrder(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	conf, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 10))
	require.NoError(t, err)

	// only the owner may cancel
	_, err = te.engine.CancelOrder(ctx, types.OrderCancellationRequest{
		SessionID: "session-1", OrderID: conf.Order.ID, Party: "bob",
	})
	assert.ErrorIs(t, err, types.ErrNotOrderOwner)

	cancellation, err := te.engine.CancelOrder(ctx, types.OrderCancellationRequest{
		SessionID: "session-1", OrderID: conf.Order.ID, Party: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, cancellation.Order.Status)

	// cancel is exactly-once
	_, err = te.engine.CancelOrder(ctx, types.OrderCancellationRequest{
		SessionID: "session-1", OrderID: conf.Order.ID, Party: "alice",
	})
	assert.ErrorIs(t, err, types.ErrOrderNotCancellable)

	_, err = te.engine.CancelOrder(ctx, types.OrderCancellationRequest{
		SessionID: "session-1", OrderID: "missing", Party: "alice",
	})
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestEngine_ElevatedCancelBypassesOwnership(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	conf, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 10))
	require.NoError(t, err)

	cancellation, err := te.engine.CancelOrder(ctx, types.OrderCancellationRequest{
		SessionID: "session-1", OrderID: conf.Order.ID, Party: "instructor", Elevated: true,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, cancellation.Order.Status)
}

func TestEngine_CancelParkedStop(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	conf, err := te.engine.SubmitOrder(ctx, stopSubmission("carol", types.SideSell, "9.00", 5))
	require.NoError(t, err)

	cancellation, err := te.engine.CancelOrder(ctx, types.OrderCancellationRequest{
		SessionID: "session-1", OrderID: conf.Order.ID, Party: "carol",
	})
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, cancellation.Order.Status)
}

func TestEngine_MarketData(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 100))
	require.NoError(t, err)
	_, err = te.engine.SubmitOrder(ctx, limitSubmission("bob", types.SideSell, "10.50", 80))
	require.NoError(t, err)
	_, err = te.engine.SubmitOrder(ctx, marketSubmission("carol", types.SideBuy, 30))
	require.NoError(t, err)

	md, err := te.engine.GetMarketData("AAPL")
	require.NoError(t, err)
	assert.True(t, md.BestBidPrice.Equal(num.MustDecimalFromString("10.00")))
	assert.EqualValues(t, 100, md.BestBidVolume)
	assert.EqualValues(t, 50, md.BestOfferVolume)
	assert.True(t, md.LastTradePrice.Equal(num.MustDecimalFromString("10.50")))
	assert.True(t, md.Spread.Equal(num.MustDecimalFromString("0.50")))
	assert.EqualValues(t, 30, md.Volume)
	require.Len(t, md.RecentTrades, 1)

	_, err = te.engine.GetMarketData("UNKNOWN")
	assert.ErrorIs(t, err, types.ErrInvalidSecurityID)
}

func TestEngine_EmitsOrderAndTradeEvents(t *testing.T) {
	te := getOpenEngine(t)
	ctx := context.Background()

	_, err := te.engine.SubmitOrder(ctx, limitSubmission("alice", types.SideBuy, "10.00", 50))
	require.NoError(t, err)
	te.broker.evts = nil

	_, err = te.engine.SubmitOrder(ctx, limitSubmission("bob", types.SideSell, "10.00", 50))
	require.NoError(t, err)

	var orders, trades int
	for _, e := range te.broker.evts {
		switch e.Type() {
		case events.OrderEvent:
			orders++
		case events.TradeEvent:
			trades++
		}
	}
	assert.Equal(t, 1, trades)
	// aggressive and passive order both reported
	assert.Equal(t, 2, orders)
}
