package portfolio_test

import (
	"context"
	"testing"

	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/core/portfolio"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBroker struct {
	evts []events.Event
}

func (b *stubBroker) Send(e events.Event)           { b.evts = append(b.evts, e) }
func (b *stubBroker) SendBatch(evts []events.Event) { b.evts = append(b.evts, evts...) }

func getTestLedger(t *testing.T) (*portfolio.Ledger, *stubBroker) {
	t.Helper()
	broker := &stubBroker{}
	ledger := portfolio.NewLedger(logging.NewTestLogger(), portfolio.NewDefaultConfig(), "session-1", broker)
	return ledger, broker
}

func trade(buyer, seller, price string, size uint64) *types.Trade {
	return &types.Trade{
		ID:         "trade-1",
		SessionID:  "session-1",
		SecurityID: "AAPL",
		Price:      num.MustDecimalFromString(price),
		Size:       size,
		Buyer:      buyer,
		Seller:     seller,
	}
}

func fixedPrice(price string) portfolio.MarkPriceSource {
	p := num.MustDecimalFromString(price)
	return func(string) num.Decimal { return p }
}

func TestLedger_BuyThenSellRealizesPnL(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	ledger.ApplyExecution(ctx, trade("alice", "mm", "50.00", 10))
	assert.True(t, ledger.CashBalance("alice").Equal(num.MustDecimalFromString("9500")))

	pos, ok := ledger.GetPosition("alice", "AAPL")
	require.True(t, ok)
	assert.EqualValues(t, 10, pos.OpenVolume())
	assert.True(t, pos.AverageCost().Equal(num.MustDecimalFromString("50.00")))

	ledger.ApplyExecution(ctx, trade("mm", "alice", "55.00", 10))
	assert.True(t, ledger.CashBalance("alice").Equal(num.MustDecimalFromString("10050")))

	pos, ok = ledger.GetPosition("alice", "AAPL")
	require.True(t, ok)
	assert.EqualValues(t, 0, pos.OpenVolume())
	assert.True(t, pos.RealizedPnL().Equal(num.MustDecimalFromString("50.00")))
}

func TestLedger_ZeroSumAcrossBothLegs(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	ledger.ApplyExecution(ctx, trade("alice", "bob", "42.00", 7))
	ledger.ApplyExecution(ctx, trade("bob", "alice", "43.50", 3))

	total := ledger.CashBalance("alice").Add(ledger.CashBalance("bob"))
	assert.True(t, total.Equal(num.MustDecimalFromString("20000")))

	alicePos, _ := ledger.GetPosition("alice", "AAPL")
	bobPos, _ := ledger.GetPosition("bob", "AAPL")
	assert.EqualValues(t, 0, alicePos.OpenVolume()+bobPos.OpenVolume())
}

func TestLedger_AverageCostReaveragesOnExtension(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	ledger.ApplyExecution(ctx, trade("alice", "mm", "50.00", 10))
	ledger.ApplyExecution(ctx, trade("alice", "mm", "56.00", 20))

	pos, _ := ledger.GetPosition("alice", "AAPL")
	assert.EqualValues(t, 30, pos.OpenVolume())
	assert.True(t, pos.AverageCost().Equal(num.MustDecimalFromString("54.00")))
}

func TestLedger_ShortPositionRealizesOnCover(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	// alice sells short 10 @ 50, covers at 45: +5 per unit
	ledger.ApplyExecution(ctx, trade("mm", "alice", "50.00", 10))
	pos, _ := ledger.GetPosition("alice", "AAPL")
	assert.EqualValues(t, -10, pos.OpenVolume())

	ledger.ApplyExecution(ctx, trade("alice", "mm", "45.00", 10))
	pos, _ = ledger.GetPosition("alice", "AAPL")
	assert.EqualValues(t, 0, pos.OpenVolume())
	assert.True(t, pos.RealizedPnL().Equal(num.MustDecimalFromString("50.00")))
}

func TestLedger_FlipResetsAverageCost(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	// long 10 @ 50, then sell 15 @ 52: closes the long, opens a short 5
	ledger.ApplyExecution(ctx, trade("alice", "mm", "50.00", 10))
	ledger.ApplyExecution(ctx, trade("mm", "alice", "52.00", 15))

	pos, _ := ledger.GetPosition("alice", "AAPL")
	assert.EqualValues(t, -5, pos.OpenVolume())
	assert.True(t, pos.AverageCost().Equal(num.MustDecimalFromString("52.00")))
	assert.True(t, pos.RealizedPnL().Equal(num.MustDecimalFromString("20.00")))
}

func TestLedger_SnapshotMarksToMarket(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	ledger.ApplyExecution(ctx, trade("alice", "mm", "50.00", 10))

	snap := ledger.GetPortfolioSnapshot("alice", fixedPrice("53.00"))
	require.Len(t, snap.Positions, 1)
	assert.True(t, snap.Positions[0].MarketValue.Equal(num.MustDecimalFromString("530")))
	assert.True(t, snap.TotalUnrealizedPnL.Equal(num.MustDecimalFromString("30")))
	// cash 9500 + 530 marked value
	assert.True(t, snap.TotalValue.Equal(num.MustDecimalFromString("10030")))
}

func TestLedger_SnapshotWithoutMarkPriceUsesAverageCost(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	ledger.ApplyExecution(ctx, trade("alice", "mm", "50.00", 10))

	snap := ledger.GetPortfolioSnapshot("alice", func(string) num.Decimal { return num.DecimalZero() })
	require.Len(t, snap.Positions, 1)
	assert.True(t, snap.Positions[0].UnrealizedPnL.IsZero())
	assert.True(t, snap.TotalValue.Equal(num.MustDecimalFromString("10000")))
}

func TestLedger_UnknownPartyGetsInitialCash(t *testing.T) {
	ledger, _ := getTestLedger(t)

	assert.True(t, ledger.CashBalance("nobody").Equal(num.MustDecimalFromString("10000")))
	_, ok := ledger.GetPosition("nobody", "AAPL")
	assert.False(t, ok)
}

func TestLedger_AllSnapshotsSortedByValue(t *testing.T) {
	ledger, _ := getTestLedger(t)
	ctx := context.Background()

	// alice buys from bob, then price doubles: alice leads the table
	ledger.ApplyExecution(ctx, trade("alice", "bob", "50.00", 10))

	snaps := ledger.AllPortfolioSnapshots(fixedPrice("100.00"))
	require.Len(t, snaps, 2)
	assert.Equal(t, "alice", snaps[0].Party)
	assert.True(t, snaps[0].TotalValue.GreaterThan(snaps[1].TotalValue))
}

func TestLedger_EmitsPositionEvents(t *testing.T) {
	ledger, broker := getTestLedger(t)

	ledger.ApplyExecution(context.Background(), trade("alice", "bob", "50.00", 10))

	require.Len(t, broker.evts, 2)
	for _, e := range broker.evts {
		assert.Equal(t, events.PositionEvent, e.Type())
	}
}
