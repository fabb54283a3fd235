package portfolio

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"
)

// Broker is the event outlet for position updates.
type Broker interface {
	Send(event events.Event)
	SendBatch(evts []events.Event)
}

// MarkPriceSource returns the current market price for a security, used to
// mark open positions. A zero price means no trade has printed yet.
type MarkPriceSource func(securityID string) num.Decimal

// Ledger turns the execution stream of one session into accounting state:
// cash balances, positions and realized P&L. Participants are created
// lazily with the configured initial cash on their first fill.
type Ledger struct {
	log *logging.Logger
	Config

	sessionID string
	broker    Broker

	mu sync.RWMutex
	// party -> cash balance
	cash map[string]num.Decimal
	// party -> security -> position
	positions map[string]map[string]*Position
	// party -> last execution touching the party
	lastUpdated map[string]time.Time
}

// NewLedger instantiates the portfolio ledger for one session.
func NewLedger(log *logging.Logger, config Config, sessionID string, broker Broker) *Ledger {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Ledger{
		log:         log,
		Config:      config,
		sessionID:   sessionID,
		broker:      broker,
		cash:        map[string]num.Decimal{},
		positions:   map[string]map[string]*Position{},
		lastUpdated: map[string]time.Time{},
	}
}

// ApplyExecution books both legs of a trade: the buyer is debited
// price*size and their position extended, the seller symmetrically. The
// transfer is zero-sum across the two parties, there is no fee model.
func (l *Ledger) ApplyExecution(ctx context.Context, trade *types.Trade) {
	if trade.Size == 0 {
		l.log.Panic("zero size execution reached the ledger",
			logging.String("trade-id", trade.ID),
			logging.SessionID(l.sessionID),
		)
	}

	l.mu.Lock()
	now := time.Unix(0, trade.Timestamp)
	notional := trade.Price.Mul(num.DecimalFromUint64(trade.Size))

	buyPos := l.position(trade.Buyer, trade.SecurityID)
	buyPos.applyFill(int64(trade.Size), trade.Price)
	l.cash[trade.Buyer] = l.cash[trade.Buyer].Sub(notional)
	l.lastUpdated[trade.Buyer] = now

	sellPos := l.position(trade.Seller, trade.SecurityID)
	sellPos.applyFill(-int64(trade.Size), trade.Price)
	l.cash[trade.Seller] = l.cash[trade.Seller].Add(notional)
	l.lastUpdated[trade.Seller] = now

	buyCpy, sellCpy := buyPos.Clone(), sellPos.Clone()
	l.mu.Unlock()

	l.broker.SendBatch([]events.Event{
		events.NewPositionEvent(ctx, l.sessionID, buyCpy),
		events.NewPositionEvent(ctx, l.sessionID, sellCpy),
	})
}

// position returns the party's position in the security, creating the party
// account (with initial cash) and an empty position as needed. Callers hold
// the write lock.
func (l *Ledger) position(party, securityID string) *Position {
	if _, ok := l.cash[party]; !ok {
		l.cash[party] = l.InitialCash
		l.log.Debug("participant account created",
			logging.PartyID(party),
			logging.SessionID(l.sessionID),
			logging.Decimal("initial-cash", l.InitialCash),
		)
	}
	byParty, ok := l.positions[party]
	if !ok {
		byParty = map[string]*Position{}
		l.positions[party] = byParty
	}
	pos, ok := byParty[securityID]
	if !ok {
		pos = newPosition(party, securityID)
		byParty[securityID] = pos
	}
	return pos
}

// CashBalance returns the party's cash, or the initial balance if the party
// has not traded yet.
func (l *Ledger) CashBalance(party string) num.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cash, ok := l.cash[party]; ok {
		return cash
	}
	return l.InitialCash
}

// GetPosition returns a copy of the party's position in one security.
func (l *Ledger) GetPosition(party, securityID string) (*Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if pos, ok := l.positions[party][securityID]; ok {
		return pos.Clone(), true
	}
	return nil, false
}

// GetPortfolioSnapshot recomputes the party's portfolio marked against the
// given price source. Pure read: positions with no market price yet are
// marked at average cost so they carry no unrealized P&L.
func (l *Ledger) GetPortfolioSnapshot(party string, markPrice MarkPriceSource) Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked(party, markPrice)
}

func (l *Ledger) snapshotLocked(party string, markPrice MarkPriceSource) Snapshot {
	snap := Snapshot{
		SessionID:          l.sessionID,
		Party:              party,
		CashBalance:        l.InitialCash,
		TotalUnrealizedPnL: num.DecimalZero(),
		TotalRealizedPnL:   num.DecimalZero(),
		LastUpdated:        l.lastUpdated[party],
	}
	if cash, ok := l.cash[party]; ok {
		snap.CashBalance = cash
	}
	snap.TotalValue = snap.CashBalance

	secIDs := make([]string, 0, len(l.positions[party]))
	for id := range l.positions[party] {
		secIDs = append(secIDs, id)
	}
	sort.Strings(secIDs)

	for _, id := range secIDs {
		pos := l.positions[party][id]
		price := markPrice(id)
		if price.IsZero() {
			price = pos.averageCost
		}
		volume := num.DecimalFromInt64(pos.openVolume)
		value := price.Mul(volume)
		unrealized := price.Sub(pos.averageCost).Mul(volume)

		snap.Positions = append(snap.Positions, PositionSnapshot{
			Party:         party,
			SecurityID:    id,
			OpenVolume:    pos.openVolume,
			AverageCost:   pos.averageCost,
			MarketPrice:   price,
			MarketValue:   value,
			RealizedPnL:   pos.realizedPnL,
			UnrealizedPnL: unrealized,
		})
		snap.TotalValue = snap.TotalValue.Add(value)
		snap.TotalUnrealizedPnL = snap.TotalUnrealizedPnL.Add(unrealized)
		snap.TotalRealizedPnL = snap.TotalRealizedPnL.Add(pos.realizedPnL)
	}
	return snap
}

// AllPortfolioSnapshots returns every participant's snapshot sorted by total
// value descending, the instructor's league table.
func (l *Ledger) AllPortfolioSnapshots(markPrice MarkPriceSource) []Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	parties := make([]string, 0, len(l.cash))
	for party := range l.cash {
		parties = append(parties, party)
	}
	sort.Strings(parties)

	out := make([]Snapshot, 0, len(parties))
	for _, party := range parties {
		out = append(out, l.snapshotLocked(party, markPrice))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue.GreaterThan(out[j].TotalValue)
	})
	return out
}

// Parties returns every participant known to the ledger.
func (l *Ledger) Parties() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	parties := make([]string, 0, len(l.cash))
	for party := range l.cash {
		parties = append(parties, party)
	}
	sort.Strings(parties)
	return parties
}
