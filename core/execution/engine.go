package execution

import (
	"context"
	"sync"
	"time"

	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/core/matching"
	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/google/uuid"
)

// Ledger consumes the execution stream, it is the portfolio accounting
// engine of the same session.
type Ledger interface {
	ApplyExecution(ctx context.Context, trade *types.Trade)
}

// Broker is the event outlet. Events are sent after the engine's critical
// section, never from under its lock.
type Broker interface {
	Send(event events.Event)
	SendBatch(evts []events.Event)
}

// Engine is the trading state machine for one session. All mutating calls
// are serialized by one mutex so price-time priority and ledger consistency
// are total orders; different sessions run fully in parallel. Reads copy
// their result under the same lock and so always observe a settled book.
type Engine struct {
	log *logging.Logger
	Config

	sessionID  string
	securities *securities.Registry
	ledger     Ledger
	broker     Broker

	mu     sync.Mutex
	status types.MarketStatus
	// one book per traded security, created on first use
	books map[string]*matching.OrderBook
	// every order this session has seen, by id
	orders map[string]*types.Order
	// parked stop orders per security
	stops map[string]*stopPool
	// recent trades per security, newest last, bounded by RecentTradeCount
	tape map[string][]*types.Trade
	// session volume per security
	volume map[string]uint64
}

// NewEngine instantiates the execution engine for one session. The market
// starts PENDING, nothing trades until OpenMarket.
func NewEngine(
	log *logging.Logger,
	config Config,
	sessionID string,
	registry *securities.Registry,
	ledger Ledger,
	broker Broker,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		log:        log,
		Config:     config,
		sessionID:  sessionID,
		securities: registry,
		ledger:     ledger,
		broker:     broker,
		status:     types.MarketStatusPending,
		books:      map[string]*matching.OrderBook{},
		orders:     map[string]*types.Order{},
		stops:      map[string]*stopPool{},
		tape:       map[string][]*types.Trade{},
		volume:     map[string]uint64{},
	}
}

func (e *Engine) SessionID() string {
	return e.sessionID
}

// callers hold the lock.
func (e *Engine) bookFor(securityID string) *matching.OrderBook {
	book, ok := e.books[securityID]
	if !ok {
		book = matching.NewOrderBook(e.log, e.Config.Matching, securityID)
		e.books[securityID] = book
	}
	return book
}

// callers hold the lock.
func (e *Engine) stopsFor(securityID string) *stopPool {
	pool, ok := e.stops[securityID]
	if !ok {
		pool = newStopPool()
		e.stops[securityID] = pool
	}
	return pool
}

// SubmitOrder validates, matches and rests or disposes of an order. The
// call is atomic with respect to the session's book: no other submission
// can observe the book mid-pass. On any rejection there are no side effects.
func (e *Engine) SubmitOrder(ctx context.Context, sub types.OrderSubmission) (*types.OrderConfirmation, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := e.validateAgainstRegistry(sub); err != nil {
		return nil, err
	}

	isStop := sub.Type == types.OrderTypeStop || sub.Type == types.OrderTypeStopLimit

	e.mu.Lock()
	switch e.status {
	case types.MarketStatusOpen:
	case types.MarketStatusPaused:
		// stop orders only park a trigger, they are accepted while paused
		if !isStop {
			e.mu.Unlock()
			return nil, types.ErrMarketNotOpen
		}
	case types.MarketStatusClosed:
		e.mu.Unlock()
		return nil, types.ErrMarketClosed
	default:
		e.mu.Unlock()
		return nil, types.ErrMarketNotOpen
	}

	now := time.Now().UnixNano()
	order := sub.IntoOrder()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now
	e.orders[order.ID] = order

	if isStop {
		order.Status = types.OrderStatusParked
		e.stopsFor(order.SecurityID).park(order)
		confirmation := &types.OrderConfirmation{Order: order.Clone()}
		e.mu.Unlock()

		e.broker.Send(events.NewOrderEvent(ctx, order))
		return confirmation, nil
	}

	confirmation, evts, err := e.matchLocked(ctx, order)
	if err == nil && len(confirmation.Trades) > 0 {
		evts = append(evts, e.triggerStopsLocked(ctx, order.SecurityID)...)
	}
	e.mu.Unlock()

	e.broker.SendBatch(evts)
	if err != nil {
		return nil, err
	}
	return confirmation, nil
}

// validateAgainstRegistry checks security existence, tradability and tick
// size conformance before any state is touched.
func (e *Engine) validateAgainstRegistry(sub types.OrderSubmission) error {
	sec, err := e.securities.Get(sub.SecurityID)
	if err != nil {
		return err
	}
	if !sec.Tradable {
		return types.ErrSecurityNotTradable
	}
	if sub.Price != nil {
		if err := e.securities.ValidatePrice(sub.SecurityID, *sub.Price); err != nil {
			return err
		}
	}
	if sub.StopPrice != nil {
		if err := e.securities.ValidatePrice(sub.SecurityID, *sub.StopPrice); err != nil {
			return err
		}
	}
	return nil
}

// matchLocked runs the matching pass for an order that is ready to trade.
// Callers hold the lock. It never evaluates stop triggers, the caller
// cascades those so a deep chain of stops cannot recurse.
func (e *Engine) matchLocked(ctx context.Context, order *types.Order) (*types.OrderConfirmation, []events.Event, error) {
	book := e.bookFor(order.SecurityID)
	now := time.Now().UnixNano()

	if order.Type == types.OrderTypeMarket &&
		e.MarketOrderRemainder == MarketRemainderReject &&
		book.TotalVolumeOnSide(order.Side.Opposite()) < order.Remaining {
		order.Status = types.OrderStatusRejected
		order.Reason = types.ErrMarketOrderCannotFill
		order.UpdatedAt = now
		return nil, []events.Event{events.NewOrderEvent(ctx, order)}, types.ErrMarketOrderCannotFill
	}

	trades, impacted := book.Uncross(order)

	evts := make([]events.Event, 0, 1+len(trades)*2)
	for _, trade := range trades {
		trade.ID = uuid.NewString()
		trade.Timestamp = now

		e.volume[order.SecurityID] += trade.Size
		e.appendToTape(order.SecurityID, trade)
		e.ledger.ApplyExecution(ctx, trade)
		evts = append(evts, events.NewTradeEvent(ctx, trade))
	}

	switch {
	case order.Remaining == 0:
		order.Status = types.OrderStatusFilled
	case order.Type == types.OrderTypeMarket:
		// no resting market orders: the unmatched remainder is cancelled
		order.Status = types.OrderStatusCancelled
		order.CancelledAt = now
	default:
		if order.HasTraded() {
			order.Status = types.OrderStatusPartiallyFilled
		} else {
			order.Status = types.OrderStatusActive
		}
		book.AddOrder(order)
	}
	order.UpdatedAt = now

	evts = append(evts, events.NewOrderEvent(ctx, order))
	for _, o := range impacted {
		o.UpdatedAt = now
		evts = append(evts, events.NewOrderEvent(ctx, o))
	}

	confirmation := &types.OrderConfirmation{
		Order:                 order.Clone(),
		Trades:                trades,
		PassiveOrdersAffected: impacted,
	}
	return confirmation, evts, nil
}

// triggerStopsLocked converts and matches every stop order the current last
// trade price sets off, iterating until the cascade settles: a triggered
// stop's own prints can move the last trade price and trigger further stops.
func (e *Engine) triggerStopsLocked(ctx context.Context, securityID string) []events.Event {
	pool := e.stopsFor(securityID)
	book := e.bookFor(securityID)

	var evts []events.Event
	for {
		triggered := pool.triggered(book.LastTradedPrice())
		if len(triggered) == 0 {
			return evts
		}
		for _, order := range triggered {
			if order.Type == types.OrderTypeStop {
				order.Type = types.OrderTypeMarket
			} else {
				order.Type = types.OrderTypeLimit
			}
			order.Status = types.OrderStatusActive

			e.log.Debug("stop order triggered",
				logging.OrderID(order.ID),
				logging.SecurityID(securityID),
				logging.Decimal("stop-price", order.StopPrice),
				logging.Decimal("last-trade", book.LastTradedPrice()),
			)

			// a triggered market stop facing an empty book cancels like any
			// other market remainder, the error is already on the order
			_, nevts, _ := e.matchLocked(ctx, order)
			evts = append(evts, nevts...)
		}
	}
}

func (e *Engine) appendToTape(securityID string, trade *types.Trade) {
	tape := append(e.tape[securityID], trade)
	if max := e.RecentTradeCount; max > 0 && len(tape) > max {
		tape = tape[len(tape)-max:]
	}
	e.tape[securityID] = tape
}

// CancelOrder cancels a resting or parked order. Only the owner may cancel,
// unless the request is elevated (instructor). A cancel either succeeds
// synchronously or reports why it cannot.
func (e *Engine) CancelOrder(ctx context.Context, req types.OrderCancellationRequest) (*types.OrderCancellation, error) {
	e.mu.Lock()

	order, ok := e.orders[req.OrderID]
	if !ok {
		e.mu.Unlock()
		return nil, types.ErrOrderNotFound
	}
	if order.Party != req.Party && !req.Elevated {
		e.mu.Unlock()
		return nil, types.ErrNotOrderOwner
	}
	if order.IsFinished() || order.Remaining == 0 {
		e.mu.Unlock()
		return nil, types.ErrOrderNotCancellable
	}

	if order.Status == types.OrderStatusParked {
		if _, err := e.stopsFor(order.SecurityID).remove(order.ID); err != nil {
			e.mu.Unlock()
			e.log.Panic("parked order missing from its stop pool",
				logging.OrderID(order.ID),
				logging.SessionID(e.sessionID),
			)
		}
	} else {
		if _, err := e.bookFor(order.SecurityID).RemoveOrder(order.ID); err != nil {
			e.mu.Unlock()
			e.log.Panic("active order missing from its book",
				logging.OrderID(order.ID),
				logging.SessionID(e.sessionID),
			)
		}
	}

	now := time.Now().UnixNano()
	order.Status = types.OrderStatusCancelled
	order.CancelledAt = now
	order.UpdatedAt = now
	cancellation := &types.OrderCancellation{Order: order.Clone()}
	e.mu.Unlock()

	e.broker.Send(events.NewOrderEvent(ctx, order))
	return cancellation, nil
}

// GetOrder returns a copy of any order this session has seen.
func (e *Engine) GetOrder(orderID string) (*types.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// MarkPrice returns the last traded price for a security, zero before the
// first trade. It is the price source for portfolio marking.
func (e *Engine) MarkPrice(securityID string) num.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	if book, ok := e.books[securityID]; ok {
		return book.LastTradedPrice()
	}
	return num.DecimalZero()
}

// GetMarketData assembles the market-data answer for one security: depth,
// best bid/ask, spread, last trade, recent trades and session volume.
func (e *Engine) GetMarketData(securityID string) (*types.MarketData, error) {
	if _, err := e.securities.Get(securityID); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	book := e.bookFor(securityID)
	md := &types.MarketData{
		SessionID:      e.sessionID,
		SecurityID:     securityID,
		LastTradePrice: book.LastTradedPrice(),
		Spread:         book.Spread(),
		Volume:         e.volume[securityID],
		Depth:          book.GetMarketDepth(e.DepthLevels),
	}
	if price, vol, err := book.BestBidPriceAndVolume(); err == nil {
		md.BestBidPrice = price
		md.BestBidVolume = vol
	}
	if price, vol, err := book.BestOfferPriceAndVolume(); err == nil {
		md.BestOfferPrice = price
		md.BestOfferVolume = vol
	}

	tape := e.tape[securityID]
	md.RecentTrades = make([]*types.Trade, 0, len(tape))
	for i := len(tape) - 1; i >= 0; i-- {
		md.RecentTrades = append(md.RecentTrades, tape[i].Clone())
	}
	return md, nil
}
