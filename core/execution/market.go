package execution

import (
	"context"
	"time"

	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/logging"
)

// MarketStatus returns the session's current trading status.
func (e *Engine) MarketStatus() types.MarketStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// MarketStatusInfo reports the status along with which transitions are
// currently legal, so a UI can enable only the valid controls.
func (e *Engine) MarketStatusInfo() types.MarketStatusInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	return types.MarketStatusInfo{
		SessionID: e.sessionID,
		Status:    e.status,
		CanOpen:   e.status == types.MarketStatusPending,
		CanPause:  e.status == types.MarketStatusOpen,
		CanResume: e.status == types.MarketStatusPaused,
		CanClose:  e.status == types.MarketStatusOpen || e.status == types.MarketStatusPaused,
	}
}

// OpenMarket moves the session PENDING -> OPEN and starts trading.
func (e *Engine) OpenMarket(ctx context.Context) error {
	return e.transition(ctx, types.MarketStatusPending, types.MarketStatusOpen)
}

// PauseMarket suspends trading. Resting orders stay on the book untouched,
// new stop orders may still park.
func (e *Engine) PauseMarket(ctx context.Context) error {
	return e.transition(ctx, types.MarketStatusOpen, types.MarketStatusPaused)
}

// ResumeMarket lifts a pause.
func (e *Engine) ResumeMarket(ctx context.Context) error {
	return e.transition(ctx, types.MarketStatusPaused, types.MarketStatusOpen)
}

func (e *Engine) transition(ctx context.Context, from, to types.MarketStatus) error {
	e.mu.Lock()
	if e.status != from {
		e.mu.Unlock()
		return types.ErrInvalidMarketStatusChange
	}
	prev := e.status
	e.status = to
	e.mu.Unlock()

	e.log.Info("market status changed",
		logging.SessionID(e.sessionID),
		logging.String("from", prev.String()),
		logging.String("to", to.String()),
	)
	e.broker.Send(events.NewMarketStatusEvent(ctx, e.sessionID, prev, to))
	return nil
}

// CloseMarket ends the session permanently. Every resting order leaves the
// book: DAY orders expire, GTC orders and parked stops are cancelled. A
// closed market rejects all further submissions.
func (e *Engine) CloseMarket(ctx context.Context) error {
	e.mu.Lock()
	if e.status != types.MarketStatusOpen && e.status != types.MarketStatusPaused {
		e.mu.Unlock()
		return types.ErrInvalidMarketStatusChange
	}
	prev := e.status
	e.status = types.MarketStatusClosed

	now := time.Now().UnixNano()
	var evts []events.Event
	for _, book := range e.books {
		for _, order := range book.RemoveAllOrders() {
			if order.TimeInForce == types.OrderTimeInForceDay {
				order.Status = types.OrderStatusExpired
			} else {
				order.Status = types.OrderStatusCancelled
				order.CancelledAt = now
			}
			order.UpdatedAt = now
			evts = append(evts, events.NewOrderEvent(ctx, order))
		}
	}
	for _, pool := range e.stops {
		for _, order := range pool.drain() {
			order.Status = types.OrderStatusCancelled
			order.CancelledAt = now
			order.UpdatedAt = now
			evts = append(evts, events.NewOrderEvent(ctx, order))
		}
	}
	e.mu.Unlock()

	e.log.Info("market closed",
		logging.SessionID(e.sessionID),
		logging.String("from", prev.String()),
		logging.Int("orders-removed", len(evts)),
	)
	evts = append(evts, events.NewMarketStatusEvent(ctx, e.sessionID, prev, types.MarketStatusClosed))
	e.broker.SendBatch(evts)
	return nil
}
