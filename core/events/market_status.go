package events

import (
	"context"

	"github.com/classtrade/classtrade/core/types"
)

// MarketStatus event, emitted on every control transition.
type MarketStatus struct {
	*Base
	prev types.MarketStatus
	next types.MarketStatus
}

func NewMarketStatusEvent(ctx context.Context, sessionID string, prev, next types.MarketStatus) *MarketStatus {
	return &MarketStatus{
		Base: newBase(ctx, MarketStatusEvent, sessionID),
		prev: prev,
		next: next,
	}
}

func (m MarketStatus) PreviousStatus() types.MarketStatus {
	return m.prev
}

func (m MarketStatus) Status() types.MarketStatus {
	return m.next
}
