package events

import (
	"context"

	"github.com/classtrade/classtrade/core/types"
)

// Trade event, one per execution, the append-only matching history.
type Trade struct {
	*Base
	t *types.Trade
}

func NewTradeEvent(ctx context.Context, t *types.Trade) *Trade {
	return &Trade{
		Base: newBase(ctx, TradeEvent, t.SessionID),
		t:    t.Clone(),
	}
}

func (t Trade) Trade() *types.Trade {
	return t.t
}

func (t Trade) IsParty(id string) bool {
	return t.t.Buyer == id || t.t.Seller == id
}

func (t Trade) SecurityID() string {
	return t.t.SecurityID
}
