package events

import (
	"context"

	"github.com/classtrade/classtrade/libs/num"
)

// PositionState is implemented by the portfolio ledger's position record; the
// interface keeps the event package free of a dependency on the ledger.
type PositionState interface {
	Party() string
	SecurityID() string
	OpenVolume() int64
	AverageCost() num.Decimal
	RealizedPnL() num.Decimal
}

// Position event, emitted whenever an execution changes a party's position.
type Position struct {
	*Base
	p PositionState
}

func NewPositionEvent(ctx context.Context, sessionID string, p PositionState) *Position {
	return &Position{
		Base: newBase(ctx, PositionEvent, sessionID),
		p:    p,
	}
}

func (p Position) Position() PositionState {
	return p.p
}

func (p Position) IsParty(id string) bool {
	return p.p.Party() == id
}
