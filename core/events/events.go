package events

import (
	"context"
)

// Type tags every event crossing the engine boundary.
type Type int

const (
	// All is used by subscribers wanting the whole stream.
	All Type = iota
	OrderEvent
	TradeEvent
	PositionEvent
	MarketStatusEvent
)

func (t Type) String() string {
	switch t {
	case OrderEvent:
		return "OrderEvent"
	case TradeEvent:
		return "TradeEvent"
	case PositionEvent:
		return "PositionEvent"
	case MarketStatusEvent:
		return "MarketStatusEvent"
	case All:
		return "ALL"
	default:
		return "UNKNOWN"
	}
}

// Event - the base event interface, everything the engines emit implements it.
type Event interface {
	Type() Type
	Context() context.Context
	SessionID() string
	Sequence() uint64
	SetSequenceID(s uint64)
}

// Base common denominator all events share.
type Base struct {
	ctx       context.Context
	sessionID string
	seq       uint64
	et        Type
}

func newBase(ctx context.Context, t Type, sessionID string) *Base {
	return &Base{
		ctx:       ctx,
		sessionID: sessionID,
		et:        t,
	}
}

func (b Base) Type() Type {
	return b.et
}

func (b Base) Context() context.Context {
	return b.ctx
}

func (b Base) SessionID() string {
	return b.sessionID
}

func (b Base) Sequence() uint64 {
	return b.seq
}

// SetSequenceID sets the sequence once, the broker assigns it on send so
// subscribers can reconstruct the original ordering.
func (b *Base) SetSequenceID(s uint64) {
	if b.seq != 0 {
		return
	}
	b.seq = s
}
