package events

import (
	"context"

	"github.com/classtrade/classtrade/core/types"
)

// Order event, emitted on every order state change: accepted, filled,
// partially filled, rested, cancelled, rejected, expired, parked.
type Order struct {
	*Base
	o *types.Order
}

func NewOrderEvent(ctx context.Context, o *types.Order) *Order {
	return &Order{
		Base: newBase(ctx, OrderEvent, o.SessionID),
		o:    o.Clone(),
	}
}

func (o Order) Order() *types.Order {
	return o.o
}

func (o Order) IsParty(id string) bool {
	return o.o.Party == id
}

func (o Order) SecurityID() string {
	return o.o.SecurityID
}
