package types

import (
	"fmt"

	"github.com/classtrade/classtrade/libs/num"
)

// Side of the book an order sits on.
type Side int8

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unspecified"
	}
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideUnspecified
	}
}

type OrderType int8

const (
	OrderTypeUnspecified OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	OrderTypeStop
	OrderTypeStopLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	case OrderTypeStop:
		return "stop"
	case OrderTypeStopLimit:
		return "stop-limit"
	default:
		return "unspecified"
	}
}

type OrderStatus int8

const (
	OrderStatusUnspecified OrderStatus = iota
	// OrderStatusActive - resting on the book, nothing filled yet.
	OrderStatusActive
	// OrderStatusPartiallyFilled - resting on the book with some volume done.
	OrderStatusPartiallyFilled
	// OrderStatusFilled - fully filled, no longer on the book.
	OrderStatusFilled
	// OrderStatusCancelled - cancelled by its owner, or the unmatched
	// remainder of a market order.
	OrderStatusCancelled
	// OrderStatusRejected - failed validation, never touched the book.
	OrderStatusRejected
	// OrderStatusExpired - DAY order removed when the market closed.
	OrderStatusExpired
	// OrderStatusParked - stop order waiting for its trigger price.
	OrderStatusParked
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusActive:
		return "active"
	case OrderStatusPartiallyFilled:
		return "partially-filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusExpired:
		return "expired"
	case OrderStatusParked:
		return "parked"
	default:
		return "unspecified"
	}
}

type OrderTimeInForce int8

const (
	OrderTimeInForceUnspecified OrderTimeInForce = iota
	// OrderTimeInForceDay - expires when the session's market closes.
	OrderTimeInForceDay
	// OrderTimeInForceGTC - good till cancelled. Survives pause/resume, a
	// closed market still removes it as nothing outlives the session.
	OrderTimeInForceGTC
)

func (t OrderTimeInForce) String() string {
	switch t {
	case OrderTimeInForceDay:
		return "day"
	case OrderTimeInForceGTC:
		return "gtc"
	default:
		return "unspecified"
	}
}

type MarketStatus int8

const (
	MarketStatusPending MarketStatus = iota
	MarketStatusOpen
	MarketStatusPaused
	MarketStatusClosed
)

func (s MarketStatus) String() string {
	switch s {
	case MarketStatusPending:
		return "pending"
	case MarketStatusOpen:
		return "open"
	case MarketStatusPaused:
		return "paused"
	case MarketStatusClosed:
		return "closed"
	default:
		return "unspecified"
	}
}

// Order is the engine's record of a submission. Owned by the execution engine
// for its session, only the matching pass and explicit cancellation mutate it.
type Order struct {
	ID          string
	SessionID   string
	SecurityID  string
	Party       string
	Side        Side
	Type        OrderType
	Price       num.Decimal
	StopPrice   num.Decimal
	Size        uint64
	Remaining   uint64
	TimeInForce OrderTimeInForce
	Status      OrderStatus
	Reason      error
	CreatedAt   int64
	UpdatedAt   int64
	CancelledAt int64
}

func (o *Order) Clone() *Order {
	cpy := *o
	return &cpy
}

// IsFinished returns true once the order can no longer change.
func (o *Order) IsFinished() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

func (o *Order) HasTraded() bool {
	return o.Size != o.Remaining
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"id(%s) session(%s) security(%s) party(%s) side(%s) type(%s) price(%s) stopPrice(%s) size(%d) remaining(%d) tif(%s) status(%s)",
		o.ID,
		o.SessionID,
		o.SecurityID,
		o.Party,
		o.Side.String(),
		o.Type.String(),
		o.Price.String(),
		o.StopPrice.String(),
		o.Size,
		o.Remaining,
		o.TimeInForce.String(),
		o.Status.String(),
	)
}

// Trade is the immutable record of a single fill.
type Trade struct {
	ID          string
	SessionID   string
	SecurityID  string
	Price       num.Decimal
	Size        uint64
	Buyer       string
	Seller      string
	BuyOrderID  string
	SellOrderID string
	Aggressor   Side
	Timestamp   int64
}

func (t *Trade) Clone() *Trade {
	cpy := *t
	return &cpy
}

// OrderConfirmation is returned from a submission: the order in its final
// state, the trades it produced and the resting orders it traded against.
type OrderConfirmation struct {
	Order                 *Order
	Trades                []*Trade
	PassiveOrdersAffected []*Order
}

// OrderCancellation confirms a successful cancel.
type OrderCancellation struct {
	Order *Order
}
