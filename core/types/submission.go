package types

import (
	"github.com/classtrade/classtrade/libs/num"
)

// OrderSubmission is the request to place an order, from a human trader or
// the simulator bot alike. Price and StopPrice are pointers so their absence
// is distinguishable from zero; Validate enforces presence per order type.
type OrderSubmission struct {
	SessionID   string
	SecurityID  string
	Party       string
	Side        Side
	Type        OrderType
	Size        uint64
	Price       *num.Decimal
	StopPrice   *num.Decimal
	TimeInForce OrderTimeInForce
}

// Validate checks the submission shape only, market level checks (known
// security, tick size, market status) belong to the execution engine.
func (s OrderSubmission) Validate() error {
	if s.SessionID == "" {
		return ErrInvalidSessionID
	}
	if s.SecurityID == "" {
		return ErrInvalidSecurityID
	}
	if s.Party == "" {
		return ErrInvalidPartyID
	}
	if s.Side != SideBuy && s.Side != SideSell {
		return ErrInvalidSide
	}
	if s.Size == 0 {
		return ErrInvalidSize
	}
	if s.TimeInForce != OrderTimeInForceDay && s.TimeInForce != OrderTimeInForceGTC {
		return ErrInvalidTimeInForce
	}

	switch s.Type {
	case OrderTypeMarket:
		if s.Price != nil {
			return ErrUnexpectedPrice
		}
		if s.StopPrice != nil {
			return ErrUnexpectedStopPrice
		}
	case OrderTypeLimit:
		if s.Price == nil {
			return ErrMissingPrice
		}
		if s.StopPrice != nil {
			return ErrUnexpectedStopPrice
		}
	case OrderTypeStop:
		if s.Price != nil {
			return ErrUnexpectedPrice
		}
		if s.StopPrice == nil {
			return ErrMissingStopPrice
		}
	case OrderTypeStopLimit:
		if s.Price == nil {
			return ErrMissingPrice
		}
		if s.StopPrice == nil {
			return ErrMissingStopPrice
		}
	default:
		return ErrInvalidType
	}

	if s.Price != nil && !s.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if s.StopPrice != nil && !s.StopPrice.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// IntoOrder builds the engine order record, id and timestamps are assigned by
// the engine.
func (s OrderSubmission) IntoOrder() *Order {
	o := &Order{
		SessionID:   s.SessionID,
		SecurityID:  s.SecurityID,
		Party:       s.Party,
		Side:        s.Side,
		Type:        s.Type,
		Size:        s.Size,
		Remaining:   s.Size,
		TimeInForce: s.TimeInForce,
		Status:      OrderStatusActive,
	}
	if s.Price != nil {
		o.Price = *s.Price
	}
	if s.StopPrice != nil {
		o.StopPrice = *s.StopPrice
	}
	return o
}

// OrderCancellationRequest asks for an order to be pulled from the book or
// the stop trigger list.
type OrderCancellationRequest struct {
	SessionID string
	OrderID   string
	// Party requesting the cancel, must be the order owner unless Elevated.
	Party string
	// Elevated is set by the instructor control surface, it bypasses the
	// ownership check.
	Elevated bool
}
