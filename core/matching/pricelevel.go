package matching

import (
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
)

// PriceLevel holds the resting orders at one price, in strict arrival order.
type PriceLevel struct {
	price  num.Decimal
	orders []*types.Order
	volume uint64
}

func NewPriceLevel(price num.Decimal) *PriceLevel {
	return &PriceLevel{
		price:  price,
		orders: []*types.Order{},
	}
}

func (l *PriceLevel) addOrder(o *types.Order) {
	// FIFO within the level keeps time priority
	l.orders = append(l.orders, o)
	l.volume += o.Remaining
}

func (l *PriceLevel) removeOrder(index int) {
	l.reduceVolume(l.orders[index].Remaining)
	copy(l.orders[index:], l.orders[index+1:])
	l.orders = l.orders[:len(l.orders)-1]
}

func (l *PriceLevel) reduceVolume(reduceBy uint64) {
	if reduceBy > l.volume {
		panic("price level volume accounting corrupted")
	}
	l.volume -= reduceBy
}

// uncross fills the aggressive order against this level in time priority.
// Trades print at the level price: the resting order holds price-time
// priority, price improvement goes to the incoming order. Returned trades
// carry no ids or timestamps yet, the execution engine assigns those.
func (l *PriceLevel) uncross(agg *types.Order) (bool, []*types.Trade, []*types.Order) {
	var (
		trades         []*types.Trade
		impactedOrders []*types.Order
		toRemove       int
	)

	for _, order := range l.orders {
		size := num.MinV(agg.Remaining, order.Remaining)
		if size == 0 {
			panic("zero size uncross, aggressive order should have been dropped")
		}

		trade := newTrade(agg, order, size)

		agg.Remaining -= size
		order.Remaining -= size
		l.reduceVolume(size)

		if order.Remaining == 0 {
			order.Status = types.OrderStatusFilled
			toRemove++
		} else {
			order.Status = types.OrderStatusPartiallyFilled
		}

		trades = append(trades, trade)
		impactedOrders = append(impactedOrders, order)

		if agg.Remaining == 0 {
			break
		}
	}

	// filled passive orders are the first entries of the FIFO
	if toRemove > 0 {
		copy(l.orders, l.orders[toRemove:])
		for i := len(l.orders) - toRemove; i < len(l.orders); i++ {
			l.orders[i] = nil
		}
		l.orders = l.orders[:len(l.orders)-toRemove]
	}

	return agg.Remaining == 0, trades, impactedOrders
}

// newTrade assembles the execution record for a fill between the aggressive
// and a passive order at the passive order's price.
func newTrade(agg, pass *types.Order, size uint64) *types.Trade {
	trade := &types.Trade{
		SessionID:  agg.SessionID,
		SecurityID: agg.SecurityID,
		Price:      pass.Price,
		Size:       size,
		Aggressor:  agg.Side,
	}
	if agg.Side == types.SideBuy {
		trade.Buyer = agg.Party
		trade.Seller = pass.Party
		trade.BuyOrderID = agg.ID
		trade.SellOrderID = pass.ID
	} else {
		trade.Buyer = pass.Party
		trade.Seller = agg.Party
		trade.BuyOrderID = pass.ID
		trade.SellOrderID = agg.ID
	}
	return trade
}
