package matching

import (
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"
)

// OrderBook maintains price-time priority for one security. It is a pure
// data structure: matching runs only when the execution engine drives
// Uncross, the book never triggers it on its own.
type OrderBook struct {
	log *logging.Logger
	Config

	securityID      string
	buy             *OrderBookSide
	sell            *OrderBookSide
	lastTradedPrice num.Decimal

	// resting orders by id for cancellation lookups
	ordersByID map[string]*types.Order
}

// NewOrderBook creates an order book for the given security.
func NewOrderBook(log *logging.Logger, config Config, securityID string) *OrderBook {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &OrderBook{
		log:        log,
		Config:     config,
		securityID: securityID,
		buy:        newSide(log, types.SideBuy),
		sell:       newSide(log, types.SideSell),
		ordersByID: map[string]*types.Order{},
	}
}

func (b *OrderBook) SecurityID() string {
	return b.securityID
}

func (b *OrderBook) LastTradedPrice() num.Decimal {
	return b.lastTradedPrice
}

func (b *OrderBook) sideFor(side types.Side) *OrderBookSide {
	if side == types.SideBuy {
		return b.buy
	}
	return b.sell
}

// AddOrder rests an order on its side of the book, FIFO within its level.
func (b *OrderBook) AddOrder(o *types.Order) {
	if o.Remaining == 0 {
		panic("attempt to rest an order with no remaining volume")
	}
	b.sideFor(o.Side).addOrder(o)
	b.ordersByID[o.ID] = o

	if b.LogPriceLevelsDebug && b.log.GetLevel() <= logging.DebugLevel {
		b.log.Debug("order rested",
			logging.OrderID(o.ID),
			logging.SecurityID(b.securityID),
			logging.Decimal("price", o.Price),
			logging.Uint64("remaining", o.Remaining),
		)
	}
}

// RemoveOrder removes a resting order by id, used on cancellation and
// expiry. Reports ErrOrderNotFound for ids no longer on the book.
func (b *OrderBook) RemoveOrder(orderID string) (*types.Order, error) {
	o, ok := b.ordersByID[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}

	order, err := b.sideFor(o.Side).RemoveOrder(o)
	if err != nil {
		// the id map and the side disagree, the book is corrupted
		b.log.Panic("order in lookup table but not on its side",
			logging.OrderID(orderID),
			logging.SecurityID(b.securityID),
		)
	}
	delete(b.ordersByID, orderID)

	if b.LogRemovedOrdersDebug && b.log.GetLevel() <= logging.DebugLevel {
		b.log.Debug("order removed from book", logging.OrderID(orderID))
	}
	return order, nil
}

// GetOrderByID returns the resting order, or ErrOrderNotFound.
func (b *OrderBook) GetOrderByID(orderID string) (*types.Order, error) {
	o, ok := b.ordersByID[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	return o, nil
}

// Uncross runs the matching pass for an aggressive order against the
// opposing side. It mutates the aggressive order's Remaining, fills resting
// orders and updates the last traded price. Trades come back without ids or
// timestamps, the execution engine stamps them.
func (b *OrderBook) Uncross(agg *types.Order) ([]*types.Trade, []*types.Order) {
	opposite := b.sideFor(agg.Side.Opposite())
	trades, impacted := opposite.uncross(agg)

	for _, o := range impacted {
		if o.Remaining == 0 {
			delete(b.ordersByID, o.ID)
		}
	}
	if len(trades) > 0 {
		b.lastTradedPrice = trades[len(trades)-1].Price
	}
	return trades, impacted
}

// BestBidPriceAndVolume returns the highest bid level.
func (b *OrderBook) BestBidPriceAndVolume() (num.Decimal, uint64, error) {
	return b.buy.BestPriceAndVolume()
}

// BestOfferPriceAndVolume returns the lowest ask level.
func (b *OrderBook) BestOfferPriceAndVolume() (num.Decimal, uint64, error) {
	return b.sell.BestPriceAndVolume()
}

// Spread returns best ask minus best bid, zero when either side is empty.
func (b *OrderBook) Spread() num.Decimal {
	bid, _, berr := b.buy.BestPriceAndVolume()
	ask, _, serr := b.sell.BestPriceAndVolume()
	if berr != nil || serr != nil {
		return num.DecimalZero()
	}
	return ask.Sub(bid)
}

// GetMarketDepth returns an immutable copy of both sides, best level first,
// at most maxLevels deep per side (zero means no limit).
func (b *OrderBook) GetMarketDepth(maxLevels int) types.MarketDepth {
	return types.MarketDepth{
		SecurityID: b.securityID,
		Buy:        depthForSide(b.buy, maxLevels),
		Sell:       depthForSide(b.sell, maxLevels),
	}
}

func depthForSide(side *OrderBookSide, maxLevels int) []types.PriceLevel {
	levels := side.getLevels()
	n := len(levels)
	if maxLevels > 0 && maxLevels < n {
		n = maxLevels
	}
	out := make([]types.PriceLevel, 0, n)
	// best price lives at the end of the slice
	for i := len(levels) - 1; i >= len(levels)-n; i-- {
		out = append(out, types.PriceLevel{
			Price:          levels[i].price,
			Volume:         levels[i].volume,
			NumberOfOrders: uint64(len(levels[i].orders)),
		})
	}
	return out
}

// RemoveAllOrders empties both sides, returning the removed orders. Used
// when a session's market closes.
func (b *OrderBook) RemoveAllOrders() []*types.Order {
	out := b.buy.extractAllOrders()
	out = append(out, b.sell.extractAllOrders()...)
	b.ordersByID = map[string]*types.Order{}
	return out
}

// TotalVolumeOnSide is the remaining volume resting on one side, used for
// fill-or-kill style pre-checks.
func (b *OrderBook) TotalVolumeOnSide(side types.Side) uint64 {
	return uint64(b.sideFor(side).getTotalVolume())
}

// GetTotalNumberOfOrders is the count of resting orders on both sides.
func (b *OrderBook) GetTotalNumberOfOrders() int64 {
	return b.buy.getOrderCount() + b.sell.getOrderCount()
}

// GetTotalVolume is the remaining volume resting on both sides.
func (b *OrderBook) GetTotalVolume() int64 {
	return b.buy.getTotalVolume() + b.sell.getTotalVolume()
}
