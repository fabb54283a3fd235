package matching

import (
	"sort"

	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/pkg/errors"
)

// ErrPriceNotFound signals that a price was not found on the book side.
var ErrPriceNotFound = errors.New("price-volume pair not found")

// OrderBookSide represents a side of the book, either Sell or Buy.
// Levels are kept sorted with the best price at the end of the slice:
// ascending for the buy side, descending for the sell side. That keeps
// best-price access O(1) and lets uncrossing trim exhausted levels from
// the back without reshuffling.
type OrderBookSide struct {
	side   types.Side
	log    *logging.Logger
	levels []*PriceLevel
}

func newSide(log *logging.Logger, side types.Side) *OrderBookSide {
	return &OrderBookSide{
		side:   side,
		log:    log,
		levels: []*PriceLevel{},
	}
}

func (s *OrderBookSide) addOrder(o *types.Order) {
	s.getPriceLevel(o.Price).addOrder(o)
}

// BestPriceAndVolume returns the top of book price and volume,
// or an error if the side is empty.
func (s *OrderBookSide) BestPriceAndVolume() (num.Decimal, uint64, error) {
	if len(s.levels) <= 0 {
		return num.DecimalZero(), 0, errors.New("no orders on the book side")
	}
	last := len(s.levels) - 1
	return s.levels[last].price, s.levels[last].volume, nil
}

func (s *OrderBookSide) getPriceLevelIfExists(price num.Decimal) *PriceLevel {
	i := s.levelIndex(price)
	if i < len(s.levels) && s.levels[i].price.Equal(price) {
		return s.levels[i]
	}
	return nil
}

func (s *OrderBookSide) getPriceLevel(price num.Decimal) *PriceLevel {
	i := s.levelIndex(price)
	if i < len(s.levels) && s.levels[i].price.Equal(price) {
		return s.levels[i]
	}

	// insert a new level in place, the append guarantees capacity before the
	// shift copy
	level := NewPriceLevel(price)
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = level
	return level
}

func (s *OrderBookSide) levelIndex(price num.Decimal) int {
	if s.side == types.SideBuy {
		// buy side levels are ordered ascending
		return sort.Search(len(s.levels), func(i int) bool { return s.levels[i].price.GreaterThanOrEqual(price) })
	}
	// sell side levels are ordered descending
	return sort.Search(len(s.levels), func(i int) bool { return s.levels[i].price.LessThanOrEqual(price) })
}

// RemoveOrder removes an order from the book side, returning the removed
// order or ErrOrderNotFound.
func (s *OrderBookSide) RemoveOrder(o *types.Order) (*types.Order, error) {
	i := s.levelIndex(o.Price)
	if i >= len(s.levels) || !s.levels[i].price.Equal(o.Price) {
		return nil, types.ErrOrderNotFound
	}

	oidx := -1
	for idx, order := range s.levels[i].orders {
		if order.ID == o.ID {
			oidx = idx
			break
		}
	}
	if oidx == -1 {
		return nil, types.ErrOrderNotFound
	}

	order := s.levels[i].orders[oidx]
	s.levels[i].removeOrder(oidx)

	if len(s.levels[i].orders) <= 0 {
		s.levels = s.levels[:i+copy(s.levels[i:], s.levels[i+1:])]
	}
	return order, nil
}

// GetVolume returns the volume at the given price level.
func (s *OrderBookSide) GetVolume(price num.Decimal) (uint64, error) {
	priceLevel := s.getPriceLevelIfExists(price)
	if priceLevel == nil {
		return 0, ErrPriceNotFound
	}
	return priceLevel.volume, nil
}

// uncross matches the aggressive order against this side, best level first.
// A limit order matches while the level price is within its limit, a market
// order matches unconditionally until the side is exhausted.
func (s *OrderBookSide) uncross(agg *types.Order) ([]*types.Trade, []*types.Order) {
	var (
		trades         []*types.Trade
		impactedOrders []*types.Order
		checkPrice     func(num.Decimal) bool
	)

	if agg.Side == types.SideSell {
		// selling into the buy side, match while bid >= limit
		checkPrice = func(levelPrice num.Decimal) bool { return levelPrice.GreaterThanOrEqual(agg.Price) }
	} else {
		checkPrice = func(levelPrice num.Decimal) bool { return levelPrice.LessThanOrEqual(agg.Price) }
	}

	var (
		idx    = len(s.levels) - 1
		filled bool
	)

	// iterate from the end, exhausted levels are trimmed off the back
	for !filled && idx >= 0 {
		if agg.Type != types.OrderTypeMarket && !checkPrice(s.levels[idx].price) {
			break
		}
		var (
			ntrades []*types.Trade
			nimpact []*types.Order
		)
		filled, ntrades, nimpact = s.levels[idx].uncross(agg)
		trades = append(trades, ntrades...)
		impactedOrders = append(impactedOrders, nimpact...)
		if len(s.levels[idx].orders) <= 0 {
			idx--
		}
	}

	// nil out and trim the emptied levels
	if idx < 0 || len(s.levels[idx].orders) > 0 {
		idx++
	}
	if idx < len(s.levels) {
		for i := idx; i < len(s.levels); i++ {
			s.levels[i] = nil
		}
		s.levels = s.levels[:idx]
	}

	return trades, impactedOrders
}

func (s *OrderBookSide) getLevels() []*PriceLevel {
	return s.levels
}

func (s *OrderBookSide) getOrderCount() int64 {
	var orderCount int64
	for _, level := range s.levels {
		orderCount += int64(len(level.orders))
	}
	return orderCount
}

func (s *OrderBookSide) getTotalVolume() int64 {
	var volume int64
	for _, level := range s.levels {
		volume += int64(level.volume)
	}
	return volume
}

// extractAllOrders empties the side, returning the removed orders in price
// then time priority. Used when the market closes.
func (s *OrderBookSide) extractAllOrders() []*types.Order {
	out := []*types.Order{}
	for i := len(s.levels) - 1; i >= 0; i-- {
		out = append(out, s.levels[i].orders...)
		s.levels[i] = nil
	}
	s.levels = s.levels[:0]
	return out
}
