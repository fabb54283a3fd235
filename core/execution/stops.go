package execution

import (
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"

	"github.com/google/btree"
)

// stopEntry wraps a parked stop order with its arrival sequence so equal
// stop prices trigger in submission order.
type stopEntry struct {
	order *types.Order
	seq   uint64
}

// stopPool is the trigger watchlist for one security. Buy stops trigger when
// the last trade prints at or above their stop price, sell stops at or
// below, so each side is indexed with its nearest trigger first.
type stopPool struct {
	buy  *btree.BTreeG[*stopEntry]
	sell *btree.BTreeG[*stopEntry]
	byID map[string]*stopEntry
	seq  uint64
}

func newStopPool() *stopPool {
	lessBuy := func(a, b *stopEntry) bool {
		// lowest stop price first, it is hit first as the price rises
		if !a.order.StopPrice.Equal(b.order.StopPrice) {
			return a.order.StopPrice.LessThan(b.order.StopPrice)
		}
		return a.seq < b.seq
	}
	lessSell := func(a, b *stopEntry) bool {
		// highest stop price first, it is hit first as the price falls
		if !a.order.StopPrice.Equal(b.order.StopPrice) {
			return a.order.StopPrice.GreaterThan(b.order.StopPrice)
		}
		return a.seq < b.seq
	}
	return &stopPool{
		buy:  btree.NewG(2, lessBuy),
		sell: btree.NewG(2, lessSell),
		byID: map[string]*stopEntry{},
	}
}

func (p *stopPool) treeFor(side types.Side) *btree.BTreeG[*stopEntry] {
	if side == types.SideBuy {
		return p.buy
	}
	return p.sell
}

// park holds a stop order until its trigger price prints.
func (p *stopPool) park(o *types.Order) {
	p.seq++
	entry := &stopEntry{order: o, seq: p.seq}
	p.byID[o.ID] = entry
	p.treeFor(o.Side).ReplaceOrInsert(entry)
}

// remove pulls a parked order, used on cancellation.
func (p *stopPool) remove(orderID string) (*types.Order, error) {
	entry, ok := p.byID[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	delete(p.byID, orderID)
	p.treeFor(entry.order.Side).Delete(entry)
	return entry.order, nil
}

// triggered removes and returns every stop the given last trade price sets
// off, nearest trigger first within each side, buy stops before sell stops.
func (p *stopPool) triggered(lastTrade num.Decimal) []*types.Order {
	if lastTrade.IsZero() {
		return nil
	}
	var out []*types.Order

	for {
		entry, ok := p.buy.Min()
		if !ok || lastTrade.LessThan(entry.order.StopPrice) {
			break
		}
		p.buy.DeleteMin()
		delete(p.byID, entry.order.ID)
		out = append(out, entry.order)
	}
	for {
		entry, ok := p.sell.Min()
		if !ok || lastTrade.GreaterThan(entry.order.StopPrice) {
			break
		}
		p.sell.DeleteMin()
		delete(p.byID, entry.order.ID)
		out = append(out, entry.order)
	}
	return out
}

// drain empties the pool, used when the market closes.
func (p *stopPool) drain() []*types.Order {
	out := make([]*types.Order, 0, len(p.byID))
	for {
		entry, ok := p.buy.DeleteMin()
		if !ok {
			break
		}
		out = append(out, entry.order)
	}
	for {
		entry, ok := p.sell.DeleteMin()
		if !ok {
			break
		}
		out = append(out, entry.order)
	}
	p.byID = map[string]*stopEntry{}
	return out
}

func (p *stopPool) len() int {
	return len(p.byID)
}
