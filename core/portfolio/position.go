package portfolio

import (
	"github.com/classtrade/classtrade/libs/num"
)

// Position tracks one party's holding in one security. OpenVolume is signed,
// negative for a short. AverageCost is the volume-weighted mean acquisition
// price of the open volume; it is meaningless (zero) while flat.
type Position struct {
	party       string
	securityID  string
	openVolume  int64
	averageCost num.Decimal
	realizedPnL num.Decimal
}

func newPosition(party, securityID string) *Position {
	return &Position{
		party:      party,
		securityID: securityID,
	}
}

func (p *Position) Party() string {
	return p.party
}

func (p *Position) SecurityID() string {
	return p.securityID
}

func (p *Position) OpenVolume() int64 {
	return p.openVolume
}

func (p *Position) AverageCost() num.Decimal {
	return p.averageCost
}

func (p *Position) RealizedPnL() num.Decimal {
	return p.realizedPnL
}

func (p *Position) Clone() *Position {
	cpy := *p
	return &cpy
}

// applyFill folds a signed fill (positive buy, negative sell) at the given
// price into the position, realizing P&L on any closed volume.
func (p *Position) applyFill(delta int64, price num.Decimal) {
	if delta == 0 {
		panic("zero volume fill applied to position")
	}

	// flat or same direction: extend and re-average
	if p.openVolume == 0 || sameSign(p.openVolume, delta) {
		oldAbs := num.DecimalFromInt64(abs(p.openVolume))
		addAbs := num.DecimalFromInt64(abs(delta))
		total := oldAbs.Add(addAbs)
		p.averageCost = p.averageCost.Mul(oldAbs).Add(price.Mul(addAbs)).Div(total)
		p.openVolume += delta
		return
	}

	// opposite direction: the overlap closes out at the fill price
	closed := min64(abs(delta), abs(p.openVolume))
	closedD := num.DecimalFromInt64(closed)
	if p.openVolume > 0 {
		p.realizedPnL = p.realizedPnL.Add(price.Sub(p.averageCost).Mul(closedD))
	} else {
		p.realizedPnL = p.realizedPnL.Add(p.averageCost.Sub(price).Mul(closedD))
	}

	p.openVolume += delta
	switch {
	case p.openVolume == 0:
		p.averageCost = num.DecimalZero()
	case abs(delta) > closed:
		// the fill flipped the position, the remainder opens at the fill price
		p.averageCost = price
	}
}

func sameSign(a, b int64) bool {
	return (a > 0) == (b > 0)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
