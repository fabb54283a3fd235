package portfolio

import (
	"time"

	"github.com/classtrade/classtrade/libs/num"
)

// PositionSnapshot is the marked-to-market view of one position.
type PositionSnapshot struct {
	Party         string
	SecurityID    string
	OpenVolume    int64
	AverageCost   num.Decimal
	MarketPrice   num.Decimal
	MarketValue   num.Decimal
	RealizedPnL   num.Decimal
	UnrealizedPnL num.Decimal
}

// Snapshot is the derived read view of a party's whole portfolio. It is
// recomputed on demand from positions and current market prices, never
// mutated in place.
type Snapshot struct {
	SessionID          string
	Party              string
	CashBalance        num.Decimal
	Positions          []PositionSnapshot
	TotalValue         num.Decimal
	TotalUnrealizedPnL num.Decimal
	TotalRealizedPnL   num.Decimal
	LastUpdated        time.Time
}
