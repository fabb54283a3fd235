package types

import (
	"github.com/classtrade/classtrade/libs/num"
)

// PriceLevel is the external, immutable view of one book level.
type PriceLevel struct {
	Price          num.Decimal
	Volume         uint64
	NumberOfOrders uint64
}

// MarketDepth is a point in time copy of both sides of a book, bids best
// first, asks best first.
type MarketDepth struct {
	SecurityID string
	Buy        []PriceLevel
	Sell       []PriceLevel
}

// MarketData is the full market-data answer for one security.
type MarketData struct {
	SessionID       string
	SecurityID      string
	BestBidPrice    num.Decimal
	BestBidVolume   uint64
	BestOfferPrice  num.Decimal
	BestOfferVolume uint64
	// Spread is zero when either side is empty.
	Spread         num.Decimal
	LastTradePrice num.Decimal
	// Volume traded over the whole session.
	Volume       uint64
	Depth        MarketDepth
	RecentTrades []*Trade
}

// MarketStatusInfo reports the current status and which control transitions
// are legal from it.
type MarketStatusInfo struct {
	SessionID string
	Status    MarketStatus
	CanOpen   bool
	CanPause  bool
	CanResume bool
	CanClose  bool
}
