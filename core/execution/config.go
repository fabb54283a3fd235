package execution

import (
	"github.com/classtrade/classtrade/config/encoding"
	"github.com/classtrade/classtrade/core/matching"
	"github.com/classtrade/classtrade/logging"
)

const namedLogger = "execution"

// MarketOrderRemainderPolicy decides what happens to the unmatched part of a
// market order once the opposing side is exhausted.
type MarketOrderRemainderPolicy string

const (
	// MarketRemainderCancel fills what the book can and cancels the rest.
	MarketRemainderCancel MarketOrderRemainderPolicy = "cancel"
	// MarketRemainderReject refuses the whole order up front when the book
	// cannot fill it completely, so it either fully fills or never trades.
	MarketRemainderReject MarketOrderRemainderPolicy = "reject"
)

// Config represents the configuration of the execution engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	Matching matching.Config `group:"Matching" namespace:"matching"`

	// RecentTradeCount bounds the per-security trade tape served to
	// market-data queries.
	RecentTradeCount int `long:"recent-trade-count"`

	// DepthLevels bounds market depth snapshots per side, zero means the
	// whole book.
	DepthLevels int `long:"depth-levels"`

	MarketOrderRemainder MarketOrderRemainderPolicy `long:"market-order-remainder"`
}

// NewDefaultConfig provides a default configuration for the execution engine.
func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		Matching:             matching.NewDefaultConfig(),
		RecentTradeCount:     50,
		DepthLevels:          0,
		MarketOrderRemainder: MarketRemainderCancel,
	}
}
