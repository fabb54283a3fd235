package types

import "github.com/pkg/errors"

// Validation errors. All of them reject a submission before any state change.
var (
	ErrInvalidSessionID     = errors.New("invalid session id")
	ErrInvalidSecurityID    = errors.New("unknown or invalid security id")
	ErrSecurityNotTradable  = errors.New("security is not tradable")
	ErrInvalidPartyID       = errors.New("invalid party id")
	ErrInvalidSide          = errors.New("invalid order side")
	ErrInvalidType          = errors.New("invalid order type")
	ErrInvalidTimeInForce   = errors.New("invalid time in force")
	ErrInvalidSize          = errors.New("order size must be positive")
	ErrInvalidPrice         = errors.New("order price must be positive")
	ErrMissingPrice         = errors.New("limit price required for this order type")
	ErrUnexpectedPrice      = errors.New("limit price not allowed for this order type")
	ErrMissingStopPrice     = errors.New("stop price required for this order type")
	ErrUnexpectedStopPrice  = errors.New("stop price not allowed for this order type")
	ErrPriceNotTickMultiple = errors.New("price is not a multiple of the security tick size")
)

// State errors. The request was well formed but the engine cannot honour it
// right now; the caller decides whether to retry later.
var (
	ErrMarketNotOpen             = errors.New("market is not open")
	ErrMarketClosed              = errors.New("market is closed")
	ErrInvalidMarketStatusChange = errors.New("invalid market status transition")
	ErrMarketOrderCannotFill     = errors.New("market order cannot be fully filled")
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderNotCancellable       = errors.New("order cannot be cancelled")
	ErrNotOrderOwner             = errors.New("only the order owner may cancel it")
)

// Registry errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session has been closed")
)
