package portfolio

import (
	"github.com/classtrade/classtrade/config/encoding"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"
)

const namedLogger = "portfolio"

// Config represents the configuration of the portfolio ledger.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// InitialCash is the balance every participant starts the session with.
	InitialCash num.Decimal `long:"initial-cash"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:       encoding.LogLevel{Level: logging.InfoLevel},
		InitialCash: num.DecimalFromInt64(10000),
	}
}
