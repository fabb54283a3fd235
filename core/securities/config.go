package securities

import (
	"github.com/classtrade/classtrade/config/encoding"
	"github.com/classtrade/classtrade/logging"
)

const namedLogger = "securities"

// Config represents the configuration of the securities registry.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
	}
}
