package sessions

import (
	"github.com/classtrade/classtrade/config/encoding"
	"github.com/classtrade/classtrade/core/execution"
	"github.com/classtrade/classtrade/core/portfolio"
	"github.com/classtrade/classtrade/logging"
)

const namedLogger = "sessions"

// Config holds the registry's own logging level plus the template
// configuration stamped onto every session it creates.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	Execution execution.Config `group:"Execution" namespace:"execution"`
	Portfolio portfolio.Config `group:"Portfolio" namespace:"portfolio"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:     encoding.LogLevel{Level: logging.InfoLevel},
		Execution: execution.NewDefaultConfig(),
		Portfolio: portfolio.NewDefaultConfig(),
	}
}
