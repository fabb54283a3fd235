package api

import (
	"time"

	"github.com/classtrade/classtrade/config/encoding"
	"github.com/classtrade/classtrade/logging"
)

const namedLogger = "api"

type Config struct {
	Level           encoding.LogLevel `long:"log-level"`
	IP              string            `description:"Bind to address <ip>"               long:"ip"`
	Port            int               `description:"Listen for connections on <port>"   long:"port"`
	ShutdownTimeout encoding.Duration `description:"Grace period on shutdown"           long:"shutdown-timeout"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		IP:              "0.0.0.0",
		Port:            3003,
		ShutdownTimeout: encoding.Duration{Duration: 5 * time.Second},
	}
}
