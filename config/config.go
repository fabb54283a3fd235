package config

import (
	"bytes"
	"os"

	"github.com/classtrade/classtrade/api"
	"github.com/classtrade/classtrade/core/broker"
	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/sessions"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config ties together every component configuration of the service. The
// TOML layout mirrors the struct nesting.
type Config struct {
	API        api.Config        `group:"API"        namespace:"api"`
	Broker     broker.Config     `group:"Broker"     namespace:"broker"`
	Securities securities.Config `group:"Securities" namespace:"securities"`
	Sessions   sessions.Config   `group:"Sessions"   namespace:"sessions"`
}

func NewDefaultConfig() Config {
	return Config{
		API:        api.NewDefaultConfig(),
		Broker:     broker.NewDefaultConfig(),
		Securities: securities.NewDefaultConfig(),
		Sessions:   sessions.NewDefaultConfig(),
	}
}

// Read loads the configuration from a TOML file on top of the defaults, so
// a partial file only overrides what it names. An empty path returns the
// defaults untouched.
func Read(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if len(path) == 0 {
		return &cfg, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read configuration at %s", path)
	}
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, errors.Wrapf(err, "couldn't parse configuration at %s", path)
	}
	return &cfg, nil
}

// Write saves the configuration as TOML, used to seed a fresh config file.
func Write(path string, cfg *Config) error {
	buf := &bytes.Buffer{}
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "couldn't encode configuration")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "couldn't write configuration at %s", path)
	}
	return nil
}
