package network

import (
	"context"
	"fmt"

	"github.com/kilianp07/metroplan/auth"
	"github.com/kilianp07/metroplan/core/model"
)

// Source provides the network used to build plan requests.
type Source interface {
	Network(ctx context.Context) (model.Network, error)
}

// Static serves a fixed network.
type Static model.Network

// Network returns a copy of the static network.
func (s Static) Network(context.Context) (model.Network, error) {
	n := model.Network(s)
	return n, n.Validate()
}

// Config selects where the catalog lives.
type Config struct {
	// Source is one of "default", "file", "sqlite" or "http".
	Source string `json:"source"`
	File   string `json:"file"`
	SQLite string `json:"sqlite"`
	URL    string `json:"url"`
	// Auth adds client-credentials tokens to http requests.
	Auth auth.Conf `json:"auth"`
}

// SetDefaults picks the source from the configured paths.
func (c *Config) SetDefaults() {
	if c.Source != "" {
		return
	}
	switch {
	case c.SQLite != "":
		c.Source = "sqlite"
	case c.File != "":
		c.Source = "file"
	case c.URL != "":
		c.Source = "http"
	default:
		c.Source = "default"
	}
}

// Validate checks that the selected source has a path.
func (c Config) Validate() error {
	switch c.Source {
	case "default":
	case "file":
		if c.File == "" {
			return fmt.Errorf("network.file is required for the file source")
		}
	case "sqlite":
		if c.SQLite == "" {
			return fmt.Errorf("network.sqlite is required for the sqlite source")
		}
	case "http":
		if c.URL == "" {
			return fmt.Errorf("network.url is required for the http source")
		}
	default:
		return fmt.Errorf("unknown network source %q", c.Source)
	}
	return nil
}

// Open returns the configured source. The returned close function releases
// any database handle.
func Open(cfg Config) (Source, func() error, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }
	switch cfg.Source {
	case "file":
		return FileSource(cfg.File), noop, nil
	case "sqlite":
		st, err := NewSQLiteStore(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "http":
		return NewHTTPSource(cfg.URL, cfg.Auth), noop, nil
	default:
		return Static(model.DefaultNetwork()), noop, nil
	}
}
