package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/metroplan/core/factory"
	"github.com/kilianp07/metroplan/core/metrics"
	"github.com/kilianp07/metroplan/infra/logger"
	"github.com/kilianp07/metroplan/infra/network"
)

// EnvPrefix prefixes environment overrides, e.g. K_SERVER__ADDR=":8081".
const EnvPrefix = "K_"

type Config struct {
	Server  ServerConfig         `json:"server"`
	Planner PlannerConfig        `json:"planner"`
	Network network.Config       `json:"network"`
	Metrics metrics.Config       `json:"metrics"`
	MQTT    factory.ModuleConfig `json:"mqtt"`
	Log     logger.Options       `json:"log"`
	Sentry  SentryConfig         `json:"sentry"`
	Job     JobConfig            `json:"job"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	cfg := &Config{Planner: DefaultPlannerConfig()}
	cfg.SetDefaults()
	return cfg
}

// Load reads the YAML or JSON file at path, applies environment overrides
// and validates the result. An empty path loads the defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Environment overrides: K_SERVER__READ_TIMEOUT_SECONDS sets
	// server.read_timeout_seconds.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// Heuristic factors start from their standard values so a file can set
	// any of them, including a zero jitter, explicitly.
	cfg := Config{Planner: DefaultPlannerConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Planner.SetDefaults()
	c.Network.SetDefaults()
	c.Log.SetDefaults()
	c.Job.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"planner", c.Planner.Validate},
		{"network", c.Network.Validate},
		{"log", c.Log.Validate},
		{"job", c.Job.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	if c.Planner.Dispatch.Distribute && c.MQTT.Type == "" {
		return fmt.Errorf("planner: distribute requires an mqtt section")
	}
	return nil
}
