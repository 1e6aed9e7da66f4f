package dispatch

import (
	"fmt"
	"time"
)

// Config defines planning-related settings.
type Config struct {
	// Workers fans hours out to goroutines when greater than one.
	Workers int `json:"workers"`
	// IncludeInsights attaches the derived insights to every plan output.
	IncludeInsights bool `json:"include_insights"`
	// Distribute publishes each depot schedule over MQTT after planning.
	Distribute        bool `json:"distribute"`
	AckTimeoutSeconds int  `json:"ack_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.AckTimeoutSeconds <= 0 {
		c.AckTimeoutSeconds = 5
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if c.AckTimeoutSeconds < 0 {
		return fmt.Errorf("ack_timeout_seconds must be >= 0")
	}
	return nil
}

// AckTimeout returns the acknowledgment timeout as a duration.
func (c Config) AckTimeout() time.Duration {
	if c.AckTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.AckTimeoutSeconds) * time.Second
}
