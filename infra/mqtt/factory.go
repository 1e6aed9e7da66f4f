package mqtt

import (
	"github.com/kilianp07/metroplan/core/factory"
)

var publisherRegistry = factory.NewRegistry[Client]()

func init() {
	_ = publisherRegistry.Register("paho", func(conf map[string]any) (Client, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPahoClient(c)
	})
	_ = publisherRegistry.Register("mock", func(map[string]any) (Client, error) {
		return NewMockPublisher(), nil
	})
}

// NewPublisher creates a schedule publisher from configuration. An empty type
// disables distribution and returns a nil client.
func NewPublisher(cfg factory.ModuleConfig) (Client, error) {
	if cfg.Type == "" {
		return nil, nil
	}
	return publisherRegistry.Create(cfg)
}
