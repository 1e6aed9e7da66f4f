package events

import "time"

// DistributionEvent is published for each depot schedule sent over MQTT.
type DistributionEvent struct {
	RunID        string
	DepotID      string
	CommandID    string
	Acknowledged bool
	Err          error
	Latency      time.Duration
}
