package mqtt

import (
	"fmt"
	"time"
)

// Induction is the number of trains a depot puts into service at one hour.
type Induction struct {
	Hour   int `json:"hour"`
	Trains int `json:"trains"`
}

// ScheduleMessage is the payload published to a depot.
type ScheduleMessage struct {
	CommandID  string      `json:"command_id"`
	RunID      string      `json:"run_id"`
	DepotID    string      `json:"depot_id"`
	Inductions []Induction `json:"inductions"`
	IssuedAt   time.Time   `json:"issued_at"`
}

// AckMessage is published by a depot once it accepted a schedule.
type AckMessage struct {
	CommandID string `json:"command_id"`
	DepotID   string `json:"depot_id"`
	Accepted  bool   `json:"accepted"`
	Reason    string `json:"reason,omitempty"`
}

// ScheduleTopic returns the topic a depot listens on.
func ScheduleTopic(prefix, depotID string) string {
	return fmt.Sprintf("%s/%s/schedule", prefix, depotID)
}

// AckTopic returns the wildcard topic acknowledgments are published on.
func AckTopic(prefix string) string {
	return prefix + "/+/ack"
}

// DepotAckTopic returns the acknowledgment topic of a single depot.
func DepotAckTopic(prefix, depotID string) string {
	return fmt.Sprintf("%s/%s/ack", prefix, depotID)
}
