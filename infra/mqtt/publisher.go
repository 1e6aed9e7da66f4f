package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/metroplan/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockPublisher records schedules in memory and acknowledges them at once.
type MockPublisher struct {
	Messages   map[string]coremqtt.ScheduleMessage
	FailIDs    map[string]bool
	RejectIDs  map[string]bool
	AckResults map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages:   make(map[string]coremqtt.ScheduleMessage),
		FailIDs:    make(map[string]bool),
		RejectIDs:  make(map[string]bool),
		AckResults: make(map[string]bool),
	}
}

// PublishSchedule records the message or returns an error if the depot is
// configured to fail.
func (m *MockPublisher) PublishSchedule(msg coremqtt.ScheduleMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[msg.DepotID] {
		return "", fmt.Errorf("publish failed")
	}
	if msg.CommandID == "" {
		msg.CommandID = fmt.Sprintf("cmd-%s", msg.DepotID)
	}
	m.Messages[msg.DepotID] = msg
	m.AckResults[msg.CommandID] = !m.RejectIDs[msg.DepotID]
	return msg.CommandID, nil
}

// WaitForAck simulates an immediate acknowledgment based on the stored result.
func (m *MockPublisher) WaitForAck(commandID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[commandID]
	m.mu.Unlock()
	if !exists {
		return false, coremqtt.ErrUnknownCommand
	}
	if !ok {
		return false, coremqtt.ErrScheduleRejected
	}
	return true, nil
}

// Sent returns the message recorded for depotID.
func (m *MockPublisher) Sent(depotID string) (coremqtt.ScheduleMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.Messages[depotID]
	return msg, ok
}
