package mqtt

import "time"

// Client delivers depot schedules over MQTT and waits for the depots to
// acknowledge them.
type Client interface {
	// PublishSchedule sends the hourly induction plan to its depot and
	// returns the command identifier used to track the acknowledgment.
	PublishSchedule(msg ScheduleMessage) (commandID string, err error)

	// WaitForAck waits for an acknowledgment for the provided command
	// identifier or until the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)
}
