package mqtt

import "errors"

// ErrAckTimeout is returned when no acknowledgment is received before the timeout.
var ErrAckTimeout = errors.New("timeout waiting for ack")

// ErrScheduleRejected is returned when a depot acknowledges a schedule with
// accepted set to false.
var ErrScheduleRejected = errors.New("schedule rejected by depot")

// ErrUnknownCommand is returned when waiting on a command that was never sent
// or was already resolved.
var ErrUnknownCommand = errors.New("unknown command")
