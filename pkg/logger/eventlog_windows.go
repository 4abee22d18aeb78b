//go:build windows

package logger

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// EventLogger writes to the Windows Event Log under a service source.
type EventLogger struct {
	log *eventlog.Log
}

// NewEventLogger opens the event log for source, registering the source
// first when it is missing.
func NewEventLogger(source string) (*EventLogger, error) {
	_ = eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info)
	l, err := eventlog.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return &EventLogger{log: l}, nil
}

func (e *EventLogger) Info(format string, args ...interface{}) {
	_ = e.log.Info(1, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Warning(format string, args ...interface{}) {
	_ = e.log.Warning(2, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Error(format string, args ...interface{}) {
	_ = e.log.Error(3, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Close() error {
	return e.log.Close()
}
