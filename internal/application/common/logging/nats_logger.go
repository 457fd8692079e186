package logging

import (
	"context"
	"fmt"
	"time"
)

// NATS connection event types.
const (
	NATSConnected        = "CONNECTED"
	NATSDisconnected     = "DISCONNECTED"
	NATSReconnecting     = "RECONNECTING"
	NATSConnectionFailed = "CONNECTION_FAILED"
)

// NATSConnectionEvent describes a change of the worker's NATS connection.
type NATSConnectionEvent struct {
	Type         string
	ServerURL    string
	AttemptCount int
	Duration     time.Duration
	Success      bool
	Error        error
	Reason       string // For disconnections
}

// NATSConsumeEvent describes one transform request handled by the worker.
type NATSConsumeEvent struct {
	Subject        string
	RequestID      string
	Filename       string
	MessageSize    int64
	ProcessingTime time.Duration
	Success        bool
	Error          error
	QueueGroup     string
	Rejected       bool
}

// LogNATSConnectionEvent logs NATS connection events
func (l *applicationLoggerImpl) LogNATSConnectionEvent(ctx context.Context, event NATSConnectionEvent) {
	fields := Fields{
		"event_type":    event.Type,
		"server_url":    event.ServerURL,
		"attempt_count": event.AttemptCount,
		"success":       event.Success,
	}
	if event.Duration > 0 {
		fields["duration"] = event.Duration.String()
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}

	level := "INFO"
	message := fmt.Sprintf("NATS connection event: %s", event.Type)
	errorStr := ""
	switch {
	case !event.Success && event.Error != nil:
		level = "ERROR"
		errorStr = event.Error.Error()
		message = fmt.Sprintf("NATS connection failed: %s", event.Type)
	case event.Type == NATSReconnecting || event.Type == NATSDisconnected:
		level = "WARN"
	}

	l.logNATSEntry(ctx, level, message, "nats_connection", errorStr, fields)
}

// LogNATSConsumeEvent logs a handled transform request
func (l *applicationLoggerImpl) LogNATSConsumeEvent(ctx context.Context, event NATSConsumeEvent) {
	fields := Fields{
		"subject":         event.Subject,
		"request_id":      event.RequestID,
		"filename":        event.Filename,
		"message_size":    event.MessageSize,
		"processing_time": event.ProcessingTime.String(),
		"queue_group":     event.QueueGroup,
		"success":         event.Success,
	}

	level := "INFO"
	message := "Transform request processed"
	errorStr := ""
	if event.Error != nil {
		level = "ERROR"
		errorStr = event.Error.Error()
		message = "Transform request failed"
	}
	if event.Rejected {
		level = "WARN"
		fields["rejected"] = true
		message = "Transform request rejected"
	}

	l.logNATSEntry(ctx, level, message, "nats_consume", errorStr, fields)
}

// logNATSEntry writes an entry with an operation tag
func (l *applicationLoggerImpl) logNATSEntry(ctx context.Context, level, message, operation, errorStr string, fields Fields) {
	if !l.shouldLog(level) {
		return
	}
	entry := l.newEntry(ctx, level, message, errorStr)
	entry.Operation = operation
	for key, value := range fields {
		entry.Metadata[key] = value
	}
	l.writeLogEntry(entry)
}
