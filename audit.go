package goLink

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/goLink/internal/audit"
)

// AuditEvent is one store mutation record. It never carries a secret.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the store's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events on a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink writes audit events as structured log records.
type SlogSink = internalaudit.SlogSink

var (
	// NewChannelSink creates a ChannelSink with the given buffer.
	NewChannelSink = internalaudit.NewChannelSink
	// NewJSONWriterSink creates a JSONWriterSink.
	NewJSONWriterSink = internalaudit.NewJSONWriterSink
	// NewSlogSink creates a SlogSink.
	NewSlogSink = internalaudit.NewSlogSink
)

const (
	AuditEventSessionSaved         = internalaudit.EventSessionSaved
	AuditEventSessionDeleted       = internalaudit.EventSessionDeleted
	AuditEventSessionSaveRejected  = internalaudit.EventSessionSaveRejected
	AuditEventSessionMutationError = internalaudit.EventSessionMutationError
)

func (s *Store) emitAudit(ctx context.Context, eventType, sessionID, url string, err error) {
	if s.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		SessionID: sessionID,
		URL:       url,
		Success:   err == nil,
		Metadata:  map[string]string{"layout": s.layout.name()},
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.audit.Emit(ctx, event)
}
