package transport

import (
	"bubble/domain/event"
	"context"
	"log/slog"
)

// WsSink is the delivery end of one WebSocket connection. The engine pushes
// events into the buffered channel; the connection's writer goroutine drains
// it in FIFO order, which preserves broadcast order per connection.
type WsSink struct {
	Events chan event.DomainEvent
	log    *slog.Logger
}

func NewWsSink(log *slog.Logger, bufferSize int) *WsSink {
	return &WsSink{Events: make(chan event.DomainEvent, bufferSize), log: log}
}

// Consume hands the event over to the connection's writer. A full buffer
// means the client cannot keep up; the event is dropped rather than
// blocking the room worker.
func (s *WsSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Connection buffer full, dropping event", "event", e.Name())
		return nil
	}
}
