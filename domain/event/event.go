// Package event defines the domain events delivered to connected clients.
// Event names match the wire protocol verbatim.
package event

import "bubble/domain"

type DomainEvent interface {
	Name() string
}

// HistoryReplayed carries the full ordered history of a room.
// Delivered once, only to the connection that just joined.
type HistoryReplayed struct {
	Room     string
	Messages []domain.Message
}

func (HistoryReplayed) Name() string { return "previousMessages" }

// MessageReceived is fanned out to every member of the room,
// including the sender's own connection.
type MessageReceived struct {
	Message domain.Message
}

func (MessageReceived) Name() string { return "receiveMessage" }

// SendFailed reports a persistence failure to the originating connection only.
type SendFailed struct {
	Room   string
	Reason string
}

func (SendFailed) Name() string { return "sendFailed" }

// ProtocolError reports an invalid client payload back to that client.
type ProtocolError struct {
	Reason string
}

func (ProtocolError) Name() string { return "error" }
