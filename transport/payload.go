// Package transport exposes the service over HTTP (CRUD routes) and a
// WebSocket endpoint (real-time room protocol). Payloads are validated at
// this boundary; nothing loosely typed reaches the engine.
package transport

import (
	"bubble/domain"
	"bubble/domain/event"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the wire frame of every real-time exchange, both directions:
// {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	eventJoinRoom  = "joinRoom"
	eventSend      = "sendMessage"
	eventLeaveRoom = "leaveRoom"
)

type JoinRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

type SendMessagePayload struct {
	Room string `json:"room" validate:"required"`
	User string `json:"user" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type LeaveRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

func decodePayload(data json.RawMessage, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// toEnvelope maps a domain event to its wire frame. The data shapes mirror
// what clients expect: previousMessages carries a bare array, receiveMessage
// a single message object.
func toEnvelope(e event.DomainEvent) (Envelope, error) {
	var data any
	switch evt := e.(type) {
	case event.HistoryReplayed:
		messages := evt.Messages
		if messages == nil {
			messages = []domain.Message{}
		}
		data = messages
	case event.MessageReceived:
		data = evt.Message
	case event.SendFailed:
		data = map[string]string{"room": evt.Room, "reason": evt.Reason}
	case event.ProtocolError:
		data = map[string]string{"error": evt.Reason}
	default:
		return Envelope{}, fmt.Errorf("no wire mapping for event %q", e.Name())
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: e.Name(), Data: raw}, nil
}
