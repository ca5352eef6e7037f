// Package domain contains core concepts of the chat system.
// This file defines Message records and their rules.
// Messages are immutable once created; no update or delete exists.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a single immutable chat entry.
// User holds the resolved display name when the sender has a profile,
// otherwise the raw identity string.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Room      string    `json:"room"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}
