// Package queue defines the domain events exchanged over RabbitMQ together
// with their publisher and the audit-log consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types. Each type is published to a durable queue of the same name.
const (
	EventUserRegistered   = "user.registered"
	EventUserDeleted      = "user.deleted"
	EventLibraryGameAdded = "library.game_added"
)

// Queues lists every queue the service declares.
var Queues = []string{EventUserRegistered, EventUserDeleted, EventLibraryGameAdded}

// Event is the payload of every message. Fields that do not apply to a type
// are left zero and omitted from the JSON.
type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	OccurredAt string `json:"occurred_at"`
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username,omitempty"`
	ActorID    uint64 `json:"actor_id,omitempty"`
	GameID     uint64 `json:"game_id,omitempty"`
	GameTitle  string `json:"game_title,omitempty"`
}

// NewEvent stamps a fresh event of the given type.
func NewEvent(typ string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}
