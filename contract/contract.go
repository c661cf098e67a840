//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"devconnect/domain"
)

// Event is what the registry pushes to live sessions. Exactly one of Message
// or Reason is set depending on Type.
type Event struct {
	Type      string           `json:"type"`
	ProjectID string           `json:"projectId,omitempty"`
	Message   *domain.Message  `json:"message,omitempty"`
	Backfill  []domain.Message `json:"messages,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

const (
	EventNewMessage = "newMessage"
	EventBackfill   = "previousMessages"
	EventJoined     = "joined"
	EventLeft       = "left"
	EventAck        = "ack"
	EventError      = "error"
)

// Session is one live, authenticated connection. The registry holds sessions
// as weak references: dropping a session from a room never closes it, and a
// failed Deliver only results in registry cleanup.
type Session interface {
	ID() string
	Identity() string
	Deliver(ctx context.Context, e Event) error
}

// Registry tracks which sessions are joined to which project room and fans
// events out to them best-effort.
type Registry interface {
	Join(projectID string, s Session)
	Leave(projectID string, s Session)
	LeaveAll(s Session)
	Broadcast(ctx context.Context, projectID string, e Event)
}
