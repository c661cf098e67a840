// Package domain contains the core concepts of the project chat system.
// Messages are immutable once created; only their read-receipt set grows.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindText   MessageKind = "text"
	KindSystem MessageKind = "system"
)

// ReadReceipt records that a reader has seen a message. Receipts are
// monotonic: once recorded for a (message, reader) pair they are never removed.
type ReadReceipt struct {
	UserID string    `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

// Message is one entry of a project's chat log. The creation timestamp is
// assigned by the store and is the sole ordering key; ties are broken by the
// time-ordered ID.
type Message struct {
	ID        uuid.UUID     `json:"id"`
	ProjectID string        `json:"projectId"`
	SenderID  string        `json:"senderId"`
	Sender    *UserRef      `json:"sender,omitempty"`
	Content   string        `json:"content"`
	Kind      MessageKind   `json:"kind"`
	CreatedAt time.Time     `json:"createdAt"`
	ReadBy    []ReadReceipt `json:"readBy"`
}

// ReadByUser reports whether the given reader already has a receipt on m.
func (m Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// ValidContent reports whether content survives trimming; messages with
// whitespace-only content are rejected before they reach the store.
func ValidContent(content string) bool {
	return strings.TrimSpace(content) != ""
}
