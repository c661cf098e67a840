//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"devconnect/domain"
	apperrors "devconnect/errors"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(projectID string, limit int) ([]domain.Message, error)
	GetByID(id uuid.UUID) (domain.Message, error)
	MarkRead(id uuid.UUID, readerID string, at time.Time) (domain.Message, error)
}

// diskMessage is the stored representation of a message. Values are JSON so
// the inspect server and the history CLI can render them without a schema.
type diskMessage struct {
	ID        uuid.UUID     `json:"id"`
	ProjectID string        `json:"projectId"`
	SenderID  string        `json:"senderId"`
	Content   string        `json:"content"`
	Kind      string        `json:"kind"`
	At        time.Time     `json:"at"`
	ReadBy    []diskReceipt `json:"readBy"`
}

type diskReceipt struct {
	UserID string    `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

// messageKey builds the primary key "msg:{project}:{timestamp_padded}:{uuid}".
// The 19-digit zero padding keeps the prefix scan chronological, and the UUID
// disambiguates two messages persisted in the same nanosecond.
func messageKey(projectID string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", projectID, at.UnixNano(), id))
}

// idKey is the secondary index "msgid:{uuid}" -> primary key, used by
// read-receipt updates that only know the message id.
func idKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

func projectPrefix(projectID string) []byte {
	return []byte("msg:" + projectID + ":")
}

// StoreMessage persists a message and its id index in one transaction.
func (m *MessageRepository) StoreMessage(message domain.Message) error {
	key := messageKey(message.ProjectID, message.CreatedAt, message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(idKey(message.ID), key)
	})
}

// GetMessages returns a project's messages in ascending creation order.
// When limit > 0 only the most recent limit messages are returned, still
// ascending: the iterator walks the keyspace in reverse and the result is
// flipped afterwards, mirroring the backfill query of the original platform.
func (m *MessageRepository) GetMessages(projectID string, limit int) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := projectPrefix(projectID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this project, then walk back.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				m.log.Debug("history window reached", "project", projectID, "limit", limit)
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	// Reverse iteration yielded newest first; decode back to front.
	for i := len(raw) - 1; i >= 0; i-- {
		var dm diskMessage
		if err := json.Unmarshal(raw[i], &dm); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

// GetByID resolves a message through the id index.
func (m *MessageRepository) GetByID(id uuid.UUID) (domain.Message, error) {
	var dm diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dm)
		})
	})
	if err != nil {
		return domain.Message{}, mapBadgerErr(err)
	}
	return toMessage(dm), nil
}

// MarkRead inserts a read receipt for readerID if absent and returns the
// updated message. The operation is idempotent per (message, reader): a
// second call leaves the stored receipt untouched. The primary key never
// changes because id and timestamp are immutable, so the record is rewritten
// in place.
func (m *MessageRepository) MarkRead(id uuid.UUID, readerID string, at time.Time) (domain.Message, error) {
	var dm diskMessage
	err := m.db.Update(func(txn *badger.Txn) error {
		key, err := resolvePrimaryKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &dm)
		}); err != nil {
			return err
		}
		for _, r := range dm.ReadBy {
			if r.UserID == readerID {
				return nil
			}
		}
		dm.ReadBy = append(dm.ReadBy, diskReceipt{UserID: readerID, ReadAt: at})
		bytes, err := json.Marshal(dm)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return domain.Message{}, mapBadgerErr(err)
	}
	return toMessage(dm), nil
}

func resolvePrimaryKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(idKey(id))
	if err != nil {
		return nil, err
	}
	var key []byte
	err = item.Value(func(value []byte) error {
		key = append([]byte{}, value...)
		return nil
	})
	return key, err
}

func mapBadgerErr(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID,
		ProjectID: message.ProjectID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		Kind:      string(message.Kind),
		At:        message.CreatedAt.UTC(),
		ReadBy: lo.Map(message.ReadBy, func(r domain.ReadReceipt, _ int) diskReceipt {
			return diskReceipt(r)
		}),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		ProjectID: dm.ProjectID,
		SenderID:  dm.SenderID,
		Content:   dm.Content,
		Kind:      domain.MessageKind(dm.Kind),
		CreatedAt: dm.At.UTC(),
		ReadBy: lo.Map(dm.ReadBy, func(r diskReceipt, _ int) domain.ReadReceipt {
			return domain.ReadReceipt(r)
		}),
	}
}
