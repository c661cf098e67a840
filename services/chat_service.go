//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"devconnect/contract"
	"devconnect/domain"
	apperrors "devconnect/errors"
	"devconnect/moderation"
	"devconnect/repositories"
	"devconnect/search"
)

// BackfillLimit is the fixed history window sent to a session right after it
// joins a room.
const BackfillLimit = 50

type IChatService interface {
	Authorize(projectID, identity string) error
	Append(ctx context.Context, projectID, senderID, content string) (domain.Message, error)
	AppendSystem(ctx context.Context, projectID, actorID, content string) (domain.Message, error)
	History(projectID, identity string, limit int) ([]domain.Message, error)
	MarkRead(messageID uuid.UUID, readerID string) (domain.Message, error)
	Search(ctx context.Context, projectID, identity, rawQuery string) ([]search.Hit, error)
}

// ChatService is the single write path for project chat. Both the sync API
// and the websocket gateway call through here, so every message is persisted
// once and fanned out through the same registry regardless of which path
// produced it.
type ChatService struct {
	log       *slog.Logger
	gate      *AccessGate
	messages  repositories.IMessageRepository
	users     repositories.IUserRepository
	registry  contract.Registry
	moderator *moderation.Moderator
	index     *search.Index
}

func NewChatService(log *slog.Logger, gate *AccessGate,
	messages repositories.IMessageRepository, users repositories.IUserRepository,
	registry contract.Registry, moderator *moderation.Moderator,
	index *search.Index) *ChatService {
	return &ChatService{
		log:       log,
		gate:      gate,
		messages:  messages,
		users:     users,
		registry:  registry,
		moderator: moderator,
		index:     index,
	}
}

// Authorize checks live membership without touching the message log. The
// gateway calls it before registering a session in a room.
func (s *ChatService) Authorize(projectID, identity string) error {
	_, err := s.gate.Authorize(projectID, identity)
	return err
}

// Append validates, authorizes, persists, and broadcasts one message. The
// store-assigned timestamp is the sole ordering key; the time-ordered id
// breaks ties between messages persisted in the same nanosecond. The sender
// is seeded into the read-receipt set, matching how every client renders its
// own messages as already seen.
func (s *ChatService) Append(ctx context.Context, projectID, senderID, content string) (domain.Message, error) {
	return s.append(ctx, projectID, senderID, content, domain.KindText)
}

// AppendSystem records a system message attributed to the acting member, e.g.
// a contributor-accepted notice posted by the owner.
func (s *ChatService) AppendSystem(ctx context.Context, projectID, actorID, content string) (domain.Message, error) {
	return s.append(ctx, projectID, actorID, content, domain.KindSystem)
}

func (s *ChatService) append(ctx context.Context, projectID, senderID, content string, kind domain.MessageKind) (domain.Message, error) {
	if !domain.ValidContent(content) {
		return domain.Message{}, apperrors.ErrEmptyContent
	}
	if _, err := s.gate.Authorize(projectID, senderID); err != nil {
		return domain.Message{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, err
	}
	now := time.Now().UTC()
	message := domain.Message{
		ID:        id,
		ProjectID: projectID,
		SenderID:  senderID,
		Content:   s.moderator.Censor(strings.TrimSpace(content)),
		Kind:      kind,
		CreatedAt: now,
		ReadBy:    []domain.ReadReceipt{{UserID: senderID, ReadAt: now}},
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}

	if err := s.index.IndexMessage(message); err != nil {
		// Search lags behind the authoritative log; never fail the append.
		s.log.Warn("indexing message failed", "message", message.ID, "error", err)
	}

	s.resolveSender(&message)

	// Fan-out success is independent of persistence success: a dead session
	// is the registry's problem, not the sender's.
	s.registry.Broadcast(ctx, projectID, contract.Event{
		Type:      contract.EventNewMessage,
		ProjectID: projectID,
		Message:   &message,
	})
	return message, nil
}

// History returns the project's messages in ascending creation order with
// sender metadata resolved. limit <= 0 means the full log; the gateway
// backfill passes BackfillLimit.
func (s *ChatService) History(projectID, identity string, limit int) ([]domain.Message, error) {
	if _, err := s.gate.Authorize(projectID, identity); err != nil {
		return nil, err
	}
	messages, err := s.messages.GetMessages(projectID, limit)
	if err != nil {
		return nil, err
	}

	// One lookup per distinct sender, not per message.
	refs := make(map[string]*domain.UserRef)
	for i := range messages {
		ref, ok := refs[messages[i].SenderID]
		if !ok {
			ref = s.lookupRef(messages[i].SenderID)
			refs[messages[i].SenderID] = ref
		}
		messages[i].Sender = ref
	}
	return messages, nil
}

// MarkRead inserts an idempotent read receipt. The reader is authorized
// against the message's project so a removed member cannot keep annotating
// old messages.
func (s *ChatService) MarkRead(messageID uuid.UUID, readerID string) (domain.Message, error) {
	message, err := s.messages.GetByID(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := s.gate.Authorize(message.ProjectID, readerID); err != nil {
		return domain.Message{}, err
	}
	updated, err := s.messages.MarkRead(messageID, readerID, time.Now().UTC())
	if err != nil {
		return domain.Message{}, err
	}
	s.resolveSender(&updated)
	return updated, nil
}

// Search runs an authorization-gated full-text query over one project's
// messages.
func (s *ChatService) Search(ctx context.Context, projectID, identity, rawQuery string) ([]search.Hit, error) {
	if _, err := s.gate.Authorize(projectID, identity); err != nil {
		return nil, err
	}
	query := search.ParseQuery(rawQuery)
	if query.Terms == "" {
		return nil, apperrors.ErrInvalidArgument
	}
	return s.index.Search(ctx, projectID, query)
}

func (s *ChatService) resolveSender(message *domain.Message) {
	message.Sender = s.lookupRef(message.SenderID)
}

func (s *ChatService) lookupRef(userID string) *domain.UserRef {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user.Ref()
}
