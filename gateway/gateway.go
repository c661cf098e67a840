// Package gateway hosts the long-lived websocket surface of the project chat.
// A session authenticates once at upgrade time; afterwards every operation it
// submits is re-authorized against live project membership.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"devconnect/contract"
	apperrors "devconnect/errors"
	"devconnect/realtime"
	"devconnect/repositories"
	"devconnect/services"
)

// inboundFrame is the single client->server frame shape.
type inboundFrame struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId,omitempty"`
	Content   string `json:"content,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// IdentityVerifier resolves the identity behind a connect-time credential.
type IdentityVerifier interface {
	Identify(token string) (string, error)
}

// Gateway upgrades HTTP connections and runs the per-session frame loop. It
// is an explicitly constructed value owned by the process that hosts it;
// there is no package-level connection state.
type Gateway struct {
	log        *slog.Logger
	chat       services.IChatService
	verifier   IdentityVerifier
	users      repositories.IUserRepository
	registry   *realtime.Registry
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewGateway(log *slog.Logger, chat services.IChatService, verifier IdentityVerifier,
	users repositories.IUserRepository, registry *realtime.Registry, bufferSize int) *Gateway {
	return &Gateway{
		log:        log,
		chat:       chat,
		verifier:   verifier,
		users:      users,
		registry:   registry,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients connect from a separately hosted frontend.
				return true
			},
		},
	}
}

// Handler returns the websocket endpoint. A missing or invalid credential, or
// an unknown identity, rejects the connection; every later failure is an
// error frame, never a disconnect.
func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.authenticate(r)
		if err != nil {
			http.Error(w, apperrors.Reason(err), http.StatusUnauthorized)
			return
		}

		ws, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		s := newSession(identity, ws, g.bufferSize, g.log)
		g.log.Info("session connected", "session", s.ID(), "user", identity)

		go s.writeLoop()
		defer func() {
			// Connection teardown, not a user-visible transition: drop the
			// session from every room it was joined to.
			g.registry.LeaveAll(s)
			s.close()
			g.log.Info("session disconnected", "session", s.ID(), "user", identity)
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(readTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !isExpectedClose(err) {
					g.log.Debug("read failed", "session", s.ID(), "error", err)
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				s.send(errorEvent("invalid payload"))
				continue
			}
			g.dispatch(r, s, frame)
		}
	}
}

// authenticate resolves the connect-time credential to a known identity.
func (g *Gateway) authenticate(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return "", apperrors.ErrAuthentication
	}
	identity, err := g.verifier.Identify(token)
	if err != nil {
		return "", err
	}
	if _, err := g.users.GetUserByID(identity); err != nil {
		return "", apperrors.ErrAuthentication
	}
	return identity, nil
}

func (g *Gateway) dispatch(r *http.Request, s *session, frame inboundFrame) {
	switch frame.Type {
	case "join":
		g.handleJoin(s, frame)
	case "leave":
		g.handleLeave(s, frame)
	case "message":
		g.handleMessage(r, s, frame)
	case "markRead":
		g.handleMarkRead(s, frame)
	default:
		s.send(errorEvent("unknown frame type"))
	}
}

// handleJoin authorizes against live membership, registers the session, and
// replies with the bounded backfill in ascending order. On failure the
// session stays authenticated and may try another project.
func (g *Gateway) handleJoin(s *session, frame inboundFrame) {
	if frame.ProjectID == "" {
		s.send(errorEvent("projectId is required"))
		return
	}
	if err := g.chat.Authorize(frame.ProjectID, s.Identity()); err != nil {
		s.send(errorEvent(apperrors.Reason(err)))
		return
	}

	// Register before reading the backfill: a message appended while the
	// history read runs is pushed to the session. It may duplicate a
	// backfill entry, but it is never lost.
	g.registry.Join(frame.ProjectID, s)
	backfill, err := g.chat.History(frame.ProjectID, s.Identity(), services.BackfillLimit)
	if err != nil {
		g.registry.Leave(frame.ProjectID, s)
		s.send(errorEvent(apperrors.Reason(err)))
		return
	}
	s.send(contract.Event{Type: contract.EventJoined, ProjectID: frame.ProjectID})
	s.send(contract.Event{
		Type:      contract.EventBackfill,
		ProjectID: frame.ProjectID,
		Backfill:  backfill,
	})
}

func (g *Gateway) handleLeave(s *session, frame inboundFrame) {
	if frame.ProjectID == "" {
		s.send(errorEvent("projectId is required"))
		return
	}
	g.registry.Leave(frame.ProjectID, s)
	s.send(contract.Event{Type: contract.EventLeft, ProjectID: frame.ProjectID})
}

// handleMessage appends through the shared chat service; the service itself
// broadcasts to the room, so the sender receives its own message the same way
// every other member does.
func (g *Gateway) handleMessage(r *http.Request, s *session, frame inboundFrame) {
	if frame.ProjectID == "" {
		s.send(errorEvent("projectId is required"))
		return
	}
	if _, err := g.chat.Append(r.Context(), frame.ProjectID, s.Identity(), frame.Content); err != nil {
		s.send(errorEvent(apperrors.Reason(err)))
	}
}

func (g *Gateway) handleMarkRead(s *session, frame inboundFrame) {
	id, err := uuid.Parse(frame.MessageID)
	if err != nil {
		s.send(errorEvent("invalid messageId"))
		return
	}
	if _, err := g.chat.MarkRead(id, s.Identity()); err != nil {
		s.send(errorEvent(apperrors.Reason(err)))
		return
	}
	s.send(contract.Event{Type: contract.EventAck})
}

func errorEvent(reason string) contract.Event {
	return contract.Event{Type: contract.EventError, Reason: reason}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) ||
		errors.Is(err, websocket.ErrCloseSent)
}
