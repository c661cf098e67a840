package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"devconnect/contract"
	"devconnect/realtime"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	readTimeout = 60 * time.Second
)

// session is one live, authenticated websocket connection. Events reach it
// through its sink; a dedicated write loop is the only goroutine touching the
// socket for writes, so registry fan-out never blocks on a slow peer.
type session struct {
	id       string
	identity string
	ws       *websocket.Conn
	sink     *realtime.Sink
	log      *slog.Logger
	once     sync.Once
	closed   chan struct{}
}

func newSession(identity string, ws *websocket.Conn, bufferSize int, log *slog.Logger) *session {
	return &session{
		id:       uuid.NewString(),
		identity: identity,
		ws:       ws,
		sink:     realtime.NewSink(bufferSize),
		log:      log,
		closed:   make(chan struct{}),
	}
}

func (s *session) ID() string       { return s.id }
func (s *session) Identity() string { return s.identity }

// Deliver hands a broadcast event to the write loop. A full buffer or a
// closed session makes delivery fail, which the registry answers by dropping
// the session from its rooms.
func (s *session) Deliver(ctx context.Context, e contract.Event) error {
	return s.sink.Deliver(ctx, e)
}

// send is for events addressed to this session only (acks, errors, backfill).
func (s *session) send(e contract.Event) {
	if err := s.sink.Deliver(context.Background(), e); err != nil {
		s.log.Debug("dropping event for closed session", "session", s.id, "type", e.Type)
	}
}

// writeLoop drains the sink onto the socket and keeps the connection alive
// with pings. It exits when the session closes or a write fails.
func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case e := <-s.sink.Events:
			payload, err := json.Marshal(e)
			if err != nil {
				s.log.Error("encoding event failed", "type", e.Type, "error", err)
				continue
			}
			if err := s.writeMessage(payload); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.writePing(); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *session) writeMessage(payload []byte) error {
	if err := s.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.ws.WriteMessage(websocket.TextMessage, payload)
}

func (s *session) writePing() error {
	if err := s.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.ws.WriteMessage(websocket.PingMessage, nil)
}

// close is terminal: further deliveries fail and the write loop stops. Safe
// to call from any goroutine, any number of times.
func (s *session) close() {
	s.once.Do(func() {
		close(s.closed)
		s.sink.Close()
		_ = s.ws.Close()
	})
}
