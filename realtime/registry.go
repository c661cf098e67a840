// Package realtime tracks live sessions per project room and fans events out
// to them. It owns room membership exclusively; sessions themselves are weak
// references and are never closed from here.
package realtime

import (
	"context"
	"log/slog"
	"sync"

	"devconnect/contract"
)

type sessionSet map[string]contract.Session

// Registry maps project rooms to the sessions currently joined to them.
// Rooms are created lazily on first join and dropped once empty. All
// membership mutation is serialized behind one RWMutex, including the cleanup
// performed when a broadcast delivery fails.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]sessionSet
	log   *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{rooms: make(map[string]sessionSet), log: log}
}

// Join registers the session under the room keyed by projectID. Joining twice
// has no additional effect.
func (r *Registry) Join(projectID string, s contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[projectID]
	if !ok {
		room = make(sessionSet)
		r.rooms[projectID] = room
	}
	room[s.ID()] = s
}

// Leave removes the session from the room. The room entry is dropped when its
// session set becomes empty; no history is lost since history lives in the
// message store.
func (r *Registry) Leave(projectID string, s contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(projectID, s.ID())
}

// LeaveAll removes the session from every room it was joined to. Called as a
// cleanup side effect when a connection terminates.
func (r *Registry) LeaveAll(s contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveAllLocked(s.ID())
}

// Broadcast delivers e to every session currently joined to the room,
// best-effort. A session whose delivery fails is silently dropped from every
// room; delivery is never retried and the failure never reaches the caller.
//
// The whole fan-out runs under the registry lock: concurrent broadcasts to one
// room are serialized, so every session observes the same events in the same
// relative order. Deliver never blocks (the sink hands back an error when its
// buffer is full), so holding the lock here is safe.
func (r *Registry) Broadcast(ctx context.Context, projectID string, e contract.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []contract.Session
	for _, s := range r.rooms[projectID] {
		if err := s.Deliver(ctx, e); err != nil {
			r.log.Debug("dropping unreachable session",
				"session", s.ID(), "project", projectID, "error", err)
			failed = append(failed, s)
		}
	}
	for _, s := range failed {
		r.leaveAllLocked(s.ID())
	}
}

// RoomSize reports how many sessions are joined to the room.
func (r *Registry) RoomSize(projectID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[projectID])
}

func (r *Registry) leaveAllLocked(sessionID string) {
	for projectID := range r.rooms {
		r.leaveLocked(projectID, sessionID)
	}
}

func (r *Registry) leaveLocked(projectID, sessionID string) {
	room, ok := r.rooms[projectID]
	if !ok {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, projectID)
	}
}
