// Package registry tracks which live WebSocket sessions belong to which user
// and fans events out to all of a user's sessions.
//
// The registry is process-local by design: in a multi-instance deployment an
// /emit call reaching instance A cannot deliver to a user connected to
// instance B. That is the documented scaling boundary; lifting it requires a
// shared session directory (e.g. Redis) in front of the instances.
package registry

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"decp/pkg/metrics"
)

// Frame is the JSON message pushed to clients over the socket.
type Frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Sender delivers an encoded frame to one session. Implementations must not
// block: a slow client drops frames rather than stalling fan-out.
type Sender interface {
	Send(frame []byte)
}

// Registry owns the (userId, sessionId) mapping exclusively. All mutation goes
// through Register/Unregister; fan-out snapshots under the same lock, so a
// disconnect racing an emit can never corrupt the session set.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Sender // userID -> sessionID -> sender
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]map[string]Sender),
		logger:   logger,
	}
}

// Register records a session for a user. A user may hold any number of
// concurrent sessions (multi-tab, multi-device).
func (r *Registry) Register(userID, sessionID string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[userID] == nil {
		r.sessions[userID] = make(map[string]Sender)
	}
	r.sessions[userID][sessionID] = s

	metrics.ConnectedSessions.Inc()
	r.logger.Info("Session registered",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
		zap.Int("user_sessions", len(r.sessions[userID])),
	)
}

// Unregister removes a session. When it was the user's last session the user
// key is removed entirely; no empty-set entries persist.
func (r *Registry) Unregister(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		return
	}
	if _, ok := set[sessionID]; !ok {
		return
	}

	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.sessions, userID)
	}

	metrics.ConnectedSessions.Dec()
	r.logger.Info("Session unregistered",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
	)
}

// EmitToUser pushes event/payload to every session registered for userID.
// Returns delivered=true iff at least one session existed at call time, along
// with the session count. With zero sessions the payload is dropped: no
// queueing, no replay.
func (r *Registry) EmitToUser(userID, event string, payload any) (delivered bool, sessionCount int) {
	frame, err := json.Marshal(Frame{Event: event, Payload: payload})
	if err != nil {
		r.logger.Error("Failed to encode frame",
			zap.String("event", event),
			zap.Error(err),
		)
		return false, 0
	}

	r.mu.RLock()
	set := r.sessions[userID]
	senders := make([]Sender, 0, len(set))
	for _, s := range set {
		senders = append(senders, s)
	}
	r.mu.RUnlock()

	if len(senders) == 0 {
		r.logger.Info("No connected sessions for user", zap.String("user_id", userID))
		return false, 0
	}

	for _, s := range senders {
		s.Send(frame)
	}

	r.logger.Info("Emitted event to user sessions",
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.Int("sessions", len(senders)),
	)
	return true, len(senders)
}

// SessionCount returns the number of live sessions for one user.
func (r *Registry) SessionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID])
}

// ConnectedUsers returns the number of distinct users with at least one
// session.
func (r *Registry) ConnectedUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
