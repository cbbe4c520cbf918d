// Package realtime provides the cross-service client for pushing live events
// to connected browsers via the realtime service's internal /emit endpoint.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"decp/pkg/circuitbreaker"
)

const emitTimeout = 3 * time.Second

// EmitRequest is the body of the internal /emit call.
type EmitRequest struct {
	UserID  string `json:"userId"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// EmitResponse is the realtime service's answer. Delivered means "attempted
// delivery to at least one live session", not "client processed it".
type EmitResponse struct {
	Success               bool `json:"success"`
	Delivered             bool `json:"delivered"`
	ConnectedSessionCount int  `json:"connectedSessionCount"`
}

// Emitter calls the realtime service's internal /emit endpoint. Non-throwing:
// live delivery is a best-effort side channel, and durable state is already
// committed before any emit is attempted, so failures are logged and dropped.
// A circuit breaker stops a dead realtime service from costing the caller a
// timeout per event.
type Emitter struct {
	baseURL string
	secret  string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewEmitter(baseURL, internalSecret string, logger *zap.Logger) *Emitter {
	return &Emitter{
		baseURL: baseURL,
		secret:  internalSecret,
		client:  &http.Client{Timeout: emitTimeout},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}
}

// EmitToUser pushes event/payload to every live session of userID. Never
// returns an error; callers must not couple their primary operation to live
// delivery.
func (e *Emitter) EmitToUser(ctx context.Context, userID, event string, payload any) {
	err := e.breaker.Execute(func() error {
		return e.emit(ctx, userID, event, payload)
	})
	if err != nil {
		e.logger.Warn("Could not reach realtime service",
			zap.String("user_id", userID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (e *Emitter) emit(ctx context.Context, userID, event string, payload any) error {
	body, err := json.Marshal(EmitRequest{
		UserID:  userID,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("marshal emit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/emit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build emit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-internal-token", e.secret)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("emit returned status %d", resp.StatusCode)
	}

	var parsed EmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode emit response: %w", err)
	}

	if parsed.Delivered {
		e.logger.Info("Delivered live event",
			zap.String("user_id", userID),
			zap.String("event", event),
			zap.Int("sessions", parsed.ConnectedSessionCount),
		)
	} else {
		e.logger.Info("User not connected, event not delivered live",
			zap.String("user_id", userID),
			zap.String("event", event),
		)
	}

	return nil
}
