// Package pubsub implements the platform's topic/subscription broker
// abstraction on top of the events exchange: a best-effort publish client for
// producers, the push envelope exchanged with consumers, and idempotent
// topology provisioning.
package pubsub

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Message is the inner message of a push request. Data is the raw event
// payload; encoding/json carries []byte as base64, which is exactly the wire
// format consumers expect.
type Message struct {
	Data        []byte            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime time.Time         `json:"publishTime,omitzero"`
}

// PushRequest is the JSON body POSTed to a subscription's push endpoint.
type PushRequest struct {
	Message      Message `json:"message"`
	Subscription string  `json:"subscription"`
}

// ErrInvalidEnvelope marks a push request that is structurally unusable
// (missing message data). Consumers respond 400 so the broker does not retry.
var ErrInvalidEnvelope = errors.New("invalid push envelope: missing message data")

// Validate checks the envelope is structurally sound.
func (p *PushRequest) Validate() error {
	if len(p.Message.Data) == 0 {
		return ErrInvalidEnvelope
	}
	return nil
}

// SubscriptionName extracts the bare subscription name from the full
// "projects/<project>/subscriptions/<name>" path.
func (p *PushRequest) SubscriptionName() string {
	parts := strings.Split(p.Subscription, "/")
	return parts[len(parts)-1]
}

// SubscriptionPath builds the full subscription path carried in push requests.
func SubscriptionPath(project, name string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", project, name)
}
