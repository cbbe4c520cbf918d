// Package events is the canonical schema for domain events flowing through the
// pub/sub pipeline. Producers and consumers share these definitions so the
// publish side and the mapping side cannot drift apart.
package events

import (
	"encoding/json"
	"strings"
)

// Type identifies an event kind. Topic names double as event types: every
// producer publishes exactly one type per topic.
type Type string

const (
	TypeUserRegistered Type = "decp.user.registered"
	TypePostCreated    Type = "decp.post.created"
	TypePostLiked      Type = "decp.post.liked"
	TypeJobPosted      Type = "decp.job.posted"
	TypeJobApplied     Type = "decp.job.applied"
	TypeEventCreated   Type = "decp.event.created"
	TypeEventRSVP      Type = "decp.event.rsvp"

	// TypeUnknown marks an event whose type could not be resolved from the
	// payload, message attributes, or subscription name. Consumers acknowledge
	// and drop these instead of retrying forever.
	TypeUnknown Type = ""
)

// Topics lists every topic the platform publishes to.
var Topics = []string{
	string(TypeUserRegistered),
	string(TypePostCreated),
	string(TypePostLiked),
	string(TypeJobPosted),
	string(TypeJobApplied),
	string(TypeEventCreated),
	string(TypeEventRSVP),
}

// subscriptionTypes maps a subscription name to the event type carried on its
// bound topic. Used as a last-resort fallback when neither the payload nor the
// message attributes carry a type.
var subscriptionTypes = map[string]Type{
	"decp-notification-post-sub":    TypePostCreated,
	"decp-notification-like-sub":    TypePostLiked,
	"decp-notification-job-sub":     TypeJobPosted,
	"decp-notification-applied-sub": TypeJobApplied,
	"decp-notification-event-sub":   TypeEventCreated,
	"decp-notification-rsvp-sub":    TypeEventRSVP,

	"decp-analytics-user-sub":    TypeUserRegistered,
	"decp-analytics-post-sub":    TypePostCreated,
	"decp-analytics-like-sub":    TypePostLiked,
	"decp-analytics-job-sub":     TypeJobPosted,
	"decp-analytics-applied-sub": TypeJobApplied,
	"decp-analytics-event-sub":   TypeEventCreated,
	"decp-analytics-rsvp-sub":    TypeEventRSVP,
}

type UserRegisteredPayload struct {
	Type   Type   `json:"type"`
	UserID string `json:"userId"`
}

type PostCreatedPayload struct {
	Type     Type   `json:"type"`
	PostID   string `json:"postId"`
	AuthorID string `json:"authorId"`
}

type PostLikedPayload struct {
	Type     Type   `json:"type"`
	PostID   string `json:"postId"`
	AuthorID string `json:"authorId"`
	LikerID  string `json:"likerId"`
}

type JobPostedPayload struct {
	Type     Type   `json:"type"`
	JobID    string `json:"jobId"`
	PosterID string `json:"posterId"`
}

type JobAppliedPayload struct {
	Type        Type   `json:"type"`
	JobID       string `json:"jobId"`
	PosterID    string `json:"posterId"`
	ApplicantID string `json:"applicantId"`
}

type EventCreatedPayload struct {
	Type      Type   `json:"type"`
	EventID   string `json:"eventId"`
	CreatorID string `json:"creatorId"`
}

type EventRSVPPayload struct {
	Type       Type   `json:"type"`
	EventID    string `json:"eventId"`
	CreatorID  string `json:"creatorId"`
	AttendeeID string `json:"attendeeId"`
}

// Event is the decoded form of a pub/sub message: a closed union over the known
// payload kinds. Exactly one variant is non-nil for a known Type; all variants
// are nil when Type is TypeUnknown.
type Event struct {
	Type Type

	UserRegistered *UserRegisteredPayload
	PostCreated    *PostCreatedPayload
	PostLiked      *PostLikedPayload
	JobPosted      *JobPostedPayload
	JobApplied     *JobAppliedPayload
	EventCreated   *EventCreatedPayload
	EventRSVP      *EventRSVPPayload
}

// ResolveType determines the event type for a raw message using the three
// channels the push contract allows, in priority order: an explicit `type`
// field in the payload, the `eventType` message attribute, and finally the
// subscription-name lookup table. Returns TypeUnknown when none resolve.
func ResolveType(data []byte, attributes map[string]string, subscription string) Type {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err == nil && head.Type != "" {
		if isKnown(head.Type) {
			return head.Type
		}
	}

	if t := Type(attributes["eventType"]); t != "" && isKnown(t) {
		return t
	}

	// subscription arrives as "projects/<project>/subscriptions/<name>"
	if subscription != "" {
		parts := strings.Split(subscription, "/")
		name := parts[len(parts)-1]
		if t, ok := subscriptionTypes[name]; ok {
			return t
		}
	}

	return TypeUnknown
}

// Decode parses a raw payload into an Event of the given type. A TypeUnknown
// event decodes successfully to an empty union so consumers can acknowledge
// and drop it without special-casing.
func Decode(t Type, data []byte) (*Event, error) {
	ev := &Event{Type: t}

	var err error
	switch t {
	case TypeUserRegistered:
		ev.UserRegistered = &UserRegisteredPayload{}
		err = json.Unmarshal(data, ev.UserRegistered)
	case TypePostCreated:
		ev.PostCreated = &PostCreatedPayload{}
		err = json.Unmarshal(data, ev.PostCreated)
	case TypePostLiked:
		ev.PostLiked = &PostLikedPayload{}
		err = json.Unmarshal(data, ev.PostLiked)
	case TypeJobPosted:
		ev.JobPosted = &JobPostedPayload{}
		err = json.Unmarshal(data, ev.JobPosted)
	case TypeJobApplied:
		ev.JobApplied = &JobAppliedPayload{}
		err = json.Unmarshal(data, ev.JobApplied)
	case TypeEventCreated:
		ev.EventCreated = &EventCreatedPayload{}
		err = json.Unmarshal(data, ev.EventCreated)
	case TypeEventRSVP:
		ev.EventRSVP = &EventRSVPPayload{}
		err = json.Unmarshal(data, ev.EventRSVP)
	case TypeUnknown:
		// nothing to decode
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func isKnown(t Type) bool {
	switch t {
	case TypeUserRegistered, TypePostCreated, TypePostLiked,
		TypeJobPosted, TypeJobApplied, TypeEventCreated, TypeEventRSVP:
		return true
	}
	return false
}
