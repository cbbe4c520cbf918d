package pubsub

import (
	"decp/contracts/events"
)

// Subscription binds one topic to one push endpoint. Many subscriptions may
// bind the same topic; each gets its own durable queue and its own copy of
// every message (fan-out).
type Subscription struct {
	// Topic is the routing key the subscription's queue is bound under.
	Topic string
	// Name is the subscription (and queue) name, unique per (topic, name).
	Name string
	// PushEndpoint is the consumer URL the delivery daemon POSTs envelopes to.
	PushEndpoint string
}

// DefaultSubscriptions returns the platform's standing topology: every
// user-facing event fans out to the notification consumer, every countable
// event to the analytics consumer.
func DefaultSubscriptions(notificationURL, analyticsURL string) []Subscription {
	notifPush := notificationURL + "/pubsub/push"
	analyticsPush := analyticsURL + "/pubsub/push"

	return []Subscription{
		{Topic: string(events.TypePostCreated), Name: "decp-notification-post-sub", PushEndpoint: notifPush},
		{Topic: string(events.TypePostLiked), Name: "decp-notification-like-sub", PushEndpoint: notifPush},
		{Topic: string(events.TypeJobPosted), Name: "decp-notification-job-sub", PushEndpoint: notifPush},
		{Topic: string(events.TypeJobApplied), Name: "decp-notification-applied-sub", PushEndpoint: notifPush},
		{Topic: string(events.TypeEventCreated), Name: "decp-notification-event-sub", PushEndpoint: notifPush},
		{Topic: string(events.TypeEventRSVP), Name: "decp-notification-rsvp-sub", PushEndpoint: notifPush},

		{Topic: string(events.TypeUserRegistered), Name: "decp-analytics-user-sub", PushEndpoint: analyticsPush},
		{Topic: string(events.TypePostCreated), Name: "decp-analytics-post-sub", PushEndpoint: analyticsPush},
		{Topic: string(events.TypePostLiked), Name: "decp-analytics-like-sub", PushEndpoint: analyticsPush},
		{Topic: string(events.TypeJobPosted), Name: "decp-analytics-job-sub", PushEndpoint: analyticsPush},
		{Topic: string(events.TypeJobApplied), Name: "decp-analytics-applied-sub", PushEndpoint: analyticsPush},
		{Topic: string(events.TypeEventCreated), Name: "decp-analytics-event-sub", PushEndpoint: analyticsPush},
		{Topic: string(events.TypeEventRSVP), Name: "decp-analytics-rsvp-sub", PushEndpoint: analyticsPush},
	}
}
