package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"decp/pkg/pubsub"
)

const testToken = "push-token"

type fakeMetricStore struct {
	counters map[string]int64
	err      error
}

func (f *fakeMetricStore) Increment(_ context.Context, key string, amount int64) error {
	if f.err != nil {
		return f.err
	}
	if f.counters == nil {
		f.counters = make(map[string]int64)
	}
	f.counters[key] += amount
	return nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) AcquireOnce(_ context.Context, _, messageID string) bool {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[messageID] {
		return false
	}
	f.seen[messageID] = true
	return true
}

func (f *fakeDeduper) Release(_ context.Context, _, messageID string) {
	delete(f.seen, messageID)
}

func newPushRouter(store *fakeMetricStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPushHandler(testToken, store, &fakeDeduper{}, zap.NewNop())
	r.POST("/pubsub/push", h.HandlePush)
	return r
}

func pushEnvelope(t *testing.T, payload any, messageID, subscription string) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	body, err := json.Marshal(pubsub.PushRequest{
		Message: pubsub.Message{
			Data:      data,
			MessageID: messageID,
		},
		Subscription: pubsub.SubscriptionPath("dummy-project", subscription),
	})
	require.NoError(t, err)
	return string(body)
}

func doPush(r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	url := "/pubsub/push"
	if token != "" {
		url += "?token=" + token
	}
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPushRejectsBadToken(t *testing.T) {
	store := &fakeMetricStore{}
	r := newPushRouter(store)

	body := pushEnvelope(t, map[string]string{"type": "decp.user.registered", "userId": "u1"}, "m1", "decp-analytics-user-sub")

	w := doPush(r, "wrong", body)
	assert.Equal(t, 403, w.Code)
	assert.Empty(t, store.counters)
}

func TestPushRejectsMalformedEnvelope(t *testing.T) {
	store := &fakeMetricStore{}
	r := newPushRouter(store)

	for _, body := range []string{`not json`, `{"message":{},"subscription":"s"}`} {
		w := doPush(r, testToken, body)
		assert.Equal(t, 400, w.Code, "body: %s", body)
	}
}

func TestPushIncrementsMappedCounter(t *testing.T) {
	cases := []struct {
		eventType    string
		subscription string
		counter      string
	}{
		{"decp.user.registered", "decp-analytics-user-sub", "totalUsers"},
		{"decp.post.created", "decp-analytics-post-sub", "totalPosts"},
		{"decp.post.liked", "decp-analytics-like-sub", "totalLikes"},
		{"decp.job.posted", "decp-analytics-job-sub", "totalJobsPosted"},
		{"decp.job.applied", "decp-analytics-applied-sub", "totalApplications"},
		{"decp.event.created", "decp-analytics-event-sub", "totalEvents"},
		{"decp.event.rsvp", "decp-analytics-rsvp-sub", "totalRSVPs"},
	}

	store := &fakeMetricStore{}
	r := newPushRouter(store)

	for i, tc := range cases {
		body := pushEnvelope(t, map[string]string{"type": tc.eventType}, "m"+tc.counter, tc.subscription)
		w := doPush(r, testToken, body)
		require.Equal(t, 204, w.Code, "case %d", i)
		assert.Equal(t, int64(1), store.counters[tc.counter], "counter %s", tc.counter)
	}
	assert.Len(t, store.counters, len(cases))
}

func TestPushResolvesTypeFromSubscriptionName(t *testing.T) {
	store := &fakeMetricStore{}
	r := newPushRouter(store)

	// Payload with no type field; only the subscription identifies the event.
	body := pushEnvelope(t, map[string]string{"postId": "p1"}, "m1", "decp-analytics-like-sub")

	w := doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	assert.Equal(t, int64(1), store.counters["totalLikes"])
}

func TestPushAcksUnknownEventType(t *testing.T) {
	store := &fakeMetricStore{}
	r := newPushRouter(store)

	body := pushEnvelope(t, map[string]string{"x": "y"}, "m1", "no-such-sub")

	w := doPush(r, testToken, body)
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, store.counters)
}

func TestPushDoesNotDoubleCountRedelivery(t *testing.T) {
	store := &fakeMetricStore{}
	r := newPushRouter(store)

	body := pushEnvelope(t, map[string]string{"type": "decp.post.liked"}, "m1", "decp-analytics-like-sub")

	w := doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	w = doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)

	assert.Equal(t, int64(1), store.counters["totalLikes"])
}

func TestPushReturns500OnStoreFailure(t *testing.T) {
	store := &fakeMetricStore{err: errors.New("db down")}
	r := newPushRouter(store)

	body := pushEnvelope(t, map[string]string{"type": "decp.post.liked"}, "m1", "decp-analytics-like-sub")

	w := doPush(r, testToken, body)
	assert.Equal(t, 500, w.Code)
}

func TestPushRedeliveryAfterStoreFailureStillCounts(t *testing.T) {
	store := &fakeMetricStore{err: errors.New("db down")}
	r := newPushRouter(store)

	body := pushEnvelope(t, map[string]string{"type": "decp.post.liked"}, "m1", "decp-analytics-like-sub")

	// First delivery fails at the store; the broker will redeliver.
	w := doPush(r, testToken, body)
	require.Equal(t, 500, w.Code)
	assert.Empty(t, store.counters)

	// The store recovers; the redelivery must still be counted.
	store.err = nil
	w = doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	assert.Equal(t, int64(1), store.counters["totalLikes"])

	// A further redelivery is a real duplicate and must not double-count.
	w = doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	assert.Equal(t, int64(1), store.counters["totalLikes"])
}
