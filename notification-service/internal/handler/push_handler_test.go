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

	"decp/notification-service/internal/model"
	"decp/pkg/pubsub"
)

const testToken = "push-token"

type fakeStore struct {
	inserted []model.Notification
	err      error
}

func (f *fakeStore) Insert(_ context.Context, n model.Notification) (model.Notification, error) {
	if f.err != nil {
		return model.Notification{}, f.err
	}
	n.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, n)
	return n, nil
}

// fakeDeduper treats every id in seen as already handled.
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

type fakeEmitter struct {
	calls []string
}

func (f *fakeEmitter) EmitToUser(_ context.Context, userID, event string, _ any) {
	f.calls = append(f.calls, userID+"/"+event)
}

func newPushRouter(store *fakeStore, dedup *fakeDeduper, emitter *fakeEmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPushHandler(testToken, store, dedup, emitter, zap.NewNop())
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
	store := &fakeStore{}
	r := newPushRouter(store, &fakeDeduper{}, &fakeEmitter{})

	body := pushEnvelope(t, map[string]string{
		"type": "decp.post.liked", "postId": "p1", "authorId": "a1", "likerId": "l1",
	}, "m1", "decp-notification-like-sub")

	w := doPush(r, "wrong", body)
	assert.Equal(t, 403, w.Code)
	assert.Empty(t, store.inserted)

	w = doPush(r, "", body)
	assert.Equal(t, 403, w.Code)
}

func TestPushRejectsMalformedEnvelope(t *testing.T) {
	store := &fakeStore{}
	r := newPushRouter(store, &fakeDeduper{}, &fakeEmitter{})

	for _, body := range []string{
		`not json`,
		`{"subscription":"s"}`,
		`{"message":{},"subscription":"s"}`,
	} {
		w := doPush(r, testToken, body)
		assert.Equal(t, 400, w.Code, "body: %s", body)
	}
	assert.Empty(t, store.inserted)
}

func TestPushCreatesNotificationAndEmitsLive(t *testing.T) {
	store := &fakeStore{}
	emitter := &fakeEmitter{}
	r := newPushRouter(store, &fakeDeduper{}, emitter)

	body := pushEnvelope(t, map[string]string{
		"type": "decp.post.liked", "postId": "p1", "authorId": "author", "likerId": "fan",
	}, "m1", "decp-notification-like-sub")

	w := doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "author", store.inserted[0].RecipientID)
	assert.Equal(t, "post_like", store.inserted[0].Type)
	assert.Equal(t, []string{"author/notification"}, emitter.calls)
}

func TestPushAcksUnknownEventType(t *testing.T) {
	store := &fakeStore{}
	r := newPushRouter(store, &fakeDeduper{}, &fakeEmitter{})

	body := pushEnvelope(t, map[string]string{"something": "else"}, "m1", "no-such-sub")

	w := doPush(r, testToken, body)
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, store.inserted)
}

func TestPushAcksSelfLikeWithoutNotification(t *testing.T) {
	store := &fakeStore{}
	emitter := &fakeEmitter{}
	r := newPushRouter(store, &fakeDeduper{}, emitter)

	body := pushEnvelope(t, map[string]string{
		"type": "decp.post.liked", "postId": "p1", "authorId": "author", "likerId": "author",
	}, "m1", "decp-notification-like-sub")

	w := doPush(r, testToken, body)
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, store.inserted)
	assert.Empty(t, emitter.calls)
}

func TestPushDeduplicatesRedelivery(t *testing.T) {
	store := &fakeStore{}
	r := newPushRouter(store, &fakeDeduper{}, &fakeEmitter{})

	body := pushEnvelope(t, map[string]string{
		"type": "decp.job.applied", "jobId": "j1", "posterId": "recruiter", "applicantId": "s1",
	}, "m1", "decp-notification-applied-sub")

	w := doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	w = doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)

	assert.Len(t, store.inserted, 1)
}

func TestPushReturns500OnStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	r := newPushRouter(store, &fakeDeduper{}, &fakeEmitter{})

	body := pushEnvelope(t, map[string]string{
		"type": "decp.event.rsvp", "eventId": "e1", "creatorId": "c1", "attendeeId": "a1",
	}, "m1", "decp-notification-rsvp-sub")

	w := doPush(r, testToken, body)
	assert.Equal(t, 500, w.Code)
}

func TestPushRedeliveryAfterStoreFailureStillCreatesNotification(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	r := newPushRouter(store, &fakeDeduper{}, &fakeEmitter{})

	body := pushEnvelope(t, map[string]string{
		"type": "decp.post.liked", "postId": "p1", "authorId": "author", "likerId": "fan",
	}, "m1", "decp-notification-like-sub")

	// First delivery fails at the store; the broker will redeliver.
	w := doPush(r, testToken, body)
	require.Equal(t, 500, w.Code)
	require.Empty(t, store.inserted)

	// The store recovers; the redelivery of the same messageId must not be
	// treated as a duplicate of the failed attempt.
	store.err = nil
	w = doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "author", store.inserted[0].RecipientID)

	// A further redelivery is now a real duplicate.
	w = doPush(r, testToken, body)
	require.Equal(t, 204, w.Code)
	assert.Len(t, store.inserted, 1)
}
