package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"decp/notification-service/internal/model"
)

// fakeReader serves notifications from a slice ordered newest first.
type fakeReader struct {
	byRecipient map[string][]model.Notification
}

func (f *fakeReader) ListByRecipient(_ context.Context, recipientID string, cursor int64, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.byRecipient[recipientID] {
		if cursor != 0 && n.ID >= cursor {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReader) MarkRead(_ context.Context, id int64, recipientID string) (*model.Notification, error) {
	for i, n := range f.byRecipient[recipientID] {
		if n.ID == id {
			f.byRecipient[recipientID][i].IsRead = true
			return &f.byRecipient[recipientID][i], nil
		}
	}
	return nil, nil
}

func seededReader(recipientID string, count int) *fakeReader {
	items := make([]model.Notification, 0, count)
	for id := count; id >= 1; id-- {
		items = append(items, model.Notification{
			ID:          int64(id),
			RecipientID: recipientID,
			Type:        "post_like",
			Content:     "Someone liked your post.",
		})
	}
	return &fakeReader{byRecipient: map[string][]model.Notification{recipientID: items}}
}

func newRestRouter(store NotificationReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewNotificationHandler(store, zap.NewNop())
	r.GET("/api/v1/notifications", h.List)
	r.PUT("/api/v1/notifications/:id/read", h.MarkRead)
	return r
}

type listResponse struct {
	Success    bool                 `json:"success"`
	Data       []model.Notification `json:"data"`
	NextCursor *int64               `json:"nextCursor"`
}

func getList(t *testing.T, r *gin.Engine, userID, query string) (int, listResponse) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/v1/notifications"+query, nil)
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp listResponse
	if w.Code == 200 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func TestListRequiresIdentityHeader(t *testing.T) {
	r := newRestRouter(seededReader("u1", 3))

	code, _ := getList(t, r, "", "")
	assert.Equal(t, 401, code)
}

func TestListFirstPage(t *testing.T) {
	r := newRestRouter(seededReader("u1", 5))

	code, resp := getList(t, r, "u1", "?limit=3")
	require.Equal(t, 200, code)
	require.Len(t, resp.Data, 3)

	// Newest first.
	assert.Equal(t, int64(5), resp.Data[0].ID)
	assert.Equal(t, int64(3), resp.Data[2].ID)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, int64(3), *resp.NextCursor)
}

func TestListPaginatesToTheEnd(t *testing.T) {
	r := newRestRouter(seededReader("u1", 5))

	code, page1 := getList(t, r, "u1", "?limit=3")
	require.Equal(t, 200, code)
	require.NotNil(t, page1.NextCursor)

	code, page2 := getList(t, r, "u1", fmt.Sprintf("?limit=3&cursor=%d", *page1.NextCursor))
	require.Equal(t, 200, code)
	require.Len(t, page2.Data, 2)
	assert.Equal(t, int64(2), page2.Data[0].ID)
	assert.Equal(t, int64(1), page2.Data[1].ID)
	assert.Nil(t, page2.NextCursor)
}

func TestListRejectsBadParams(t *testing.T) {
	r := newRestRouter(seededReader("u1", 1))

	for _, query := range []string{"?limit=0", "?limit=51", "?limit=abc", "?cursor=0", "?cursor=x"} {
		code, _ := getList(t, r, "u1", query)
		assert.Equal(t, 400, code, "query: %s", query)
	}
}

func TestListDoesNotLeakOtherRecipients(t *testing.T) {
	r := newRestRouter(seededReader("u1", 3))

	code, resp := getList(t, r, "u2", "")
	require.Equal(t, 200, code)
	assert.Empty(t, resp.Data)
}

func TestMarkRead(t *testing.T) {
	store := seededReader("u1", 2)
	r := newRestRouter(store)

	req := httptest.NewRequest("PUT", "/api/v1/notifications/2/read", nil)
	req.Header.Set("x-user-id", "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    model.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsRead)
	assert.Equal(t, int64(2), resp.Data.ID)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	r := newRestRouter(seededReader("u1", 2))

	// Another user cannot ack someone else's notification.
	req := httptest.NewRequest("PUT", "/api/v1/notifications/2/read", nil)
	req.Header.Set("x-user-id", "intruder")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestMarkReadBadID(t *testing.T) {
	r := newRestRouter(seededReader("u1", 1))

	for _, id := range []string{"abc", "0", "-4"} {
		req := httptest.NewRequest("PUT", "/api/v1/notifications/"+id+"/read", nil)
		req.Header.Set("x-user-id", "u1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, "id: %s", id)
	}
}
