package tldv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithHost(srv.URL))
}

func TestListMeetings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "/meetings", r.URL.Path)
		assert.Equal(t, "standup", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"id": "m-1", "name": "Daily standup", "happenedAt": "2026-08-20T09:00:00Z"},
			},
		})
	})

	meetings, err := client.ListMeetings(context.Background(), "standup", 5)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "m-1", meetings[0].ID)
	assert.Equal(t, "Daily standup", meetings[0].Name)
}

func TestGetTranscript(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meetings/m-1/transcript", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"speaker": "Alice", "text": "hello", "startTime": 1.5},
			},
		})
	})

	entries, err := client.GetTranscript(context.Background(), "m-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alice", entries[0].Speaker)
	assert.Equal(t, 1.5, entries[0].StartTime)
}

func TestNonOKStatusIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "invalid api key"}`))
	})

	_, err := client.GetMeeting(context.Background(), "m-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid api key")
}
