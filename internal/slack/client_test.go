package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *int) {
	t.Helper()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient("xoxb-test", slackapi.OptionAPIURL(srv.URL+"/")), &calls
}

func conversationsListHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations.list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ok": true,
			"channels": [
				{"id": "C0123456789", "name": "general", "is_private": false, "num_members": 12},
				{"id": "C0987654321", "name": "random", "is_private": false, "num_members": 7}
			],
			"response_metadata": {"next_cursor": ""}
		}`))
	})
}

func TestListChannelsPrimesCache(t *testing.T) {
	client, _ := newTestClient(t, conversationsListHandler(t))

	channels, err := client.ListChannels(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "general", channels[0].Name)
	assert.Equal(t, "C0123456789", client.channelCache["general"])
}

func TestResolveChannelIDPassThrough(t *testing.T) {
	// Resolving an explicit id never hits the API.
	client := NewClient("xoxb-test", slackapi.OptionAPIURL("http://slack.invalid/"))

	id, err := client.ResolveChannel(context.Background(), "C0123456789")
	require.NoError(t, err)
	assert.Equal(t, "C0123456789", id)
}

func TestResolveChannelByNameCachesLookup(t *testing.T) {
	client, calls := newTestClient(t, conversationsListHandler(t))

	id, err := client.ResolveChannel(context.Background(), "random")
	require.NoError(t, err)
	assert.Equal(t, "C0987654321", id)
	assert.Equal(t, 1, *calls)

	// Second resolution of any listed channel is served from the cache.
	id, err = client.ResolveChannel(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, "C0123456789", id)
	assert.Equal(t, 1, *calls)
}

func TestResolveChannelUnknownName(t *testing.T) {
	client, _ := newTestClient(t, conversationsListHandler(t))

	_, err := client.ResolveChannel(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveChannelEmpty(t *testing.T) {
	client := NewClient("xoxb-test")
	_, err := client.ResolveChannel(context.Background(), "")
	assert.Error(t, err)
}
