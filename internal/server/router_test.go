package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionKey(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		userID  string
		apiKey  string
	}{
		{name: "bare user id", encoded: "user-1", userID: "user-1"},
		{name: "user id with api key", encoded: "user-1:key-abc", userID: "user-1", apiKey: "key-abc"},
		{
			name:    "api key containing colons",
			encoded: "user-1:sk:live:xyz",
			userID:  "user-1",
			apiKey:  "sk:live:xyz",
		},
		{name: "empty", encoded: "", userID: ""},
		{name: "leading colon yields empty user", encoded: ":key", userID: "", apiKey: "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ParseSessionKey(tt.encoded)
			assert.Equal(t, tt.userID, key.UserID)
			assert.Equal(t, tt.apiKey, key.APIKey)
		})
	}
}

func stubFactory(name string) (Factory, *[]SessionKey) {
	var calls []SessionKey
	factory := func(userID, apiKey string) (*mcpserver.MCPServer, error) {
		calls = append(calls, SessionKey{UserID: userID, APIKey: apiKey})
		return mcpserver.NewMCPServer(name, ConnectorVersion), nil
	}
	return factory, &calls
}

func newTestRouter(defs ...Definition) *Router {
	return NewRouter(NewRegistry(defs, nil))
}

func TestRouterUnknownServiceIs404(t *testing.T) {
	factory, calls := stubFactory("gmail")
	router := newTestRouter(Definition{Name: "gmail", Factory: factory})

	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notion/user-1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, *calls)
}

func TestRouterMissingSessionKeyIs404(t *testing.T) {
	factory, calls := stubFactory("gmail")
	router := newTestRouter(Definition{Name: "gmail", Factory: factory})

	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, *calls)
}

func TestRouterConstructsFreshServerPerRequest(t *testing.T) {
	factory, calls := stubFactory("gmail")
	router := newTestRouter(Definition{Name: "gmail", Factory: factory})
	handler := router.Handler()

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/gmail/user-1:key-a", nil))
	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/gmail/user-2", nil))

	require.Len(t, *calls, 2)
	assert.Equal(t, SessionKey{UserID: "user-1", APIKey: "key-a"}, (*calls)[0])
	assert.Equal(t, SessionKey{UserID: "user-2"}, (*calls)[1])
}

func TestRouterFactoryErrorIs500(t *testing.T) {
	router := newTestRouter(Definition{
		Name: "gmail",
		Factory: func(userID, apiKey string) (*mcpserver.MCPServer, error) {
			return nil, errors.New("broker unreachable")
		},
	})

	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gmail/user-1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouterRootAndHealthEndpoints(t *testing.T) {
	factoryA, _ := stubFactory("slack")
	factoryB, _ := stubFactory("gmail")
	router := newTestRouter(
		Definition{Name: "slack", Factory: factoryA},
		Definition{Name: "gmail", Factory: factoryB},
	)
	handler := router.Handler()

	for _, path := range []string{"/", "/health_check"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "stateless", resp.Mode)
		assert.Equal(t, []string{"gmail", "slack"}, resp.Servers)
	}
}
