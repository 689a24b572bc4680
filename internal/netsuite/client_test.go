package netsuite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumloop/gumcp/internal/auth"
)

func testCreds() *auth.TBACredentials {
	return &auth.TBACredentials{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tid",
		TokenSecret:    "ts",
		AccountID:      "1234567_SB1",
	}
}

func TestNewClientDerivesHostFromAccountID(t *testing.T) {
	client, err := NewClient(testCreds())
	require.NoError(t, err)
	assert.Equal(t, "https://1234567-sb1.suitetalk.api.netsuite.com", client.host)
	assert.Equal(t, "1234567_SB1", client.signer.realm)
}

func TestNewClientRequiresAccountID(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	creds := testCreds()
	creds.AccountID = ""
	_, err = NewClient(creds)
	assert.Error(t, err)
}

func TestSuiteQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/rest/query/v1/suiteql", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "transient", r.Header.Get("Prefer"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), `OAuth realm="1234567_SB1"`))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SELECT id FROM transaction", body["q"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":        []map[string]any{{"id": "42"}},
			"count":        1,
			"totalResults": 1,
			"hasMore":      false,
		})
	}))
	defer srv.Close()

	client, err := NewClient(testCreds(), WithHost(srv.URL))
	require.NoError(t, err)

	result, err := client.SuiteQL(context.Background(), "SELECT id FROM transaction", 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "42", result.Items[0]["id"])
	assert.False(t, result.HasMore)
}

func TestGetRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/rest/record/v1/salesorder/99", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "99", "status": "Pending"})
	}))
	defer srv.Close()

	client, err := NewClient(testCreds(), WithHost(srv.URL))
	require.NoError(t, err)

	record, err := client.GetRecord(context.Background(), "SalesOrder", "99")
	require.NoError(t, err)
	assert.Equal(t, "Pending", record["status"])
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"title": "Invalid query"}`))
	}))
	defer srv.Close()

	client, err := NewClient(testCreds(), WithHost(srv.URL))
	require.NoError(t, err)

	_, err = client.SuiteQL(context.Background(), "garbage", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "Invalid query")
}
