package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/credentials"
)

func TestCredentialsMissingSurfacesAdapterError(t *testing.T) {
	sess := NewSession("gmail", "user-1", "",
		factory.Config{Environment: "local", LocalDir: t.TempDir()}, nil)

	_, err := sess.Credentials(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrCredentialsMissing)
}

func TestInstrumentedPassesResultThrough(t *testing.T) {
	sess := NewSession("gmail", "user-1", "", factory.Config{}, nil)

	wrapped := sess.Instrumented("echo", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("hello"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestInstrumentedPreservesHandlerError(t *testing.T) {
	sess := NewSession("gmail", "user-1", "", factory.Config{}, nil)
	boom := errors.New("boom")

	wrapped := sess.Instrumented("fail", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, boom
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	assert.ErrorIs(t, err, boom)
}

func TestErrorResult(t *testing.T) {
	result := ErrorResult(errors.New("bad input"))
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
