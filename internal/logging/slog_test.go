package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeUser(t *testing.T) {
	hash := AnonymizeUser("user-1")
	assert.True(t, strings.HasPrefix(hash, "user:"))
	assert.NotContains(t, hash, "user-1")
	assert.Len(t, hash, len("user:")+16)

	// Stable for correlation, distinct across users.
	assert.Equal(t, hash, AnonymizeUser("user-1"))
	assert.NotEqual(t, hash, AnonymizeUser("user-2"))

	assert.Empty(t, AnonymizeUser(""))
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	got := SanitizeToken("super-secret-token")
	assert.Equal(t, "[token:18 chars]", got)
	assert.NotContains(t, got, "super")
}

func TestErrNilIsOmittable(t *testing.T) {
	attr := Err(nil)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())
	assert.Empty(t, attr.Value.Group())

	attr = Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())
}
