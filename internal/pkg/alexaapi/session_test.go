package alexaapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCSRF(t *testing.T) {
	s := NewSession("session-id=abc; csrf=deadbeef; ubid-main=123")
	assert.Equal(t, "deadbeef", s.CSRF())

	assert.Empty(t, NewSession("session-id=abc").CSRF())
}

func TestSessionSaveLoad(t *testing.T) {
	fileName := t.TempDir() + "/session.json"

	s := NewSession("session-id=abc; csrf=deadbeef")
	require.NoError(t, s.Save(fileName))

	var loaded Session
	require.NoError(t, loaded.Load(fileName))
	assert.Equal(t, s.Cookie, loaded.Cookie)

	// cookies never appear in the stringified form
	assert.NotContains(t, loaded.String(), "deadbeef")
}
