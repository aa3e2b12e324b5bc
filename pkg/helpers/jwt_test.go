package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("a-secret", "r-secret", time.Minute, time.Hour)

	access, exp, err := m.GenerateAccessToken("u1", "admin", "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "sid-1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token must not validate with the refresh secret")
}

func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("a", "r", -time.Second, time.Hour)
	tok, _, err := m.GenerateAccessToken("u1", "user", "s")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}
