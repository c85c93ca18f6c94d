package websocket

import (
	"testing"

	"soulart_auction/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}

	token, err := IssueToken(cfg, 42)
	require.NoError(t, err)

	claims, err := parseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, tokenPurpose, claims.Purpose)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(&config.Config{JWTSecret: "secret-a"}, 42)
	require.NoError(t, err)

	_, err = parseToken(&config.Config{JWTSecret: "secret-b"}, token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := parseToken(&config.Config{JWTSecret: "secret"}, "not-a-token")
	assert.Error(t, err)
}
