package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizarena/game"
)

func TestTokenService(t *testing.T) {
	req := require.New(t)
	svc, err := NewTokenService("test-secret", time.Hour)
	req.NoError(err)

	token, err := svc.Issue("ABC123", "player-1")
	req.NoError(err)

	claims, err := svc.Verify(token, "abc123")
	req.NoError(err)
	req.Equal("player-1", claims.PlayerID)
	req.Equal("ABC123", claims.GameID)

	t.Run("other game", func(t *testing.T) {
		_, err := svc.Verify(token, "XYZ789")
		require.ErrorIs(t, err, game.ErrInvalidToken)
		require.Equal(t, game.KindAuthorization, game.KindOf(err))
	})

	t.Run("expired", func(t *testing.T) {
		later, err := NewTokenService("test-secret", time.Hour)
		require.NoError(t, err)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = later.Verify(token, "ABC123")
		require.ErrorIs(t, err, game.ErrInvalidToken)
	})

	t.Run("forged", func(t *testing.T) {
		other, err := NewTokenService("another-secret", time.Hour)
		require.NoError(t, err)
		_, err = other.Verify(token, "ABC123")
		require.True(t, errors.Is(err, game.ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token", "ABC123")
		require.ErrorIs(t, err, game.ErrInvalidToken)
	})
}

func TestTokenService_RandomSecret(t *testing.T) {
	a, err := NewTokenService("", 0)
	require.NoError(t, err)
	b, err := NewTokenService("", 0)
	require.NoError(t, err)

	token, err := a.Issue("ABC123", "p")
	require.NoError(t, err)
	_, err = a.Verify(token, "ABC123")
	require.NoError(t, err)
	_, err = b.Verify(token, "ABC123")
	require.ErrorIs(t, err, game.ErrInvalidToken)
}
