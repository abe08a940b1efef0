package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(testSecret, time.Hour)

	_, err := p.SignUp(ctx, "ann@example.com", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	u, err := p.SignUp(ctx, "Ann@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "ann", u.DisplayName)
	assert.False(t, u.IsAnonymous)

	_, err = p.SignUp(ctx, "ann@example.com", "another1")
	assert.ErrorIs(t, err, ErrEmailAlreadyInUse)

	_, err = p.SignInWithEmail(ctx, "ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignInWithEmail(ctx, "bob@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUserNotFound)

	again, err := p.SignInWithEmail(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestSessionTokensAndNotifications(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(testSecret, time.Hour)
	s := NewSession(p, nil)

	var states []SessionState
	unsubscribe := s.Subscribe(func(st SessionState) { states = append(states, st) })

	_, err := s.IDToken(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.False(t, s.IsAuthenticated())

	user, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.CurrentUser().IsAnonymous)

	token, err := s.IDToken(ctx)
	require.NoError(t, err)
	claims, err := ParseToken([]byte(testSecret), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.Anonymous)

	cached, err := s.IDToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, cached)

	cleared := false
	s.OnSignOut(func(context.Context) { cleared = true })
	s.SignOut(ctx)
	assert.True(t, cleared)
	assert.Nil(t, s.CurrentUser())

	require.Len(t, states, 2)
	assert.True(t, states[0].IsAuthenticated)
	assert.False(t, states[1].IsAuthenticated)

	unsubscribe()
	_, _ = s.SignInAnonymously(ctx)
	assert.Len(t, states, 2)
}

func TestSessionReissuesExpiringToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewLocalProvider(testSecret, 10*time.Minute)
	p.now = func() time.Time { return now }
	s := NewSession(p, nil)
	s.now = func() time.Time { return now }

	_, err := s.SignInAnonymously(ctx)
	require.NoError(t, err)
	first, err := s.IDToken(ctx)
	require.NoError(t, err)

	now = now.Add(9*time.Minute + 30*time.Second)
	second, err := s.IDToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := signToken([]byte("other"), &User{ID: "u1"}, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte(testSecret), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteAccountSignsOut(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(testSecret, time.Hour)
	s := NewSession(p, nil)

	assert.ErrorIs(t, s.DeleteAccount(ctx), ErrNotSignedIn)

	_, err := s.SignUp(ctx, "cy@example.com", "secret99")
	require.NoError(t, err)
	require.NoError(t, s.DeleteAccount(ctx))
	assert.False(t, s.IsAuthenticated())

	_, err = s.SignInWithEmail(ctx, "cy@example.com", "secret99")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
