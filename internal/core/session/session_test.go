package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDisplayNameFallback(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{name: "username first", claims: jwt.MapClaims{"username": "ali", "name": "Ali Khan"}, want: "ali"},
		{name: "name when username blank", claims: jwt.MapClaims{"username": " ", "name": "Ali Khan"}, want: "Ali Khan"},
		{name: "user claim", claims: jwt.MapClaims{"user": "sara"}, want: "sara"},
		{name: "email never shown", claims: jwt.MapClaims{"username": "ali@example.com"}, want: DefaultDisplayName},
		{name: "no name claims", claims: jwt.MapClaims{"email": "ali@example.com"}, want: DefaultDisplayName},
	}

	p := NewJWTIdentityProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := p.Identify(signToken(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.want, identity.DisplayName)
		})
	}
}

func TestIdentifySubject(t *testing.T) {
	p := NewJWTIdentityProvider()

	identity, err := p.Identify(signToken(t, jwt.MapClaims{"user_id": float64(42), "username": "ali"}))
	require.NoError(t, err)
	assert.Equal(t, "42", identity.Subject)

	identity, err = p.Identify(signToken(t, jwt.MapClaims{"sub": "u-7"}))
	require.NoError(t, err)
	assert.Equal(t, "u-7", identity.Subject)
}

func TestIdentifyRejectsGarbage(t *testing.T) {
	_, err := NewJWTIdentityProvider().Identify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestContextLifecycle(t *testing.T) {
	sess := NewContext(NewJWTIdentityProvider())
	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, Anonymous, sess.CurrentUser())

	token := signToken(t, jwt.MapClaims{"username": "ali", "user_id": float64(1)})
	require.NoError(t, sess.Init("Bearer "+token))

	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "ali", sess.CurrentUser())
	assert.Equal(t, "1", sess.Subject())
	assert.Equal(t, token, sess.Token())

	sess.Clear()
	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, Anonymous, sess.CurrentUser())
	assert.Empty(t, sess.Token())
	assert.Empty(t, sess.Subject())
}

func TestContextInitFailureLeavesSessionCleared(t *testing.T) {
	sess := NewContext(NewJWTIdentityProvider())
	require.NoError(t, sess.Init(signToken(t, jwt.MapClaims{"username": "ali"})))

	assert.Error(t, sess.Init("broken"))
	assert.False(t, sess.IsAuthenticated())
	assert.Empty(t, sess.Token())

	assert.ErrorIs(t, sess.Init(""), ErrInvalidToken)
}

func TestContextExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := NewContext(NewJWTIdentityProvider())
	sess.now = func() time.Time { return now }

	token := signToken(t, jwt.MapClaims{"username": "ali", "exp": now.Add(-time.Minute).Unix()})
	require.NoError(t, sess.Init(token))

	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, Anonymous, sess.CurrentUser())

	token = signToken(t, jwt.MapClaims{"username": "ali", "exp": now.Add(time.Hour).Unix()})
	require.NoError(t, sess.Init(token))
	assert.True(t, sess.IsAuthenticated())
}

func TestVerifyingProviderChecksSignature(t *testing.T) {
	p := NewVerifyingJWTIdentityProvider([]byte("test-secret"))

	identity, err := p.Identify(signToken(t, jwt.MapClaims{"username": "ali", "user_id": float64(7)}))
	require.NoError(t, err)
	assert.Equal(t, "7", identity.Subject)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(7)}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = p.Identify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": float64(7)}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = p.Identify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewVerifyingJWTIdentityProvider(nil).Identify(forged)
	assert.NoError(t, err)
}
