package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	secret := []byte("super-secret")
	userID := "user-123"

	tok, err := GenerateToken(userID, secret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)
	assert.Equal(t, userID, tok.UserID)
	assert.Equal(t, time.Hour, tok.ExpiresAt.Sub(tok.IssuedAt))

	claims, err := ParseToken(tok.Value, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, tok.ID, claims.ID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.True(t, claims.ExpiresAt.Time.Equal(tok.ExpiresAt))

	gotUserID, err := GetUserIDFromToken(tok.Value, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUserID)
}

func TestGenerateToken_UniqueIDs(t *testing.T) {
	a, err := GenerateToken("u", []byte("k"), time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken("u", []byte("k"), time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("secret")

	tok, err := GenerateToken("u1", secret, -1*time.Second)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(tok.Value, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_ExpiresWithClock(t *testing.T) {
	secret := []byte("secret")
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	orig := now
	t.Cleanup(func() { now = orig })

	now = func() time.Time { return base }
	tok, err := GenerateToken("u1", secret, time.Minute)
	require.NoError(t, err)

	now = func() time.Time { return base.Add(30 * time.Second) }
	_, err = ParseToken(tok.Value, secret)
	require.NoError(t, err)

	now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = ParseToken(tok.Value, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("u2", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok.Value, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_MalformedString(t *testing.T) {
	_, err := ParseToken("not.a.jwt", []byte("k"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = ParseToken("", []byte("k"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("k")
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			ID:        "id",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: TokenTypeAccess,
	})
	s, err := token.SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(s, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RequiresClaims(t *testing.T) {
	secret := []byte("k")
	sign := func(c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	_, err := ParseToken(sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ID: "i"}, TokenType: TokenTypeAccess}), secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "missing exp")

	_, err = ParseToken(sign(Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "i", ExpiresAt: exp}, TokenType: TokenTypeAccess}), secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "missing sub")

	_, err = ParseToken(sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ID: "i", ExpiresAt: exp}, TokenType: "refresh"}), secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "wrong purpose")
}
