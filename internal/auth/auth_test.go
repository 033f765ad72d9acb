package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	tok, err := issuer.Generate("u1", "a@example.com", "user")
	require.NoError(t, err)

	claims, err := issuer.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)

	_, err = NewTokenIssuer("other", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	issuer.ttl = -time.Minute
	tok, err := issuer.Generate("u1", "a@example.com", "user")
	require.NoError(t, err)

	_, err = issuer.Validate(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter2", hash))
	assert.False(t, CheckPassword("hunter3", hash))
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	var seen *Claims
	h := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := issuer.Generate("u1", "a@example.com", "user")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
}
