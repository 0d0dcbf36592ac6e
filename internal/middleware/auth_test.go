package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/branchops/expense-service/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, subject string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware_ValidTokenExposesUserID(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}

	var gotID string
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/expenses/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.JWTSecret, "42"))
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, "42", gotID)
}

func TestAuthMiddleware_MissingHeaderRejected(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/expenses/1", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongSecretRejected(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/expenses/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "42"))
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserID_AbsentFromPlainContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	_, ok := UserID(req.Context())
	assert.False(t, ok)
}
