package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/amato-app/accounts/internal/auth"
	"github.com/amato-app/accounts/internal/models"
)

func newTestTokenService(t *testing.T) *iauth.TokenService {
	t.Helper()

	svc, err := iauth.NewTokenService(iauth.Config{
		Issuer:     "test-suite",
		Activation: iauth.SecretTTL{Secret: "activation-secret", TTL: 5 * time.Minute},
		Access:     iauth.SecretTTL{Secret: "access-secret", TTL: time.Minute},
		Refresh:    iauth.SecretTTL{Secret: "refresh-secret", TTL: time.Hour},
	})
	require.NoError(t, err)
	return svc
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := newTestTokenService(t)
	pair, err := tokens.IssueSessionPair(&models.User{ID: "user-123", Email: "user@example.com"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", Auth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(CtxUserIDKey)})
	})

	// Missing Authorization header -> 401
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Refresh tokens are not access tokens
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	// Valid token -> downstream handler executes
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Equal(t, "user-123", payload["user_id"])
}
