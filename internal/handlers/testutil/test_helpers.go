package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amato-app/accounts/internal/api"
	"github.com/amato-app/accounts/internal/app"
	iauth "github.com/amato-app/accounts/internal/auth"
	sharedtestutil "github.com/amato-app/accounts/internal/database/testutil"
	"github.com/amato-app/accounts/internal/services"
	"github.com/amato-app/accounts/pkg/response"
)

// SentMail records a single dispatched template email.
type SentMail struct {
	To       string
	Template string
	Data     map[string]any
}

// CaptureDispatcher collects dispatched mail instead of sending it.
type CaptureDispatcher struct {
	mu   sync.Mutex
	sent []SentMail
}

func (d *CaptureDispatcher) Dispatch(_ context.Context, to, template string, data map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, SentMail{To: to, Template: template, Data: data})
	return nil
}

// Last returns the most recently dispatched mail.
func (d *CaptureDispatcher) Last(t *testing.T) SentMail {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.sent, "no mail dispatched")
	return d.sent[len(d.sent)-1]
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Tokens *iauth.TokenService
	Mail   *CaptureDispatcher
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t)

	tokens, err := iauth.NewTokenService(iauth.Config{
		Issuer:     "test-suite",
		Activation: iauth.SecretTTL{Secret: "test-activation-secret", TTL: 5 * time.Minute},
		Access:     iauth.SecretTTL{Secret: "test-access-secret", TTL: time.Hour},
		Refresh:    iauth.SecretTTL{Secret: "test-refresh-secret", TTL: 24 * time.Hour},
	})
	require.NoError(t, err)

	capture := &CaptureDispatcher{}

	accountSvc, err := services.NewAccountService(db, tokens, capture)
	require.NoError(t, err)

	cfg := &app.Config{}

	router, err := api.NewRouter(db, tokens, accountSvc, cfg)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		Tokens: tokens,
		Mail:   capture,
	}
}

// RegisterInput is the JSON payload for POST /api/accounts/register.
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// UniqueRegisterInput returns a registration payload with collision-free
// email and phone number values.
func UniqueRegisterInput() RegisterInput {
	id := uuid.NewString()
	return RegisterInput{
		Name:        "Test User",
		Email:       "user-" + id + "@example.com",
		Password:    "Sup3rS3cret!",
		PhoneNumber: "+1" + id[:10],
	}
}

// Register submits a registration and returns the issued activation token.
func (e *Env) Register(input RegisterInput) string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/accounts/register", input, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var data struct {
		ActivationToken string `json:"activation_token"`
	}
	DecodeInto(e.T, resp.Data, &data)
	require.NotEmpty(e.T, data.ActivationToken)
	return data.ActivationToken
}

// SentCode extracts the activation code from the most recent captured email.
func (e *Env) SentCode() string {
	e.T.Helper()

	mail := e.Mail.Last(e.T)
	code, ok := mail.Data["activation_code"].(string)
	require.True(e.T, ok, "activation email carries no code")
	require.Len(e.T, code, 4)
	return code
}

// UserPayload captures the user fields returned by account endpoints.
type UserPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	User         *UserPayload `json:"user"`
	AccessToken  *string      `json:"access_token"`
	RefreshToken *string      `json:"refresh_token"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
