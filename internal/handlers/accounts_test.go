package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amato-app/accounts/internal/handlers/testutil"
)

func TestAccountHandler_RegisterActivateLogin(t *testing.T) {
	env := testutil.NewEnv(t)
	input := testutil.UniqueRegisterInput()

	token := env.Register(input)

	mail := env.Mail.Last(t)
	require.Equal(t, input.Email, mail.To)
	require.Equal(t, "activation", mail.Template)

	code := env.SentCode()
	require.NotContains(t, token, code)

	activate := env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token,
		"activation_code":  code,
	}, "")
	require.Equal(t, http.StatusCreated, activate.Code, activate.Body.String())

	activateResp := testutil.DecodeResponse(t, activate)
	require.True(t, activateResp.Success)
	var activated struct {
		User testutil.UserPayload `json:"user"`
	}
	testutil.DecodeInto(t, activateResp.Data, &activated)
	require.NotEmpty(t, activated.User.ID)
	require.Equal(t, input.Email, activated.User.Email)

	login := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    input.Email,
		"password": input.Password,
	}, "")
	require.Equal(t, http.StatusOK, login.Code, login.Body.String())

	var result testutil.LoginResult
	testutil.DecodeInto(t, testutil.DecodeResponse(t, login).Data, &result)
	require.Nil(t, result.Error)
	require.NotNil(t, result.User)
	require.Equal(t, activated.User.ID, result.User.ID)
	require.NotNil(t, result.AccessToken)
	require.NotNil(t, result.RefreshToken)

	me := env.Request(http.MethodGet, "/api/auth/me", nil, *result.AccessToken)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	var meUser testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, me).Data, &meUser)
	require.Equal(t, activated.User.ID, meUser.ID)
	require.Equal(t, input.Email, meUser.Email)
}

func TestAccountHandler_RegisterValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	payload := map[string]string{
		"name":     "Test User",
		"email":    "not-an-email",
		"password": "short",
	}
	resp := env.Request(http.MethodPost, "/api/accounts/register", payload, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	decoded := testutil.DecodeResponse(t, resp)
	require.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	require.Equal(t, "BAD_REQUEST", decoded.Error.Code)
	require.Contains(t, decoded.Error.Message, "email")
	require.Contains(t, decoded.Error.Message, "password")
}

func TestAccountHandler_RegisterConflicts(t *testing.T) {
	env := testutil.NewEnv(t)

	existing := testutil.UniqueRegisterInput()
	token := env.Register(existing)
	activate := env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token,
		"activation_code":  env.SentCode(),
	}, "")
	require.Equal(t, http.StatusCreated, activate.Code, activate.Body.String())

	dupEmail := testutil.UniqueRegisterInput()
	dupEmail.Email = existing.Email
	resp := env.Request(http.MethodPost, "/api/accounts/register", dupEmail, "")
	require.Equal(t, http.StatusConflict, resp.Code)
	decoded := testutil.DecodeResponse(t, resp)
	require.Equal(t, "CONFLICT", decoded.Error.Code)
	require.Equal(t, "email already exists", decoded.Error.Message)

	// When both collide, the phone number is reported.
	dupBoth := testutil.UniqueRegisterInput()
	dupBoth.Email = existing.Email
	dupBoth.PhoneNumber = existing.PhoneNumber
	resp = env.Request(http.MethodPost, "/api/accounts/register", dupBoth, "")
	require.Equal(t, http.StatusConflict, resp.Code)
	decoded = testutil.DecodeResponse(t, resp)
	require.Equal(t, "phone number already exists", decoded.Error.Message)
}

func TestAccountHandler_ActivateRejectsBadInput(t *testing.T) {
	env := testutil.NewEnv(t)

	token := env.Register(testutil.UniqueRegisterInput())
	code := env.SentCode()

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	resp := env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token,
		"activation_code":  wrong,
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "ACTIVATION_CODE_MISMATCH", testutil.DecodeResponse(t, resp).Error.Code)

	resp = env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token + "tampered",
		"activation_code":  code,
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, "INVALID_TOKEN", testutil.DecodeResponse(t, resp).Error.Code)

	// A non-numeric code never reaches the service.
	resp = env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token,
		"activation_code":  "abcd",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "BAD_REQUEST", testutil.DecodeResponse(t, resp).Error.Code)
}

func TestAccountHandler_LoginFailureIsUniform(t *testing.T) {
	env := testutil.NewEnv(t)

	input := testutil.UniqueRegisterInput()
	token := env.Register(input)
	activate := env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token,
		"activation_code":  env.SentCode(),
	}, "")
	require.Equal(t, http.StatusCreated, activate.Code)

	unknown := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody-" + input.Email,
		"password": input.Password,
	}, "")
	wrongPassword := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    input.Email,
		"password": "definitely-wrong",
	}, "")

	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, http.StatusOK, wrongPassword.Code)
	// Identical payloads: nothing distinguishes the two failure causes.
	require.JSONEq(t, unknown.Body.String(), wrongPassword.Body.String())

	var result testutil.LoginResult
	testutil.DecodeInto(t, testutil.DecodeResponse(t, unknown).Data, &result)
	require.Nil(t, result.User)
	require.Nil(t, result.AccessToken)
	require.Nil(t, result.RefreshToken)
	require.NotNil(t, result.Error)
	require.Equal(t, "invalid email or password", result.Error.Message)
}

func TestAccountHandler_ListUsersIsPublic(t *testing.T) {
	env := testutil.NewEnv(t)

	input := testutil.UniqueRegisterInput()
	token := env.Register(input)
	activate := env.Request(http.MethodPost, "/api/accounts/activate", map[string]string{
		"activation_token": token,
		"activation_code":  env.SentCode(),
	}, "")
	require.Equal(t, http.StatusCreated, activate.Code)

	resp := env.Request(http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)

	var users []testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &users)

	found := false
	for _, u := range users {
		require.NotEmpty(t, u.ID)
		if u.Email == input.Email {
			found = true
		}
	}
	require.True(t, found)
	require.NotContains(t, resp.Body.String(), "password")
}

func TestAccountHandler_MeRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.Request(http.MethodGet, "/api/auth/me", nil, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
}

func TestHealthEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)

	decoded := testutil.DecodeResponse(t, resp)
	require.True(t, decoded.Success)
	var data map[string]string
	testutil.DecodeInto(t, decoded.Data, &data)
	require.Equal(t, "ok", data["status"])
	require.Equal(t, "ok", data["database"])
}
