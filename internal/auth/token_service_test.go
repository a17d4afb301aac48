package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amato-app/accounts/internal/models"
)

func testConfig(clock func() time.Time) Config {
	return Config{
		Issuer:     "accounts-test",
		Activation: SecretTTL{Secret: "activation-secret", TTL: 5 * time.Minute},
		Access:     SecretTTL{Secret: "access-secret", TTL: time.Hour},
		Refresh:    SecretTTL{Secret: "refresh-secret", TTL: 24 * time.Hour},
		Clock:      clock,
	}
}

func TestNewTokenServiceRequiresSecrets(t *testing.T) {
	_, err := NewTokenService(Config{})
	require.Error(t, err)

	cfg := testConfig(nil)
	cfg.Access.Secret = cfg.Activation.Secret
	_, err = NewTokenService(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "independent")
}

func TestActivationTokenRoundTrip(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService(testConfig(func() time.Time { return current }))
	require.NoError(t, err)

	pending := models.PendingRegistration{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$fakehash",
		PhoneNumber:  "+15550001111",
	}

	token, err := svc.SignActivation(pending, "1234")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyActivation(token)
	require.NoError(t, err)
	require.Equal(t, pending, claims.Pending)
	require.Equal(t, "1234", claims.ActivationCode)
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(5*time.Minute)))
}

func TestVerifyActivationRejectsTamperedToken(t *testing.T) {
	svc, err := NewTokenService(testConfig(nil))
	require.NoError(t, err)

	pending := models.PendingRegistration{Email: "ada@example.com", PasswordHash: "h"}
	token, err := svc.SignActivation(pending, "1234")
	require.NoError(t, err)

	otherCfg := testConfig(nil)
	otherCfg.Activation.Secret = "a-different-secret"
	other, err := NewTokenService(otherCfg)
	require.NoError(t, err)

	_, err = other.VerifyActivation(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyActivationRejectsExpiredToken(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService(testConfig(func() time.Time { return current }))
	require.NoError(t, err)

	token, err := svc.SignActivation(models.PendingRegistration{Email: "ada@example.com"}, "1234")
	require.NoError(t, err)

	current = current.Add(6 * time.Minute)

	_, err = svc.VerifyActivation(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyActivationRejectsSessionToken(t *testing.T) {
	svc, err := NewTokenService(testConfig(nil))
	require.NoError(t, err)

	pair, err := svc.IssueSessionPair(&models.User{ID: "user-1", Email: "ada@example.com"})
	require.NoError(t, err)

	// Signed with the access secret, so the activation verifier must refuse it.
	_, err = svc.VerifyActivation(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueSessionPairAndVerifyAccess(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService(testConfig(func() time.Time { return current }))
	require.NoError(t, err)

	user := &models.User{ID: "user-1", Email: "ada@example.com"}
	pair, err := svc.IssueSessionPair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))

	// The refresh token is signed with its own secret and use claim.
	_, err = svc.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessEnforcesIssuer(t *testing.T) {
	svc, err := NewTokenService(testConfig(nil))
	require.NoError(t, err)

	otherCfg := testConfig(nil)
	otherCfg.Issuer = "someone-else"
	other, err := NewTokenService(otherCfg)
	require.NoError(t, err)

	pair, err := other.IssueSessionPair(&models.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}
