package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amato-app/accounts/internal/models"
)

// Default validity periods applied when the configuration leaves a TTL unset.
const (
	DefaultActivationTTL   = 5 * time.Minute
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 720 * time.Hour
)

var (
	// ErrInvalidToken is returned when a token is malformed or its signature does not verify.
	ErrInvalidToken = errors.New("token: invalid")
	// ErrExpiredToken is returned when a token is structurally valid but past its expiry.
	ErrExpiredToken = errors.New("token: expired")
)

// SecretTTL pairs a signing secret with the lifetime of tokens it signs.
type SecretTTL struct {
	Secret string
	TTL    time.Duration
}

// Config bundles the three independent secret/ttl pairs used by the service.
// Activation and session secrets must differ so leaking one does not
// compromise the other.
type Config struct {
	Issuer     string
	Activation SecretTTL
	Access     SecretTTL
	Refresh    SecretTTL
	Clock      func() time.Time
}

// ActivationClaims carry a pending registration and its activation code.
type ActivationClaims struct {
	Pending        models.PendingRegistration `json:"pending"`
	ActivationCode string                     `json:"activation_code"`
	jwt.RegisteredClaims
}

// SessionClaims identify the authenticated user in access and refresh tokens.
type SessionClaims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"use"`
	jwt.RegisteredClaims
}

// TokenPair is the access/refresh pair issued at login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and validates the three token kinds used by the account
// workflows: activation, access, and refresh. All tokens are HS256 JWTs.
type TokenService struct {
	issuer     string
	activation SecretTTL
	access     SecretTTL
	refresh    SecretTTL
	now        func() time.Time
}

// NewTokenService validates the configuration and constructs a TokenService.
func NewTokenService(cfg Config) (*TokenService, error) {
	if cfg.Activation.Secret == "" {
		return nil, errors.New("token: activation secret must be provided")
	}
	if cfg.Access.Secret == "" {
		return nil, errors.New("token: access secret must be provided")
	}
	if cfg.Refresh.Secret == "" {
		return nil, errors.New("token: refresh secret must be provided")
	}
	if cfg.Activation.Secret == cfg.Access.Secret || cfg.Activation.Secret == cfg.Refresh.Secret {
		return nil, errors.New("token: activation secret must be independent of session secrets")
	}

	svc := &TokenService{
		issuer:     cfg.Issuer,
		activation: cfg.Activation,
		access:     cfg.Access,
		refresh:    cfg.Refresh,
		now:        time.Now,
	}
	if svc.activation.TTL <= 0 {
		svc.activation.TTL = DefaultActivationTTL
	}
	if svc.access.TTL <= 0 {
		svc.access.TTL = DefaultAccessTokenTTL
	}
	if svc.refresh.TTL <= 0 {
		svc.refresh.TTL = DefaultRefreshTokenTTL
	}
	if cfg.Clock != nil {
		svc.now = cfg.Clock
	}

	return svc, nil
}

// SignActivation embeds the pending registration and activation code in a
// short-lived token. The pending record must carry the password hash, never
// the plaintext.
func (s *TokenService) SignActivation(pending models.PendingRegistration, code string) (string, error) {
	if pending.Email == "" {
		return "", errors.New("token: pending registration email is required")
	}
	if code == "" {
		return "", errors.New("token: activation code is required")
	}

	claims := &ActivationClaims{
		Pending:          pending,
		ActivationCode:   code,
		RegisteredClaims: s.registeredClaims(pending.Email, s.activation.TTL),
	}

	return s.sign(claims, s.activation.Secret)
}

// VerifyActivation parses an activation token, returning ErrInvalidToken on
// tampering and ErrExpiredToken on staleness.
func (s *TokenService) VerifyActivation(token string) (*ActivationClaims, error) {
	var claims ActivationClaims
	if err := s.parse(token, s.activation.Secret, &claims); err != nil {
		return nil, err
	}
	if claims.Pending.Email == "" || claims.ActivationCode == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// IssueSessionPair signs an access and a refresh token for the user.
func (s *TokenService) IssueSessionPair(user *models.User) (TokenPair, error) {
	if user == nil || user.ID == "" {
		return TokenPair{}, errors.New("token: user is required")
	}

	accessClaims := &SessionClaims{
		UserID:           user.ID,
		Email:            user.Email,
		TokenUse:         "access",
		RegisteredClaims: s.registeredClaims(user.ID, s.access.TTL),
	}
	access, err := s.sign(accessClaims, s.access.Secret)
	if err != nil {
		return TokenPair{}, err
	}

	refreshClaims := &SessionClaims{
		UserID:           user.ID,
		TokenUse:         "refresh",
		RegisteredClaims: s.registeredClaims(user.ID, s.refresh.TTL),
	}
	refresh, err := s.sign(refreshClaims, s.refresh.Secret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess parses an access token and returns its session claims.
func (s *TokenService) VerifyAccess(token string) (*SessionClaims, error) {
	var claims SessionClaims
	if err := s.parse(token, s.access.Secret, &claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.TokenUse != "access" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *TokenService) registeredClaims(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func (s *TokenService) sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token, secret string, claims jwt.Claims) error {
	if token == "" {
		return ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrInvalidToken
	}

	if s.issuer != "" {
		if iss, issErr := claims.GetIssuer(); issErr != nil || iss != s.issuer {
			return ErrInvalidToken
		}
	}

	return nil
}
