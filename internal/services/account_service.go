package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/amato-app/accounts/internal/auth"
	"github.com/amato-app/accounts/internal/models"
	"github.com/amato-app/accounts/pkg/crypto"
	apperrors "github.com/amato-app/accounts/pkg/errors"
	"github.com/amato-app/accounts/pkg/logger"
	"github.com/amato-app/accounts/pkg/mail"
)

// RegisterInput describes the fields accepted when starting a registration.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

// ActivateInput carries the activation token and the code the user received by email.
type ActivateInput struct {
	ActivationToken string
	ActivationCode  string
}

// LoginInput carries submitted credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginError is the uniform failure payload returned by Login. It deliberately
// does not distinguish an unknown email from a wrong password.
type LoginError struct {
	Message string `json:"message"`
}

// LoginResult is the value-typed outcome of a login attempt. Either Error is
// set, or User and both tokens are. Login never reports bad credentials
// through the error return; that is reserved for infrastructure faults.
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	Error        *LoginError
}

// AccountOption customises the AccountService.
type AccountOption func(*AccountService)

// WithActivationCodeFunc injects a deterministic activation code source.
func WithActivationCodeFunc(fn func() (string, error)) AccountOption {
	return func(s *AccountService) {
		if fn != nil {
			s.codeFn = fn
		}
	}
}

// AccountService implements the registration, activation, and login workflows.
//
// Registration is two-phase and stateless: the pending account travels inside
// a signed activation token held by the client, and nothing is persisted until
// the emailed code is confirmed. Registration and activation report failures
// as errors; Login returns a value-typed result instead (see LoginResult).
type AccountService struct {
	db         *gorm.DB
	tokens     *auth.TokenService
	dispatcher mail.Dispatcher
	codeFn     func() (string, error)
	log        *zap.Logger
}

// NewAccountService constructs an AccountService with the provided dependencies.
func NewAccountService(db *gorm.DB, tokens *auth.TokenService, dispatcher mail.Dispatcher, opts ...AccountOption) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service is required")
	}
	if dispatcher == nil {
		return nil, errors.New("account service: mail dispatcher is required")
	}

	service := &AccountService{
		db:         db,
		tokens:     tokens,
		dispatcher: dispatcher,
		codeFn:     activationCode,
		log:        logger.WithModule("accounts"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Register starts a registration. It validates input, rejects duplicate email
// or phone number, hashes the password, and returns a signed activation token
// embedding the pending record and a 4-digit code delivered by email. The
// code itself is never returned to the caller. No row is written here, so a
// failed mail dispatch leaves nothing to roll back and the caller can simply
// retry.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := strings.TrimSpace(input.PhoneNumber)

	if name == "" {
		return "", apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return "", apperrors.NewBadRequest("email is required")
	}
	if input.Password == "" {
		return "", apperrors.NewBadRequest("password is required")
	}

	if err := s.checkAvailability(ctx, email, phone); err != nil {
		return "", err
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return "", fmt.Errorf("account service: hash password: %w", err)
	}

	code, err := s.codeFn()
	if err != nil {
		return "", fmt.Errorf("account service: activation code: %w", err)
	}

	pending := models.PendingRegistration{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		PhoneNumber:  phone,
	}

	token, err := s.tokens.SignActivation(pending, code)
	if err != nil {
		return "", fmt.Errorf("account service: sign activation token: %w", err)
	}

	err = s.dispatcher.Dispatch(ctx, email, mail.TemplateActivation, map[string]any{
		"name":            name,
		"activation_code": code,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		return "", apperrors.Wrap(err, "failed to send activation email")
	}
	if errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("mail delivery disabled; activation code not sent", zap.String("email", email))
	}

	return token, nil
}

// Activate completes a registration. The token must verify and be unexpired,
// the submitted code must match the embedded one, and the email and phone
// number must still be free. The user row is created with the password hash
// already embedded in the token.
func (s *AccountService) Activate(ctx context.Context, input ActivateInput) (*models.User, error) {
	claims, err := s.tokens.VerifyActivation(input.ActivationToken)
	if err != nil {
		return nil, translateTokenError(err)
	}

	if input.ActivationCode == "" || claims.ActivationCode != input.ActivationCode {
		return nil, apperrors.ErrActivationCodeMismatch
	}

	pending := claims.Pending
	if err := s.checkAvailability(ctx, pending.Email, pending.PhoneNumber); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:        pending.Name,
		Email:       pending.Email,
		PhoneNumber: models.NullableString(pending.PhoneNumber),
		Password:    pending.PasswordHash,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// Lost the race against a concurrent activation; the constraint is
		// the authoritative signal.
		if isUniqueConstraintError(err) {
			return nil, s.conflictFor(ctx, pending.Email, pending.PhoneNumber)
		}
		return nil, fmt.Errorf("account service: create user: %w", err)
	}

	s.log.Info("account activated", zap.String("user_id", user.ID))
	return user, nil
}

// Login authenticates the submitted credentials. An unknown email or wrong
// password yields the uniform failure value, never an error; the existence
// check short-circuits before any hash comparison.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	failure := &LoginResult{Error: &LoginError{Message: "invalid email or password"}}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return failure, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failure, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		return failure, nil
	}

	pair, err := s.tokens.IssueSessionPair(&user)
	if err != nil {
		return nil, fmt.Errorf("account service: issue session tokens: %w", err)
	}

	return &LoginResult{
		User:         &user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// ListUsers returns every user record.
func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("account service: list users: %w", err)
	}
	return users, nil
}

// GetByID loads a single user.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: get user: %w", err)
	}
	return &user, nil
}

// checkAvailability runs the fast-path duplicate lookups. Both reads happen
// before either conflict is reported, and the phone number wins when both
// collide. These reads are not a transaction; the schema's unique indexes
// catch whatever slips through.
func (s *AccountService) checkAvailability(ctx context.Context, email, phone string) error {
	emailTaken, err := s.fieldTaken(ctx, "email", email)
	if err != nil {
		return err
	}
	phoneTaken, err := s.fieldTaken(ctx, "phone_number", phone)
	if err != nil {
		return err
	}

	if phoneTaken {
		return apperrors.NewConflict("phone number")
	}
	if emailTaken {
		return apperrors.NewConflict("email")
	}
	return nil
}

func (s *AccountService) fieldTaken(ctx context.Context, column, value string) (bool, error) {
	if value == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where(column+" = ?", value).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("account service: lookup %s: %w", column, err)
	}
	return count > 0, nil
}

// conflictFor names the field behind a constraint violation by re-probing.
func (s *AccountService) conflictFor(ctx context.Context, email, phone string) error {
	if taken, err := s.fieldTaken(ctx, "phone_number", phone); err == nil && taken {
		return apperrors.NewConflict("phone number")
	}
	return apperrors.NewConflict("email")
}

func translateTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return apperrors.ErrExpiredToken
	case errors.Is(err, auth.ErrInvalidToken):
		return apperrors.ErrInvalidToken
	default:
		return apperrors.ErrInvalidToken.WithInternal(err)
	}
}

// activationCode draws a uniform random 4-digit code in [1000, 9999].
func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
