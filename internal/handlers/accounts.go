package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amato-app/accounts/internal/middleware"
	"github.com/amato-app/accounts/internal/models"
	"github.com/amato-app/accounts/internal/services"
	apperrors "github.com/amato-app/accounts/pkg/errors"
	"github.com/amato-app/accounts/pkg/metrics"
	"github.com/amato-app/accounts/pkg/response"
)

// AccountHandler exposes the registration, activation, login, and listing
// operations over JSON.
type AccountHandler struct {
	service *services.AccountService
}

func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

type registerRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phone_number"`
}

type activateRequest struct {
	ActivationToken string `json:"activation_token" validate:"required"`
	ActivationCode  string `json:"activation_code" validate:"required,len=4,numeric"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginResponse keeps the uniform shape of the login contract: on failure the
// user and token fields are null and error carries a single message.
type loginResponse struct {
	User         *models.User         `json:"user"`
	AccessToken  *string              `json:"access_token"`
	RefreshToken *string              `json:"refresh_token"`
	Error        *services.LoginError `json:"error,omitempty"`
}

// POST /api/accounts/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		metrics.Registrations.WithLabelValues("invalid").Inc()
		return
	}

	token, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		metrics.Registrations.WithLabelValues(registerOutcome(err)).Inc()
		response.Error(c, err)
		return
	}

	metrics.Registrations.WithLabelValues("accepted").Inc()
	response.Success(c, http.StatusOK, gin.H{"activation_token": token})
}

// POST /api/accounts/activate
func (h *AccountHandler) Activate(c *gin.Context) {
	var req activateRequest
	if !bindAndValidate(c, &req) {
		metrics.Activations.WithLabelValues("invalid").Inc()
		return
	}

	user, err := h.service.Activate(c.Request.Context(), services.ActivateInput{
		ActivationToken: req.ActivationToken,
		ActivationCode:  req.ActivationCode,
	})
	if err != nil {
		metrics.Activations.WithLabelValues(activationOutcome(err)).Inc()
		response.Error(c, err)
		return
	}

	metrics.Activations.WithLabelValues("success").Inc()
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// POST /api/auth/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, apperrors.ErrInternalServer)
		return
	}

	// Bad credentials are a payload, not an HTTP error.
	if result.Error != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Success(c, http.StatusOK, loginResponse{Error: result.Error})
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, loginResponse{
		User:         result.User,
		AccessToken:  &result.AccessToken,
		RefreshToken: &result.RefreshToken,
	})
}

// GET /api/users
func (h *AccountHandler) List(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/auth/me
func (h *AccountHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func registerOutcome(err error) string {
	switch apperrors.FromError(err).Code {
	case "CONFLICT":
		return "conflict"
	case apperrors.ErrBadRequest.Code:
		return "invalid"
	default:
		return "error"
	}
}

func activationOutcome(err error) string {
	switch apperrors.FromError(err).Code {
	case apperrors.ErrActivationCodeMismatch.Code:
		return "mismatch"
	case apperrors.ErrExpiredToken.Code:
		return "expired"
	case apperrors.ErrInvalidToken.Code:
		return "invalid"
	case "CONFLICT":
		return "conflict"
	default:
		return "error"
	}
}
