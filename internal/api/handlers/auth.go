package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/foliofyhq/foliofy/internal/api/dto"
	"github.com/foliofyhq/foliofy/internal/api/middleware"
	"github.com/foliofyhq/foliofy/internal/config"
	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/metrics"
	"github.com/foliofyhq/foliofy/internal/pkg/utils"
	"github.com/foliofyhq/foliofy/internal/pkg/validator"
	"github.com/foliofyhq/foliofy/internal/token"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	accounts  user.Service
	tokens    *token.Service
	config    *config.Config
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	accounts user.Service,
	tokens *token.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		tokens:    tokens,
		config:    cfg,
		logger:    log,
		validator: val,
	}
}

// Signup handles user registration
// @Summary User registration
// @Description Register a new account with name, email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "Account created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	newUser, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err, "Registration failed")
		return
	}

	h.issueSession(w, http.StatusCreated, newUser)
}

// Login handles user login
// @Summary User login
// @Description Authenticate with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	authenticated, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"email": req.Email,
		}).Warn("Authentication failed")
		h.writeAuthError(w, err, "Invalid credentials")
		return
	}

	h.issueSession(w, http.StatusOK, authenticated)
}

// GoogleLogin handles sign-in with a Google ID token
// @Summary Google sign-in
// @Description Authenticate with a Google ID token, creating the account on first login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.GoogleLoginRequest true "Google credential"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 401 {object} utils.ErrorResponse "Invalid credential"
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	authenticated, err := h.accounts.AuthenticateGoogle(r.Context(), req.Credential)
	if err != nil {
		h.writeAuthError(w, err, "Google sign-in failed")
		return
	}

	h.issueSession(w, http.StatusOK, authenticated)
}

// RefreshToken exchanges a valid refresh token for a new access token. The
// refresh token itself is returned unchanged; its lifetime is fixed at issue.
// @Summary Refresh access token
// @Description Exchange a refresh token for a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token (falls back to the refreshToken cookie)"
// @Success 200 {object} dto.AuthResponse "New access token"
// @Failure 401 {object} utils.ErrorResponse "Missing refresh token"
// @Failure 403 {object} utils.ErrorResponse "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if r.Body != nil {
		// Body is optional; the cookie flow sends none.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if cookie, err := r.Cookie("refreshToken"); err == nil {
			refreshToken = cookie.Value
		}
	}
	if refreshToken == "" {
		utils.WriteError(w, errors.Unauthorized("Missing refresh token"))
		return
	}

	accessToken, err := h.tokens.Rotate(refreshToken)
	if err != nil {
		metrics.RecordTokenRefresh("failure")
		if err == token.ErrExpired {
			utils.WriteError(w, errors.Forbidden("Refresh token expired, please log in again"))
			return
		}
		utils.WriteError(w, errors.Forbidden("Invalid refresh token"))
		return
	}
	metrics.RecordTokenRefresh("success")

	h.setCookie(w, "accessToken", accessToken, h.config.Auth.AccessTTL)

	utils.WriteSuccess(w, http.StatusOK, dto.AuthResponse{
		AccessToken: accessToken,
	})
}

// Logout clears the session cookies
// @Summary User logout
// @Description Clear session cookies
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, "accessToken")
	h.clearCookie(w, "refreshToken")

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the current user's information
// @Summary Get current user
// @Description Get the authenticated user's account
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserDTO "User information"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	u, err := h.accounts.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to get user")
		h.writeAuthError(w, err, "Failed to get user")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromUser(u))
}

// issueSession mints a token pair, sets the session cookies and writes the
// auth response.
func (h *AuthHandler) issueSession(w http.ResponseWriter, status int, u *user.User) {
	pair, err := h.tokens.IssuePair(u.ID, u.Email)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Configuration("Failed to generate tokens"))
		return
	}
	metrics.RecordTokenIssued(string(token.KindAccess))
	metrics.RecordTokenIssued(string(token.KindRefresh))

	h.setCookie(w, "accessToken", pair.AccessToken, h.config.Auth.AccessTTL)
	h.setCookie(w, "refreshToken", pair.RefreshToken, h.config.Auth.RefreshTTL)

	h.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("Session issued")

	utils.WriteSuccess(w, status, dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         dto.FromUser(u),
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// writeAuthError writes err when it is an AppError and a generic fallback
// otherwise.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := errors.AsAppError(err); ok {
		utils.WriteError(w, appErr)
		return
	}
	utils.WriteError(w, errors.Internal(fallback, err))
}
