package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/auth"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/config"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/http/respond"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/middleware"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/models"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/models/dto"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/service"
)

const (
	msgVerified       = "Email verified successfully."
	msgForgotPassword = "If an account with that email exists, a password reset link has been sent."
	msgPasswordReset  = "Password updated successfully."
	msgLoggedOut      = "Successfully logged out"
)

// AuthHandler owns the /auth endpoints.
type AuthHandler struct {
	svc    *service.Auth
	tokens *auth.TokenManager
	cfg    *config.Config
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *service.Auth, tokens *auth.TokenManager, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, cfg: cfg, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("GET /auth/verify/{token}", h.handleVerify)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/forgot-password", h.handleForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", h.handleResetPassword)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.Handle("GET /auth/me", middleware.RequireAuth(h.tokens, http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Password, req.FullName, models.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail),
			errors.Is(err, models.ErrInvalidRole),
			errors.Is(err, service.ErrPasswordTooShort):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "register failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, "Account created successfully", user)
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	_, err := h.svc.Verify(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAccountNotFound):
			respond.Error(w, http.StatusNotFound, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "verify failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to verify email")
		}
		return
	}

	// Same message whether the status just changed or was already
	// verified; replay is indistinguishable from first success.
	respond.JSON(w, http.StatusOK, msgVerified, nil)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	pair, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respond.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	// The access token goes into an HTTP-only cookie only; the response
	// body carries just the refresh token and token type.
	h.setAccessCookie(w, pair.AccessToken)
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
		TokenType:    "bearer",
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, service.ErrInvalidOrExpiredToken.Error())
		return
	}

	h.setAccessCookie(w, pair.AccessToken)
	respond.JSON(w, http.StatusOK, "token refreshed", dto.LoginResponse{
		TokenType:    "bearer",
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailDeliveryFailed) {
			respond.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "forgot password failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to process request")
		return
	}

	// Identical message whether or not the account exists.
	respond.JSON(w, http.StatusOK, msgForgotPassword, nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			respond.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			w.Header().Set("WWW-Authenticate", "Bearer")
			respond.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrAccountNotFound):
			respond.Error(w, http.StatusNotFound, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "reset password failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to reset password")
		}
		return
	}

	respond.JSON(w, http.StatusOK, msgPasswordReset, nil)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Stateless logout: no server-side invalidation, just instruct the
	// browser to drop the cookie.
	h.clearAccessCookie(w)
	respond.JSON(w, http.StatusOK, msgLoggedOut, nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.Subject(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, err := h.svc.Account(r.Context(), subject)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "fetch account failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch account")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func (h *AuthHandler) setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
