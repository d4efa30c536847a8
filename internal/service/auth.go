// Package service contains the auth business logic: it composes the
// credential hasher, the token manager, the account state machine, the
// record store, and the mailer into the register/verify/login/refresh/
// forgot-password/reset-password flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/auth"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/config"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/mail"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/models"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/storage"
)

// MinPasswordLength applies to registration and password reset.
const MinPasswordLength = 8

// Error kinds surfaced to the HTTP layer. Token failures are collapsed
// into ErrInvalidOrExpiredToken so callers cannot probe which check a
// forged token failed.
var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("incorrect email or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAccountNotFound       = errors.New("account not found")
	ErrEmailDeliveryFailed   = errors.New("could not send email")
	ErrPasswordTooShort      = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token, both carrying the account email as subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Auth orchestrates the account and credential lifecycle flows.
type Auth struct {
	store  storage.UserStore
	hasher *auth.Hasher
	tokens *auth.TokenManager
	mailer mail.Mailer
	cfg    config.Config
	logger *slog.Logger
}

// New wires an Auth service.
func New(store storage.UserStore, hasher *auth.Hasher, tokens *auth.TokenManager, mailer mail.Mailer, cfg config.Config, logger *slog.Logger) *Auth {
	return &Auth{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
	}
}

// Register creates an account with the initial status dictated by its
// role and emails a verification link. A failed email is logged and
// swallowed: the user can still log in and re-request verification, so
// registration is never rolled back for it.
func (a *Auth) Register(ctx context.Context, email, password, fullName string, role models.Role) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	if len(password) < MinPasswordLength {
		return models.User{}, ErrPasswordTooShort
	}

	status, err := models.InitialStatus(role)
	if err != nil {
		return models.User{}, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		Status:       status,
	}
	created, err := a.store.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create account: %w", err)
	}

	a.sendVerificationEmail(ctx, created.Email)
	return created, nil
}

func (a *Auth) sendVerificationEmail(ctx context.Context, email string) {
	token, err := a.tokens.Issue(email, auth.PurposeEmailVerification, a.cfg.VerificationTokenTTL)
	if err != nil {
		a.logger.ErrorContext(ctx, "issue verification token", "email", email, "error", err)
		return
	}
	link := fmt.Sprintf("%s/auth/verify/%s", a.cfg.FrontendBaseURL, token)
	if err := a.mailer.Send(ctx, email, mail.SubjectVerification, mail.VerificationBody(link)); err != nil {
		a.logger.ErrorContext(ctx, "send verification email", "email", email, "error", err)
	}
}

// Verify consumes an email-verification token and advances the account
// status. Re-verifying an already-verified account is a silent no-op that
// still reports success; callers cannot tell replay from first success.
func (a *Auth) Verify(ctx context.Context, token string) (models.User, error) {
	claims, err := a.tokens.Verify(token, auth.PurposeEmailVerification)
	if err != nil {
		return models.User{}, ErrInvalidOrExpiredToken
	}

	user, err := a.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrAccountNotFound
		}
		return models.User{}, fmt.Errorf("find account: %w", err)
	}

	next, changed := models.VerifiedStatus(user.Status)
	if !changed {
		return user, nil
	}
	user.Status = next
	updated, err := a.store.Update(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("update account status: %w", err)
	}
	return updated, nil
}

// Login checks credentials and issues an access/refresh token pair. A
// missing account and a wrong password are indistinguishable to the
// caller.
func (a *Auth) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := a.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("find account: %w", err)
	}
	if !a.hasher.Verify(password, user.PasswordHash) {
		return TokenPair{}, ErrInvalidCredentials
	}
	return a.issueTokenPair(user.Email)
}

// Refresh exchanges a valid refresh token for a fresh pair. The token is
// decoded without a fixed purpose and the purpose is checked here; every
// failure collapses into ErrInvalidOrExpiredToken.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := a.tokens.VerifyAny(refreshToken)
	if err != nil || claims.Purpose != auth.PurposeRefresh {
		return TokenPair{}, ErrInvalidOrExpiredToken
	}
	if _, err := a.store.FindByEmail(ctx, claims.Subject); err != nil {
		return TokenPair{}, ErrInvalidOrExpiredToken
	}
	return a.issueTokenPair(claims.Subject)
}

// ForgotPassword emails a reset link. An unknown email is not an error;
// the caller sees the same outcome either way. Unlike registration, a
// delivery failure here is fatal to the request: the reset link is the
// user's only path forward.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.logger.InfoContext(ctx, "password reset requested for unknown email", "email", normalizeEmail(email))
			return nil
		}
		return fmt.Errorf("find account: %w", err)
	}

	token, err := a.tokens.Issue(user.Email, auth.PurposePasswordReset, a.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := fmt.Sprintf("%s/auth/reset-password/%s", a.cfg.FrontendBaseURL, token)
	if err := a.mailer.Send(ctx, user.Email, mail.SubjectPasswordReset, mail.PasswordResetBody(link)); err != nil {
		a.logger.ErrorContext(ctx, "send password reset email", "email", user.Email, "error", err)
		return ErrEmailDeliveryFailed
	}
	return nil
}

// ResetPassword consumes a password-reset token and replaces the stored
// hash with one for the new password.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	claims, err := a.tokens.Verify(token, auth.PurposePasswordReset)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	user, err := a.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if _, err := a.store.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Account resolves the account behind a verified access-token subject.
func (a *Auth) Account(ctx context.Context, email string) (models.User, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrAccountNotFound
		}
		return models.User{}, fmt.Errorf("find account: %w", err)
	}
	return user, nil
}

func (a *Auth) issueTokenPair(email string) (TokenPair, error) {
	access, err := a.tokens.Issue(email, auth.PurposeAccess, a.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := a.tokens.Issue(email, auth.PurposeRefresh, a.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
