package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose restricts which operation may consume a token. Every token
// carries exactly one purpose claim.
type Purpose string

const (
	PurposeAccess            Purpose = "access"
	PurposeRefresh           Purpose = "refresh"
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

func (p Purpose) valid() bool {
	switch p {
	case PurposeAccess, PurposeRefresh, PurposeEmailVerification, PurposePasswordReset:
		return true
	}
	return false
}

// Verification failure kinds. The service layer collapses these before
// they reach a caller; the distinction exists for logs and tests.
var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrPurposeMismatch  = errors.New("token purpose mismatch")
	ErrMalformedToken   = errors.New("token malformed")
)

// Claims is the closed claim set for every token this service issues.
// Subject is the account email; Purpose tags the consuming operation.
type Claims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
}

// TokenManager issues and verifies signed, expiring, purpose-bound JWTs
// with a process-wide HS256 secret.
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for subject that expires ttl from now.
func (t *TokenManager) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	if !purpose.valid() {
		return "", fmt.Errorf("issue token: unknown purpose %q", purpose)
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify decodes a token and requires its purpose claim to equal expected.
func (t *TokenManager) Verify(token string, expected Purpose) (*Claims, error) {
	claims, err := t.VerifyAny(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != expected {
		return nil, ErrPurposeMismatch
	}
	return claims, nil
}

// VerifyAny decodes a token without enforcing a purpose, leaving that
// check to the caller. The refresh flow and the cookie middleware use
// this; verification and reset tokens always go through Verify instead.
func (t *TokenManager) VerifyAny(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		// Reject anything but HMAC outright so an attacker cannot swap
		// the algorithm and have the secret treated as a public key.
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}
	if !parsed.Valid || claims.Subject == "" || !claims.Purpose.valid() {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
