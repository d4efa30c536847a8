package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/auth"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/config"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/models"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/storage"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]models.User{}}
}

func (s *fakeStore) Insert(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, ok := s.users[key]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[key] = user
	return user, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *fakeStore) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *fakeStore) Update(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	stored, ok := s.users[key]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	stored.PasswordHash = user.PasswordHash
	stored.Status = user.Status
	stored.UpdatedAt = time.Now()
	s.users[key] = stored
	return stored, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:            "service-test-secret",
		JWTIssuer:            "shareyourspace-test",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      7 * 24 * time.Hour,
		VerificationTokenTTL: 5 * time.Minute,
		ResetTokenTTL:        15 * time.Minute,
		FrontendBaseURL:      "http://localhost:3000",
	}
}

func newTestAuth(store storage.UserStore, mailer *fakeMailer) (*Auth, *auth.TokenManager) {
	cfg := testConfig()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	hasher := auth.NewHasher(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, hasher, tokens, mailer, cfg, logger), tokens
}

func TestRegister_InitialStatusByRole(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc, _ := newTestAuth(store, mailer)

	tests := []struct {
		email string
		role  models.Role
		want  models.Status
	}{
		{"startup@x.com", models.RoleStartup, models.StatusWaitlisted},
		{"freelancer@x.com", models.RoleFreelancer, models.StatusWaitlisted},
		{"corporate@x.com", models.RoleCorporate, models.StatusPendingOnboarding},
	}
	for _, tt := range tests {
		user, err := svc.Register(context.Background(), tt.email, "password123", "Some Name", tt.role)
		require.NoError(t, err)
		assert.Equal(t, tt.want, user.Status)
		assert.Equal(t, tt.role, user.Role)
		assert.NotEqual(t, uuid.Nil, user.ID)
	}
	assert.Equal(t, len(tests), mailer.count())
}

func TestRegister_InvalidRole(t *testing.T) {
	t.Parallel()
	svc, _ := newTestAuth(newFakeStore(), &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", "SysAdmin")
	require.ErrorIs(t, err, models.ErrInvalidRole)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc, _ := newTestAuth(store, &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "A@X.com", "password123", "", models.RoleStartup)
	require.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Len(t, store.users, 1)
}

func TestRegister_PasswordNeverStoredPlaintext(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc, _ := newTestAuth(store, &fakeMailer{})

	user, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "password123")
}

func TestRegister_MailerFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	mailer := &fakeMailer{failWith: context.DeadlineExceeded}
	svc, _ := newTestAuth(store, mailer)

	user, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitlisted, user.Status)

	_, err = store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
}

func TestVerify_TransitionsAndIdempotency(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc, tokens := newTestAuth(store, &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)

	token, err := tokens.Issue("a@x.com", auth.PurposeEmailVerification, time.Minute)
	require.NoError(t, err)

	user, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActiveWaitlist, user.Status)
	firstUpdate := user.UpdatedAt

	// Second consumption of the same valid token succeeds without
	// mutating the account again.
	user, err = svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActiveWaitlist, user.Status)
	assert.Equal(t, firstUpdate, user.UpdatedAt)
}

func TestVerify_CorporateTransition(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc, tokens := newTestAuth(store, &fakeMailer{})

	_, err := svc.Register(context.Background(), "corp@x.com", "password123", "", models.RoleCorporate)
	require.NoError(t, err)

	token, err := tokens.Issue("corp@x.com", auth.PurposeEmailVerification, time.Minute)
	require.NoError(t, err)

	user, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActivePending, user.Status)
}

func TestVerify_TokenFailuresCollapse(t *testing.T) {
	t.Parallel()
	svc, tokens := newTestAuth(newFakeStore(), &fakeMailer{})

	expired, err := tokens.Issue("a@x.com", auth.PurposeEmailVerification, -time.Minute)
	require.NoError(t, err)
	wrongPurpose, err := tokens.Issue("a@x.com", auth.PurposePasswordReset, time.Minute)
	require.NoError(t, err)

	for _, token := range []string{expired, wrongPurpose, "garbage"} {
		_, err := svc.Verify(context.Background(), token)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	}
}

func TestVerify_AccountNotFound(t *testing.T) {
	t.Parallel()
	svc, tokens := newTestAuth(newFakeStore(), &fakeMailer{})

	token, err := tokens.Issue("ghost@x.com", auth.PurposeEmailVerification, time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLogin_SuccessIssuesBothTokens(t *testing.T) {
	t.Parallel()
	svc, tokens := newTestAuth(newFakeStore(), &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), "a@x.com", "password123")
	require.NoError(t, err)

	access, err := tokens.VerifyAny(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.PurposeAccess, access.Purpose)
	assert.Equal(t, "a@x.com", access.Subject)

	refresh, err := tokens.VerifyAny(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, auth.PurposeRefresh, refresh.Purpose)
	assert.Equal(t, "a@x.com", refresh.Subject)
}

func TestLogin_UndifferentiatedFailure(t *testing.T) {
	t.Parallel()
	svc, _ := newTestAuth(newFakeStore(), &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)

	_, errWrongPassword := svc.Login(context.Background(), "a@x.com", "not-the-password")
	_, errNoAccount := svc.Login(context.Background(), "nobody@x.com", "password123")

	require.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, errNoAccount, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errNoAccount.Error())
}

func TestRefresh_RotatesPair(t *testing.T) {
	t.Parallel()
	svc, tokens := newTestAuth(newFakeStore(), &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)
	pair, err := svc.Login(context.Background(), "a@x.com", "password123")
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := tokens.VerifyAny(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.PurposeAccess, claims.Purpose)
}

func TestRefresh_RejectsNonRefreshPurpose(t *testing.T) {
	t.Parallel()
	svc, _ := newTestAuth(newFakeStore(), &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)
	pair, err := svc.Login(context.Background(), "a@x.com", "password123")
	require.NoError(t, err)

	// An access token is structurally identical but purpose-bound;
	// replaying it through refresh must fail.
	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	t.Parallel()
	mailer := &fakeMailer{}
	svc, _ := newTestAuth(newFakeStore(), mailer)

	err := svc.ForgotPassword(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Zero(t, mailer.count())
}

func TestForgotPassword_SendsResetLink(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc, _ := newTestAuth(store, mailer)

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)
	require.Equal(t, 1, mailer.count())

	err = svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 2, mailer.count())
	assert.Contains(t, mailer.sent[1].body, "/auth/reset-password/")
}

func TestForgotPassword_DeliveryFailureIsFatal(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc, _ := newTestAuth(store, &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "password123", "", models.RoleStartup)
	require.NoError(t, err)

	failing := &fakeMailer{failWith: context.DeadlineExceeded}
	svcFailing, _ := newTestAuth(store, failing)

	err = svcFailing.ForgotPassword(context.Background(), "a@x.com")
	require.ErrorIs(t, err, ErrEmailDeliveryFailed)
}

func TestResetPassword_ReplacesHash(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc, tokens := newTestAuth(store, &fakeMailer{})

	_, err := svc.Register(context.Background(), "a@x.com", "oldpassword", "", models.RoleStartup)
	require.NoError(t, err)

	token, err := tokens.Issue("a@x.com", auth.PurposePasswordReset, time.Minute)
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(context.Background(), token, "newpass123"))

	_, err = svc.Login(context.Background(), "a@x.com", "oldpassword")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "a@x.com", "newpass123")
	require.NoError(t, err)
}

func TestResetPassword_Failures(t *testing.T) {
	t.Parallel()
	svc, tokens := newTestAuth(newFakeStore(), &fakeMailer{})

	err := svc.ResetPassword(context.Background(), "garbage", "newpass123")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	verification, errIssue := tokens.Issue("a@x.com", auth.PurposeEmailVerification, time.Minute)
	require.NoError(t, errIssue)
	err = svc.ResetPassword(context.Background(), verification, "newpass123")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	reset, errIssue := tokens.Issue("ghost@x.com", auth.PurposePasswordReset, time.Minute)
	require.NoError(t, errIssue)
	err = svc.ResetPassword(context.Background(), reset, "newpass123")
	require.ErrorIs(t, err, ErrAccountNotFound)

	err = svc.ResetPassword(context.Background(), reset, "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}
