package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spardhafest/spardha/internal/config"
	"github.com/spardhafest/spardha/internal/model"
)

var (
	ErrFieldsRequired     = errors.New("please fill in all fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginFailed        = errors.New("login failed, please try again")
)

// CredentialStore is the subset of the config store used to authenticate
// admins.
type CredentialStore interface {
	GetActiveAdminByEmail(ctx context.Context, email string) (*model.AdminCredential, error)
	UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionWriter persists a freshly created session.
type SessionWriter interface {
	Save(sess *model.AdminSession) error
}

// LoginResult is the outcome of a login attempt. Exactly one of Session and
// Err is set.
type LoginResult struct {
	OK      bool
	Session *model.AdminSession
	Err     error
}

// Message returns the user-facing text for a failed result.
func (r LoginResult) Message() string {
	switch {
	case r.OK:
		return ""
	case errors.Is(r.Err, ErrFieldsRequired):
		return "Please fill in all fields"
	case errors.Is(r.Err, ErrInvalidCredentials):
		return "Invalid credentials"
	default:
		return "Login failed. Please try again."
	}
}

func failed(err error) LoginResult {
	return LoginResult{Err: err}
}

type AuthService struct {
	store  CredentialStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(store CredentialStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AuthService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Login authenticates email/password against active credentials and, on
// success, records the login time and saves a new session through sessions.
// Unknown emails, inactive accounts, lookup failures and wrong passwords all
// yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, sessions SessionWriter) LoginResult {
	if email == "" || password == "" {
		return failed(ErrFieldsRequired)
	}

	cred, err := s.store.GetActiveAdminByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			s.logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		}
		// Keep response timing close to the found-account path.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return failed(ErrInvalidCredentials)
	}

	if !CheckPassword(cred.PasswordHash, password) {
		return failed(ErrInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.store.UpdateAdminLastLogin(ctx, cred.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login", "admin_id", cred.ID, "error", err)
	}

	sess := model.NewAdminSession(cred, now)
	if err := sessions.Save(sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to save session", "admin_id", cred.ID, "error", err)
		return failed(ErrLoginFailed)
	}

	s.logger.InfoContext(ctx, "admin logged in", "admin_id", cred.ID, "email", cred.Email)
	return LoginResult{OK: true, Session: sess}
}
