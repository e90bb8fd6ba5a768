package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// Login outcomes reported to the LoginObserver.
const (
	LoginSucceeded = "success"
	LoginInvalid   = "invalid_input"
	LoginRejected  = "rejected"
	LoginThrottled = "throttled"
)

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// LoginObserver receives login outcomes, typically for metrics.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// ServiceConfig wires the collaborators and the primary admin identity.
type ServiceConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminUserID   string

	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Throttle LoginThrottle
	Audit    audit.Recorder
	Observer LoginObserver
	Logger   *slog.Logger
}

// Service wraps authentication and login account rules.
type Service struct {
	repo     Repository
	cfg      ServiceConfig
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	cfg.AdminEmail = NormalizeEmail(cfg.AdminEmail)
	if cfg.Hasher == nil {
		cfg.Hasher = NewBcryptHasher(DefaultBcryptCost)
	}
	if cfg.Throttle == nil {
		cfg.Throttle = NopThrottle{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cfg: cfg, validate: newValidator(), logger: logger}
}

// IsPrimaryAdminEmail reports whether email belongs to the primary admin.
func (s *Service) IsPrimaryAdminEmail(email string) bool {
	return NormalizeEmail(email) == s.cfg.AdminEmail
}

// Login checks credentials against the configured primary admin first and
// the credential store second. Failures never reveal which field was wrong.
// The throttle only guards store lookups; the configured admin is never
// locked out.
func (s *Service) Login(ctx context.Context, rawEmail, password string) (LoginResult, error) {
	email := NormalizeEmail(rawEmail)
	if err := s.validate.Struct(credentialsInput{Email: email, Password: password}); err != nil {
		s.observe(LoginInvalid)
		return LoginResult{}, errInvalidInput
	}

	if email == s.cfg.AdminEmail && subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1 {
		return s.issue(ctx, "", s.cfg.AdminUserID, s.cfg.AdminEmail)
	}

	key := attemptKey(ctx, email)
	if err := s.cfg.Throttle.Allow(ctx, key); err != nil {
		if errors.Is(err, shared.ErrTooManyAttempts) {
			s.observe(LoginThrottled)
			return LoginResult{}, err
		}
		s.logger.Warn("login throttle check", slog.Any("error", err))
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, s.reject(ctx, key)
		}
		return LoginResult{}, fmt.Errorf("auth: find user: %w", err)
	}
	if err := s.cfg.Hasher.Compare(user.PasswordHash, password); err != nil {
		return LoginResult{}, s.reject(ctx, key)
	}
	return s.issue(ctx, key, user.ID, user.Email)
}

// attemptKey scopes failure counters to the calling client and the email, so
// one client's guesses never lock the account for everyone else.
func attemptKey(ctx context.Context, email string) string {
	ip, ok := shared.ClientIPFromContext(ctx)
	if !ok || ip == "" {
		ip = "unknown"
	}
	return ip + "|" + email
}

func (s *Service) issue(ctx context.Context, key, userID, email string) (LoginResult, error) {
	token, err := s.cfg.Tokens.Issue(userID, email)
	if err != nil {
		return LoginResult{}, err
	}
	if key != "" {
		if err := s.cfg.Throttle.Reset(ctx, key); err != nil {
			s.logger.Warn("login throttle reset", slog.Any("error", err))
		}
	}
	s.observe(LoginSucceeded)
	return LoginResult{Token: token, User: UserView{ID: userID, Email: email}}, nil
}

func (s *Service) reject(ctx context.Context, key string) error {
	if err := s.cfg.Throttle.Fail(ctx, key); err != nil {
		s.logger.Warn("login throttle record", slog.Any("error", err))
	}
	s.observe(LoginRejected)
	return errInvalidLogin
}

func (s *Service) observe(outcome string) {
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveLogin(outcome)
	}
}

// ListUsers returns all stored login accounts.
func (s *Service) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.view())
	}
	return views, nil
}

// CreateUser stores a new login account. The primary admin email is reserved.
func (s *Service) CreateUser(ctx context.Context, rawEmail, password string) (UserView, error) {
	email := NormalizeEmail(rawEmail)
	if err := s.validate.Struct(credentialsInput{Email: email, Password: password}); err != nil {
		return UserView{}, errInvalidInput
	}
	if email == s.cfg.AdminEmail {
		return UserView{}, errReservedEmail
	}
	hash, err := s.cfg.Hasher.Hash(password)
	if err != nil {
		return UserView{}, err
	}
	user, err := s.repo.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return UserView{}, errEmailRegistered
		}
		return UserView{}, err
	}
	audit.Emit(ctx, s.cfg.Audit, s.logger, audit.Entry{
		Action:   audit.ActionCreate,
		Entity:   audit.EntityUser,
		EntityID: user.ID,
		Meta:     map[string]any{"email": user.Email},
	})
	return user.view(), nil
}

// UpdatePassword rotates the password of a stored account.
func (s *Service) UpdatePassword(ctx context.Context, id, password string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errInvalidUserID
	}
	if err := s.validate.Struct(passwordInput{Password: password}); err != nil {
		return errInvalidPassword
	}
	hash, err := s.cfg.Hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errUserMissing
		}
		return err
	}
	audit.Emit(ctx, s.cfg.Audit, s.logger, audit.Entry{
		Action:   audit.ActionSetPassword,
		Entity:   audit.EntityUser,
		EntityID: id,
	})
	return nil
}

// DeleteUser removes a stored account. A row holding the primary admin email
// can never be removed.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errInvalidUserID
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errUserMissing
		}
		return err
	}
	if s.IsPrimaryAdminEmail(user.Email) {
		return errPrimaryAdminGuard
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errUserMissing
		}
		return err
	}
	audit.Emit(ctx, s.cfg.Audit, s.logger, audit.Entry{
		Action:   audit.ActionDelete,
		Entity:   audit.EntityUser,
		EntityID: id,
		Meta:     map[string]any{"email": user.Email},
	})
	return nil
}
