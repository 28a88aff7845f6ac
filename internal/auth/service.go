package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/mymanga/internal/config"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/database/accounts"
	"github.com/mrlokans/mymanga/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionClosed      = errors.New("session is closed")
	ErrAccountExists      = errors.New("email already registered")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrNotAdmin           = errors.New("administrator account required")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// AdminDisplayName is the display name of the seeded administrator.
const AdminDisplayName = "System Admin"

// AccountStore defines the account data access the service needs.
type AccountStore interface {
	Create(ctx context.Context, acc *entities.Account) error
	FindByEmail(ctx context.Context, email string) (*entities.Account, error)
}

// Service handles sign-in, sign-up and sign-out.
type Service struct {
	accounts AccountStore
	config   config.Auth
	throttle *LoginThrottle
}

// NewService creates a new authentication service.
func NewService(store AccountStore, cfg config.Auth) *Service {
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = config.DefaultAdminEmail
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = config.DefaultBcryptCost
	}
	return &Service{
		accounts: store,
		config:   cfg,
		throttle: NewLoginThrottle(cfg.MaxLoginAttempts, cfg.LoginWindow, cfg.LockoutDuration),
	}
}

func (s *Service) isAdminEmail(email string) bool {
	return email == accounts.NormalizeEmail(s.config.AdminEmail)
}

func (s *Service) newSession(acc *entities.Account) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	return &Session{ID: id, Account: *acc, CreatedAt: time.Now().UTC()}, nil
}

// seedAdmin creates the administrator account on the first demo login.
func (s *Service) seedAdmin(ctx context.Context, email, password string) (*entities.Account, error) {
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to seed administrator: %w", err)
	}
	admin := &entities.Account{
		DisplayName:    AdminDisplayName,
		Email:          email,
		CredentialHash: hash,
		IsAdmin:        true,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			// Seeded concurrently by another login
			return s.accounts.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}
	slog.InfoContext(ctx, "seeded administrator account", "email", email)
	return admin, nil
}

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = accounts.NormalizeEmail(email)

	if ok, retryAfter := s.throttle.Allow(email); !ok {
		return nil, fmt.Errorf("%w, retry in %s", ErrAccountLocked, retryAfter.Round(time.Second))
	}

	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		if s.config.AdminDemoPassword != "" && s.isAdminEmail(email) && password == s.config.AdminDemoPassword {
			acc, err = s.seedAdmin(ctx, email, password)
		} else {
			s.throttle.RecordFailure(email)
			return nil, ErrAccountNotFound
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if err := CheckPassword(password, acc.CredentialHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			if s.throttle.RecordFailure(email) {
				slog.WarnContext(ctx, "login locked out", "email", email)
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	s.throttle.RecordSuccess(email)

	session, err := s.newSession(acc)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "logged in", "account_id", acc.ID, "admin", acc.IsAdmin)
	return session, nil
}

// Signup registers a new account and signs it in. Only the configured admin
// email is registered as an administrator.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email = accounts.NormalizeEmail(email)
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	acc := &entities.Account{
		DisplayName:    name,
		Email:          email,
		CredentialHash: hash,
		IsAdmin:        s.isAdminEmail(email),
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, email)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.InfoContext(ctx, "account created", "account_id", acc.ID, "admin", acc.IsAdmin)
	return s.newSession(acc)
}

// Logout closes the session.
func (s *Service) Logout(session *Session) error {
	if session == nil {
		return ErrSessionClosed
	}
	if err := session.Close(); err != nil {
		return err
	}
	slog.Info("logged out", "account_id", session.AccountID())
	return nil
}

// RequireAdmin returns an error unless session is an open administrator session.
func RequireAdmin(session *Session) error {
	if !session.Active() {
		return ErrSessionClosed
	}
	if !session.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}
