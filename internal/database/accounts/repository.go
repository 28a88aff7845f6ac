// Package accounts provides database operations for reader accounts.
//
// Emails are stored lower-cased and trimmed; the unique email index is what
// rejects a second account for the same address.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/entities"
)

// ErrDuplicateEmail is returned by Create when the email is already registered.
// It wraps database.ErrConstraintViolation.
var ErrDuplicateEmail = fmt.Errorf("email already registered: %w", database.ErrConstraintViolation)

// Repository handles all account database operations.
type Repository struct {
	accounts *database.Collection[entities.Account]
	now      func() time.Time
}

// NewRepository creates a new accounts repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{
		accounts: database.CollectionOf[entities.Account](db, database.CollectionAccounts),
		now:      time.Now,
	}
}

// NormalizeEmail returns the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new account, assigning its id and creation time.
func (r *Repository) Create(ctx context.Context, acc *entities.Account) error {
	acc.Email = NormalizeEmail(acc.Email)
	if acc.Email == "" || !strings.Contains(acc.Email, "@") {
		return database.NewValidationError("email", "must be an email address")
	}
	if acc.CredentialHash == "" {
		return database.NewValidationError("credential", "must not be empty")
	}
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = r.now().UTC()
	}

	if err := r.accounts.Insert(ctx, acc); err != nil {
		if errors.Is(err, database.ErrConstraintViolation) {
			return fmt.Errorf("%s: %w", acc.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByEmail looks an account up by email, returning database.ErrNotFound if
// none is registered.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	email = NormalizeEmail(email)
	acc, ok, err := r.accounts.GetUnique(ctx, database.IndexEmail, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("account %s: %w", email, database.ErrNotFound)
	}
	return &acc, nil
}

// Get retrieves an account by id.
func (r *Repository) Get(ctx context.Context, id string) (*entities.Account, error) {
	acc, ok, err := r.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, database.ErrNotFound)
	}
	return &acc, nil
}
