package auth

import (
	"sync/atomic"
	"time"

	"github.com/mrlokans/mymanga/internal/entities"
)

// Session is a signed-in reader. It is created by Login and closed by Logout;
// holders check Active before acting on the reader's behalf.
type Session struct {
	ID        string
	Account   entities.Account
	CreatedAt time.Time

	closed atomic.Bool
}

// AccountID returns the id of the signed-in account.
func (s *Session) AccountID() string {
	return s.Account.ID
}

// IsAdmin reports whether the account may upload content.
func (s *Session) IsAdmin() bool {
	return s.Account.IsAdmin
}

// Active reports whether the session has not been closed.
func (s *Session) Active() bool {
	return s != nil && !s.closed.Load()
}

// Close ends the session. It returns ErrSessionClosed if the session was
// already closed.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	return nil
}
