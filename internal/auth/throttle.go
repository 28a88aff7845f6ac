package auth

import (
	"sync"
	"time"
)

// LoginThrottle locks an email out after too many failed logins within a
// window. It keeps no state on disk; a restart clears it.
type LoginThrottle struct {
	mu              sync.Mutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// NewLoginThrottle creates a throttle. Non-positive arguments fall back to
// 5 attempts per 15 minutes and a 30 minute lockout.
func NewLoginThrottle(maxAttempts int, window, lockout time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}
	return &LoginThrottle{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
		now:             time.Now,
	}
}

// Allow reports whether a login for email may be attempted, and if not, how
// long until it may.
func (t *LoginThrottle) Allow(email string) (bool, time.Duration) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	record, exists := t.attempts[email]
	if !exists {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > t.windowDuration || !record.lockedUntil.IsZero() {
		// Window or lockout expired
		delete(t.attempts, email)
	}
	return true, 0
}

// RecordFailure counts a failed login and reports whether it triggered a lockout.
func (t *LoginThrottle) RecordFailure(email string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	record, exists := t.attempts[email]
	if !exists || now.Sub(record.firstAttempt) > t.windowDuration {
		record = &attemptRecord{firstAttempt: now}
		t.attempts[email] = record
	}

	record.count++
	if record.count >= t.maxAttempts {
		record.lockedUntil = now.Add(t.lockoutDuration)
		return true
	}
	return false
}

// RecordSuccess clears the failure record for email.
func (t *LoginThrottle) RecordSuccess(email string) {
	t.mu.Lock()
	delete(t.attempts, email)
	t.mu.Unlock()
}
