// Package application contains the sync coordinator and the scheduler that
// bridges blocking callers to concurrently executed network work.
package application

import (
	"sync"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// Session holds the remote client and the account it authenticates as.
// Both are swapped together when credentials change so that store queries
// are always scoped to the account that owns the client. An account is only
// trusted for writes once it has been confirmed by the remote service for the
// current client.
type Session struct {
	mu       sync.RWMutex
	client   driven.TimeTracker
	account  *model.Account
	resolved bool
}

// NewSession creates a session. client may be nil when no token is
// configured (offline use). account, when given, scopes reads until the
// remote service confirms who owns client.
func NewSession(client driven.TimeTracker, account *model.Account) *Session {
	return &Session{client: client, account: account}
}

// Client returns the current remote client, or nil.
func (s *Session) Client() driven.TimeTracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Account returns the current account. ok is false until one is known.
func (s *Session) Account() (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return model.Account{}, false
	}
	return *s.account, true
}

// Resolved returns the account confirmed for the current client. ok is
// false until the remote service has been asked since the last Replace.
func (s *Session) Resolved() (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil || !s.resolved {
		return model.Account{}, false
	}
	return *s.account, true
}

// SetAccount records the account the remote service reported for the
// current client.
func (s *Session) SetAccount(acct model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = &acct
	s.resolved = true
}

// Replace swaps in a new client and forgets the account, which must be
// resolved again for the new credentials.
func (s *Session) Replace(client driven.TimeTracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	s.account = nil
	s.resolved = false
}

// HasClient reports whether a remote client is configured.
func (s *Session) HasClient() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}
