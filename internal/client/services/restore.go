package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ljthub/authcli/internal/client/models"
	"github.com/ljthub/authcli/internal/client/repositories/sessionstore"
)

// Restore rehydrates the session from the persistent store at startup. A
// stored token is trusted only after the current-user endpoint confirms
// it, and the server's profile overwrites the stored copy. Any validation
// failure, whether rejection or transport, discards both persisted entries and
// leaves the manager anonymous. A partial record (token without user, or
// the reverse) is treated as corrupt and discarded without a network call.
//
// Whatever the outcome, the manager leaves the loading state.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.loading = false }()

	token, err := m.store.Get(ctx, sessionstore.KeyToken)
	if err != nil {
		return err
	}
	stored, err := m.store.Get(ctx, sessionstore.KeyUser)
	if err != nil {
		return err
	}

	if len(token) == 0 && len(stored) == 0 {
		return nil
	}
	var storedUser models.User
	if len(token) == 0 || len(stored) == 0 || json.Unmarshal(stored, &storedUser) != nil {
		m.log.Warn(ctx, "discarding partial or corrupt stored session")
		m.discardPersisted(ctx)
		return nil
	}

	user, err := m.api.CurrentUser(ctx, string(token))
	if err != nil {
		m.log.Info(ctx, "stored token rejected, starting anonymous", "error", err)
		m.discardPersisted(ctx)
		return nil
	}

	// Server response is authoritative; refresh the stored copy.
	if err := m.persistSession(ctx, string(token), user); err != nil {
		m.log.Warn(ctx, "failed to refresh stored profile", "error", err)
	}

	m.adoptLocked(user, string(token), true)
	m.log.Info(ctx, "session restored", "username", user.Username)
	return nil
}

// RunRevalidation re-checks the session token against the current-user
// endpoint every interval for as long as a session is held, and blocks
// until ctx is cancelled. The first failed check destroys the session;
// later ticks are then no-ops until the next login.
func (m *SessionManager) RunRevalidation(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.revalidate(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *SessionManager) revalidate(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return
	}

	user, err := m.api.CurrentUser(ctx, m.token)
	if err != nil {
		m.log.Info(ctx, "session no longer valid, logging out", "error", err)
		if m.remembered {
			m.discardPersisted(ctx)
		}
		m.clearLocked()
		return
	}
	m.user = user
}

// discardPersisted removes both session entries; best-effort.
func (m *SessionManager) discardPersisted(ctx context.Context) {
	if err := m.store.DeleteMany(ctx, sessionstore.KeyToken, sessionstore.KeyUser); err != nil {
		m.log.Warn(ctx, "failed to discard stored session", "error", err)
	}
}
