// Package services contains the client's application services. This file
// defines the session manager: the single source of truth for
// authentication state, synchronized with the persistent store and
// mediating every call to the remote auth API.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ljthub/authcli/internal/client/api"
	"github.com/ljthub/authcli/internal/client/models"
	"github.com/ljthub/authcli/internal/client/repositories/sessionstore"
	"github.com/ljthub/authcli/internal/logging"
)

var (
	// ErrNoSession marks an account-scoped resend requested without an
	// active session. No network call is made.
	ErrNoSession = errors.New("no active session")

	// ErrNoEmail marks a public resend requested without an address.
	ErrNoEmail = errors.New("email address required")
)

// Session defines the operations the presentation layer drives.
//
// Contract:
//   - Snapshot: read-only copy of the current state.
//   - Login: authenticate and establish a session.
//   - Register: create an account; never authenticates the caller.
//   - Logout: destroy the session; in-memory state is always cleared.
//   - VerifyEmail: redeem a verification token; refreshes the profile of
//     an existing session, never creates one.
//   - ResendVerification: request a new verification email.
//   - Restore: rehydrate a remembered session at startup.
//   - RunRevalidation: periodically re-check the token while logged in.
//   - Close: release timers owned by the manager.
type Session interface {
	Snapshot() State
	Login(ctx context.Context, username, password string, remember bool) error
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Logout(ctx context.Context)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, req ResendRequest) error
	Restore(ctx context.Context) error
	RunRevalidation(ctx context.Context, interval time.Duration)
	Close()
}

// State is a point-in-time copy of the manager's authentication state.
// IsAuthenticated holds exactly when Token is non-empty.
type State struct {
	User            *models.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// SessionManager owns the live session: the bearer token, the user it
// authenticates, and their persisted copies. A single mutex serializes
// every mutating operation (held across the operation's network I/O), so
// overlapping calls cannot interleave their state updates.
type SessionManager struct {
	api        api.Client
	store      sessionstore.Repository
	log        logging.Logger
	sessionTTL time.Duration

	mu         sync.Mutex
	user       *models.User
	token      string
	loading    bool
	remembered bool
	expiry     *time.Timer
	expiryGen  uint64
}

// NewSessionManager builds a manager in the initial (loading) state.
// sessionTTL bounds the lifetime of non-remembered sessions; zero disables
// the client-side expiry.
func NewSessionManager(apiClient api.Client, store sessionstore.Repository, sessionTTL time.Duration, log logging.Logger) *SessionManager {
	return &SessionManager{
		api:        apiClient,
		store:      store,
		log:        log,
		sessionTTL: sessionTTL,
		loading:    true,
	}
}

// Snapshot returns a copy of the current state. The User pointer is a
// copy, so callers cannot mutate the manager's view.
func (m *SessionManager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{
		Token:           m.token,
		IsAuthenticated: m.token != "",
		IsLoading:       m.loading,
	}
	if m.user != nil {
		u := *m.user
		st.User = &u
	}
	return st
}

// Login exchanges credentials for a token, confirms it through the
// current-user endpoint, and only then applies the new session; a failure
// at any step leaves state exactly as it was. When remember is set, the
// token and profile are persisted in one transaction; otherwise they live
// in memory only and a fixed-duration timer forces logout.
func (m *SessionManager) Login(ctx context.Context, username, password string, remember bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading = true
	defer func() { m.loading = false }()

	token, err := m.api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	user, err := m.api.CurrentUser(ctx, token)
	if err != nil {
		return fmt.Errorf("profile fetch error: %w", err)
	}

	if remember {
		if err := m.persistSession(ctx, token, user); err != nil {
			return fmt.Errorf("session save error: %w", err)
		}
	}

	m.adoptLocked(user, token, remember)
	m.log.Info(ctx, "login successful", "username", user.Username, "remembered", remember)
	return nil
}

// Register creates an account. The caller stays unauthenticated; the
// created profile is returned so the caller can drive the
// pending-verification flow.
func (m *SessionManager) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	user, err := m.api.Register(ctx, email, username, password)
	if err != nil {
		return nil, fmt.Errorf("registration error: %w", err)
	}
	return user, nil
}

// Logout destroys the session. Clearing the store is best-effort; the
// in-memory state and the expiry timer are cleared unconditionally.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteMany(ctx, sessionstore.KeyToken, sessionstore.KeyUser); err != nil {
		m.log.Warn(ctx, "failed to clear persisted session", "error", err)
	}
	m.clearLocked()
	m.log.Info(ctx, "logged out")
}

// Close stops the expiry timer. The revalidation loop stops through the
// context passed to RunRevalidation.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopExpiryLocked()
}

// adoptLocked installs a confirmed session, replacing any previous one and
// rescheduling the expiry timer for non-remembered sessions.
func (m *SessionManager) adoptLocked(user *models.User, token string, remembered bool) {
	m.stopExpiryLocked()

	m.user = user
	m.token = token
	m.remembered = remembered

	if !remembered && m.sessionTTL > 0 {
		gen := m.expiryGen
		m.expiry = time.AfterFunc(m.sessionTTL, func() { m.expireSession(gen) })
	}
}

// clearLocked drops the in-memory session and cancels the expiry timer, so
// a stale expiry cannot fire after a fresh login.
func (m *SessionManager) clearLocked() {
	m.stopExpiryLocked()
	m.user = nil
	m.token = ""
	m.remembered = false
}

// stopExpiryLocked cancels the timer and invalidates any callback that is
// already in flight.
func (m *SessionManager) stopExpiryLocked() {
	m.expiryGen++
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
}

// expireSession ends a non-remembered session when its TTL elapses. The
// generation check discards callbacks from a timer that was replaced
// while they waited on the lock.
func (m *SessionManager) expireSession(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.expiryGen || m.token == "" {
		return
	}
	m.clearLocked()
	m.log.Info(context.Background(), "session expired")
}

func (m *SessionManager) persistSession(ctx context.Context, token string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return m.store.SetMany(ctx, map[string][]byte{
		sessionstore.KeyToken: []byte(token),
		sessionstore.KeyUser:  data,
	})
}
