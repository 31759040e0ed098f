package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ljthub/authcli/internal/client/models"
	"github.com/ljthub/authcli/internal/client/repositories/sessionstore"
	"github.com/ljthub/authcli/internal/logging"
)

// ---- helpers ----

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupStore(t *testing.T) *sessionstore.SQLiteRepository {
	t.Helper()
	db, err := sessionstore.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sessionstore.NewSQLiteRepository(db)
}

func getKey(t *testing.T, store sessionstore.Repository, key string) []byte {
	t.Helper()
	v, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func sampleUser() *models.User {
	return &models.User{
		ID:         "1",
		Email:      "a@b.com",
		Username:   "a@b.com",
		IsActive:   true,
		IsVerified: false,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// assertState checks the expected values and that IsAuthenticated holds
// exactly when a token is set.
func assertState(t *testing.T, st State, token string, user *models.User) {
	t.Helper()
	assert.Equal(t, token, st.Token)
	assert.Equal(t, token != "", st.IsAuthenticated)
	if user == nil {
		assert.Nil(t, st.User)
	} else {
		require.NotNil(t, st.User)
		assert.Equal(t, user.ID, st.User.ID)
		assert.Equal(t, user.Username, st.User.Username)
		assert.Equal(t, user.IsVerified, st.User.IsVerified)
	}
}

// ---- fake client ----

// fakeClient implements api.Client for session manager unit tests. The
// mutex keeps counters readable from tests that run manager goroutines.
type fakeClient struct {
	mu sync.Mutex

	LoginRet   string
	LoginErr   error
	LoginCalls int
	LastLogin  [2]string // username, password

	CurrentUserRet   *models.User
	CurrentUserErr   error
	CurrentUserCalls int
	LastToken        string

	RegisterRet  *models.User
	RegisterErr  error
	LastRegister [3]string // email, username, password

	VerifyErr       error
	VerifyCalls     int
	LastVerifyToken string

	ResendErr       error
	ResendCalls     int
	LastResendToken string

	ResendPublicErr   error
	ResendPublicCalls int
	LastResendEmail   string
}

func (f *fakeClient) Login(_ context.Context, username, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	f.LastLogin = [2]string{username, password}
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) CurrentUser(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CurrentUserCalls++
	f.LastToken = token
	if f.CurrentUserErr != nil {
		return nil, f.CurrentUserErr
	}
	u := *f.CurrentUserRet
	return &u, nil
}

func (f *fakeClient) currentUserCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CurrentUserCalls
}

func (f *fakeClient) Register(_ context.Context, email, username, password string) (*models.User, error) {
	f.LastRegister = [3]string{email, username, password}
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeClient) VerifyEmail(_ context.Context, token string) error {
	f.VerifyCalls++
	f.LastVerifyToken = token
	return f.VerifyErr
}

func (f *fakeClient) ResendVerification(_ context.Context, token string) error {
	f.ResendCalls++
	f.LastResendToken = token
	return f.ResendErr
}

func (f *fakeClient) ResendVerificationPublic(_ context.Context, email string) error {
	f.ResendPublicCalls++
	f.LastResendEmail = email
	return f.ResendPublicErr
}

func newManager(t *testing.T, fc *fakeClient, ttl time.Duration) (*SessionManager, *sessionstore.SQLiteRepository) {
	t.Helper()
	store := setupStore(t)
	m := NewSessionManager(fc, store, ttl, testLogger())
	t.Cleanup(m.Close)
	return m, store
}

// ---- TESTS ----

func TestNewManager_StartsLoading(t *testing.T) {
	m, _ := newManager(t, &fakeClient{}, 0)

	st := m.Snapshot()
	assert.True(t, st.IsLoading)
	assert.False(t, st.IsAuthenticated)
}

func TestLogin_Remembered_PersistsTokenAndUser(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, store := newManager(t, fc, 0)

	err := m.Login(context.Background(), "a@b.com", "secret1", true)
	require.NoError(t, err)

	assertState(t, m.Snapshot(), "tok123", sampleUser())
	assert.False(t, m.Snapshot().IsLoading)
	assert.Equal(t, [2]string{"a@b.com", "secret1"}, fc.LastLogin)
	assert.Equal(t, "tok123", fc.LastToken)

	require.Equal(t, []byte("tok123"), getKey(t, store, sessionstore.KeyToken))

	var stored models.User
	require.NoError(t, json.Unmarshal(getKey(t, store, sessionstore.KeyUser), &stored))
	assert.Equal(t, "a@b.com", stored.Username)
}

func TestLogin_NotRemembered_NothingPersisted(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, store := newManager(t, fc, time.Hour)

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))

	assertState(t, m.Snapshot(), "tok123", sampleUser())
	assert.Nil(t, getKey(t, store, sessionstore.KeyToken))
	assert.Nil(t, getKey(t, store, sessionstore.KeyUser))
}

func TestLogin_NotRemembered_ExpiresAfterTTL(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, _ := newManager(t, fc, 20*time.Millisecond)

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))
	require.True(t, m.Snapshot().IsAuthenticated)

	require.Eventually(t, func() bool {
		return !m.Snapshot().IsAuthenticated
	}, time.Second, 5*time.Millisecond)

	assertState(t, m.Snapshot(), "", nil)
}

func TestLogin_StaleExpiryTimerCannotKillNewSession(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, _ := newManager(t, fc, 30*time.Millisecond)

	// first session is memory-only and arms the expiry timer
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))

	// a fresh remembered login replaces it before the timer fires
	fc.LoginRet = "tok456"
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", true))

	time.Sleep(100 * time.Millisecond)
	assert.True(t, m.Snapshot().IsAuthenticated)
	assert.Equal(t, "tok456", m.Snapshot().Token)
}

func TestLogin_TokenWithoutProfile_StateUnchanged(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserErr: errors.New("boom")}
	m, store := newManager(t, fc, 0)

	err := m.Login(context.Background(), "a@b.com", "secret1", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile fetch error")

	// no partial application: no token in memory, nothing on disk
	assertState(t, m.Snapshot(), "", nil)
	assert.Nil(t, getKey(t, store, sessionstore.KeyToken))
	assert.Nil(t, getKey(t, store, sessionstore.KeyUser))
}

func TestLogin_RejectedCredentials_StateUnchanged(t *testing.T) {
	fc := &fakeClient{LoginErr: errors.New("incorrect username or password")}
	m, _ := newManager(t, fc, 0)

	err := m.Login(context.Background(), "a@b.com", "wrong", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login error")
	assertState(t, m.Snapshot(), "", nil)
	assert.Equal(t, 0, fc.CurrentUserCalls)
}

func TestLoginThenLogout_AnonymousAndKeysAbsent(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, store := newManager(t, fc, 0)

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", true))
	m.Logout(context.Background())

	assertState(t, m.Snapshot(), "", nil)
	assert.Nil(t, getKey(t, store, sessionstore.KeyToken))
	assert.Nil(t, getKey(t, store, sessionstore.KeyUser))
}

func TestLogout_StoreFailure_MemoryStillCleared(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	store := &erroringStore{err: errors.New("disk gone")}
	m := NewSessionManager(fc, store, 0, testLogger())
	t.Cleanup(m.Close)

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))
	m.Logout(context.Background())

	assertState(t, m.Snapshot(), "", nil)
}

func TestRegister_DelegatesAndLeavesStateAlone(t *testing.T) {
	created := sampleUser()
	created.Username = "newuser"
	fc := &fakeClient{RegisterRet: created}
	m, _ := newManager(t, fc, 0)

	user, err := m.Register(context.Background(), "a@b.com", "newuser", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)
	assert.Equal(t, [3]string{"a@b.com", "newuser", "secret1"}, fc.LastRegister)

	assert.False(t, m.Snapshot().IsAuthenticated)
}

func TestRegister_ErrorWrapped(t *testing.T) {
	fc := &fakeClient{RegisterErr: errors.New("email already registered")}
	m, _ := newManager(t, fc, 0)

	_, err := m.Register(context.Background(), "a@b.com", "u", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration error")
	assert.Contains(t, err.Error(), "email already registered")
}

func TestVerifyEmail_Authenticated_RefreshesVerifiedFlag(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, store := newManager(t, fc, 0)
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", true))

	verified := sampleUser()
	verified.IsVerified = true
	fc.CurrentUserRet = verified

	require.NoError(t, m.VerifyEmail(context.Background(), "verify-me"))

	assert.Equal(t, "verify-me", fc.LastVerifyToken)
	st := m.Snapshot()
	require.NotNil(t, st.User)
	assert.True(t, st.User.IsVerified)

	var stored models.User
	require.NoError(t, json.Unmarshal(getKey(t, store, sessionstore.KeyUser), &stored))
	assert.True(t, stored.IsVerified)
}

func TestVerifyEmail_Anonymous_NoProfileFetchNoSession(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc, 0)

	require.NoError(t, m.VerifyEmail(context.Background(), "verify-me"))

	assert.Equal(t, 1, fc.VerifyCalls)
	assert.Equal(t, 0, fc.CurrentUserCalls)
	assert.False(t, m.Snapshot().IsAuthenticated)
}

func TestVerifyEmail_RefreshFailure_IsNotFatal(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, _ := newManager(t, fc, 0)
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))

	fc.CurrentUserErr = errors.New("flaky")
	require.NoError(t, m.VerifyEmail(context.Background(), "verify-me"))

	// session survives with the pre-refresh profile
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestResendVerification_Account_UsesSessionToken(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, _ := newManager(t, fc, 0)
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))

	require.NoError(t, m.ResendVerification(context.Background(), ResendToAccount()))
	assert.Equal(t, 1, fc.ResendCalls)
	assert.Equal(t, "tok123", fc.LastResendToken)
	assert.Equal(t, 0, fc.ResendPublicCalls)
}

func TestResendVerification_AccountWithoutSession_UsageErrorNoNetwork(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc, 0)

	err := m.ResendVerification(context.Background(), ResendToAccount())
	require.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 0, fc.ResendCalls)
	assert.Equal(t, 0, fc.ResendPublicCalls)
}

func TestResendVerification_Email_UsesPublicEndpoint(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc, 0)

	require.NoError(t, m.ResendVerification(context.Background(), ResendToEmail("a@b.com")))
	assert.Equal(t, 1, fc.ResendPublicCalls)
	assert.Equal(t, "a@b.com", fc.LastResendEmail)
	assert.Equal(t, 0, fc.ResendCalls)
}

func TestResendVerification_EmptyEmail_UsageErrorNoNetwork(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc, 0)

	err := m.ResendVerification(context.Background(), ResendToEmail(""))
	require.ErrorIs(t, err, ErrNoEmail)
	assert.Equal(t, 0, fc.ResendPublicCalls)
}

func TestSnapshot_UserIsACopy(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok123", CurrentUserRet: sampleUser()}
	m, _ := newManager(t, fc, 0)
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret1", false))

	st := m.Snapshot()
	st.User.Username = "tampered"

	assert.Equal(t, "a@b.com", m.Snapshot().User.Username)
}

// ---- store failure stub ----

type erroringStore struct{ err error }

func (s *erroringStore) Get(context.Context, string) ([]byte, error)      { return nil, s.err }
func (s *erroringStore) Set(context.Context, string, []byte) error        { return s.err }
func (s *erroringStore) SetMany(context.Context, map[string][]byte) error { return s.err }
func (s *erroringStore) DeleteMany(context.Context, ...string) error      { return s.err }
