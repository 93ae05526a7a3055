// Package session owns the authentication state of the favx client.
//
// The [Manager] holds the bearer token, the current user, a loading flag and the last error
// message. The token is persisted through a [tokenstore.Store] and handed explicitly to each
// API call; nothing else in the process carries it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/favx/internal/models"
	"github.com/desertthunder/favx/internal/services"
	"github.com/desertthunder/favx/internal/shared"
	"github.com/desertthunder/favx/internal/tokenstore"
	"github.com/desertthunder/favx/internal/validation"
)

const (
	msgRegisterFailed = "Registration failed"
	msgLoginFailed    = "Login failed"
	msgFetchFailed    = "Failed to fetch user data"
)

// API is the subset of [services.Client] the session needs.
type API interface {
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Me(ctx context.Context, token string) (*models.User, error)
}

// Manager coordinates login state. It is safe for concurrent use.
type Manager struct {
	api       API
	store     tokenstore.Store
	validator *validation.Validator
	logger    *log.Logger

	mu          sync.RWMutex
	token       string
	user        *models.User
	inFlight    int
	err         string
	lastFailure string
}

// NewManager creates a [Manager]. A nil logger discards.
func NewManager(api API, store tokenstore.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewDiscardLogger()
	}
	return &Manager{
		api:       api,
		store:     store,
		validator: validation.New(),
		logger:    logger,
	}
}

// Register creates an account and returns the server payload. It does not sign in.
func (m *Manager) Register(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	done := m.begin(true)
	defer done()

	creds := models.Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := m.validator.Validate(creds); err != nil {
		m.fail(err.Error())
		return nil, err
	}

	resp, err := m.api.Register(ctx, creds)
	if err != nil {
		m.fail(services.Message(err, msgRegisterFailed))
		return nil, err
	}

	m.logger.Debug("registered", "username", creds.Username)
	return resp, nil
}

// Login exchanges credentials for a token, persists it and loads the current user.
//
// When loading the user fails the session ends signed out and the error is returned.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	done := m.begin(true)
	defer done()

	creds := models.Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := m.validator.Validate(creds); err != nil {
		m.fail(err.Error())
		return nil, err
	}

	resp, err := m.api.Login(ctx, creds)
	if err != nil {
		m.fail(services.Message(err, msgLoginFailed))
		return nil, err
	}

	token := strings.TrimSpace(resp.Token)
	if token == "" {
		m.fail(msgLoginFailed)
		return nil, fmt.Errorf("%w: login response has no token", shared.ErrAuthFailed)
	}

	if err := m.store.Set(token); err != nil {
		m.fail(msgLoginFailed)
		return nil, err
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	m.logger.Debug("signed in", "username", creds.Username)

	if err := m.FetchCurrentUser(ctx); err != nil {
		m.fail(m.LastFailure())
		return nil, err
	}
	return resp, nil
}

// FetchCurrentUser loads the profile for the current token.
//
// Without a token it does nothing. On failure the session is logged out; the
// message stays available through [Manager.LastFailure].
func (m *Manager) FetchCurrentUser(ctx context.Context) error {
	token := m.Token()
	if token == "" {
		return nil
	}

	done := m.begin(false)
	defer done()

	user, err := m.api.Me(ctx, token)

	m.mu.Lock()
	if m.token != token {
		// signed out or replaced while the request was in flight
		m.mu.Unlock()
		return err
	}
	if err == nil {
		m.user = user
		m.mu.Unlock()
		return nil
	}
	msg := services.Message(err, msgFetchFailed)
	m.err, m.lastFailure = msg, msg
	m.mu.Unlock()

	m.logger.Debug("current user fetch failed, signing out", "error", err)
	if logoutErr := m.Logout(); logoutErr != nil {
		return errors.Join(err, logoutErr)
	}
	return err
}

// Logout clears the user, token and error and removes the persisted token.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.err = ""
	m.mu.Unlock()

	if err := m.store.Remove(); err != nil {
		return err
	}
	m.logger.Debug("signed out")
	return nil
}

// Initialize restores a persisted token and starts loading its user in the background.
//
// The returned channel closes when that load finishes; it is already closed when there
// was no token to restore.
func (m *Manager) Initialize(ctx context.Context) (<-chan struct{}, error) {
	done := make(chan struct{})

	token, ok, err := m.store.Get()
	if err != nil || !ok {
		close(done)
		return done, err
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	go func() {
		defer close(done)
		_ = m.FetchCurrentUser(ctx)
	}()
	return done, nil
}

// Token returns the in-memory token, empty when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether a token is held.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// CurrentUser returns a copy of the loaded user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// LastFailure returns the most recent failure message, including one cleared by a logout.
func (m *Manager) LastFailure() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFailure
}

// Snapshot returns a copy of the session state.
func (m *Manager) Snapshot() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := models.Session{
		Token:   m.token,
		Loading: m.inFlight > 0,
		Error:   m.err,
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// begin marks an operation in flight, optionally clearing the error, and returns its release.
func (m *Manager) begin(clearErr bool) func() {
	m.mu.Lock()
	m.inFlight++
	if clearErr {
		m.err = ""
	}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}
}

func (m *Manager) fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = msg
	m.lastFailure = msg
}
