// Package services holds the client-side application services: the auth
// session manager, the training-session controller and the row-backed data
// services. Services depend on the backend and vendor interfaces, never on
// the HTTP implementations directly.
package services

import (
	"context"
	"sync"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/logging"
)

// AuthState is the session manager's derived lifecycle state.
type AuthState string

const (
	StateUninitialized   AuthState = "uninitialized"
	StateLoading         AuthState = "loading"
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticated   AuthState = "authenticated"
)

// identity yields the signed-in user's id, empty when nobody is signed in.
// SessionManager implements it; the data services depend on it.
type identity interface {
	CurrentUserID() string
}

// SessionManager tracks the authentication state of the client. It is the
// single source of truth for "who is signed in": state follows the auth
// event stream exclusively, never the direct results of SignIn/SignOut
// calls, so state stays correct however the session changes.
type SessionManager struct {
	auth   backend.AuthAPI
	logger logging.Logger

	mu      sync.RWMutex
	state   AuthState
	user    *backend.User
	session *backend.Session

	unsubscribe func()
	done        chan struct{}
}

// NewSessionManager subscribes to the auth event stream and launches the
// initial session check in the background. The manager starts in
// StateLoading and settles once the check resolves or the first event
// arrives. Call Close to release the subscription.
func NewSessionManager(auth backend.AuthAPI, logger logging.Logger) *SessionManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	m := &SessionManager{
		auth:   auth,
		logger: logger,
		state:  StateLoading,
		done:   make(chan struct{}),
	}

	events, unsubscribe := auth.Subscribe()
	m.unsubscribe = unsubscribe
	go m.consume(events)
	go m.initialCheck()

	return m
}

// consume applies auth events strictly in arrival order. The event goroutine
// is the only writer of user/session; later events overwrite earlier state.
func (m *SessionManager) consume(events <-chan backend.Event) {
	defer close(m.done)
	for ev := range events {
		m.apply(ev)
	}
}

func (m *SessionManager) apply(ev backend.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = ev.Session
	if ev.Session != nil {
		m.user = ev.Session.User
	} else {
		m.user = nil
	}

	if m.user != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateUnauthenticated
	}

	m.logger.Debug(context.Background(), "auth state changed",
		"event", string(ev.Type), "state", string(m.state))
}

// initialCheck resolves any persisted session. The result reaches state via
// the INITIAL_SESSION event; only a failed check is handled here, because a
// failure emits nothing.
func (m *SessionManager) initialCheck() {
	ctx := context.Background()
	if _, err := m.auth.GetSession(ctx); err != nil {
		m.logger.Error(ctx, "initial session check failed", "error", err)
		m.mu.Lock()
		if m.state == StateLoading {
			m.state = StateUnauthenticated
		}
		m.mu.Unlock()
	}
}

// State returns the current lifecycle state.
func (m *SessionManager) State() AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentUser returns the signed-in user, or nil.
func (m *SessionManager) CurrentUser() *backend.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// CurrentSession returns the current credential session, or nil.
func (m *SessionManager) CurrentSession() *backend.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// CurrentUserID returns the signed-in user's id, or "" when nobody is
// signed in.
func (m *SessionManager) CurrentUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.ID
}

// SignUp registers a new account. Registration does not sign the user in.
func (m *SessionManager) SignUp(ctx context.Context, email, password string) (*backend.User, error) {
	return m.auth.SignUp(ctx, email, password)
}

// SignIn authenticates with email and password. The manager's state updates
// through the resulting SIGNED_IN event.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	return m.auth.SignIn(ctx, email, password)
}

// SignOut terminates the current session.
func (m *SessionManager) SignOut(ctx context.Context) error {
	return m.auth.SignOut(ctx)
}

// RefreshSession exchanges the refresh token for a fresh session.
func (m *SessionManager) RefreshSession(ctx context.Context) (*backend.Session, error) {
	return m.auth.RefreshSession(ctx)
}

// Close releases the event subscription and waits for the event goroutine
// to drain.
func (m *SessionManager) Close() {
	m.unsubscribe()
	<-m.done
}
