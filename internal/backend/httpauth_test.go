package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/fitsync-app/fitsync/internal/common"
)

// ---- fakes ----

type memTokenStore struct {
	mu      sync.Mutex
	session *Session

	SaveErr error
	LoadErr error
}

func (m *memTokenStore) SaveSession(ctx context.Context, s *Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

func (m *memTokenStore) LoadSession(ctx context.Context) (*Session, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	return &cp, nil
}

func (m *memTokenStore) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/signup":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] == "taken@example.test" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"msg":"User already registered"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(User{ID: "user-1", Email: body["email"]})

		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "correct" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(Session{
				AccessToken:  signedJWT(t, time.Now().Add(time.Hour)),
				TokenType:    "bearer",
				ExpiresIn:    3600,
				RefreshToken: "refresh-1",
				User:         &User{ID: "user-1", Email: body["email"]},
			})

		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh_token"] == "revoked" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error_description":"Invalid Refresh Token"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(Session{
				AccessToken:  signedJWT(t, time.Now().Add(time.Hour)),
				TokenType:    "bearer",
				ExpiresIn:    3600,
				RefreshToken: "refresh-2",
				User:         &User{ID: "user-1", Email: "a@example.test"},
			})

		case r.URL.Path == "/auth/v1/user":
			if r.Header.Get("Authorization") == "Bearer anon" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"msg":"invalid claim: missing sub claim"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(User{ID: "user-1", Email: "a@example.test"})

		case r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func collectEvents(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(events))
		}
	}
	return events
}

// ---- TESTS ----

func TestSignIn_SuccessEmitsSignedInAndPersists(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	store := &memTokenStore{}
	c := NewHTTPAuthClient(srv.URL, "anon", store, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	sess, err := c.SignIn(context.Background(), "a@example.test", "correct")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", sess.RefreshToken)
	require.Equal(t, "user-1", sess.User.ID)
	require.Greater(t, sess.ExpiresAt, time.Now().Unix())

	events := collectEvents(t, ch, 1)
	require.Equal(t, EventSignedIn, events[0].Type)
	require.NotNil(t, events[0].Session)

	require.NotNil(t, store.session)
	require.Equal(t, sess.AccessToken, store.session.AccessToken)
	require.Equal(t, sess.AccessToken, c.AccessToken())
}

func TestSignIn_BadCredentialsPropagatesVerbatim(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", nil, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	_, err := c.SignIn(context.Background(), "a@example.test", "wrong")
	require.Error(t, err)

	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Equal(t, "Invalid login credentials", ae.Message)

	select {
	case ev := <-ch:
		t.Fatalf("no event expected on failed sign-in, got %v", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
	require.Empty(t, c.AccessToken())
}

func TestSignUp_DoesNotChangeState(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", nil, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	user, err := c.SignUp(context.Background(), "new@example.test", "pw")
	require.NoError(t, err)
	require.Equal(t, "new@example.test", user.Email)
	require.Empty(t, c.AccessToken())

	select {
	case ev := <-ch:
		t.Fatalf("no event expected on sign-up, got %v", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}

	_, err = c.SignUp(context.Background(), "taken@example.test", "pw")
	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "User already registered", ae.Message)
}

func TestSignOut_ClearsAndEmits(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	store := &memTokenStore{}
	c := NewHTTPAuthClient(srv.URL, "anon", store, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	_, err := c.SignIn(context.Background(), "a@example.test", "correct")
	require.NoError(t, err)
	require.NoError(t, c.SignOut(context.Background()))

	events := collectEvents(t, ch, 2)
	require.Equal(t, EventSignedIn, events[0].Type)
	require.Equal(t, EventSignedOut, events[1].Type)
	require.Nil(t, events[1].Session)

	require.Empty(t, c.AccessToken())
	require.Nil(t, store.session)
}

func TestGetSession_RestoresPersistedSession(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	store := &memTokenStore{session: &Session{
		AccessToken:  signedJWT(t, time.Now().Add(time.Hour)),
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		RefreshToken: "refresh-1",
		User:         &User{ID: "user-1", Email: "a@example.test"},
	}}

	c := NewHTTPAuthClient(srv.URL, "anon", store, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	sess, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "user-1", sess.User.ID)

	events := collectEvents(t, ch, 1)
	require.Equal(t, EventInitialSession, events[0].Type)
	require.NotNil(t, events[0].Session)
}

func TestGetSession_RefreshesExpiredRestoredSession(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	store := &memTokenStore{session: &Session{
		AccessToken:  signedJWT(t, time.Now().Add(-time.Hour)),
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
		RefreshToken: "refresh-1",
		User:         &User{ID: "user-1", Email: "a@example.test"},
	}}

	c := NewHTTPAuthClient(srv.URL, "anon", store, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	sess, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "refresh-2", sess.RefreshToken)
	require.False(t, sess.Expired())

	events := collectEvents(t, ch, 2)
	require.Equal(t, EventTokenRefreshed, events[0].Type)
	require.Equal(t, EventInitialSession, events[1].Type)
}

func TestGetSession_NoSessionIsNotAnError(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", &memTokenStore{}, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	defer unsub()

	sess, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, sess)

	events := collectEvents(t, ch, 1)
	require.Equal(t, EventInitialSession, events[0].Type)
	require.Nil(t, events[0].Session)
}

func TestRefreshSession_FailureKeepsCachedSession(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", nil, srv.Client(), nil)

	sess, err := c.SignIn(context.Background(), "a@example.test", "correct")
	require.NoError(t, err)

	// sabotage: make the cached refresh token one the server rejects
	c.mu.Lock()
	c.session.RefreshToken = "revoked"
	c.mu.Unlock()

	_, err = c.RefreshSession(context.Background())
	var ae *AuthError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "Invalid Refresh Token", ae.Message)

	// the prior session must still be cached
	require.Equal(t, sess.AccessToken, c.AccessToken())
}

func TestGetUser(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", nil, srv.Client(), nil)

	_, err := c.GetUser(context.Background())
	require.True(t, errors.Is(err, common.ErrNotAuthenticated))

	_, err = c.SignIn(context.Background(), "a@example.test", "correct")
	require.NoError(t, err)

	user, err := c.GetUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
}

func TestRefreshSession_WithoutSession(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", nil, srv.Client(), nil)
	_, err := c.RefreshSession(context.Background())
	require.True(t, errors.Is(err, common.ErrNotAuthenticated))
}

func TestTokenExpiry_FallsBackToJWTClaim(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := signedJWT(t, exp)
	require.Equal(t, exp.Unix(), tokenExpiry(token))
	require.Zero(t, tokenExpiry("not-a-jwt"))
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	srv := newAuthServer(t)
	defer srv.Close()

	c := NewHTTPAuthClient(srv.URL, "anon", nil, srv.Client(), nil)
	ch, unsub := c.Subscribe()
	unsub()

	// channel is closed after unsubscribe
	_, open := <-ch
	require.False(t, open)

	// emitting after unsubscribe must not panic or block
	_, err := c.SignIn(context.Background(), "a@example.test", "correct")
	require.NoError(t, err)
}

func TestSignIn_TransportFailure(t *testing.T) {
	c := NewHTTPAuthClient("http://127.0.0.1:1", "anon", nil, nil, nil)
	_, err := c.SignIn(context.Background(), "a@example.test", "correct")
	require.True(t, errors.Is(err, common.ErrNetwork))
}
