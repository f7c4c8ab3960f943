package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fitsync-app/fitsync/internal/common"
	"github.com/fitsync-app/fitsync/internal/logging"
)

// HTTPAuthClient implements AuthAPI against a GoTrue-style auth endpoint.
//
// The client is the emitter of the auth event stream: every successful
// sign-in, sign-out, refresh and the first session resolution produce an
// event, delivered to subscribers strictly in emission order. Direct call
// results only surface success/failure.
type HTTPAuthClient struct {
	baseURL string
	anonKey string
	httpc   *http.Client
	store   TokenStore
	logger  logging.Logger

	mu       sync.Mutex
	session  *Session
	restored bool
	emitted  bool
	subs     map[int]chan Event
	nextSub  int

	// emitMu serializes event delivery so concurrent emitters cannot
	// interleave events between subscribers.
	emitMu sync.Mutex
}

// NewHTTPAuthClient constructs the auth client. store may be nil (no
// persistence); a nil httpc gets a default client with a 15-second timeout;
// a nil logger is replaced with a no-op one.
func NewHTTPAuthClient(baseURL, anonKey string, store TokenStore, httpc *http.Client, logger logging.Logger) *HTTPAuthClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPAuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpc:   httpc,
		store:   store,
		logger:  logger,
		subs:    make(map[int]chan Event),
	}
}

// Subscribe registers an event channel. The returned func unregisters and
// closes it. The channel is buffered; consumers are expected to drain it
// promptly (the session manager runs a dedicated goroutine).
func (c *HTTPAuthClient) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, 32)
	c.subs[id] = ch

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

func (c *HTTPAuthClient) emit(ev Event) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	targets := make([]chan Event, 0, len(c.subs))
	for _, ch := range c.subs {
		targets = append(targets, ch)
	}
	c.mu.Unlock()

	for _, ch := range targets {
		ch <- ev
	}
}

// AccessToken returns the current access token, or the empty string when no
// session is cached. The row store uses it as its bearer credential.
func (c *HTTPAuthClient) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// SignUp creates an account. It does not change auth state: the backend
// requires a subsequent sign-in (or email confirmation) to establish a
// session.
func (c *HTTPAuthClient) SignUp(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		User  *User  `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", body, "", &out); err != nil {
		return nil, err
	}
	if out.User != nil {
		return out.User, nil
	}
	return &User{ID: out.ID, Email: out.Email}, nil
}

// SignIn performs the password grant. On success the session is cached,
// persisted, and announced via EventSignedIn.
func (c *HTTPAuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var sess Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, "", &sess); err != nil {
		return nil, err
	}
	c.adopt(ctx, &sess, EventSignedIn)
	return &sess, nil
}

// SignOut revokes the session server-side, then clears the local cache and
// announces EventSignedOut. A server rejection propagates and leaves local
// state untouched; the notification alone drives the state transition.
func (c *HTTPAuthClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess != nil {
		if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, sess.AccessToken, nil); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.ClearSession(ctx); err != nil {
			c.logger.Warn(ctx, "failed to clear persisted session", "error", err)
		}
	}
	c.emit(Event{Type: EventSignedOut})
	return nil
}

// GetSession resolves the current credential session. On the first call it
// restores a persisted session, refreshes it once if expired, and emits
// EventInitialSession with the outcome. Absence of a session is a normal
// (nil, nil) result.
func (c *HTTPAuthClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	if !c.restored && c.session == nil && c.store != nil {
		c.restored = true
		c.mu.Unlock()

		stored, err := c.store.LoadSession(ctx)
		if err != nil {
			c.logger.Warn(ctx, "failed to restore persisted session", "error", err)
		}

		c.mu.Lock()
		if stored != nil && c.session == nil {
			c.session = stored
		}
	}
	sess := c.session
	c.mu.Unlock()

	if sess != nil && sess.Expired() {
		if sess.RefreshToken == "" {
			sess = nil
		} else {
			refreshed, err := c.RefreshSession(ctx)
			if err != nil {
				c.emitInitialOnce(nil)
				return nil, err
			}
			sess = refreshed
		}
	}

	c.emitInitialOnce(sess)
	return sess, nil
}

func (c *HTTPAuthClient) emitInitialOnce(sess *Session) {
	c.mu.Lock()
	if c.emitted {
		c.mu.Unlock()
		return
	}
	c.emitted = true
	c.mu.Unlock()
	c.emit(Event{Type: EventInitialSession, Session: sess})
}

// GetUser fetches the identity record the current access token belongs to,
// from the server rather than the cached session.
func (c *HTTPAuthClient) GetUser(ctx context.Context) (*User, error) {
	token := c.AccessToken()
	if token == "" {
		return nil, common.ErrNotAuthenticated
	}

	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshSession exchanges the refresh token for a new credential pair. On
// failure the cached session is left intact so a flaky network cannot force
// a spurious sign-out.
func (c *HTTPAuthClient) RefreshSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil || sess.RefreshToken == "" {
		return nil, common.ErrNotAuthenticated
	}

	body := map[string]string{"refresh_token": sess.RefreshToken}

	var refreshed Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body, "", &refreshed); err != nil {
		return nil, err
	}
	c.adopt(ctx, &refreshed, EventTokenRefreshed)
	return &refreshed, nil
}

// adopt caches a freshly issued session, persists it, and emits the given
// event. Expiry falls back to the access token's exp claim when the response
// carried no explicit value.
func (c *HTTPAuthClient) adopt(ctx context.Context, sess *Session, event EventType) {
	if sess.ExpiresAt == 0 {
		if sess.ExpiresIn > 0 {
			sess.ExpiresAt = time.Now().Unix() + sess.ExpiresIn
		} else {
			sess.ExpiresAt = tokenExpiry(sess.AccessToken)
		}
	}

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveSession(ctx, sess); err != nil {
			c.logger.Warn(ctx, "failed to persist session", "error", err)
		}
	}
	c.emit(Event{Type: event, Session: sess})
}

// tokenExpiry extracts the exp claim from a JWT access token without
// verifying the signature. Returns 0 when the token does not parse.
func tokenExpiry(accessToken string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}

// doJSON performs one auth-endpoint call. bearer overrides the anonymous key
// as the Authorization credential when non-empty. A non-2xx response becomes
// an *AuthError; transport failures wrap common.ErrNetwork.
func (c *HTTPAuthClient) doJSON(ctx context.Context, method, path string, body any, bearer string, dest any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAuthError(resp.StatusCode, raw)
	}

	if dest == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// parseAuthError extracts the backend's own message from the error body so
// the rejection propagates verbatim.
func parseAuthError(status int, body []byte) *AuthError {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.ErrorDescription
	if msg == "" {
		msg = payload.Msg
	}
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &AuthError{Status: status, Message: msg}
}
