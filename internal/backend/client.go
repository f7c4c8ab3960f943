// Package backend contains the clients for the managed backend: the auth
// service (sign-up/in/out, token refresh, change notifications) and the
// generic row store. Components depend on the AuthAPI and RowStore
// interfaces; the HTTP implementations speak the Supabase-shaped wire
// contracts (/auth/v1 and /rest/v1).
package backend

import (
	"context"
	"time"
)

// User is the identity record owned by the backend auth service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential session: an opaque access/refresh token pair
// plus expiry. It is owned by the auth service; clients cache it but mutate
// it only through explicit sign-in/refresh/sign-out calls.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired() bool {
	return s.ExpiresAt > 0 && time.Now().Unix() >= s.ExpiresAt
}

// EventType labels an auth-state change notification.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is one auth-state change. Session is nil for EventSignedOut and for
// an initial check that found no stored session.
type Event struct {
	Type    EventType
	Session *Session
}

// AuthAPI is the backend auth service surface.
//
// Contract:
//   - SignUp/SignIn delegate to the backend and report the verbatim result;
//     state changes reach observers through the event stream, never through
//     the call's return value.
//   - GetSession resolves the current session, restoring a persisted one and
//     refreshing it once if it is expired. It emits EventInitialSession on
//     the first resolution.
//   - RefreshSession exchanges the refresh token; on failure the previously
//     cached session stays intact.
//   - Subscribe returns a channel delivering events in emission order and an
//     unsubscribe func that releases the channel.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*Session, error)
	GetUser(ctx context.Context) (*User, error)
	RefreshSession(ctx context.Context) (*Session, error)
	Subscribe() (<-chan Event, func())
}

// TokenStore persists the credential session across client restarts.
// LoadSession returns (nil, nil) when nothing is stored.
type TokenStore interface {
	SaveSession(ctx context.Context, s *Session) error
	LoadSession(ctx context.Context) (*Session, error)
	ClearSession(ctx context.Context) error
}
