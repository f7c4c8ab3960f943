package services

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/polar"
)

// staticIdentity is a fixed user id; "" means nobody signed in.
type staticIdentity string

func (s staticIdentity) CurrentUserID() string { return string(s) }

var errUnexpectedCall = errors.New("unexpected store call")

// fakeStore implements backend.RowStore with per-test closures. Filters are
// pre-applied into url.Values so tests assert on the encoded query.
type fakeStore struct {
	selectFn       func(table string, q url.Values, dest any) error
	selectSingleFn func(table string, q url.Values, dest any) error
	insertFn       func(table string, record, dest any) error
	updateFn       func(table string, patch, dest any, q url.Values) error
	deleteFn       func(table string, q url.Values) error
}

func encodeFilters(filters []backend.Filter) url.Values {
	q := url.Values{}
	for _, f := range filters {
		f(q)
	}
	return q
}

func (s *fakeStore) Select(_ context.Context, table string, dest any, filters ...backend.Filter) error {
	if s.selectFn == nil {
		return errUnexpectedCall
	}
	return s.selectFn(table, encodeFilters(filters), dest)
}

func (s *fakeStore) SelectSingle(_ context.Context, table string, dest any, filters ...backend.Filter) error {
	if s.selectSingleFn == nil {
		return errUnexpectedCall
	}
	return s.selectSingleFn(table, encodeFilters(filters), dest)
}

func (s *fakeStore) Insert(_ context.Context, table string, record any, dest any) error {
	if s.insertFn == nil {
		return errUnexpectedCall
	}
	return s.insertFn(table, record, dest)
}

func (s *fakeStore) Update(_ context.Context, table string, patch any, dest any, filters ...backend.Filter) error {
	if s.updateFn == nil {
		return errUnexpectedCall
	}
	return s.updateFn(table, patch, dest, encodeFilters(filters))
}

func (s *fakeStore) Delete(_ context.Context, table string, filters ...backend.Filter) error {
	if s.deleteFn == nil {
		return errUnexpectedCall
	}
	return s.deleteFn(table, encodeFilters(filters))
}

// fakeAuth implements backend.AuthAPI over a buffered event channel. The
// default GetSession resolves to "no stored session" and emits the initial
// event, matching the real client's behavior.
type fakeAuth struct {
	events chan backend.Event
	once   sync.Once

	getSessionFn func(ctx context.Context) (*backend.Session, error)
	signInFn     func(ctx context.Context, email, password string) (*backend.Session, error)
	signOutFn    func(ctx context.Context) error
	refreshFn    func(ctx context.Context) (*backend.Session, error)
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{events: make(chan backend.Event, 16)}
}

func (f *fakeAuth) emit(ev backend.Event) { f.events <- ev }

func (f *fakeAuth) Subscribe() (<-chan backend.Event, func()) {
	return f.events, func() {
		f.once.Do(func() { close(f.events) })
	}
}

func (f *fakeAuth) SignUp(_ context.Context, email, _ string) (*backend.User, error) {
	return &backend.User{ID: "new-user", Email: email}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	if f.signInFn == nil {
		return nil, errUnexpectedCall
	}
	return f.signInFn(ctx, email, password)
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	if f.signOutFn == nil {
		return errUnexpectedCall
	}
	return f.signOutFn(ctx)
}

func (f *fakeAuth) GetSession(ctx context.Context) (*backend.Session, error) {
	if f.getSessionFn != nil {
		return f.getSessionFn(ctx)
	}
	f.emit(backend.Event{Type: backend.EventInitialSession})
	return nil, nil
}

func (f *fakeAuth) GetUser(context.Context) (*backend.User, error) {
	return nil, errUnexpectedCall
}

func (f *fakeAuth) RefreshSession(ctx context.Context) (*backend.Session, error) {
	if f.refreshFn == nil {
		return nil, errUnexpectedCall
	}
	return f.refreshFn(ctx)
}

// fakeVendor implements vendorLinker.
type fakeVendor struct {
	exchangeFn func(ctx context.Context, code string) (*polar.Token, error)
	registerFn func(ctx context.Context, accessToken, memberID string) (*polar.UserRecord, error)
}

func (f *fakeVendor) ExchangeCode(ctx context.Context, code string) (*polar.Token, error) {
	return f.exchangeFn(ctx, code)
}

func (f *fakeVendor) RegisterUser(ctx context.Context, accessToken, memberID string) (*polar.UserRecord, error) {
	return f.registerFn(ctx, accessToken, memberID)
}
