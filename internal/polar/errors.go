package polar

import (
	"errors"
	"fmt"
)

var (
	ErrTokenExchange = errors.New("token exchange failed")
	ErrRegistration  = errors.New("user registration failed")
	ErrVendorAPI     = errors.New("vendor api request failed")
)

// StatusError is a non-2xx vendor response. Kind is one of the sentinel
// errors above, so callers can branch with errors.Is and still read the
// HTTP status via errors.As.
type StatusError struct {
	Kind   error
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}
