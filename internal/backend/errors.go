package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fitsync-app/fitsync/internal/common"
)

// ErrConflict marks a row-store write rejected by a uniqueness or exclusion
// constraint. Callers translate it into their domain conflict error.
var ErrConflict = errors.New("conflict")

// AuthError is a backend auth-service rejection, carried verbatim to the
// caller.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s (status %d)", e.Message, e.Status)
}

// StoreError is a non-2xx row-store response. Code is the backend's own
// error code when the body carried one.
type StoreError struct {
	Status  int
	Code    string
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("row store error: %s (status %d)", e.Message, e.Status)
}

// Is maps well-known statuses onto sentinel errors so callers can branch
// with errors.Is without inspecting status codes.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrConflict:
		return e.Status == http.StatusConflict
	case common.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
