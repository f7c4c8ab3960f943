package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fitsync-app/fitsync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account. Registration does not sign the user in; a separate login is
// required. The password byte slice is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.sessions.SignUp(ctx, email, string(password))
	if err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. You can log in now.\n", user.Email)
	return nil
}

// Login prompts the user for credentials and signs in. The prompt state
// updates through the auth event stream once the sign-in lands.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.sessions.SignIn(ctx, email, string(password)); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	log.Printf("Login successful")
	return nil
}

// Logout terminates the current session and clears the cached credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.SignOut(ctx); err != nil {
		log.Printf("Logout unsuccessful: %s", err.Error())
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Refresh exchanges the refresh token for a fresh credential session.
func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.sessions.RefreshSession(ctx); err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			fmt.Fprintln(a.out, "Not logged in")
		} else {
			log.Printf("Refresh unsuccessful: %s", err.Error())
		}
		return err
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

// Profile prints the signed-in user's profile row.
func (a *App) Profile(ctx context.Context) error {
	p, err := a.profile.Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Fprintln(a.out, "No profile yet")
			return nil
		}
		log.Println(err.Error())
		return err
	}

	fmt.Fprintf(a.out, "%s <%s>\n", derefOr(p.FullName, "(no name)"), p.Email)
	return nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
