package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fitsync-app/fitsync/internal/common"
)

// Start opens a training session: start <device-id> [session-type].
func (a *App) Start(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: start <device-id> [session-type]")
		return nil
	}
	deviceID := args[0]
	sessionType := "workout"
	if len(args) > 1 {
		sessionType = args[1]
	}

	sess, err := a.training.StartSession(ctx, deviceID, sessionType)
	if err != nil {
		if errors.Is(err, common.ErrSessionConflict) {
			fmt.Fprintln(a.out, "A session is already active; end it first")
		} else {
			log.Printf("Start unsuccessful: %s", err.Error())
		}
		return err
	}

	fmt.Fprintf(a.out, "Started %s session %s\n", sess.SessionType, sess.ID)
	return nil
}

// End completes the active training session.
func (a *App) End(ctx context.Context) error {
	current, err := a.training.CurrentSession(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if current == nil {
		fmt.Fprintln(a.out, "No active session")
		return nil
	}

	sess, err := a.training.EndSession(ctx, current.ID)
	if err != nil {
		log.Printf("End unsuccessful: %s", err.Error())
		return err
	}

	fmt.Fprintf(a.out, "Ended session %s (%s - %s)\n",
		sess.ID,
		sess.StartTime.Format("15:04:05"),
		sess.EndTime.Format("15:04:05"))
	return nil
}

// Status shows the active training session, if any.
func (a *App) Status(ctx context.Context) error {
	sess, err := a.training.CurrentSession(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if sess == nil {
		fmt.Fprintln(a.out, "No active session")
		return nil
	}

	fmt.Fprintf(a.out, "Active %s session %s since %s on device %s\n",
		sess.SessionType, sess.ID, sess.StartTime.Format("15:04:05"), sess.DeviceID)
	return nil
}
