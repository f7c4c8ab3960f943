package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/common"
	"github.com/fitsync-app/fitsync/internal/logging"
	"github.com/fitsync-app/fitsync/internal/models"
)

// TrainingController drives the training-session lifecycle.
//
// Invariant: a user has at most one active session. StartSession checks for
// an existing active row before inserting, and additionally maps a backend
// uniqueness rejection to the same conflict error, so concurrent starts
// cannot slip a second active session through.
type TrainingController struct {
	store  backend.RowStore
	ident  identity
	logger logging.Logger
	now    func() time.Time
}

func NewTrainingController(store backend.RowStore, ident identity, logger logging.Logger) *TrainingController {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TrainingController{
		store:  store,
		ident:  ident,
		logger: logger,
		now:    time.Now,
	}
}

// StartSession opens a new active training session for the signed-in user.
// An existing active session yields common.ErrSessionConflict.
func (c *TrainingController) StartSession(ctx context.Context, deviceID, sessionType string) (*models.Session, error) {
	userID := c.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	current, err := c.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking active session: %w", err)
	}
	if current != nil {
		return nil, common.ErrSessionConflict
	}

	rec := models.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		DeviceID:    deviceID,
		SessionType: sessionType,
		StartTime:   c.now().UTC(),
		Status:      models.SessionStatusActive,
	}

	var out models.Session
	if err := c.store.Insert(ctx, "sessions", rec, &out); err != nil {
		if errors.Is(err, backend.ErrConflict) {
			return nil, common.ErrSessionConflict
		}
		return nil, err
	}

	c.logger.Info(ctx, "training session started",
		"session_id", out.ID, "session_type", out.SessionType)
	return &out, nil
}

// EndSession completes the given active session, setting its end time. An
// id that does not match an active session owned by the signed-in user
// yields common.ErrNotFound; ending an already completed session is
// therefore not idempotent.
func (c *TrainingController) EndSession(ctx context.Context, sessionID string) (*models.Session, error) {
	userID := c.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	patch := map[string]any{
		"end_time": c.now().UTC(),
		"status":   models.SessionStatusCompleted,
	}

	var out models.Session
	err := c.store.Update(ctx, "sessions", patch, &out,
		backend.Eq("id", sessionID),
		backend.Eq("user_id", userID),
		backend.Eq("status", string(models.SessionStatusActive)))
	if err != nil {
		return nil, err
	}

	c.logger.Info(ctx, "training session ended", "session_id", out.ID)
	return &out, nil
}

// CurrentSession returns the signed-in user's active session, or (nil, nil)
// when none exists.
func (c *TrainingController) CurrentSession(ctx context.Context) (*models.Session, error) {
	userID := c.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	var sess models.Session
	err := c.store.SelectSingle(ctx, "sessions", &sess,
		backend.Eq("user_id", userID),
		backend.Eq("status", string(models.SessionStatusActive)))
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
