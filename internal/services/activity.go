package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/common"
	"github.com/fitsync-app/fitsync/internal/models"
)

const defaultActivityLimit = 10

// ActivityService reads and records workout summaries.
type ActivityService struct {
	store backend.RowStore
	ident identity
}

func NewActivityService(store backend.RowStore, ident identity) *ActivityService {
	return &ActivityService{store: store, ident: ident}
}

// List returns the signed-in user's most recent activities, newest first.
// A non-positive limit falls back to the default of 10.
func (s *ActivityService) List(ctx context.Context, limit int) ([]models.Activity, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var activities []models.Activity
	err := s.store.Select(ctx, "activities", &activities,
		backend.Eq("user_id", userID),
		backend.OrderDesc("start_time"),
		backend.Limit(limit))
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// Add records a finished activity for the signed-in user.
func (s *ActivityService) Add(ctx context.Context, activity models.Activity) (*models.Activity, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.UserID = userID

	var out models.Activity
	if err := s.store.Insert(ctx, "activities", activity, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

const defaultMetricLimit = 100

// MetricService reads and records sampled measurements.
type MetricService struct {
	store backend.RowStore
	ident identity
	now   func() time.Time
}

func NewMetricService(store backend.RowStore, ident identity) *MetricService {
	return &MetricService{store: store, ident: ident, now: time.Now}
}

// List returns the signed-in user's metrics, newest first. metricType
// filters by kind when non-empty; a non-positive limit falls back to the
// default of 100.
func (s *MetricService) List(ctx context.Context, metricType string, limit int) ([]models.Metric, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = defaultMetricLimit
	}

	filters := []backend.Filter{
		backend.Eq("user_id", userID),
		backend.OrderDesc("timestamp"),
		backend.Limit(limit),
	}
	if metricType != "" {
		filters = append(filters, backend.Eq("metric_type", metricType))
	}

	var metrics []models.Metric
	if err := s.store.Select(ctx, "metrics", &metrics, filters...); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Add records one measurement for the signed-in user. A zero timestamp is
// set to now.
func (s *MetricService) Add(ctx context.Context, metric models.Metric) (*models.Metric, error) {
	userID := s.ident.CurrentUserID()
	if userID == "" {
		return nil, common.ErrNotAuthenticated
	}

	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}
	if metric.Timestamp.IsZero() {
		metric.Timestamp = s.now().UTC()
	}
	metric.UserID = userID

	var out models.Metric
	if err := s.store.Insert(ctx, "metrics", metric, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
