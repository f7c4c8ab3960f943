package models

import "time"

// Activity is a row of the activities table: a finished workout summary.
type Activity struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DeviceID         string    `json:"device_id"`
	ActivityType     string    `json:"activity_type"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Duration         string    `json:"duration"`
	Distance         *float64  `json:"distance,omitempty"`
	Calories         *float64  `json:"calories,omitempty"`
	AverageHeartRate *float64  `json:"average_heart_rate,omitempty"`
	MaxHeartRate     *float64  `json:"max_heart_rate,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}
