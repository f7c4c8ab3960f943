package models

import "time"

// DeviceType identifies the wearable vendor a device row came from.
type DeviceType string

const (
	DeviceTypePolar DeviceType = "polar"
)

// Device is a row of the devices table: a linked wearable identity.
// DeviceID is the vendor-assigned identifier, not the row id.
type Device struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	DeviceType DeviceType `json:"device_type"`
	DeviceID   string     `json:"device_id"`
	Name       *string    `json:"name,omitempty"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
	UpdatedAt  time.Time  `json:"updated_at,omitzero"`
}
