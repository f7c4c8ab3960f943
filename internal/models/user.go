// Package models defines the persisted row types of the FitSync backend
// tables. Field tags match the column names the row store exposes.
package models

import "time"

// Profile is a row of the users table: the application-level profile that
// mirrors the auth identity.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}
