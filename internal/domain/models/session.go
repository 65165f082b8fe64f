package models

import (
	"encoding/json"
	"time"
)

// Session is a saved decomposition. Snapshot holds the serialized
// decomposition.Snapshot document.
type Session struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Title           string          `json:"title" db:"title"`
	RootObjectName  string          `json:"root_object_name" db:"root_object_name"`
	RootObjectIcon  string          `json:"root_object_icon,omitempty" db:"root_object_icon"`
	RootObjectImage *string         `json:"root_object_image,omitempty" db:"root_object_image"`
	Snapshot        json.RawMessage `json:"snapshot,omitempty" db:"snapshot"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	LastAccessedAt  time.Time       `json:"last_accessed_at" db:"last_accessed_at"`
}
