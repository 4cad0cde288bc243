// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NotificationLevel mirrors the host's trivial notification types.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a message shown to one user.
type Notification struct {
	ID        int64             `json:"id" yaml:"id"`
	UserID    int64             `json:"user_id" yaml:"user_id"`
	Level     NotificationLevel `json:"level" yaml:"level"`
	Contents  string            `json:"contents" yaml:"contents"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
}
