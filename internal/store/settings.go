// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

// Setting returns a plugin setting of a context, or "" if it was never set.
func (s *Store) Setting(ctx context.Context, contextID int64, plugin, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT setting_value FROM plugin_settings
		 WHERE context_id = ? AND plugin_name = ? AND setting_name = ?`,
		contextID, plugin, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s.%s for context %d: %w", plugin, key, contextID, err)
	}
	return value, nil
}

// UpdateSetting writes a plugin setting of a context.
func (s *Store) UpdateSetting(ctx context.Context, contextID int64, plugin, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plugin_settings (context_id, plugin_name, setting_name, setting_value)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(context_id, plugin_name, setting_name) DO UPDATE SET setting_value=excluded.setting_value`,
		contextID, plugin, key, value,
	)
	if err != nil {
		return fmt.Errorf("updating setting %s.%s for context %d: %w", plugin, key, contextID, err)
	}
	return nil
}

// CreateNotification appends a notification for n.UserID and returns it
// with its id and creation time.
func (s *Store) CreateNotification(ctx context.Context, n types.Notification) (types.Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, level, contents, created_at) VALUES (?, ?, ?, ?)`,
		n.UserID, string(n.Level), n.Contents, formatTime(n.CreatedAt),
	)
	if err != nil {
		return types.Notification{}, fmt.Errorf("inserting notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return types.Notification{}, fmt.Errorf("reading notification id: %w", err)
	}
	return n, nil
}

// Notifications returns the notifications of a user, oldest first.
func (s *Store) Notifications(ctx context.Context, userID int64) ([]types.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, level, contents, created_at FROM notifications
		 WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications of user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []types.Notification
	for rows.Next() {
		var (
			n       types.Notification
			level   string
			created string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &level, &n.Contents, &created); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.Level = types.NotificationLevel(level)
		n.CreatedAt = parseTime(created)
		out = append(out, n)
	}
	return out, rows.Err()
}
