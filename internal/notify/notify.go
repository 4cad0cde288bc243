// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify delivers per-user notifications about conversion outcomes.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

// Sink persists notifications.
type Sink interface {
	CreateNotification(ctx context.Context, n types.Notification) (types.Notification, error)
}

// Notifier writes notifications to a Sink and mirrors them to the log.
type Notifier struct {
	sink   Sink
	logger *slog.Logger
}

// New creates a Notifier.
func New(sink Sink, logger *slog.Logger) *Notifier {
	return &Notifier{
		sink:   sink,
		logger: logger.With(slog.String("component", "notify")),
	}
}

// NotifyError records an error notification for userID.
func (n *Notifier) NotifyError(ctx context.Context, userID int64, message string) error {
	return n.notify(ctx, userID, types.NotificationError, message)
}

// NotifySuccess records a success notification for userID.
func (n *Notifier) NotifySuccess(ctx context.Context, userID int64, message string) error {
	return n.notify(ctx, userID, types.NotificationSuccess, message)
}

func (n *Notifier) notify(ctx context.Context, userID int64, level types.NotificationLevel, message string) error {
	n.logger.Info("notification",
		slog.Int64("user_id", userID),
		slog.String("level", string(level)),
		slog.String("message", message),
	)
	if _, err := n.sink.CreateNotification(ctx, types.Notification{
		UserID:   userID,
		Level:    level,
		Contents: message,
	}); err != nil {
		return fmt.Errorf("notifying user %d: %w", userID, err)
	}
	return nil
}
