// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

type recordingSink struct {
	got []types.Notification
	err error
}

func (s *recordingSink) CreateNotification(_ context.Context, n types.Notification) (types.Notification, error) {
	if s.err != nil {
		return types.Notification{}, s.err
	}
	n.ID = int64(len(s.got) + 1)
	s.got = append(s.got, n)
	return n, nil
}

func TestNotifier_Levels(t *testing.T) {
	sink := &recordingSink{}
	var logs bytes.Buffer
	n := New(sink, slog.New(slog.NewTextHandler(&logs, nil)))
	ctx := context.Background()

	require.NoError(t, n.NotifyError(ctx, 5, "Grobid conversion failed"))
	require.NoError(t, n.NotifySuccess(ctx, 6, "converted"))

	require.Len(t, sink.got, 2)
	assert.Equal(t, types.Notification{ID: 1, UserID: 5, Level: types.NotificationError, Contents: "Grobid conversion failed"}, sink.got[0])
	assert.Equal(t, types.NotificationSuccess, sink.got[1].Level)
	assert.Equal(t, int64(6), sink.got[1].UserID)

	assert.Contains(t, logs.String(), "component=notify")
	assert.Contains(t, logs.String(), `message="Grobid conversion failed"`)
}

func TestNotifier_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("database is locked")}
	n := New(sink, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	err := n.NotifyError(context.Background(), 5, "x")
	assert.ErrorIs(t, err, sink.err)
}
