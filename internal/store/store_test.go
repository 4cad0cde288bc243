// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSubmission(t *testing.T, s *Store) types.Submission {
	t.Helper()
	sub := types.Submission{ID: 10, ContextID: 1, Locale: "en"}
	require.NoError(t, s.PutSubmission(context.Background(), sub))
	return sub
}

func writeLocal(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// --- tests ---

func TestNewStore_CreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"submissions", "submission_files", "plugin_settings", "notifications"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
	assert.FileExists(t, filepath.Join(s.dataDir, dbFile))
}

func TestSubmission(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedSubmission(t, s)

	got, err := s.Submission(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, types.Submission{ID: 10, ContextID: 1, Locale: "en"}, got)

	require.NoError(t, s.PutSubmission(ctx, types.Submission{ID: 10, ContextID: 1, Locale: "fr_CA"}))
	got, err = s.Submission(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "fr_CA", got.Locale)

	_, err = s.Submission(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportFile_DetectsMIMEType(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedSubmission(t, s)

	f, err := s.ImportFile(ctx, ImportRequest{
		SubmissionID:   10,
		Path:           writeLocal(t, "Article.PDF", "%PDF-1.4\n%fake\n"),
		GenreID:        1,
		FileStage:      types.FileStage(2),
		UploaderUserID: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.FileID)
	assert.Equal(t, int64(1), f.Revision)
	assert.Equal(t, "application/pdf", f.FileType)
	assert.Equal(t, "Article.PDF", f.OriginalFileName)
	assert.Equal(t, "en", f.SubmissionLocale)
	assert.Equal(t, int64(len("%PDF-1.4\n%fake\n")), f.FileSize)
	assert.Equal(t, ".pdf", filepath.Ext(f.Path))

	content, err := s.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n%fake\n", string(content))
}

func TestImportFile_DeclaredMIMEType(t *testing.T) {
	s := testStore(t)
	seedSubmission(t, s)

	f, err := s.ImportFile(context.Background(), ImportRequest{
		SubmissionID: 10,
		Path:         writeLocal(t, "notes.txt", "plain text"),
		MIMEType:     "application/msword",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/msword", f.FileType)
}

func TestImportFile_UnknownSubmission(t *testing.T) {
	s := testStore(t)
	_, err := s.ImportFile(context.Background(), ImportRequest{
		SubmissionID: 42,
		Path:         writeLocal(t, "a.pdf", "%PDF-1.4"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateManagedFile_AllocatesIDs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedSubmission(t, s)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first, err := s.CreateManagedFile(ctx, &types.SubmissionFile{
		SubmissionID: 10, OriginalFileName: "a.xml", FileType: "text/xml",
	}, []byte("<a/>"))
	require.NoError(t, err)
	second, err := s.CreateManagedFile(ctx, &types.SubmissionFile{
		SubmissionID: 10, OriginalFileName: "a.xml", FileType: "text/xml",
		SourceFileID: first.FileID, SourceRevision: first.Revision,
	}, []byte("<a/>"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.FileID)
	assert.Equal(t, int64(2), second.FileID)
	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, fixed, first.DateUploaded)
	assert.Equal(t, fixed, first.DateModified)

	got, err := s.SubmissionFile(ctx, types.FileRef{FileID: second.FileID})
	require.NoError(t, err)
	assert.Equal(t, *second, got)
}

func TestCreateManagedFile_NewRevision(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedSubmission(t, s)

	first, err := s.CreateManagedFile(ctx, &types.SubmissionFile{
		SubmissionID: 10, OriginalFileName: "a.pdf", FileType: "application/pdf",
	}, []byte("v1"))
	require.NoError(t, err)
	_, err = s.CreateManagedFile(ctx, &types.SubmissionFile{
		FileID: first.FileID, Revision: 2,
		SubmissionID: 10, OriginalFileName: "a.pdf", FileType: "application/pdf",
	}, []byte("v2"))
	require.NoError(t, err)

	latest, err := s.SubmissionFile(ctx, types.FileRef{FileID: first.FileID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Revision)

	one, err := s.SubmissionFile(ctx, types.FileRef{FileID: first.FileID, Revision: 1})
	require.NoError(t, err)
	content, err := s.ReadFile(one.Path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	files, err := s.ListFiles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(1), files[0].Revision)
	assert.Equal(t, int64(2), files[1].Revision)
}

func TestCreateManagedFile_RemovesContentOnInsertFailure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedSubmission(t, s)

	_, err := s.db.Exec(`CREATE TRIGGER reject_files BEFORE INSERT ON submission_files
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	_, err = s.CreateManagedFile(ctx, &types.SubmissionFile{
		SubmissionID: 10, OriginalFileName: "a.xml", FileType: "text/xml",
	}, []byte("<a/>"))
	require.Error(t, err)

	entries, err := os.ReadDir(s.submissionDir(10))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmissionFile_WrongSubmission(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedSubmission(t, s)

	f, err := s.CreateManagedFile(ctx, &types.SubmissionFile{
		SubmissionID: 10, OriginalFileName: "a.pdf", FileType: "application/pdf",
	}, []byte("x"))
	require.NoError(t, err)

	_, err = s.SubmissionFile(ctx, types.FileRef{SubmissionID: 11, FileID: f.FileID})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.SubmissionFile(ctx, types.FileRef{FileID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSize(t *testing.T) {
	s := testStore(t)
	path := writeLocal(t, "x.xml", "12345")

	size, err := s.FileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = s.FileSize(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.Setting(ctx, 1, "grobid", "host")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.UpdateSetting(ctx, 1, "grobid", "host", "http://a"))
	require.NoError(t, s.UpdateSetting(ctx, 1, "grobid", "host", "http://b"))
	require.NoError(t, s.UpdateSetting(ctx, 2, "grobid", "host", "http://c"))

	got, err = s.Setting(ctx, 1, "grobid", "host")
	require.NoError(t, err)
	assert.Equal(t, "http://b", got)

	got, err = s.Setting(ctx, 2, "grobid", "host")
	require.NoError(t, err)
	assert.Equal(t, "http://c", got)
}

func TestNotifications(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.CreateNotification(ctx, types.Notification{UserID: 5, Level: types.NotificationError, Contents: "boom"})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, types.Notification{UserID: 6, Level: types.NotificationError, Contents: "other"})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, types.Notification{UserID: 5, Level: types.NotificationSuccess, Contents: "ok"})
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := s.Notifications(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "boom", got[0].Contents)
	assert.Equal(t, types.NotificationError, got[0].Level)
	assert.Equal(t, "ok", got[1].Contents)
	assert.Equal(t, types.NotificationSuccess, got[1].Level)
}
