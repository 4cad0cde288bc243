// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

const fileColumns = `file_id, revision, submission_id, submission_locale, genre_id, file_stage,
	path, original_file_name, file_type, file_size, uploader_user_id,
	date_uploaded, date_modified, source_file_id, source_revision`

// ImportRequest describes a local file to copy into a submission.
type ImportRequest struct {
	SubmissionID   int64
	Path           string
	GenreID        int64
	FileStage      types.FileStage
	UploaderUserID int64

	// MIMEType is detected from the content when empty.
	MIMEType string
}

// SubmissionFile returns the file named by ref. A zero Revision selects the
// latest revision. A non-zero SubmissionID must match the file's owner.
func (s *Store) SubmissionFile(ctx context.Context, ref types.FileRef) (types.SubmissionFile, error) {
	var row *sql.Row
	if ref.Revision == 0 {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+fileColumns+` FROM submission_files WHERE file_id = ? ORDER BY revision DESC LIMIT 1`,
			ref.FileID)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+fileColumns+` FROM submission_files WHERE file_id = ? AND revision = ?`,
			ref.FileID, ref.Revision)
	}

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SubmissionFile{}, fmt.Errorf("file %d revision %d: %w", ref.FileID, ref.Revision, ErrNotFound)
	}
	if err != nil {
		return types.SubmissionFile{}, fmt.Errorf("querying file %d: %w", ref.FileID, err)
	}
	if ref.SubmissionID != 0 && f.SubmissionID != ref.SubmissionID {
		return types.SubmissionFile{}, fmt.Errorf("file %d in submission %d: %w", ref.FileID, ref.SubmissionID, ErrNotFound)
	}
	return f, nil
}

// ListFiles returns every file revision of a submission ordered by file id
// and revision.
func (s *Store) ListFiles(ctx context.Context, submissionID int64) ([]types.SubmissionFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM submission_files WHERE submission_id = ? ORDER BY file_id, revision`,
		submissionID)
	if err != nil {
		return nil, fmt.Errorf("listing files of submission %d: %w", submissionID, err)
	}
	defer rows.Close()

	var files []types.SubmissionFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// ImportFile copies a local file into the submission as a new file at
// revision 1.
func (s *Store) ImportFile(ctx context.Context, req ImportRequest) (*types.SubmissionFile, error) {
	sub, err := s.Submission(ctx, req.SubmissionID)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Path, err)
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = mediaType(mimetype.Detect(content).String())
	}

	f := &types.SubmissionFile{
		SubmissionID:     sub.ID,
		SubmissionLocale: sub.Locale,
		GenreID:          req.GenreID,
		FileStage:        req.FileStage,
		OriginalFileName: filepath.Base(req.Path),
		FileType:         mimeType,
		UploaderUserID:   req.UploaderUserID,
	}
	return s.CreateManagedFile(ctx, f, content)
}

// CreateManagedFile stores content and inserts the record for f. A zero
// FileID allocates the next id; a zero Revision becomes 1. The returned copy
// carries the assigned id, path and dates. Content already written is removed
// when the record cannot be inserted.
func (s *Store) CreateManagedFile(ctx context.Context, f *types.SubmissionFile, content []byte) (*types.SubmissionFile, error) {
	out := *f
	if out.Revision == 0 {
		out.Revision = 1
	}
	if out.FileSize == 0 {
		out.FileSize = int64(len(content))
	}
	now := s.now().UTC()
	if out.DateUploaded.IsZero() {
		out.DateUploaded = now
	}
	if out.DateModified.IsZero() {
		out.DateModified = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if out.FileID == 0 {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(file_id), 0) + 1 FROM submission_files`,
		).Scan(&out.FileID); err != nil {
			return nil, fmt.Errorf("allocating file id: %w", err)
		}
	}

	dir := s.submissionDir(out.SubmissionID)
	out.Path = filepath.Join(dir, fmt.Sprintf("%d-%d%s", out.FileID, out.Revision,
		strings.ToLower(filepath.Ext(out.OriginalFileName))))
	if err := writeContent(dir, out.Path, content); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submission_files (`+fileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.FileID, out.Revision, out.SubmissionID, out.SubmissionLocale, out.GenreID, int(out.FileStage),
		out.Path, out.OriginalFileName, out.FileType, out.FileSize, out.UploaderUserID,
		formatTime(out.DateUploaded), formatTime(out.DateModified), out.SourceFileID, out.SourceRevision,
	)
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		os.Remove(out.Path)
		return nil, fmt.Errorf("inserting file %d revision %d: %w", out.FileID, out.Revision, err)
	}

	return &out, nil
}

// writeContent writes data to a temp file in dir and renames it to path.
func writeContent(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(sc scanner) (types.SubmissionFile, error) {
	var (
		f                  types.SubmissionFile
		stage              int
		uploaded, modified string
	)
	err := sc.Scan(&f.FileID, &f.Revision, &f.SubmissionID, &f.SubmissionLocale, &f.GenreID, &stage,
		&f.Path, &f.OriginalFileName, &f.FileType, &f.FileSize, &f.UploaderUserID,
		&uploaded, &modified, &f.SourceFileID, &f.SourceRevision)
	if err != nil {
		return types.SubmissionFile{}, err
	}
	f.FileStage = types.FileStage(stage)
	f.DateUploaded = parseTime(uploaded)
	f.DateModified = parseTime(modified)
	return f, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// mediaType drops parameters such as charset from a MIME string.
func mediaType(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
