// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns a Grobid response into a new submission file. The
// response must be well-formed JATS with an accepted doctype; the canonical
// re-serialization is what gets stored.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/grobid-jats/internal/jats"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

// XMLFileType is the declared MIME type of converted files.
const XMLFileType = "text/xml"

// Storage is the host storage used to persist converted files.
type Storage interface {
	FileSize(path string) (int64, error)
	ReadFile(path string) ([]byte, error)
	Submission(ctx context.Context, id int64) (types.Submission, error)
	CreateManagedFile(ctx context.Context, f *types.SubmissionFile, content []byte) (*types.SubmissionFile, error)
}

// Ingester validates Grobid output and stores it next to its source.
type Ingester struct {
	storage    Storage
	scratchDir string
	doctypes   []string
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an Ingester. A nil doctypes list falls back to
// jats.DefaultDoctypes; an empty scratch directory to the OS temp dir.
func New(cfg types.IngestConfig, doctypes []string, storage Storage, logger *slog.Logger) *Ingester {
	if doctypes == nil {
		doctypes = jats.DefaultDoctypes
	}
	dir := cfg.ScratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	return &Ingester{
		storage:    storage,
		scratchDir: dir,
		doctypes:   doctypes,
		logger:     logger.With(slog.String("component", "ingest")),
		now:        time.Now,
	}
}

// Ingest validates data and creates a ConvertedFile derived from source,
// uploaded by user. Validation failures are types.FailureInvalidXML; every
// later failure is types.FailureStorage.
func (in *Ingester) Ingest(ctx context.Context, data []byte, source types.SubmissionFile, user types.User) (*types.SubmissionFile, error) {
	canonical, err := jats.Canonicalize(data, in.doctypes)
	if err != nil {
		in.logger.Warn("rejecting grobid response",
			slog.String("source", source.FileIDAndRevision()),
			slog.String("error", err.Error()),
		)
		return nil, types.Fail(types.FailureInvalidXML, err)
	}

	scratch, err := in.writeScratch(canonical)
	if err != nil {
		return nil, types.Fail(types.FailureStorage, err)
	}
	defer os.Remove(scratch)

	size, err := in.storage.FileSize(scratch)
	if err != nil {
		return nil, types.Fail(types.FailureStorage, fmt.Errorf("sizing %s: %w", scratch, err))
	}
	content, err := in.storage.ReadFile(scratch)
	if err != nil {
		return nil, types.Fail(types.FailureStorage, fmt.Errorf("reading %s: %w", scratch, err))
	}

	sub, err := in.storage.Submission(ctx, source.SubmissionID)
	if err != nil {
		return nil, types.Fail(types.FailureStorage, fmt.Errorf("looking up submission %d: %w", source.SubmissionID, err))
	}

	now := in.now().UTC()
	converted := &types.SubmissionFile{
		Revision:         1,
		SubmissionID:     sub.ID,
		SubmissionLocale: sub.Locale,
		GenreID:          source.GenreID,
		FileStage:        source.FileStage,
		OriginalFileName: XMLFileName(source.OriginalFileName),
		FileType:         XMLFileType,
		FileSize:         size,
		UploaderUserID:   user.ID,
		DateUploaded:     now,
		DateModified:     now,
		SourceFileID:     source.FileID,
		SourceRevision:   source.Revision,
	}

	created, err := in.storage.CreateManagedFile(ctx, converted, content)
	if err != nil {
		return nil, types.Fail(types.FailureStorage, fmt.Errorf("creating converted file: %w", err))
	}

	in.logger.Info("converted file stored",
		slog.String("source", source.FileIDAndRevision()),
		slog.String("file", created.FileIDAndRevision()),
		slog.Int64("bytes", size),
	)
	return created, nil
}

// writeScratch materializes data in the scratch directory and returns the
// file's path. Nothing is left behind on failure.
func (in *Ingester) writeScratch(data []byte) (string, error) {
	if err := os.MkdirAll(in.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}

	path := filepath.Join(in.scratchDir, "grobid-"+uuid.NewString()+".xml")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing scratch file: %w", err)
	}
	return path, nil
}

// XMLFileName replaces the extension of name with ".xml".
func XMLFileName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".xml"
}
