// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the process action: it resolves a submission file,
// sends it to Grobid, and stores the resulting JATS as a new file. Every
// failure is reported to the acting user and returned as a
// *types.ConversionError.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/grobid-jats/internal/grobid"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

// ErrUnsupportedFileType reports a declared MIME type Grobid does not accept.
var ErrUnsupportedFileType = errors.New("file type not supported by grobid")

var conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "grobid_conversions_total",
	Help: "Conversion attempts by outcome.",
}, []string{"outcome"})

// Converter sends a file to Grobid.
type Converter interface {
	Accepts(mimeType string) bool
	Convert(ctx context.Context, req grobid.Request) ([]byte, error)
}

// Ingester stores a Grobid response as a new submission file.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, source types.SubmissionFile, user types.User) (*types.SubmissionFile, error)
}

// FileSource resolves submission files.
type FileSource interface {
	SubmissionFile(ctx context.Context, ref types.FileRef) (types.SubmissionFile, error)
}

// Notifier reports outcomes to users.
type Notifier interface {
	NotifyError(ctx context.Context, userID int64, message string) error
	NotifySuccess(ctx context.Context, userID int64, message string) error
}

// HostSource resolves the configured Grobid host of a context.
type HostSource interface {
	Host(ctx context.Context, contextID int64) (string, error)
}

// RequestContext describes the request that triggered a conversion.
type RequestContext struct {
	ContextID int64
	ID        string
	URL       string
}

// Processor wires the conversion steps together.
type Processor struct {
	files     FileSource
	converter Converter
	ingester  Ingester
	notifier  Notifier
	hosts     HostSource
	logger    *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(files FileSource, converter Converter, ingester Ingester, notifier Notifier, hosts HostSource, logger *slog.Logger) *Processor {
	return &Processor{
		files:     files,
		converter: converter,
		ingester:  ingester,
		notifier:  notifier,
		hosts:     hosts,
		logger:    logger.With(slog.String("component", "processor")),
	}
}

// Process converts the file named by ref on behalf of user. A successful
// call creates exactly one new file; repeated calls are not deduplicated.
func (p *Processor) Process(ctx context.Context, ref types.FileRef, user types.User, rc RequestContext) (*types.ProcessResult, error) {
	log := p.logger.With(
		slog.Int64("submission_id", ref.SubmissionID),
		slog.Int64("file_id", ref.FileID),
		slog.String("request_id", rc.ID),
	)

	source, err := p.files.SubmissionFile(ctx, ref)
	if err != nil {
		return nil, p.fail(ctx, log, user, types.FailureStorage, "", err)
	}

	if !p.converter.Accepts(source.FileType) {
		return nil, p.fail(ctx, log, user, types.FailureUnsupportedFileType, source.FileType,
			fmt.Errorf("%w: %q", ErrUnsupportedFileType, source.FileType))
	}

	data, err := p.converter.Convert(ctx, grobid.Request{
		ContextID: rc.ContextID,
		Path:      source.Path,
		FileName:  source.OriginalFileName,
		MIMEType:  source.FileType,
		Referer:   rc.URL,
		RequestID: rc.ID,
	})
	if err != nil {
		kind := types.KindOf(err)
		if kind == types.FailureNone {
			kind = types.FailureNetwork
		}
		return nil, p.fail(ctx, log, user, kind, "", err)
	}

	created, err := p.ingester.Ingest(ctx, data, source, user)
	if err != nil {
		kind := types.KindOf(err)
		if kind == types.FailureNone {
			kind = types.FailureStorage
		}
		return nil, p.fail(ctx, log, user, kind, "", err)
	}

	conversionsTotal.WithLabelValues("converted").Inc()
	log.Info("conversion complete", slog.String("converted", created.FileIDAndRevision()))
	if err := p.notifier.NotifySuccess(ctx, user.ID,
		fmt.Sprintf("Converted %s to %s", source.OriginalFileName, created.OriginalFileName)); err != nil {
		log.Warn("success notification failed", slog.String("error", err.Error()))
	}

	return &types.ProcessResult{
		Success:      true,
		SubmissionID: created.SubmissionID,
		FileID:       created.FileIDAndRevision(),
		FileStage:    created.FileStage,
	}, nil
}

// fail records the failure, notifies the user and returns the typed error.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, user types.User, kind types.FailureKind, detail string, err error) error {
	conversionsTotal.WithLabelValues(string(kind)).Inc()
	log.Error("conversion failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))

	if nerr := p.notifier.NotifyError(ctx, user.ID, FailureMessage(kind, detail)); nerr != nil {
		log.Warn("error notification failed", slog.String("error", nerr.Error()))
	}

	var ce *types.ConversionError
	if errors.As(err, &ce) && ce.Kind == kind {
		return ce
	}
	return types.Fail(kind, err)
}

// FailureMessage is the text shown to the user for a failure kind.
func FailureMessage(kind types.FailureKind, detail string) string {
	var msg string
	switch kind {
	case types.FailureUnsupportedFileType:
		msg = "File type is not supported by Grobid"
	case types.FailureNetwork:
		msg = "Request to the Grobid service failed"
	case types.FailureInvalidXML:
		msg = "Grobid did not return valid JATS XML"
	case types.FailureStorage:
		msg = "Submission file storage failed"
	default:
		msg = "Grobid conversion failed"
	}
	if detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Eligible reports whether the process action applies to file: the context
// has a Grobid host and the file has a .pdf extension.
func (p *Processor) Eligible(ctx context.Context, contextID int64, file types.SubmissionFile) (bool, error) {
	if !strings.EqualFold(filepath.Ext(file.OriginalFileName), ".pdf") {
		return false, nil
	}
	host, err := p.hosts.Host(ctx, contextID)
	if err != nil {
		return false, fmt.Errorf("reading grobid host: %w", err)
	}
	return host != "", nil
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Failed    int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ProcessBatch converts refs one after another, printing per-file status to
// w and returning a summary.
func (p *Processor) ProcessBatch(ctx context.Context, refs []types.FileRef, user types.User, rc RequestContext, w io.Writer) BatchResult {
	var result BatchResult
	for _, ref := range refs {
		label := fmt.Sprintf("%d-%d", ref.FileID, ref.Revision)
		res, err := p.Process(ctx, ref, user, rc)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", label, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "converted: %s -> %s\n", label, res.FileID)
		result.Converted++
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		result.Converted, result.Failed, result.Total())
	return result
}
