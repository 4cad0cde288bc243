// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pdiddy/grobid-jats/internal/convert"
	"github.com/pdiddy/grobid-jats/internal/store"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

// UserIDHeader identifies the acting user. The fronting host sets it.
const UserIDHeader = "X-User-ID"

const maxHostLength = 2048

// maxBodyBytes bounds JSON request bodies; both request types are tiny.
const maxBodyBytes = 4 << 10

// Processor runs conversions and decides where they are offered.
type Processor interface {
	Process(ctx context.Context, ref types.FileRef, user types.User, rc convert.RequestContext) (*types.ProcessResult, error)
	Eligible(ctx context.Context, contextID int64, file types.SubmissionFile) (bool, error)
}

// HostSettings reads and writes the per-context Grobid host.
type HostSettings interface {
	Host(ctx context.Context, contextID int64) (string, error)
	SetHost(ctx context.Context, contextID int64, value string) error
}

// FileSource resolves submission files.
type FileSource interface {
	SubmissionFile(ctx context.Context, ref types.FileRef) (types.SubmissionFile, error)
}

// Handler serves the grobid-jats HTTP API.
type Handler struct {
	proc     Processor
	settings HostSettings
	files    FileSource
	logger   *slog.Logger
	version  string
}

// NewHandler creates a Handler.
func NewHandler(proc Processor, settings HostSettings, files FileSource, logger *slog.Logger, version string) *Handler {
	return &Handler{
		proc:     proc,
		settings: settings,
		files:    files,
		logger:   logger.With(slog.String("component", "api")),
		version:  version,
	}
}

type processRequest struct {
	SubmissionID int64 `json:"submissionId"`
	FileID       int64 `json:"fileId"`
	Revision     int64 `json:"revision"`
	StageID      int64 `json:"stageId"`
}

func (r *processRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubmissionID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.FileID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Revision, validation.Min(int64(0))),
	)
}

type processFailure struct {
	Success bool              `json:"success"`
	Kind    types.FailureKind `json:"kind"`
	Message string            `json:"message"`
}

type settingsBody struct {
	Host string `json:"host"`
}

func (s *settingsBody) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Host, validation.Length(0, maxHostLength)),
	)
}

type actionsResponse struct {
	Process bool `json:"process"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Process handles POST /api/v1/contexts/{contextID}/grobid/process.
// Conversion failures are reported with status 200 and success false.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	contextID, ok := pathID(w, r, "contextID")
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid "+UserIDHeader+" header")
		return
	}

	var req processRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref := types.FileRef{
		SubmissionID: req.SubmissionID,
		FileID:       req.FileID,
		Revision:     req.Revision,
		StageID:      req.StageID,
	}
	rc := convert.RequestContext{
		ContextID: contextID,
		ID:        RequestIDFrom(r.Context()),
		URL:       requestURL(r),
	}

	res, err := h.proc.Process(r.Context(), ref, types.User{ID: userID}, rc)
	if err != nil {
		kind := types.KindOf(err)
		if kind == types.FailureNone {
			h.logger.Error("process failed outside the taxonomy", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, processFailure{
			Success: false,
			Kind:    kind,
			Message: convert.FailureMessage(kind, ""),
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetSettings handles GET /api/v1/contexts/{contextID}/grobid/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	contextID, ok := pathID(w, r, "contextID")
	if !ok {
		return
	}
	host, err := h.settings.Host(r.Context(), contextID)
	if err != nil {
		h.logger.Error("reading settings", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "reading settings failed")
		return
	}
	writeJSON(w, http.StatusOK, settingsBody{Host: host})
}

// PutSettings handles PUT /api/v1/contexts/{contextID}/grobid/settings.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	contextID, ok := pathID(w, r, "contextID")
	if !ok {
		return
	}
	var body settingsBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := body.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.settings.SetHost(r.Context(), contextID, body.Host); err != nil {
		h.logger.Error("writing settings", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "writing settings failed")
		return
	}
	host, err := h.settings.Host(r.Context(), contextID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading settings failed")
		return
	}
	writeJSON(w, http.StatusOK, settingsBody{Host: host})
}

// FileActions handles
// GET /api/v1/contexts/{contextID}/submissions/{submissionID}/files/{fileID}/actions.
func (h *Handler) FileActions(w http.ResponseWriter, r *http.Request) {
	contextID, ok := pathID(w, r, "contextID")
	if !ok {
		return
	}
	submissionID, ok := pathID(w, r, "submissionID")
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "fileID")
	if !ok {
		return
	}

	file, err := h.files.SubmissionFile(r.Context(), types.FileRef{SubmissionID: submissionID, FileID: fileID})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		h.logger.Error("looking up file", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "looking up file failed")
		return
	}

	eligible, err := h.proc.Eligible(r.Context(), contextID, file)
	if err != nil {
		h.logger.Error("checking eligibility", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "checking eligibility failed")
		return
	}
	writeJSON(w, http.StatusOK, actionsResponse{Process: eligible})
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	})
}

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// decodeJSON reads at most maxBodyBytes of JSON into dest, writing a 413 or
// 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
