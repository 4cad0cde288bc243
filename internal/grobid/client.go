// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grobid sends PDFs to a Grobid service and returns the JATS XML it
// produces. The client makes exactly one attempt per call and never parses
// the response; validation belongs to the caller.
package grobid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/grobid-jats/internal/httputil"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

const (
	// DefaultAPIPath is the Grobid endpoint returning JATS full text.
	DefaultAPIPath = "/api/processFulltextDocumentJATS"

	// DefaultUserAgent is sent when the configuration leaves it empty.
	DefaultUserAgent = "grobid-jats/0.1"

	inputField = "input"

	// errorSnippetLen bounds how much of a failed response body is logged.
	errorSnippetLen = 512
)

// requestDuration covers the HTTP exchange only; calls that fail before a
// request is sent are not observed.
var requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "grobid_request_duration_seconds",
	Help:    "Duration of requests to the Grobid service.",
	Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
})

// DefaultFileTypes lists the declared MIME types Grobid accepts.
var DefaultFileTypes = []string{"application/pdf"}

var (
	// ErrHostNotConfigured reports a context without a Grobid host setting.
	ErrHostNotConfigured = errors.New("grobid host not configured")

	// ErrStatus reports a non-2xx response from Grobid.
	ErrStatus = errors.New("unexpected HTTP status")
)

// HostSource resolves the Grobid base URL of a context.
type HostSource interface {
	Host(ctx context.Context, contextID int64) (string, error)
}

// FileReader reads file content from host storage.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Request describes one file to convert.
type Request struct {
	ContextID int64

	// Path locates the content in host storage.
	Path string

	// FileName is sent as the multipart filename; defaults to the base of Path.
	FileName string

	// MIMEType is the declared type of the file.
	MIMEType string

	// Referer identifies the request that triggered the conversion.
	Referer string

	// RequestID is forwarded as X-Request-ID when set.
	RequestID string
}

// Client talks to the Grobid service configured for each context.
type Client struct {
	httpClient *http.Client
	hosts      HostSource
	files      FileReader
	cfg        types.GrobidConfig
	token      string
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sends token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the client built from the configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client. Empty configuration fields fall back to the package
// defaults.
func New(cfg types.GrobidConfig, hosts HostSource, files FileReader, logger *slog.Logger, opts ...Option) *Client {
	if cfg.APIPath == "" {
		cfg.APIPath = DefaultAPIPath
	}
	if !strings.HasPrefix(cfg.APIPath, "/") {
		cfg.APIPath = "/" + cfg.APIPath
	}
	if len(cfg.FileTypes) == 0 {
		cfg.FileTypes = DefaultFileTypes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := &Client{
		hosts:  hosts,
		files:  files,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "grobid_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httputil.NewClient(cfg.HTTPConfig)
	}
	return c
}

// Accepts reports whether files of the declared mimeType may be sent.
func (c *Client) Accepts(mimeType string) bool {
	return slices.Contains(c.cfg.FileTypes, mimeType)
}

// Endpoint returns the conversion URL for contextID: the trimmed host
// without trailing slashes followed by the API path.
func (c *Client) Endpoint(ctx context.Context, contextID int64) (string, error) {
	host, err := c.hosts.Host(ctx, contextID)
	if err != nil {
		return "", err
	}
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return "", fmt.Errorf("%w for context %d", ErrHostNotConfigured, contextID)
	}
	return host + c.cfg.APIPath, nil
}

// Convert posts the file to Grobid and returns the response body verbatim.
// Storage failures are reported as types.FailureStorage; everything on the
// wire, including non-2xx statuses, as types.FailureNetwork.
func (c *Client) Convert(ctx context.Context, req Request) ([]byte, error) {
	url, err := c.Endpoint(ctx, req.ContextID)
	if err != nil {
		return nil, types.Fail(types.FailureNetwork, err)
	}

	content, err := c.files.ReadFile(req.Path)
	if err != nil {
		return nil, types.Fail(types.FailureStorage, fmt.Errorf("reading %s: %w", req.Path, err))
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = filepath.Base(req.Path)
	}
	body, contentType, err := multipartBody(fileName, req.MIMEType, content)
	if err != nil {
		return nil, types.Fail(types.FailureNetwork, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.Fail(types.FailureNetwork, fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/xml")
	httpReq.Header.Set("Accept-Charset", "utf-8")
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.logger.With(
		slog.String("url", url),
		slog.String("file", fileName),
		slog.String("request_id", req.RequestID),
	)
	log.Debug("sending conversion request", slog.Int("bytes", len(content)))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		requestDuration.Observe(time.Since(start).Seconds())
		log.Error("grobid request failed", slog.String("error", err.Error()))
		return nil, types.Fail(types.FailureNetwork, fmt.Errorf("HTTP request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	requestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("reading grobid response failed", slog.String("error", err.Error()))
		return nil, types.Fail(types.FailureNetwork, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := data
		if len(snippet) > errorSnippetLen {
			snippet = snippet[:errorSnippetLen]
		}
		log.Error("grobid returned an error status",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)),
		)
		return nil, types.Fail(types.FailureNetwork, fmt.Errorf("%w %d from %s", ErrStatus, resp.StatusCode, url))
	}

	log.Info("grobid conversion received",
		slog.Int("status", resp.StatusCode),
		slog.String("proto", resp.Proto),
		slog.Int("bytes", len(data)),
	)
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes content as the single "input" part of a
// multipart/form-data body.
func multipartBody(fileName, mimeType string, content []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		inputField, quoteEscaper.Replace(fileName)))
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("writing multipart part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
