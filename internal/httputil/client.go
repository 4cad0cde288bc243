// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/grobid-jats/pkg/types"
)

// DefaultTimeout is used when HTTPConfig.Timeout is zero.
const DefaultTimeout = 90 * time.Second

// ErrTooManyRedirects is returned by clients built with NewClient once a
// request exceeds its redirect budget.
var ErrTooManyRedirects = errors.New("too many redirects")

// NewClient builds a single-attempt HTTP client: it applies the configured
// timeout, follows at most cfg.MaxRedirects redirects and negotiates HTTP/2
// when the server offers it. MaxRedirects of zero or less disables redirects.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = true

	maxRedirects := cfg.MaxRedirects
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via holds the requests already sent, so len(via) is the
			// number of the redirect about to be followed.
			if len(via) > maxRedirects {
				return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, maxRedirects)
			}
			return nil
		},
	}
}
