// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package settings reads and writes the per-context Grobid settings.
package settings

import (
	"context"
	"fmt"
	"strings"
)

const (
	// PluginName scopes the settings rows owned by this module.
	PluginName = "grobid"

	// KeyHost holds the base URL of the Grobid service.
	KeyHost = "host"
)

// Backend stores plugin settings per context. Setting returns "" for a
// setting that was never written.
type Backend interface {
	Setting(ctx context.Context, contextID int64, plugin, key string) (string, error)
	UpdateSetting(ctx context.Context, contextID int64, plugin, key, value string) error
}

// Settings exposes the Grobid host setting of each context.
type Settings struct {
	backend Backend
}

// New returns Settings stored in backend.
func New(backend Backend) *Settings {
	return &Settings{backend: backend}
}

// Host returns the configured Grobid base URL for contextID with
// surrounding whitespace removed, or "" when none is configured.
func (s *Settings) Host(ctx context.Context, contextID int64) (string, error) {
	v, err := s.backend.Setting(ctx, contextID, PluginName, KeyHost)
	if err != nil {
		return "", fmt.Errorf("reading %s setting for context %d: %w", KeyHost, contextID, err)
	}
	return strings.TrimSpace(v), nil
}

// SetHost stores the Grobid base URL for contextID. The value is trimmed
// but otherwise not validated; an empty value disables conversion.
func (s *Settings) SetHost(ctx context.Context, contextID int64, value string) error {
	if err := s.backend.UpdateSetting(ctx, contextID, PluginName, KeyHost, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("updating %s setting for context %d: %w", KeyHost, contextID, err)
	}
	return nil
}
