// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: grobid-api-token.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// GrobidAPIToken is the key of the bearer token sent to Grobid deployments
// that sit behind an authenticating proxy.
const GrobidAPIToken = "grobid-api-token"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// EnvName is the environment variable that can supply key when no file
// does, e.g. GROBID_JATS_GROBID_API_TOKEN for grobid-api-token.
func EnvName(key string) string {
	return "GROBID_JATS_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Lookup returns the loaded value of key, falling back to its environment
// variable.
func Lookup(loaded map[string]string, key string) (string, bool) {
	if v, ok := loaded[key]; ok {
		return v, true
	}
	v := strings.TrimSpace(os.Getenv(EnvName(key)))
	return v, v != ""
}
