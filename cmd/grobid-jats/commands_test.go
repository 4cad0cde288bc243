package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/grobid-jats/internal/jats"
)

// runCLI executes the root command with args against a fresh viper
// instance and returns everything written to stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	require.NoError(t, viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir")))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// testConfig writes a config file that keeps log output quiet.
func testConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grobid-jats.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o644))
	return path
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSettingsSet_TrimsHost(t *testing.T) {
	cfg := testConfig(t)
	dataDir := t.TempDir()

	out, err := runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"settings", "set", "--context", "2", "--json=true", "  http://grobid:8070/  ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"context_id":2,"host":"http://grobid:8070/"}`, out)

	out, err = runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"settings", "show", "--context", "2", "--json=false")
	require.NoError(t, err)
	assert.Equal(t, "context_id: 2\nhost: http://grobid:8070/\n", out)
}

func TestProcess_FailureExitStatus(t *testing.T) {
	cfg := testConfig(t)
	dataDir := t.TempDir()
	doc := writeInput(t, "article.doc", "not a pdf")

	_, err := runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"files", "import", "--submission", "10", "--context", "1", "--user", "3",
		"--mime-type", "application/msword", doc)
	require.NoError(t, err)

	out, err := runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"process", "--context", "1", "--user", "5", "--submission", "10", "1-1")
	require.Error(t, err)
	assert.Equal(t, "1 of 1 files failed", err.Error())
	assert.Contains(t, out, "failed:    1-1")
	assert.Contains(t, out, "Batch summary: 0 converted, 1 failed (total: 1)")
}

func TestProcess_Converts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.2 20190208//EN" %q>
<article/>`, jats.JournalPublishing12)
	}))
	defer ts.Close()

	cfg := testConfig(t)
	dataDir := t.TempDir()
	pdf := writeInput(t, "article.pdf", "%PDF-1.4\n%fake\n")

	_, err := runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"settings", "set", "--context", "1", "--json=false", ts.URL)
	require.NoError(t, err)
	_, err = runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"files", "import", "--submission", "10", "--context", "1", "--user", "3",
		"--mime-type", "application/pdf", pdf)
	require.NoError(t, err)

	out, err := runCLI(t, "--config", cfg, "--data-dir", dataDir,
		"process", "--context", "1", "--user", "5", "--submission", "10", "1-1")
	require.NoError(t, err)
	assert.Contains(t, out, "converted: 1-1 -> 2-1")
}
