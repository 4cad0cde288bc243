//go:build mage

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.go")
	require.NoError(t, os.WriteFile(path, []byte("package x\n\n  \t\nfunc f() {}\n"), 0o644))

	n, err := nonBlankLines(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = nonBlankLines(filepath.Join(t.TempDir(), "missing.go"))
	assert.Error(t, err)
}
