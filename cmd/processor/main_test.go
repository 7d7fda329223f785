package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/internal/config"
	"freightpulse/internal/files"
)

const manifestCSV = `carrier code,name,date
001,Acme Freight,2025-06-02
002,Blue Line,2025-06-03
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeManifest(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(manifestCSV), 0644))
	return path
}

func TestParseDirectoryKeepsFullPaths(t *testing.T) {
	inbox := t.TempDir()
	writeManifest(t, inbox, "2025-06.csv")
	writeManifest(t, inbox, "2025-07.csv")

	items, err := parseDirectory(context.Background(), config.Default(), testLogger(), inbox)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// The manifest only records the base name; the pair keeps the full
	// path so later stages can reach the file regardless of CWD.
	assert.Equal(t, filepath.Join(inbox, "2025-06.csv"), items[0].path)
	assert.Equal(t, "2025-06.csv", items[0].manifest.SourceFile)
	assert.Equal(t, filepath.Join(inbox, "2025-07.csv"), items[1].path)
	assert.Len(t, items[0].manifest.Records, 2)
}

func TestArchiveAfterParseFromOtherWorkingDirectory(t *testing.T) {
	inbox := t.TempDir()
	archiveRoot := t.TempDir()
	source := writeManifest(t, inbox, "2025-06.csv")

	// Batch runs are started from wherever the operator happens to be,
	// not from the inbox itself.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	items, err := parseDirectory(context.Background(), config.Default(), testLogger(), inbox)
	require.NoError(t, err)
	require.Len(t, items, 1)

	dest, err := files.NewArchiver(archiveRoot, testLogger()).Archive(items[0].path, "2025-06")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archiveRoot, "2025-06", "2025-06.csv"), dest)

	_, err = os.Stat(dest)
	assert.NoError(t, err)
	_, err = os.Stat(source)
	assert.True(t, os.IsNotExist(err))
}
