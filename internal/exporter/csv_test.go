package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "history.csv")

	require.NoError(t, writeCSV(path, WriteOptions{
		Headers: []string{"period", "median"},
		Records: [][]string{{"2025-06", "1.50"}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "period,median\n2025-06,1.50\n", string(data))
}

func TestWriteCSVSurfacesFlushError(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("requires /dev/full")
	}

	// A record this small stays in the csv writer's buffer until the
	// final flush, so the write error only exists at flush time.
	err := writeCSV("/dev/full", WriteOptions{
		Headers: []string{"period", "median"},
		Records: [][]string{{"2025-06", "1.50"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush")
}
