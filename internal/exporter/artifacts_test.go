package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/internal/config"
	"freightpulse/pkg/contracts/domain"
)

func newTestWriter(t *testing.T) (*ArtifactWriter, config.PathsConfig) {
	t.Helper()
	base := t.TempDir()
	paths := config.PathsConfig{
		ReportsDir: filepath.Join(base, "reports"),
		PreviewDir: filepath.Join(base, "preview"),
	}
	return NewArtifactWriter(paths, nil), paths
}

func outcome(decision domain.Decision) domain.ProcessOutcome {
	return domain.ProcessOutcome{
		RunID:      "run-1",
		SourceFile: "june.xlsx",
		Period:     "2025-06",
		Decision:   decision,
		Metrics: domain.CohortMetrics{
			MedianRepresented: 1.5,
			ParticipationPct:  30.0,
		},
	}
}

func TestOutcomeDirRouting(t *testing.T) {
	writer, paths := newTestWriter(t)

	assert.Equal(t, filepath.Join(paths.ReportsDir, "2025-06"),
		writer.OutcomeDir(outcome(domain.DecisionCommit)))
	assert.Equal(t, paths.PreviewDir,
		writer.OutcomeDir(outcome(domain.DecisionDuplicate)))
	assert.Equal(t, paths.PreviewDir,
		writer.OutcomeDir(outcome(domain.DecisionPreview)))
}

func TestWriteOutcome(t *testing.T) {
	writer, paths := newTestWriter(t)

	path, err := writer.WriteOutcome(context.Background(), outcome(domain.DecisionCommit))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "2025-06", "metrics_2025-06.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "cohort_metrics_v1", payload["format"])
	assert.NotEmpty(t, payload["generated_at"])

	inner, ok := payload["outcome"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2025-06", inner["period"])
}

func TestWritePreviewOutcomeOverwrites(t *testing.T) {
	writer, paths := newTestWriter(t)

	first, err := writer.WriteOutcome(context.Background(), outcome(domain.DecisionPreview))
	require.NoError(t, err)
	second, err := writer.WriteOutcome(context.Background(), outcome(domain.DecisionPreview))
	require.NoError(t, err)

	assert.Equal(t, first, second, "preview artifacts land on a fixed path and are replaced")
	entries, err := os.ReadDir(paths.PreviewDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteHistoryCSV(t *testing.T) {
	writer, paths := newTestWriter(t)

	records := []domain.HistoricalRecord{
		{Period: "2025-05", MedianRepresented: 1.5, MedianOther: 3.5, MeanRepresented: 1.5, MeanOther: 3.5, ParticipationPct: 30},
		{Period: "2025-06", MedianRepresented: 2, MedianOther: 3, MeanRepresented: 2.25, MeanOther: 3.1, ParticipationPct: 42.5},
	}

	path, err := writer.WriteHistoryCSV(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "history.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	assert.True(t, strings.HasPrefix(content, "\xEF\xBB\xBF"), "Excel needs the UTF-8 BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(content, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Period,MedianRepresented,MedianOther,MeanRepresented,MeanOther,ParticipationPct", lines[0])
	assert.Equal(t, "2025-05,1.50,3.50,1.50,3.50,30.00", lines[1])
	assert.Equal(t, "2025-06,2.00,3.00,2.25,3.10,42.50", lines[2])
}

func TestWriteCSVAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, writeCSV(path, WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}},
	}))
	require.NoError(t, writeCSV(path, WriteOptions{
		Records: [][]string{{"3", "4"}},
		Append:  true,
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(raw))
}
