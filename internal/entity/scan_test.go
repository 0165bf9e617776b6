package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	completed := NewPageResult("a", "http://a")
	require.NoError(t, completed.StartProcessing())
	require.NoError(t, completed.Complete(sampleImages("a"), false, ""))

	failed := NewPageResult("b", "http://b")
	require.NoError(t, failed.StartProcessing())
	require.NoError(t, failed.Fail("boom"))

	processing := NewPageResult("c", "http://c")
	require.NoError(t, processing.StartProcessing())

	pending := NewPageResult("d", "http://d")

	scan := &Scan{Pages: []PageResult{completed, failed, processing, pending}}
	stats := scan.Stats()

	assert.Equal(t, ScanStats{
		TotalURLs:        4,
		ProcessedURLs:    2,
		FailedURLs:       1,
		TotalImages:      4,
		MissingAltImages: 2,
		EmptyAltImages:   1,
	}, stats)
	assert.Equal(t, 1, stats.PresentAltImages())
	assert.InDelta(t, 0.5, stats.Progress(), 1e-9)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.TotalURLs)
	assert.Zero(t, stats.Progress())
}
