package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImages(pageID string) []ImageEntry {
	return []ImageEntry{
		NewImageEntry("1", "http://x", pageID, "http://x/1.png", AltOf("one")),
		NewImageEntry("2", "http://x", pageID, "http://x/2.png", MissingAlt()),
		NewImageEntry("3", "http://x", pageID, "http://x/3.png", AltOf("")),
		NewImageEntry("4", "http://x", pageID, "http://x/4.png", MissingAlt()),
	}
}

func TestPageLifecycleCompleted(t *testing.T) {
	p := NewPageResult("p1", "http://x")
	assert.Equal(t, StatusPending, p.Status)
	assert.Empty(t, p.Images)

	require.NoError(t, p.StartProcessing())
	require.NoError(t, p.Complete(sampleImages("p1"), false, ""))

	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, 4, p.ImagesCount)
	assert.Equal(t, 2, p.MissingAltCount)
	assert.Equal(t, 1, p.EmptyAltCount)
	assert.NoError(t, p.CheckCounts())
	assert.Empty(t, p.Error)
}

func TestPageLifecycleRejectsIllegalTransitions(t *testing.T) {
	p := NewPageResult("p1", "http://x")
	assert.ErrorIs(t, p.Complete(nil, false, ""), ErrInvalidTransition)

	require.NoError(t, p.StartProcessing())
	assert.ErrorIs(t, p.StartProcessing(), ErrInvalidTransition)

	require.NoError(t, p.Fail("boom"))
	assert.Equal(t, "boom", p.Error)
	assert.ErrorIs(t, p.Fail("again"), ErrInvalidTransition)
	assert.ErrorIs(t, p.StartProcessing(), ErrInvalidTransition)
	assert.ErrorIs(t, p.Complete(nil, false, ""), ErrInvalidTransition)
	assert.Equal(t, "boom", p.Error)
}

func TestPageFailRequiresProcessing(t *testing.T) {
	p := NewPageResult("p1", "http://x")
	assert.ErrorIs(t, p.Fail("scan cancelled"), ErrInvalidTransition)
	assert.Equal(t, StatusPending, p.Status)
	assert.Empty(t, p.Error)

	require.NoError(t, p.StartProcessing())
	require.NoError(t, p.Fail("scan cancelled"))
	assert.Equal(t, StatusFailed, p.Status)
}

func TestPageCompleteRejectsForeignOrInconsistentImages(t *testing.T) {
	p := NewPageResult("p1", "http://x")
	require.NoError(t, p.StartProcessing())

	assert.Error(t, p.Complete(sampleImages("other"), false, ""))
	assert.Equal(t, StatusProcessing, p.Status)

	bad := sampleImages("p1")
	bad[0].Status = AltStatusEmpty
	assert.Error(t, p.Complete(bad, false, ""))
	assert.Equal(t, StatusProcessing, p.Status)
	assert.Zero(t, p.ImagesCount)
}

func TestPageCheckCountsDetectsMismatch(t *testing.T) {
	p := NewPageResult("p1", "http://x")
	require.NoError(t, p.StartProcessing())
	require.NoError(t, p.Complete(sampleImages("p1"), false, ""))

	p.MissingAltCount = 0
	assert.ErrorIs(t, p.CheckCounts(), ErrCountMismatch)
}

func TestPageSnapshotIsIndependent(t *testing.T) {
	p := NewPageResult("p1", "http://x")
	require.NoError(t, p.StartProcessing())
	images := sampleImages("p1")
	require.NoError(t, p.Complete(images, true, "timeout"))

	images[0].ImageSrc = "mutated"
	assert.Equal(t, "http://x/1.png", p.Images[0].ImageSrc)

	snap := p.Snapshot()
	snap.Images[1].ImageSrc = "mutated"
	assert.Equal(t, "http://x/2.png", p.Images[1].ImageSrc)
	assert.True(t, snap.Synthetic)
	assert.Equal(t, "timeout", snap.FallbackReason)
}
