package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindow_Snapshot(t *testing.T) {
	var w Window
	w.Record(128, 10*time.Millisecond, 90*time.Millisecond)
	w.Record(128, 20*time.Millisecond, 80*time.Millisecond)

	snap := w.Snapshot()
	assert.Equal(t, 256, snap.Samples)
	assert.Equal(t, 2, snap.Steps)
	assert.InDelta(t, 1280.0, snap.ImagesPerSec, 1e-6)
	assert.InDelta(t, 15.0, snap.AvgDataMS, 1e-6)
	assert.InDelta(t, 85.0, snap.AvgComputeMS, 1e-6)
}

func TestWindow_SnapshotResets(t *testing.T) {
	var w Window
	w.Record(64, time.Millisecond, time.Millisecond)
	w.Snapshot()

	snap := w.Snapshot()
	assert.Equal(t, 0, snap.Samples)
	assert.Equal(t, 0, snap.Steps)
	assert.Zero(t, snap.ImagesPerSec)
}

func TestWindow_Empty(t *testing.T) {
	var w Window
	snap := w.Snapshot()
	assert.Zero(t, snap.ImagesPerSec)
	assert.Zero(t, snap.AvgDataMS)
}
