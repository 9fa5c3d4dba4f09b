// Package metrics accumulates timing statistics for training epochs.
package metrics

import "time"

// Window sums sample counts and data/compute time over the steps of
// one epoch. Snapshot drains it for logging and resets for the next
// epoch.
type Window struct {
	samples int
	data    time.Duration
	compute time.Duration
	steps   int
}

// Record adds one training step's measurements.
func (w *Window) Record(batchSize int, dataTime, computeTime time.Duration) {
	w.samples += batchSize
	w.data += dataTime
	w.compute += computeTime
	w.steps++
}

// Snapshot holds aggregated epoch metrics.
type Snapshot struct {
	Samples      int
	Steps        int
	ImagesPerSec float64
	AvgDataMS    float64
	AvgComputeMS float64
}

// Snapshot aggregates the window and resets it.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Samples: w.samples, Steps: w.steps}
	if total := w.data + w.compute; total > 0 {
		snap.ImagesPerSec = float64(w.samples) / total.Seconds()
	}
	if w.steps > 0 {
		snap.AvgDataMS = w.data.Seconds() * 1000 / float64(w.steps)
		snap.AvgComputeMS = w.compute.Seconds() * 1000 / float64(w.steps)
	}

	*w = Window{}
	return snap
}
