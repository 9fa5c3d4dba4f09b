// Package pipeline turns a dataset split into a restartable sequence
// of training batches.
//
// Stages, in order: normalize pixels to [0, 1] (computed once and
// cached), shuffle the full split (train only, reseeded per pass),
// group into fixed-size batches, and optionally prefetch batches on a
// background goroutine so batch assembly overlaps the compute of the
// consumer. Prefetching is a throughput optimization only; the batch
// sequence is identical with it on or off.
package pipeline

import (
	"fmt"

	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/dataset"
	"github.com/digit-ml/digit/internal/tensor"
)

// DefaultBatchSize matches the training configuration default.
const DefaultBatchSize = 128

// Options configures a pipeline.
type Options struct {
	BatchSize int  // defaults to DefaultBatchSize
	Shuffle   bool // full-split reshuffle at the start of every pass
	Prefetch  int  // batches prepared ahead; 0 disables prefetching
}

// Batch is one fixed-size group of samples ready for a training step.
// Images has shape [n, 1, 28, 28] with values in [0, 1]. The final
// batch of a pass may be smaller than the configured size.
type Batch struct {
	Images *tensor.Tensor
	Labels []int
	Size   int
}

// Pipeline owns the normalized sample cache for one split and hands
// out one pass at a time via Run.
type Pipeline struct {
	ctx    *compute.Context
	name   string
	images []float32 // normalized pixels, sample-major
	labels []int
	opts   Options
	passes int64 // salts the shuffle so every pass reorders
}

// New normalizes and caches the split. The split must be non-empty.
func New(ctx *compute.Context, split *dataset.Split, opts Options) (*Pipeline, error) {
	if split.NumSamples() == 0 {
		return nil, fmt.Errorf("pipeline: split %q is empty", split.Name)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Prefetch < 0 {
		opts.Prefetch = 0
	}

	n := split.NumSamples()
	images := make([]float32, n*dataset.ImageSize)
	labels := make([]int, n)
	for i, sample := range split.Samples {
		base := i * dataset.ImageSize
		for j, px := range sample.Image {
			images[base+j] = float32(px) / 255.0
		}
		labels[i] = sample.Label
	}

	return &Pipeline{
		ctx:    ctx,
		name:   split.Name,
		images: images,
		labels: labels,
		opts:   opts,
	}, nil
}

// NumSamples returns the number of cached samples.
func (p *Pipeline) NumSamples() int {
	return len(p.labels)
}

// NumBatches returns the number of batches per pass, counting a
// trailing partial batch.
func (p *Pipeline) NumBatches() int {
	return (len(p.labels) + p.opts.BatchSize - 1) / p.opts.BatchSize
}

// BatchSize returns the configured batch size.
func (p *Pipeline) BatchSize() int {
	return p.opts.BatchSize
}

// Run starts one pass over the split and returns its cursor. With
// shuffling enabled the order is drawn from a stream derived from the
// run seed and the pass number, so runs are reproducible end to end
// while every pass still reorders.
func (p *Pipeline) Run() *Cursor {
	order := make([]int, len(p.labels))
	for i := range order {
		order[i] = i
	}
	if p.opts.Shuffle {
		rng := p.ctx.Fork(p.passes).RNG()
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	p.passes++

	c := &Cursor{pipeline: p, order: order}
	if p.opts.Prefetch > 0 {
		c.start()
	}
	return c
}

// buildBatch assembles the batch covering order[start:end].
func (p *Pipeline) buildBatch(order []int, start, end int) *Batch {
	n := end - start
	images := tensor.New(tensor.Shape{n, 1, dataset.ImageRows, dataset.ImageCols})
	labels := make([]int, n)

	data := images.Data()
	for i := 0; i < n; i++ {
		src := order[start+i] * dataset.ImageSize
		copy(data[i*dataset.ImageSize:(i+1)*dataset.ImageSize], p.images[src:src+dataset.ImageSize])
		labels[i] = p.labels[order[start+i]]
	}

	return &Batch{Images: images, Labels: labels, Size: n}
}
