package pipeline

// Cursor iterates the batches of a single pass. A pass is finite;
// start the next one with Pipeline.Run.
type Cursor struct {
	pipeline *Pipeline
	order    []int
	next     int

	// prefetch state, nil when prefetching is off
	batches chan *Batch
	done    chan struct{}
}

// start launches the prefetch goroutine. It fills a bounded channel so
// at most Options.Prefetch batches are held ahead of the consumer.
func (c *Cursor) start() {
	c.batches = make(chan *Batch, c.pipeline.opts.Prefetch)
	c.done = make(chan struct{})

	go func() {
		defer close(c.batches)
		size := c.pipeline.opts.BatchSize
		for start := 0; start < len(c.order); start += size {
			end := start + size
			if end > len(c.order) {
				end = len(c.order)
			}
			batch := c.pipeline.buildBatch(c.order, start, end)
			select {
			case c.batches <- batch:
			case <-c.done:
				return
			}
		}
	}()
}

// Next returns the next batch of the pass, or (nil, false) when the
// pass is exhausted.
func (c *Cursor) Next() (*Batch, bool) {
	if c.batches != nil {
		batch, ok := <-c.batches
		return batch, ok
	}

	if c.next >= len(c.order) {
		return nil, false
	}
	end := c.next + c.pipeline.opts.BatchSize
	if end > len(c.order) {
		end = len(c.order)
	}
	batch := c.pipeline.buildBatch(c.order, c.next, end)
	c.next = end
	return batch, true
}

// Close releases the prefetch goroutine of an abandoned pass. Safe to
// call multiple times and on fully drained cursors.
func (c *Cursor) Close() {
	if c.done != nil {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
}
