package rectify

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"doc-rectifier/internal/raster"
	"doc-rectifier/internal/status"
)

// progress reports "Processing: N%" every `every` pixels.
type progress struct {
	sink  status.Sink
	every int64
	total int64
	done  atomic.Int64
	mu    sync.Mutex
}

func newProgress(sink status.Sink, every, total int) *progress {
	return &progress{sink: sink, every: int64(every), total: int64(total)}
}

func (p *progress) tick() {
	if p.every <= 0 || p.total <= 0 {
		return
	}
	n := p.done.Add(1)
	if n%p.every != 0 {
		return
	}
	p.mu.Lock()
	p.sink.Report(status.Neutral, fmt.Sprintf("Processing: %d%%", n*100/p.total))
	p.mu.Unlock()
}

// render fills dst by calling sample for every pixel. With more than one
// worker the rows are split into contiguous stripes. Every pixel depends only
// on its own coordinates, so the result does not depend on the worker count.
func render(dst *raster.Buffer, workers int, prog *progress, sample func(x, y int) color.RGBA) error {
	workers = min(workers, dst.Height)
	if workers <= 1 {
		return renderRows(dst, 0, dst.Height, prog, sample)
	}

	stripe := (dst.Height + workers - 1) / workers
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0 := i * stripe
		y1 := min(y0+stripe, dst.Height)
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		go func(i, y0, y1 int) {
			defer wg.Done()
			errs[i] = renderRows(dst, y0, y1, prog, sample)
		}(i, y0, y1)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func renderRows(dst *raster.Buffer, y0, y1 int, prog *progress, sample func(x, y int) color.RGBA) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pixel loop failed at rows %d-%d: %v", y0, y1-1, r)
		}
	}()
	for y := y0; y < y1; y++ {
		for x := 0; x < dst.Width; x++ {
			c := sample(x, y)
			i := dst.Offset(x, y)
			dst.Pix[i] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
			prog.tick()
		}
	}
	return nil
}
