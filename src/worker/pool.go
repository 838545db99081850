package worker

import (
	"context"
	"image"
	"log"
	"runtime"
	"sync"

	"snip-ocr/src/ocr"
	"snip-ocr/src/preprocess"
)

// ResultCallback is invoked on OCR completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(text string, err error)

// RecognizeFunc turns a captured image into text with the selected engine.
type RecognizeFunc func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error)

// Recognize is the production pipeline: preprocess the capture, then hand the
// binarized image to the selected OCR backend.
func Recognize(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
	processed := preprocess.Preprocess(img)
	return ocr.Extract(ctx, processed, engine)
}

// Pool is a fixed-size OCR worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs      chan job
	wg        sync.WaitGroup
	recognize RecognizeFunc
}

type job struct {
	ctx    context.Context
	img    image.Image
	engine ocr.Engine
	cb     ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1
// slot. A nil fn uses the production Recognize pipeline.
func New(size int, fn RecognizeFunc) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if fn == nil {
		fn = Recognize
	}
	p := &Pool{jobs: make(chan job, 1), recognize: fn}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				b := j.img.Bounds()
				log.Printf("Worker: Starting OCR for %dx%d image via %s", b.Dx(), b.Dy(), j.engine)
				text, err := p.recognizeWithContext(j.ctx, j.img, j.engine)
				log.Printf("Worker: OCR completed, text length=%d, err=%v", len(text), err)
				j.cb(text, err)
			}
		}()
	}
}

// Submit enqueues an OCR job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, img image.Image, engine ocr.Engine, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, img: img, engine: engine, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// recognizeWithContext wraps the recognize pipeline with a deadline-aware path.
func (p *Pool) recognizeWithContext(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
	// Fast path: no deadline, call directly.
	if _, ok := ctx.Deadline(); !ok {
		return p.recognize(ctx, img, engine)
	}
	// Deadline-aware shim: run in a sub-goroutine, respect ctx.Done().
	resCh := make(chan struct {
		text string
		err  error
	}, 1)
	go func() {
		text, err := p.recognize(ctx, img, engine)
		resCh <- struct {
			text string
			err  error
		}{text, err}
	}()
	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		// Allow underlying OCR to continue in background; we return timeout.
		return "", ctx.Err()
	}
}
