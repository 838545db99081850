package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"snip-ocr/src/clipboard"
	"snip-ocr/src/ocr"
	"snip-ocr/src/preprocess"
	"snip-ocr/src/screenshot"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

type RegionSelectorFunc func(ctx context.Context) (screenshot.Region, bool, error)

type CaptureFunc func(region screenshot.Region) (image.Image, error)

type RecognizeFunc func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error)

type ResultTarget interface {
	OnSuccess(text string) error
	OnFailure(err error) error
}

type Options struct {
	Deadline     time.Duration
	Engine       ocr.Engine
	SelectRegion RegionSelectorFunc
	Capture      CaptureFunc
	Recognize    RecognizeFunc
	Target       ResultTarget
}

type Result struct {
	Text string
}

// Execute runs one select-capture-recognize-deliver cycle. It is the
// run-once path; the resident application loop drives the same stages
// through the worker pool instead.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.SelectRegion == nil {
		return Result{}, errors.New("SelectRegion is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("Target is required")
	}

	region, cancelled, err := opts.SelectRegion(ctx)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	if cancelled {
		_ = opts.Target.OnFailure(ErrSelectionCancelled)
		return Result{}, ErrSelectionCancelled
	}

	capture := opts.Capture
	if capture == nil {
		capture = captureRegion
	}

	img, err := capture(region)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}

	recognize := opts.Recognize
	if recognize == nil {
		recognize = recognizeWithContext
	}

	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	text, err := recognize(jobCtx, img, opts.Engine)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	if err := opts.Target.OnSuccess(text); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	return Result{Text: text}, nil
}

func captureRegion(region screenshot.Region) (image.Image, error) {
	full, err := screenshot.Capture()
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	return screenshot.Crop(full, region)
}

type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(text string) error {
	return clipboard.Write(text)
}

func (ClipboardTarget) OnFailure(err error) error {
	return nil
}

type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(text string) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprint(w, text)
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

func recognizeWithContext(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
	resCh := make(chan struct {
		text string
		err  error
	}, 1)

	go func() {
		text, err := ocr.Extract(ctx, preprocess.Preprocess(img), engine)
		resCh <- struct {
			text string
			err  error
		}{text: text, err: err}
	}()

	select {
	case r := <-resCh:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
