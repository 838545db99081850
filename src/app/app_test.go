package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"snip-ocr/src/clipboard"
	"snip-ocr/src/config"
	"snip-ocr/src/messages"
	"snip-ocr/src/ocr"
	"snip-ocr/src/screenshot"
	"snip-ocr/src/worker"
)

type stubSelector struct {
	region    screenshot.Region
	cancelled bool
	err       error
}

func (s stubSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	return s.region, s.cancelled, s.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	notices  []string
	displays []string
}

func (n *recordingNotifier) Notice(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, title+": "+message)
}

func (n *recordingNotifier) Display(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.displays = append(n.displays, text)
}

func (n *recordingNotifier) noticeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func (n *recordingNotifier) allNotices() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

func (n *recordingNotifier) hasNotice(prefix string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.notices {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func (n *recordingNotifier) hasDisplay(text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.displays {
		if s == text {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

type shellFixture struct {
	shell    *Shell
	notifier *recordingNotifier

	mu     sync.Mutex
	copied string
}

func (f *shellFixture) copiedText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copied
}

// barrier posts a marker action and waits for it to be processed, which
// guarantees every earlier action has been handled too.
func (f *shellFixture) barrier(t *testing.T) {
	t.Helper()
	prev := f.shell.Engine()
	f.shell.Post(messages.SetEngine{Engine: ocr.EngineEasyOCR})
	waitFor(t, "barrier engine switch", func() bool { return f.shell.Engine() == ocr.EngineEasyOCR })
	f.shell.Post(messages.SetEngine{Engine: prev})
	waitFor(t, "barrier engine restore", func() bool { return f.shell.Engine() == prev })
}

func newTestShell(t *testing.T, mutate func(*Options)) *shellFixture {
	t.Helper()

	f := &shellFixture{notifier: &recordingNotifier{}}
	testImage := image.NewRGBA(image.Rect(0, 0, 64, 64))

	opts := Options{
		Config:   &config.Config{Engine: "tesseract", OCRDeadlineSec: 5},
		Selector: stubSelector{region: screenshot.Region{X: 10, Y: 10, Width: 64, Height: 64}},
		Pool: worker.New(1, func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
			return "HELLO", nil
		}),
		Notifier: f.notifier,
		Snapshot: func(region screenshot.Region) (image.Image, error) {
			return testImage, nil
		},
		ReadImage: func() (image.Image, error) { return nil, clipboard.ErrNoImage },
		ReadText:  func() (string, error) { return "", clipboard.ErrNoText },
		WriteText: func(text string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.copied = text
			return nil
		},
		LoadFile: func(path string) (image.Image, error) {
			return nil, fmt.Errorf("no such file: %s", path)
		},
		Tooltip: func(string) {},
	}
	if mutate != nil {
		mutate(&opts)
	}

	f.shell = New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.shell.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return f
}

func TestSnipExtractCopyFlow(t *testing.T) {
	f := newTestShell(t, nil)

	f.shell.Post(messages.NewSnip{})
	waitFor(t, "image loaded", f.shell.HasImage)

	f.shell.Post(messages.ExtractText{})
	waitFor(t, "text extracted", f.shell.CanCopy)
	if got := f.shell.CurrentText(); got != "HELLO" {
		t.Errorf("Expected extracted text HELLO, got %q", got)
	}
	if !f.notifier.hasDisplay("HELLO") {
		t.Errorf("Extracted text was not displayed")
	}

	f.shell.Post(messages.CopyResult{})
	waitFor(t, "text copied", func() bool { return f.copiedText() == "HELLO" })
	if !f.notifier.hasDisplay("Text copied to clipboard") {
		t.Errorf("Copy confirmation was not displayed")
	}
}

func TestPasteEmptyClipboardIsNoOp(t *testing.T) {
	f := newTestShell(t, nil)

	f.shell.Post(messages.PasteImage{})
	waitFor(t, "no-image notice", func() bool { return f.notifier.hasNotice("No Image") })
	if f.shell.HasImage() {
		t.Errorf("Empty clipboard paste should not load an image")
	}
	if f.shell.CanCopy() {
		t.Errorf("Empty clipboard paste should not enable copy")
	}
}

func TestPasteFilePathFromClipboard(t *testing.T) {
	f := newTestShell(t, func(opts *Options) {
		opts.ReadText = func() (string, error) { return "/tmp/shot.png", nil }
		opts.LoadFile = func(path string) (image.Image, error) {
			if path != "/tmp/shot.png" {
				return nil, fmt.Errorf("unexpected path %s", path)
			}
			return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
		}
	})

	f.shell.Post(messages.PasteImage{})
	waitFor(t, "image loaded from path", f.shell.HasImage)
	if f.notifier.noticeCount() != 0 {
		t.Errorf("Unexpected notices: %v", f.notifier.allNotices())
	}
}

func TestCancelledSelectionLeavesStateUnchanged(t *testing.T) {
	f := newTestShell(t, func(opts *Options) {
		opts.Selector = stubSelector{cancelled: true}
	})

	f.shell.Post(messages.NewSnip{})
	f.barrier(t)

	if f.shell.HasImage() {
		t.Errorf("Cancelled selection should not load an image")
	}
	if f.notifier.noticeCount() != 0 {
		t.Errorf("Cancelled selection should be silent, got %v", f.notifier.allNotices())
	}
}

func TestExtractWithoutImage(t *testing.T) {
	f := newTestShell(t, nil)

	f.shell.Post(messages.ExtractText{})
	waitFor(t, "no-image notice", func() bool { return f.notifier.hasNotice("No Image") })
	if f.shell.CanCopy() {
		t.Errorf("Extract without image should not enable copy")
	}
}

func TestFailedExtractionPreservesPriorText(t *testing.T) {
	var calls int
	var mu sync.Mutex
	f := newTestShell(t, func(opts *Options) {
		opts.Pool = worker.New(1, func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return "FIRST", nil
			}
			return "", errors.New("engine exploded")
		})
	})

	f.shell.Post(messages.NewSnip{})
	waitFor(t, "image loaded", f.shell.HasImage)
	f.shell.Post(messages.ExtractText{})
	waitFor(t, "first extraction", func() bool { return f.shell.CurrentText() == "FIRST" })

	f.shell.Post(messages.ExtractText{})
	waitFor(t, "error notice", func() bool { return f.notifier.hasNotice("OCR Error") })

	if got := f.shell.CurrentText(); got != "FIRST" {
		t.Errorf("Failed extraction overwrote prior text: %q", got)
	}
	if !f.shell.CanCopy() {
		t.Errorf("Prior text should remain copyable after a failed extraction")
	}
}

func TestEngineUnavailableReportedInline(t *testing.T) {
	unavail := &ocr.EngineUnavailableError{Engine: ocr.EngineCloudAPI, Reason: "Cloud API OCR is not implemented"}
	f := newTestShell(t, func(opts *Options) {
		opts.Pool = worker.New(1, func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
			return "", unavail
		})
	})

	f.shell.Post(messages.NewSnip{})
	waitFor(t, "image loaded", f.shell.HasImage)
	f.shell.Post(messages.ExtractText{})
	waitFor(t, "inline error text", func() bool { return f.notifier.hasDisplay(unavail.Error()) })

	if n := f.notifier.noticeCount(); n != 0 {
		t.Errorf("Unavailable engine raised %d blocking notices, want 0: %v", n, f.notifier.allNotices())
	}
	if f.shell.CanCopy() {
		t.Errorf("Unavailable engine should not produce copyable text")
	}
}

func TestExecutionErrorReportedInlineAndBlocking(t *testing.T) {
	f := newTestShell(t, func(opts *Options) {
		opts.Pool = worker.New(1, func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
			return "", errors.New("tesseract crashed")
		})
	})

	f.shell.Post(messages.NewSnip{})
	waitFor(t, "image loaded", f.shell.HasImage)
	f.shell.Post(messages.ExtractText{})
	waitFor(t, "error notice", func() bool { return f.notifier.hasNotice("OCR Error") })

	if !f.notifier.hasDisplay("tesseract crashed") {
		t.Errorf("Execution error was not reported inline")
	}
}

func TestEmptyResultDisablesCopy(t *testing.T) {
	var calls int
	var mu sync.Mutex
	f := newTestShell(t, func(opts *Options) {
		opts.Pool = worker.New(1, func(ctx context.Context, img image.Image, engine ocr.Engine) (string, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return "KEEP", nil
			}
			return "   \n\t", nil
		})
	})

	f.shell.Post(messages.NewSnip{})
	waitFor(t, "image loaded", f.shell.HasImage)
	f.shell.Post(messages.ExtractText{})
	waitFor(t, "first extraction", f.shell.CanCopy)

	f.shell.Post(messages.ExtractText{})
	waitFor(t, "empty-result display", func() bool { return f.notifier.hasDisplay("No text detected in image") })

	if f.shell.CanCopy() {
		t.Errorf("Whitespace-only result should disable copy")
	}
}

func TestSetEngine(t *testing.T) {
	f := newTestShell(t, nil)

	f.shell.Post(messages.SetEngine{Engine: ocr.EngineCloudAPI})
	waitFor(t, "engine switch", func() bool { return f.shell.Engine() == ocr.EngineCloudAPI })
}
