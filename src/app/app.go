package app

import (
	"context"
	"errors"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	"snip-ocr/src/clipboard"
	"snip-ocr/src/config"
	"snip-ocr/src/hotkey"
	"snip-ocr/src/imgio"
	"snip-ocr/src/input"
	"snip-ocr/src/messages"
	"snip-ocr/src/notification"
	"snip-ocr/src/ocr"
	"snip-ocr/src/overlay"
	"snip-ocr/src/screenshot"
	"snip-ocr/src/worker"
)

// Notifier receives user-facing output from the shell. Notice is for
// attention-demanding problems, Display for result text and status lines.
type Notifier interface {
	Notice(title, message string)
	Display(text string)
}

type defaultNotifier struct{}

func (defaultNotifier) Notice(title, message string) {
	notification.ShowBlockingError(title, message)
}

func (defaultNotifier) Display(text string) {
	notification.ShowResult(text)
}

// Shell is the single-threaded coordinator for snip, paste, extract and
// copy actions. All state lives on the loop goroutine; accessors take the
// mutex so tests and the tray can observe it safely.
type Shell struct {
	selector  overlay.Selector
	pool      *worker.Pool
	notifier  Notifier
	snapshot  func(region screenshot.Region) (image.Image, error)
	readImage func() (image.Image, error)
	readText  func() (string, error)
	writeText func(text string) error
	loadFile  func(path string) (image.Image, error)
	tooltip   func(text string)

	actions  chan messages.Action
	results  chan result
	deadline time.Duration

	defaultTooltip string

	mu      sync.Mutex
	busy    bool
	engine  ocr.Engine
	current image.Image
	text    string
	hasText bool
}

type result struct {
	text   string
	err    error
	cancel context.CancelFunc
}

// Options configures a Shell. Zero-value fields fall back to the real
// clipboard, screen and worker pool.
type Options struct {
	Config    *config.Config
	Selector  overlay.Selector
	Pool      *worker.Pool
	Notifier  Notifier
	Snapshot  func(region screenshot.Region) (image.Image, error)
	ReadImage func() (image.Image, error)
	ReadText  func() (string, error)
	WriteText func(text string) error
	LoadFile  func(path string) (image.Image, error)
	Tooltip   func(text string)
}

// New creates a shell with defaults based on config.
func New(opts Options) *Shell {
	deadlineSec := config.DefaultDeadlineSec
	engineName := ""
	if opts.Config != nil {
		if opts.Config.OCRDeadlineSec > 0 {
			deadlineSec = opts.Config.OCRDeadlineSec
		}
		engineName = opts.Config.Engine
	}

	engine, err := ocr.ParseEngine(engineName)
	if err != nil {
		log.Printf("Unknown engine %q, falling back to Tesseract", engineName)
		engine = ocr.EngineTesseract
	}

	s := &Shell{
		selector:       opts.Selector,
		pool:           opts.Pool,
		notifier:       opts.Notifier,
		snapshot:       opts.Snapshot,
		readImage:      opts.ReadImage,
		readText:       opts.ReadText,
		writeText:      opts.WriteText,
		loadFile:       opts.LoadFile,
		tooltip:        opts.Tooltip,
		actions:        make(chan messages.Action, 16),
		results:        make(chan result, 1),
		deadline:       time.Duration(deadlineSec) * time.Second,
		defaultTooltip: "Snip OCR",
		engine:         engine,
	}

	if s.selector == nil {
		s.selector = overlay.NewSelector(input.Default)
	}
	if s.pool == nil {
		s.pool = worker.New(0, nil)
	}
	if s.notifier == nil {
		s.notifier = defaultNotifier{}
	}
	if s.snapshot == nil {
		s.snapshot = captureRegion
	}
	if s.readImage == nil {
		s.readImage = clipboard.ReadImage
	}
	if s.readText == nil {
		s.readText = clipboard.ReadText
	}
	if s.writeText == nil {
		s.writeText = clipboard.Write
	}
	if s.loadFile == nil {
		s.loadFile = imgio.LoadFile
	}
	if s.tooltip == nil {
		s.tooltip = func(string) {}
	}

	return s
}

func captureRegion(region screenshot.Region) (image.Image, error) {
	full, err := screenshot.Capture()
	if err != nil {
		return nil, err
	}
	return screenshot.Crop(full, region)
}

// Post enqueues an action without blocking. It reports false when the
// queue is full, which means the loop is wedged and the action is dropped.
func (s *Shell) Post(a messages.Action) bool {
	select {
	case s.actions <- a:
		return true
	default:
		log.Printf("Action queue full, dropping %s", a.Type())
		return false
	}
}

// StartHotkey registers a global hotkey that posts a NewSnip action.
func (s *Shell) StartHotkey(hub *input.Hub, combo string) {
	if combo == "" {
		return
	}
	hotkey.Listen(hub, combo, func() {
		s.Post(messages.NewSnip{})
	})
}

// Run processes actions and OCR results until ctx is cancelled or a Quit
// action arrives.
func (s *Shell) Run(ctx context.Context) error {
	defer s.pool.Close()
	s.tooltip(s.defaultTooltip)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a := <-s.actions:
			if a.Type() == messages.TypeQuit {
				return nil
			}
			s.handle(ctx, a)
		case res := <-s.results:
			s.handleResult(res)
		}
	}
}

func (s *Shell) handle(ctx context.Context, a messages.Action) {
	switch m := a.(type) {
	case messages.NewSnip:
		s.handleNewSnip(ctx)
	case messages.PasteImage:
		s.handlePaste()
	case messages.LoadFile:
		s.handleLoadFile(m.Path)
	case messages.SetEngine:
		s.handleSetEngine(m.Engine)
	case messages.ExtractText:
		s.handleExtract(ctx)
	case messages.CopyResult:
		s.handleCopy()
	default:
		log.Printf("Unhandled action %s", a.Type())
	}
}

func (s *Shell) handleNewSnip(ctx context.Context) {
	if s.Busy() {
		s.notifier.Notice("Busy", "OCR in progress, please retry")
		return
	}

	region, cancelled, err := s.selector.Select(ctx)
	if err != nil {
		log.Printf("handleNewSnip: selection error: %v", err)
		s.notifier.Notice("Selection error", err.Error())
		return
	}
	if cancelled {
		log.Printf("handleNewSnip: selection cancelled")
		return
	}

	img, err := s.snapshot(region)
	if err != nil {
		log.Printf("handleNewSnip: capture error: %v", err)
		s.notifier.Notice("Capture failed", err.Error())
		return
	}

	s.setImage(img)
}

func (s *Shell) handlePaste() {
	img, err := s.readImage()
	if err == nil {
		s.setImage(img)
		return
	}
	if !errors.Is(err, clipboard.ErrNoImage) {
		log.Printf("handlePaste: clipboard error: %v", err)
		s.notifier.Notice("Clipboard error", err.Error())
		return
	}

	// The clipboard may hold a path to an image file instead of pixels.
	path, terr := s.readText()
	if terr != nil || path == "" {
		s.notifier.Notice("No Image", "No image found in clipboard")
		return
	}
	img, ferr := s.loadFile(path)
	if ferr != nil {
		log.Printf("handlePaste: clipboard text is not a loadable image path: %v", ferr)
		s.notifier.Notice("No Image", "No image found in clipboard")
		return
	}
	s.setImage(img)
}

func (s *Shell) handleLoadFile(path string) {
	img, err := s.loadFile(path)
	if err != nil {
		log.Printf("handleLoadFile: %v", err)
		s.notifier.Notice("Load failed", err.Error())
		return
	}
	s.setImage(img)
}

func (s *Shell) handleSetEngine(engine ocr.Engine) {
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	log.Printf("OCR engine set to %s", engine)
}

func (s *Shell) handleExtract(ctx context.Context) {
	if !s.HasImage() {
		s.notifier.Notice("No Image", "Snip, paste or load an image first")
		return
	}
	if s.Busy() {
		s.notifier.Notice("Busy", "OCR in progress, please retry")
		return
	}

	s.mu.Lock()
	img := s.current
	engine := s.engine
	s.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.deadline)

	s.setBusy(true)
	submitted := s.pool.Submit(jobCtx, img, engine, func(text string, err error) {
		s.results <- result{text: text, err: err, cancel: cancel}
	})
	if !submitted {
		cancel()
		s.setBusy(false)
		s.notifier.Notice("Busy", "OCR in progress, please retry")
	}
}

func (s *Shell) handleResult(res result) {
	defer func() {
		s.setBusy(false)
		if res.cancel != nil {
			res.cancel()
		}
	}()

	if res.err != nil {
		log.Printf("handleResult: OCR error: %v", res.err)
		var unavail *ocr.EngineUnavailableError
		if errors.As(res.err, &unavail) {
			// Unavailable engines report inline only, no blocking popup.
			s.notifier.Display(res.err.Error())
			return
		}
		s.notifier.Display(res.err.Error())
		if errors.Is(res.err, context.DeadlineExceeded) {
			s.notifier.Notice("OCR timed out", "Text extraction did not finish in time")
		} else {
			s.notifier.Notice("OCR Error", res.err.Error())
		}
		return
	}

	if strings.TrimSpace(res.text) == "" {
		log.Printf("handleResult: empty result")
		s.mu.Lock()
		s.hasText = false
		s.mu.Unlock()
		s.notifier.Display("No text detected in image")
		return
	}

	s.mu.Lock()
	s.text = res.text
	s.hasText = true
	s.mu.Unlock()
	s.notifier.Display(res.text)
}

func (s *Shell) handleCopy() {
	s.mu.Lock()
	text := s.text
	hasText := s.hasText
	s.mu.Unlock()

	if !hasText {
		s.notifier.Notice("Nothing to copy", "Extract text from an image first")
		return
	}
	if err := s.writeText(text); err != nil {
		log.Printf("handleCopy: clipboard error: %v", err)
		s.notifier.Notice("Clipboard error", err.Error())
		return
	}
	s.notifier.Display("Text copied to clipboard")
}

func (s *Shell) setImage(img image.Image) {
	s.mu.Lock()
	s.current = img
	s.mu.Unlock()
	b := img.Bounds()
	log.Printf("Image loaded: %dx%d", b.Dx(), b.Dy())
}

func (s *Shell) setBusy(b bool) {
	s.mu.Lock()
	s.busy = b
	s.mu.Unlock()
	if b {
		s.tooltip("Snip OCR: processing...")
	} else {
		s.tooltip(s.defaultTooltip)
	}
}

// Busy reports whether an extraction is in flight.
func (s *Shell) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// HasImage reports whether an extraction source is loaded.
func (s *Shell) HasImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// CanCopy reports whether extracted text is available for copying.
func (s *Shell) CanCopy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasText
}

// CurrentText returns the last successfully extracted text.
func (s *Shell) CurrentText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Engine returns the currently selected OCR engine.
func (s *Shell) Engine() ocr.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Deadline returns the configured OCR deadline for this shell.
func (s *Shell) Deadline() time.Duration { return s.deadline }
