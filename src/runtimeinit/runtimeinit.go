package runtimeinit

import (
	"fmt"
	"log"

	"snip-ocr/src/clipboard"
	"snip-ocr/src/config"
	"snip-ocr/src/input"
	"snip-ocr/src/logutil"
	"snip-ocr/src/notification"
	"snip-ocr/src/ocr"
	"snip-ocr/src/screenshot"
)

type Options struct {
	SetupLogging func(bool)
	// ShowBlockingProbeError raises a modal dialog when the configured
	// engine fails its startup probe. Run-once callers leave it false and
	// report on stderr instead.
	ShowBlockingProbeError bool
}

type Runtime struct {
	Config *config.Config
	Engine ocr.Engine
}

// Bootstrap loads configuration and initializes logging, capture, OCR,
// clipboard and the global input hook. A failed engine probe is a
// warning, not an error; the user can switch engines later.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setup := opts.SetupLogging
	if setup == nil {
		setup = logutil.Setup
	}
	setup(cfg.EnableFileLogging)

	screenshot.Init()
	ocr.Init(ocr.Config{
		Language:    cfg.Language,
		PageSegMode: cfg.PageSegMode,
		EasyOCRPath: cfg.EasyOCRPath,
	})

	engine, err := ocr.ParseEngine(cfg.Engine)
	if err != nil {
		log.Printf("Unknown engine %q, falling back to Tesseract", cfg.Engine)
		engine = ocr.EngineTesseract
	}

	if err := ocr.Probe(engine); err != nil {
		log.Printf("Engine probe failed: %v", err)
		if opts.ShowBlockingProbeError {
			notification.ShowBlockingError("OCR engine unavailable",
				fmt.Sprintf("Startup check for %s failed: %v\n\nText extraction will fail until the engine is installed or another engine is selected.", engine, err))
		}
	}

	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	if err := input.Default.Start(); err != nil {
		return nil, fmt.Errorf("failed to start input hook: %w", err)
	}

	return &Runtime{Config: cfg, Engine: engine}, nil
}

// Shutdown releases resources acquired by Bootstrap.
func Shutdown() {
	input.Default.Stop()
}
