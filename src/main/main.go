package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"snip-ocr/src/app"
	"snip-ocr/src/input"
	"snip-ocr/src/logutil"
	"snip-ocr/src/overlay"
	"snip-ocr/src/runtimeinit"
	"snip-ocr/src/session"
	"snip-ocr/src/tray"
)

// normalizeFlagDashes maps GNU-style --run-once[(-std)] to Go's -run-once[(-std)]
func normalizeFlagDashes() {
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case arg == "--run-once":
			os.Args[i] = "-run-once"
		case strings.HasPrefix(arg, "--run-once="):
			os.Args[i] = "-run-once" + arg[len("--run-once"):]
		case arg == "--run-once-std":
			os.Args[i] = "-run-once-std"
		case strings.HasPrefix(arg, "--run-once-std="):
			os.Args[i] = "-run-once-std" + arg[len("--run-once-std"):]
		}
	}
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// Keep the main goroutine on one OS thread; the tray needs it on
	// platforms that require UI on the main thread.
	runtime.LockOSThread()

	runOnce := flag.Bool("run-once", false, "Select a region, OCR it, copy to clipboard, and exit")
	runOnceStd := flag.Bool("run-once-std", false, "Select a region, OCR it, print to stdout, and exit")
	// Support GNU-style double-dash flags
	normalizeFlagDashes()

	flag.Parse()

	if *runOnce || *runOnceStd {
		runOCROnce(*runOnceStd)
		return
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{ShowBlockingProbeError: true})
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer runtimeinit.Shutdown()
	cfg := rt.Config

	logMonitorConfiguration()

	log.Printf("Snip OCR initialized")
	log.Printf("Engine: %s", rt.Engine)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("OCR deadline: %ds", cfg.OCRDeadlineSec)

	tooltip := fmt.Sprintf("Snip OCR - Press %s to capture", cfg.Hotkey)

	shell := app.New(app.Options{
		Config:  cfg,
		Tooltip: tray.UpdateTooltip,
	})
	shell.StartHotkey(input.Default, cfg.Hotkey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("application loop stopped: %v", err)
		}
	}()

	// Blocks until Quit is selected or the loop stops.
	tray.Run(tray.Config{
		Title:   "Snip OCR",
		Tooltip: tooltip,
		Engine:  rt.Engine,
		Post:    shell.Post,
		OnExit:  cancel,
	})

	cancel()
	<-loopDone
}

// runOCROnce performs a single select-capture-recognize cycle and exits
func runOCROnce(outputToStdout bool) {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}
	defer runtimeinit.Shutdown()

	cfg := rt.Config
	log.Printf("Running OCR once with deadline %ds", cfg.OCRDeadlineSec)

	var target session.ResultTarget
	if outputToStdout {
		target = session.StdoutTarget{}
	} else {
		target = session.ClipboardTarget{}
	}

	selector := overlay.NewSelector(input.Default)
	res, err := session.Execute(context.Background(), session.Options{
		Deadline:     time.Duration(cfg.OCRDeadlineSec) * time.Second,
		Engine:       rt.Engine,
		SelectRegion: selector.Select,
		Target:       target,
	})
	if err != nil {
		if errors.Is(err, session.ErrSelectionCancelled) {
			log.Printf("Selection cancelled, exiting")
			return
		}
		fmt.Fprintf(os.Stderr, "OCR failed: %v\n", err)
		os.Exit(1)
	}

	log.Printf("OCR extracted text (%d chars): %q", len(res.Text), logutil.Truncate(res.Text, 100))
}
