package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"snip-ocr/src/config"
	"snip-ocr/src/imgio"
	"snip-ocr/src/ocr"
	"snip-ocr/src/preprocess"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

type cliOptions struct {
	filePath   string
	engineName string
	language   string
	raw        bool
	jsonOutput bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"snip-ocr"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "snip-ocr",
		Short:         "Run OCR on image input",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to image file (use '-' for PNG on stdin)")
	cmd.Flags().StringVar(&opts.engineName, "engine", "", "OCR engine: tesseract, easyocr or cloud")
	cmd.Flags().StringVar(&opts.language, "lang", "", "OCR language (default from config)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Skip preprocessing and OCR the image as-is")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting OCR\n")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	language := opts.language
	if language == "" {
		language = cfg.Language
	}
	ocr.Init(ocr.Config{
		Language:    language,
		PageSegMode: cfg.PageSegMode,
		EasyOCRPath: cfg.EasyOCRPath,
	})

	engineName := opts.engineName
	if engineName == "" {
		engineName = cfg.Engine
	}
	engine, err := ocr.ParseEngine(engineName)
	if err != nil {
		return err
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Engine=%s Language=%s\n", engine, language)
	}

	deadline := time.Duration(cfg.OCRDeadlineSec) * time.Second

	return processOCR(opts.filePath, engine, deadline, opts.raw, opts.jsonOutput, opts.verbose)
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	longFlags := []string{"file", "engine", "lang", "raw", "json", "verbose"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range longFlags {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + name + "=" + arg[len(name)+2:]
			}
		}
	}

	return normalized
}

func validatePNG(data []byte) error {
	if len(data) < 8 || !bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

func loadImage(filePath string, verbose bool) (image.Image, error) {
	if filePath == "-" {
		if verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Reading image from stdin\n")
		}
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("input is empty")
		}
		if len(data) > maxFileSize {
			return nil, fmt.Errorf("input exceeds maximum size of %d MB", maxFileSizeMB)
		}
		if err := validatePNG(data); err != nil {
			return nil, err
		}
		return imgio.DecodePNG(data)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Reading image from file: %s\n", filePath)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return imgio.LoadFile(filePath)
}

func processOCR(filePath string, engine ocr.Engine, deadline time.Duration, raw, jsonOutput, verbose bool) error {
	img, err := loadImage(filePath, verbose)
	if err != nil {
		return err
	}

	if !raw {
		if verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Preprocessing image\n")
		}
		img = preprocess.Preprocess(img)
	}

	ctx := context.Background()
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	startTime := time.Now()
	text, err := ocr.Extract(ctx, img, engine)
	elapsed := time.Since(startTime)

	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "[verbose] OCR failed after %v: %v\n", elapsed, err)
		}
		return fmt.Errorf("OCR failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR completed in %v, extracted %d characters\n", elapsed, len(text))
	}

	return outputResult(text, filePath, engine, elapsed, jsonOutput)
}

type OCRResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Engine    string  `json:"engine"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(text string, sourcePath string, engine ocr.Engine, elapsed time.Duration, jsonOutput bool) error {
	if jsonOutput {
		result := OCRResult{
			Text:      text,
			Source:    sourcePath,
			Engine:    engine.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  elapsed.Seconds(),
			CharCount: len(text),
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
	} else {
		fmt.Print(text)
	}

	return nil
}
