package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"snip-ocr/src/imgio"
)

// Engine selects the text-recognition backend.
type Engine int

const (
	EngineTesseract Engine = iota
	EngineEasyOCR
	EngineCloudAPI
)

func (e Engine) String() string {
	switch e {
	case EngineTesseract:
		return "tesseract"
	case EngineEasyOCR:
		return "easyocr"
	case EngineCloudAPI:
		return "cloudapi"
	default:
		return "unknown"
	}
}

// ParseEngine maps a config/CLI value to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tesseract":
		return EngineTesseract, nil
	case "easyocr":
		return EngineEasyOCR, nil
	case "cloud", "cloudapi", "cloud-api":
		return EngineCloudAPI, nil
	default:
		return EngineTesseract, fmt.Errorf("unknown OCR engine %q (expected tesseract, easyocr or cloudapi)", s)
	}
}

// EngineUnavailableError reports a backend that cannot run in this
// environment. The shell shows it inline rather than as a blocking notice.
type EngineUnavailableError struct {
	Engine Engine
	Reason string
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("%s engine unavailable: %s", e.Engine, e.Reason)
}

// cloudNotImplemented is the fixed CloudAPI response. No network call is ever
// made for this engine.
const cloudNotImplemented = "Cloud API OCR is not implemented"

// Config controls the Tesseract and EasyOCR backends.
type Config struct {
	Language    string // Tesseract language code, default "eng"
	PageSegMode int    // Tesseract page segmentation mode; 0 is OSD only, negative selects the default (6, single block)
	EasyOCRPath string // explicit easyocr command path; PATH lookup when empty
}

var config Config

// Init stores backend configuration. An empty language or a negative page
// segmentation mode falls back to the default.
func Init(cfg Config) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PageSegMode < 0 {
		cfg.PageSegMode = int(gosseract.PSM_SINGLE_BLOCK)
	}
	config = cfg
}

// Extract runs the selected engine over a preprocessed image and returns the
// recognized text. Failures are always reported as error values.
func Extract(ctx context.Context, img image.Image, engine Engine) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch engine {
	case EngineTesseract:
		return extractTesseract(ctx, img)
	case EngineEasyOCR:
		return extractEasyOCR(ctx, img)
	case EngineCloudAPI:
		return "", &EngineUnavailableError{Engine: EngineCloudAPI, Reason: cloudNotImplemented}
	default:
		return "", fmt.Errorf("unknown OCR engine %d", engine)
	}
}

// Probe reports whether the given engine can run in this environment.
func Probe(engine Engine) error {
	switch engine {
	case EngineTesseract:
		client := gosseract.NewClient()
		defer client.Close()
		if v := client.Version(); v == "" {
			return &EngineUnavailableError{Engine: EngineTesseract, Reason: "tesseract library not detected"}
		}
		return nil
	case EngineEasyOCR:
		_, err := easyOCRCommand()
		return err
	case EngineCloudAPI:
		return &EngineUnavailableError{Engine: EngineCloudAPI, Reason: cloudNotImplemented}
	default:
		return fmt.Errorf("unknown OCR engine %d", engine)
	}
}

func extractTesseract(ctx context.Context, img image.Image) (string, error) {
	data, err := imgio.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(config.Language); err != nil {
		return "", &EngineUnavailableError{Engine: EngineTesseract, Reason: fmt.Sprintf("language %q not installed: %v", config.Language, err)}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(config.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image into tesseract: %w", err)
	}

	// gosseract has no context support; honor an already-expired deadline at
	// least.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	log.Printf("ocr: tesseract extracted %d chars", len(text))
	return text, nil
}

func easyOCRCommand() (string, error) {
	if config.EasyOCRPath != "" {
		if _, err := os.Stat(config.EasyOCRPath); err != nil {
			return "", &EngineUnavailableError{Engine: EngineEasyOCR, Reason: fmt.Sprintf("configured command %s not found", config.EasyOCRPath)}
		}
		return config.EasyOCRPath, nil
	}
	path, err := exec.LookPath("easyocr")
	if err != nil {
		return "", &EngineUnavailableError{Engine: EngineEasyOCR, Reason: "easyocr command not found; install with: pip install easyocr"}
	}
	return path, nil
}

func extractEasyOCR(ctx context.Context, img image.Image) (string, error) {
	cmdPath, err := easyOCRCommand()
	if err != nil {
		return "", err
	}

	data, err := imgio.EncodePNG(img)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "snip-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, cmdPath, "-l", "en", "-f", tmpPath, "--detail", "0", "--paragraph", "True")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("easyocr execution failed: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}
