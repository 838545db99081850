package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvFileVar points at an alternate config file when no .env sits next
	// to the executable.
	EnvFileVar = "SNIP_OCR_ENV"

	DefaultHotkey      = "Ctrl+Shift+S"
	DefaultEngine      = "tesseract"
	DefaultLanguage    = "eng"
	DefaultPageSegMode = 6
	DefaultDeadlineSec = 20
)

type Config struct {
	Engine            string
	Hotkey            string
	Language          string
	PageSegMode       int
	EasyOCRPath       string
	OCRDeadlineSec    int
	EnableFileLogging bool
}

func Load() (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SNIP_OCR_ENV env var as a path to a config file
	envPath := resolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		Engine:            strings.ToLower(getEnvWithDefault("ENGINE", DefaultEngine)),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		Language:          getEnvWithDefault("TESSERACT_LANG", DefaultLanguage),
		PageSegMode:       getEnvIntMin("TESSERACT_PSM", DefaultPageSegMode, 0),
		EasyOCRPath:       os.Getenv("EASYOCR_PATH"),
		OCRDeadlineSec:    getEnvInt("OCR_DEADLINE_SEC", DefaultDeadlineSec),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	return getEnvIntMin(key, defaultValue, 1)
}

// getEnvIntMin parses key as an integer no smaller than min. PSM 0 is a
// valid Tesseract mode (OSD only), so its floor is 0 rather than 1.
func getEnvIntMin(key string, defaultValue, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return defaultValue
}
