package clipboard

import (
	"errors"
	"image"
	"strings"
	"sync"

	"golang.design/x/clipboard"

	"snip-ocr/src/imgio"
)

// ErrNoImage is returned by ReadImage when the clipboard holds no decodable
// image.
var ErrNoImage = errors.New("clipboard does not contain an image")

// ErrNoText is returned by ReadText when the clipboard holds no text.
var ErrNoText = errors.New("clipboard does not contain text")

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// ReadImage returns the clipboard image, if any. The platform layer delivers
// image payloads as PNG bytes.
func ReadImage() (image.Image, error) {
	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	img, err := imgio.DecodePNG(data)
	if err != nil {
		return nil, ErrNoImage
	}
	return img, nil
}

// ReadText returns the clipboard text, trimmed, if any. Used as a fallback to
// treat a copied file path as an image source.
func ReadText() (string, error) {
	data := clipboard.Read(clipboard.FmtText)
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
