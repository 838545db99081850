package imgio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// LoadFile decodes an image from disk. PNG, JPEG, GIF, BMP and TIFF are
// supported.
func LoadFile(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image file %s: %w", path, err)
	}
	return img, nil
}

// EncodePNG renders an image to PNG bytes, the interchange format the OCR
// backends consume.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG parses PNG bytes back into an image. Used for clipboard image
// payloads.
func DecodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG data: %w", err)
	}
	return img, nil
}
