package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func fillRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// textImage builds a white 200x100 raster with a black block standing in for
// printed text.
func textImage() *image.RGBA {
	img := fillRGBA(200, 100, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	black := image.NewUniform(color.RGBA{A: 255})
	draw.Draw(img, image.Rect(40, 30, 160, 70), black, image.Point{}, draw.Src)
	return img
}

func TestPreprocessOutputIsBinary(t *testing.T) {
	out := Preprocess(textImage())

	b := out.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("Expected 200x100 output, got %dx%d", b.Dx(), b.Dy())
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := out.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("Pixel (%d,%d) = %d, expected 0 or 255", x, y, v)
			}
		}
	}
}

func TestPreprocessSeparatesTextFromBackground(t *testing.T) {
	out := Preprocess(textImage())

	// Background corner, far from any edge, must land on the high level.
	if got := out.GrayAt(2, 2).Y; got != 255 {
		t.Errorf("Background pixel = %d, expected 255", got)
	}
	// Center of the block, far from any edge, must land on the low level.
	if got := out.GrayAt(100, 50).Y; got != 0 {
		t.Errorf("Text pixel = %d, expected 0", got)
	}
}

func TestPreprocessUniformInput(t *testing.T) {
	colors := []color.RGBA{
		{R: 128, G: 128, B: 128, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
		{A: 255},
		{R: 40, G: 90, B: 200, A: 255},
	}
	for _, c := range colors {
		out := Preprocess(fillRGBA(64, 48, c))
		first := out.GrayAt(0, 0).Y
		if first != 0 && first != 255 {
			t.Fatalf("Uniform input produced level %d", first)
		}
		b := out.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if out.GrayAt(x, y).Y != first {
					t.Fatalf("Uniform input %v yielded non-uniform output at (%d,%d)", c, x, y)
				}
			}
		}
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	img := textImage()
	a := Preprocess(img)
	b := Preprocess(img)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("Preprocess is not deterministic: outputs differ for identical input")
	}
}

func TestGrayscaleLuminance(t *testing.T) {
	tests := []struct {
		c    color.RGBA
		want uint8
	}{
		{color.RGBA{R: 255, G: 255, B: 255, A: 255}, 255},
		{color.RGBA{A: 255}, 0},
		{color.RGBA{R: 255, A: 255}, 76},  // 0.299 * 255
		{color.RGBA{G: 255, A: 255}, 150}, // 0.587 * 255
		{color.RGBA{B: 255, A: 255}, 29},  // 0.114 * 255
	}
	for _, tt := range tests {
		gray := Grayscale(fillRGBA(4, 4, tt.c))
		if got := gray.GrayAt(1, 1).Y; got != tt.want {
			t.Errorf("Grayscale(%v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestStretchContrast(t *testing.T) {
	// Two-level image: mean 150, factor 2 maps 100 -> 50 and 200 -> 250.
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 100})
	gray.SetGray(1, 0, color.Gray{Y: 200})

	out := StretchContrast(gray, 2.0)
	if got := out.GrayAt(0, 0).Y; got != 50 {
		t.Errorf("StretchContrast low pixel = %d, want 50", got)
	}
	if got := out.GrayAt(1, 0).Y; got != 250 {
		t.Errorf("StretchContrast high pixel = %d, want 250", got)
	}
}

func TestStretchContrastClamps(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 10})
	gray.SetGray(1, 0, color.Gray{Y: 250})

	out := StretchContrast(gray, 2.0)
	if got := out.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Expected low pixel clamped to 0, got %d", got)
	}
	if got := out.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("Expected high pixel clamped to 255, got %d", got)
	}
}

func TestBinarizeGlobalMeanRule(t *testing.T) {
	// Values 50 and 250: mean 150. Strictly-greater rule sends 50 -> 0,
	// 250 -> 255.
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 50})
	gray.SetGray(1, 0, color.Gray{Y: 250})

	out := Binarize(gray)
	if got := out.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Binarize(50) = %d, want 0", got)
	}
	if got := out.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("Binarize(250) = %d, want 255", got)
	}

	// Equal to the mean is NOT above it: a flat field binarizes to all zeros.
	flat := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range flat.Pix {
		flat.Pix[i] = 200
	}
	out = Binarize(flat)
	for i, v := range out.Pix {
		if v != 0 {
			t.Fatalf("Flat field pixel %d = %d, want 0", i, v)
		}
	}
}

func TestSharpenPreservesDimensions(t *testing.T) {
	gray := Grayscale(textImage())
	out := Sharpen(gray)
	if out.Bounds() != gray.Bounds() {
		t.Errorf("Sharpen changed bounds: %v -> %v", gray.Bounds(), out.Bounds())
	}
}
