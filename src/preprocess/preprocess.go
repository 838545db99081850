package preprocess

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
)

// contrastFactor is the linear stretch applied around the mean luminance
// before thresholding. Matches the enhancement the OCR accuracy was tuned for.
const contrastFactor = 2.0

// Preprocess converts a captured color image into a binarized image suitable
// for OCR. The pipeline is fixed: grayscale, contrast stretch around the mean,
// 3x3 sharpen, global-mean threshold. It is pure and deterministic; any image
// with positive area produces an output of identical dimensions whose pixels
// are all 0 or 255.
func Preprocess(img image.Image) *image.Gray {
	gray := Grayscale(img)
	stretched := StretchContrast(gray, contrastFactor)
	sharpened := Sharpen(stretched)
	return Binarize(sharpened)
}

// Grayscale maps each pixel to its BT.601 luminance (0.299 R + 0.587 G +
// 0.114 B), the same weighting the stdlib GrayModel applies.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}

	return gray
}

// StretchContrast scales each luminance value away from the image mean by
// factor, clamped to [0, 255]: out = mean + (in - mean) * factor.
// Stretching around the mean (rather than a fixed midpoint) keeps uniformly
// dark or bright captures from saturating.
func StretchContrast(gray *image.Gray, factor float64) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	mean := meanIntensity(gray)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(gray.GrayAt(x, y).Y)
			stretched := mean + (v-mean)*factor
			out.SetGray(x, y, color.Gray{Y: clampUint8(stretched)})
		}
	}

	return out
}

// Sharpen applies the fixed 3x3 cross kernel [[0,-1,0],[-1,5,-1],[0,-1,0]].
// Borders are edge-replicated, so the output has the same dimensions as the
// input.
func Sharpen(gray *image.Gray) *image.Gray {
	sharpened := effect.Sharpen(gray)

	bounds := sharpened.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Input is single-channel, so R carries the sharpened luminance.
			out.SetGray(x, y, color.Gray{Y: sharpened.RGBAAt(x, y).R})
		}
	}

	return out
}

// Binarize maps each pixel to 255 when strictly above the global mean
// intensity and 0 otherwise. This is deliberately a global-mean rule, not a
// windowed adaptive threshold; a uniform input binarizes to all zeros.
func Binarize(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	mean := meanIntensity(gray)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if float64(gray.GrayAt(x, y).Y) > mean {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}

	return out
}

func meanIntensity(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	count := bounds.Dx() * bounds.Dy()
	if count == 0 {
		return 0
	}

	var sum uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += uint64(gray.GrayAt(x, y).Y)
		}
	}
	return float64(sum) / float64(count)
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
