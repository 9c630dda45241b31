package filters

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// blendByte returns a + alpha*(b-a) truncated and clipped to 8 bits.
func blendByte(a, b uint8, alpha float64) uint8 {
	v := float64(a) + alpha*(float64(b)-float64(a))
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// blendWith blends degenerate toward img by factor. Factors above 1
// extrapolate away from degenerate.
func blendWith(degenerate, img *image.NRGBA, factor float64) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = blendByte(degenerate.Pix[i], img.Pix[i], factor)
		out.Pix[i+1] = blendByte(degenerate.Pix[i+1], img.Pix[i+1], factor)
		out.Pix[i+2] = blendByte(degenerate.Pix[i+2], img.Pix[i+2], factor)
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// Saturation scales color saturation: 0 gives grayscale, 1 the input.
func Saturation(img *image.NRGBA, factor float64) *image.NRGBA {
	return blendWith(imaging.Grayscale(img), img, factor)
}

// Contrast scales contrast around the mean luminance.
func Contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	hist := imaging.Histogram(img)
	var mean float64
	for level, share := range hist {
		mean += float64(level) * share
	}
	m := uint8(mean + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blendByte(m, c.R, factor),
			G: blendByte(m, c.G, factor),
			B: blendByte(m, c.B, factor),
			A: c.A,
		}
	})
}

// Brightness scales every channel toward black.
func Brightness(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blendByte(0, c.R, factor),
			G: blendByte(0, c.G, factor),
			B: blendByte(0, c.B, factor),
			A: c.A,
		}
	})
}

// Tint alpha-composites a uniform translucent color over img.
func Tint(img *image.NRGBA, tint color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	layer := imaging.New(b.Dx(), b.Dy(), tint)
	return imaging.Overlay(img, layer, image.Pt(0, 0), 1.0)
}

// Blend mixes filtered into original: 0 keeps original, 1 gives filtered.
func Blend(original, filtered *image.NRGBA, strength float64) *image.NRGBA {
	return imaging.Overlay(original, filtered, image.Pt(0, 0), strength)
}
