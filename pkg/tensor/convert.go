package tensor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/types"
)

// byteEpsilon absorbs float32 round-off so that fromByte/toByte round-trips exactly.
const byteEpsilon = 1e-4

// toByte scales a normalized sample to 8 bits, truncating like a float->uint8 cast.
func toByte(v float32) uint8 {
	if v <= 0 || math.IsNaN(float64(v)) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + byteEpsilon)
}

func fromByte(v uint8) float32 {
	return float32(v) / 255
}

// luma is the ITU-R 601-2 transform used for 8-bit grayscale conversion.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*299 + uint32(g)*587 + uint32(b)*114) / 1000)
}

// Frame converts image i into an opaque 8-bit RGB image.
func (b *Images) Frame(i int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.W, b.H))
	src := b.FrameData(i)
	for p, q := 0, 0; p < len(src); p, q = p+b.C, q+4 {
		switch b.C {
		case 1:
			v := toByte(src[p])
			img.Pix[q], img.Pix[q+1], img.Pix[q+2] = v, v, v
		default:
			img.Pix[q] = toByte(src[p])
			img.Pix[q+1] = toByte(src[p+1])
			img.Pix[q+2] = toByte(src[p+2])
		}
		img.Pix[q+3] = 255
	}
	return img
}

// SetFrame stores img as image i in normalized form. The image must have the
// batch's width and height. Single-channel batches receive the luma of each
// pixel; four-channel batches keep their existing alpha samples.
func (b *Images) SetFrame(i int, img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() != b.W || bounds.Dy() != b.H {
		return errors.New(errors.ErrCodeMalformedInput,
			"frame is %dx%d, batch expects %dx%d", bounds.Dx(), bounds.Dy(), b.W, b.H)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	dst := b.FrameData(i)
	for p, q := 0, 0; p < len(dst); p, q = p+b.C, q+4 {
		r, g, bl := nrgba.Pix[q], nrgba.Pix[q+1], nrgba.Pix[q+2]
		switch b.C {
		case 1:
			dst[p] = fromByte(luma(r, g, bl))
		default:
			dst[p] = fromByte(r)
			dst[p+1] = fromByte(g)
			dst[p+2] = fromByte(bl)
		}
	}
	return nil
}

// FromImages builds a 3-channel batch from equally sized images.
func FromImages(imgs []image.Image) (*Images, error) {
	if len(imgs) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedInput, "no images to batch")
	}
	first := imgs[0].Bounds()
	b := NewImages(len(imgs), first.Dy(), first.Dx(), 3)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	for i, img := range imgs {
		if err := b.SetFrame(i, img); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "image %d", i)
		}
	}
	return b, nil
}

// Images converts every frame of the batch.
func (b *Images) Images() []image.Image {
	out := make([]image.Image, b.N)
	for i := range out {
		out[i] = b.Frame(i)
	}
	return out
}

// MaskFromImage builds a one-frame mask from the gray levels of img.
func MaskFromImage(img image.Image) *Masks {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	m := NewMasks(1, bounds.Dy(), bounds.Dx())
	for p, q := 0, 0; p < len(m.Data); p, q = p+1, q+4 {
		m.Data[p] = fromByte(gray.Pix[q])
	}
	return m
}

// MaskFromBox rasterizes a normalized box into a one-frame h x w mask.
func MaskFromBox(h, w int, box types.Box) *Masks {
	m := NewMasks(1, h, w)
	if box.Empty() {
		return m
	}
	x0 := int(clamp(box.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(box.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(box.X+box.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(box.Y+box.H, 0, 1)*float64(h) + 0.5)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(0, y, x, 1)
		}
	}
	return m
}

// Frame converts mask i into an 8-bit gray image.
func (m *Masks) Frame(i int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.W, m.H))
	src := m.Data[i*m.H*m.W : (i+1)*m.H*m.W]
	for p, v := range src {
		img.Pix[p] = toByte(v)
	}
	return img
}

// Fill sets every sample of the batch to the given color.
func (b *Images) Fill(c color.NRGBA) {
	for i := 0; i < b.N; i++ {
		d := b.FrameData(i)
		for p := 0; p < len(d); p += b.C {
			switch b.C {
			case 1:
				d[p] = fromByte(luma(c.R, c.G, c.B))
			default:
				d[p], d[p+1], d[p+2] = fromByte(c.R), fromByte(c.G), fromByte(c.B)
				if b.C == 4 {
					d[p+3] = fromByte(c.A)
				}
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
