package degrade

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"

	"github.com/menta2k/snapfx/pkg/errors"
)

// Codec re-encodes an image through a lossy format and decodes it back.
type Codec interface {
	RoundTrip(img image.Image, quality int, subsampling Subsampling) (image.Image, error)
}

// JPEGCodec is the default Codec.
//
// The standard JPEG encoder always subsamples chroma 4:2:0. For 4:4:4 the
// image is split into Y, Cb and Cr planes which are compressed as separate
// grayscale JPEGs, keeping chroma at full resolution.
type JPEGCodec struct{}

// RoundTrip implements Codec.
func (JPEGCodec) RoundTrip(img image.Image, quality int, subsampling Subsampling) (image.Image, error) {
	if subsampling == Subsampling444 {
		return roundTripPlanes(img, quality)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCodecFailure, err, "jpeg encode")
	}
	out, err := imaging.Decode(&buf)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCodecFailure, err, "jpeg decode")
	}
	return out, nil
}

func roundTripPlanes(img image.Image, quality int) (image.Image, error) {
	src := imaging.Clone(img)
	b := src.Bounds()
	planes := [3]*image.Gray{
		image.NewGray(b), image.NewGray(b), image.NewGray(b),
	}
	for i, p := 0, 0; i < len(src.Pix); i, p = i+4, p+1 {
		y, cb, cr := color.RGBToYCbCr(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
		planes[0].Pix[p], planes[1].Pix[p], planes[2].Pix[p] = y, cb, cr
	}

	for k, plane := range planes {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, plane, &jpeg.Options{Quality: quality}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCodecFailure, err, "jpeg encode plane %d", k)
		}
		decoded, err := jpeg.Decode(&buf)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCodecFailure, err, "jpeg decode plane %d", k)
		}
		gray, ok := decoded.(*image.Gray)
		if !ok {
			return nil, errors.New(errors.ErrCodeCodecFailure, "plane %d decoded as %T", k, decoded)
		}
		planes[k] = gray
	}

	out := image.NewNRGBA(b)
	for i, p := 0, 0; i < len(out.Pix); i, p = i+4, p+1 {
		r, g, bl := color.YCbCrToRGB(planes[0].Pix[p], planes[1].Pix[p], planes[2].Pix[p])
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, bl, 255
	}
	return out, nil
}
