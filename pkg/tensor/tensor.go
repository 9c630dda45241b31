// Package tensor holds the batched sample arrays that cross the node boundary.
//
// Images are stored as (batch, height, width, channels) and masks as
// (batch, height, width), both row-major float32 in [0,1].
package tensor

import (
	"github.com/menta2k/snapfx/pkg/errors"
)

// Images is a batch of equally sized images.
type Images struct {
	N, H, W, C int
	Data       []float32
}

// Masks is a batch of equally sized single-channel masks.
type Masks struct {
	N, H, W int
	Data    []float32
}

// NewImages allocates a zeroed image batch.
func NewImages(n, h, w, c int) *Images {
	return &Images{N: n, H: h, W: w, C: c, Data: make([]float32, n*h*w*c)}
}

// NewMasks allocates a zeroed mask batch.
func NewMasks(n, h, w int) *Masks {
	return &Masks{N: n, H: h, W: w, Data: make([]float32, n*h*w)}
}

// ImagesFromShape wraps host data laid out as (batch, height, width, channels).
func ImagesFromShape(shape []int, data []float32) (*Images, error) {
	if len(shape) != 4 {
		return nil, errors.New(errors.ErrCodeMalformedInput,
			"image batch must be (batch, height, width, channels), got rank %d", len(shape))
	}
	b := &Images{N: shape[0], H: shape[1], W: shape[2], C: shape[3], Data: data}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// MasksFromShape wraps host data laid out as (batch, height, width).
func MasksFromShape(shape []int, data []float32) (*Masks, error) {
	if len(shape) != 3 {
		return nil, errors.New(errors.ErrCodeMalformedInput,
			"mask batch must be (batch, height, width), got rank %d", len(shape))
	}
	m := &Masks{N: shape[0], H: shape[1], W: shape[2], Data: data}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks dimensions, channel count and data length.
func (b *Images) Validate() error {
	if b == nil {
		return errors.New(errors.ErrCodeMalformedInput, "image batch is nil")
	}
	if b.N < 0 || b.H <= 0 || b.W <= 0 {
		return errors.New(errors.ErrCodeMalformedInput,
			"invalid image batch shape (%d, %d, %d, %d)", b.N, b.H, b.W, b.C)
	}
	if b.C != 1 && b.C != 3 && b.C != 4 {
		return errors.New(errors.ErrCodeMalformedInput, "unsupported channel count %d", b.C)
	}
	if len(b.Data) != b.N*b.H*b.W*b.C {
		return errors.New(errors.ErrCodeMalformedInput,
			"image data has %d samples, shape needs %d", len(b.Data), b.N*b.H*b.W*b.C)
	}
	return nil
}

// Validate checks dimensions and data length.
func (m *Masks) Validate() error {
	if m == nil {
		return errors.New(errors.ErrCodeMalformedInput, "mask batch is nil")
	}
	if m.N < 0 || m.H <= 0 || m.W <= 0 {
		return errors.New(errors.ErrCodeMalformedInput,
			"invalid mask batch shape (%d, %d, %d)", m.N, m.H, m.W)
	}
	if len(m.Data) != m.N*m.H*m.W {
		return errors.New(errors.ErrCodeMalformedInput,
			"mask data has %d samples, shape needs %d", len(m.Data), m.N*m.H*m.W)
	}
	return nil
}

// Shape returns the batch shape as the host sees it.
func (b *Images) Shape() []int {
	return []int{b.N, b.H, b.W, b.C}
}

// Shape returns the batch shape as the host sees it.
func (m *Masks) Shape() []int {
	return []int{m.N, m.H, m.W}
}

// FrameLen is the number of samples in one image.
func (b *Images) FrameLen() int {
	return b.H * b.W * b.C
}

// FrameData returns the samples of image i without copying.
func (b *Images) FrameData(i int) []float32 {
	n := b.FrameLen()
	return b.Data[i*n : (i+1)*n]
}

// At returns the sample at (i, y, x, c).
func (b *Images) At(i, y, x, c int) float32 {
	return b.Data[((i*b.H+y)*b.W+x)*b.C+c]
}

// Set stores the sample at (i, y, x, c).
func (b *Images) Set(i, y, x, c int, v float32) {
	b.Data[((i*b.H+y)*b.W+x)*b.C+c] = v
}

// At returns the mask weight at (i, y, x).
func (m *Masks) At(i, y, x int) float32 {
	return m.Data[(i*m.H+y)*m.W+x]
}

// Set stores the mask weight at (i, y, x).
func (m *Masks) Set(i, y, x int, v float32) {
	m.Data[(i*m.H+y)*m.W+x] = v
}

// Clone returns a deep copy of the batch.
func (b *Images) Clone() *Images {
	out := &Images{N: b.N, H: b.H, W: b.W, C: b.C, Data: make([]float32, len(b.Data))}
	copy(out.Data, b.Data)
	return out
}

// Clone returns a deep copy of the batch.
func (m *Masks) Clone() *Masks {
	out := &Masks{N: m.N, H: m.H, W: m.W, Data: make([]float32, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}
