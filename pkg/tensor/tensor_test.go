package tensor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/types"
)

// createTestImage creates a simple gradient test image
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.NRGBA{r, g, 128, 255})
		}
	}
	return img
}

func TestImagesFromShape(t *testing.T) {
	b, err := ImagesFromShape([]int{2, 3, 4, 3}, make([]float32, 2*3*4*3))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 3}, b.Shape())

	_, err = ImagesFromShape([]int{3, 4, 3}, make([]float32, 36))
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))

	_, err = ImagesFromShape([]int{1, 3, 4, 3}, make([]float32, 10))
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))

	_, err = ImagesFromShape([]int{1, 3, 4, 2}, make([]float32, 24))
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestMasksFromShape(t *testing.T) {
	m, err := MasksFromShape([]int{1, 5, 5}, make([]float32, 25))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 5}, m.Shape())

	_, err = MasksFromShape([]int{1, 5, 5, 1}, make([]float32, 25))
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))

	_, err = MasksFromShape([]int{1, 0, 5}, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestFrameRoundTrip(t *testing.T) {
	src := createTestImage(16, 8)
	b, err := FromImages([]image.Image{src, src})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 8, 16, 3}, b.Shape())

	frame := b.Frame(1)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			assert.Equal(t, src.At(x, y), frame.At(x, y))
		}
	}
}

func TestSetFrameSizeMismatch(t *testing.T) {
	b := NewImages(1, 4, 4, 3)
	err := b.SetFrame(0, createTestImage(5, 4))
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestSingleChannelFrame(t *testing.T) {
	b := NewImages(1, 2, 2, 1)
	b.Set(0, 0, 0, 0, 1)
	frame := b.Frame(0)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, frame.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, frame.NRGBAAt(1, 1))

	require.NoError(t, b.SetFrame(0, frame))
	assert.Equal(t, float32(1), b.At(0, 0, 0, 0))
}

func TestFourChannelKeepsAlpha(t *testing.T) {
	b := NewImages(1, 1, 1, 4)
	b.Data[3] = 0.25
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})

	require.NoError(t, b.SetFrame(0, img))
	assert.Equal(t, []float32{1, 0, 0, 0.25}, b.Data)
}

func TestMaskFromBox(t *testing.T) {
	m := MaskFromBox(10, 10, types.Box{X: 0, Y: 0, W: 1, H: 0.2})
	assert.Equal(t, float32(1), m.At(0, 0, 0))
	assert.Equal(t, float32(1), m.At(0, 1, 9))
	assert.Equal(t, float32(0), m.At(0, 2, 0))

	empty := MaskFromBox(4, 4, types.Box{})
	for _, v := range empty.Data {
		assert.Zero(t, v)
	}
}

func TestMaskFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0] = 255
	m := MaskFromImage(img)
	assert.Equal(t, []int{1, 1, 2}, m.Shape())
	assert.Equal(t, float32(1), m.At(0, 0, 0))
	assert.Equal(t, float32(0), m.At(0, 0, 1))
	assert.Equal(t, uint8(255), m.Frame(0).Pix[0])
}

func TestClone(t *testing.T) {
	b := NewImages(1, 1, 1, 3)
	c := b.Clone()
	c.Data[0] = 1
	assert.Zero(t, b.Data[0])
}

func BenchmarkFrame(b *testing.B) {
	batch, _ := FromImages([]image.Image{createTestImage(1920, 1080)})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch.Frame(0)
	}
}
