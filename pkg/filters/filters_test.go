package filters

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/tensor"
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

func createTestBatch(t testing.TB, n int) *tensor.Images {
	imgs := make([]image.Image, n)
	for i := range imgs {
		imgs[i] = createTestImage(32, 24)
	}
	b, err := tensor.FromImages(imgs)
	require.NoError(t, err)
	return b
}

func quiet() *Applier {
	a := New()
	a.SetLogger(log.New(io.Discard))
	return a
}

func meanChannel(b *tensor.Images, c int) float64 {
	var sum float64
	n := 0
	for p := c; p < len(b.Data); p += b.C {
		sum += float64(b.Data[p])
		n++
	}
	return sum / float64(n)
}

func TestSchema(t *testing.T) {
	s := New().Schema()
	require.NoError(t, s.Validate())
	in, ok := s.Input("filter_type")
	require.True(t, ok)
	assert.Len(t, in.Choices, 7)
}

func TestZeroStrengthReturnsInput(t *testing.T) {
	batch := createTestBatch(t, 2)
	p := DefaultParams()
	p.Filter = Vivid
	p.Strength = 0

	out, report, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	assert.Same(t, batch, out)
	assert.Zero(t, report.Fallbacks())
}

func TestOriginalFullStrengthIsNoop(t *testing.T) {
	batch := createTestBatch(t, 1)
	out, _, err := quiet().Execute(batch, DefaultParams())
	require.NoError(t, err)
	assert.Same(t, batch, out)
}

func TestGrayscale(t *testing.T) {
	batch := createTestBatch(t, 1)
	p := DefaultParams()
	p.Filter = Grayscale

	out, report, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	assert.Zero(t, report.Fallbacks())
	assert.Equal(t, batch.Shape(), out.Shape())
	for i := 0; i < len(out.Data); i += 3 {
		assert.Equal(t, out.Data[i], out.Data[i+1])
		assert.Equal(t, out.Data[i], out.Data[i+2])
	}
	// input untouched
	assert.NotEqual(t, batch.Data[0*3+2], batch.Data[0*3])
}

func TestBrightnessDirection(t *testing.T) {
	batch := createTestBatch(t, 1)
	base := meanChannel(batch, 0)

	p := DefaultParams()
	p.Filter = Brighter
	bright, _, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	assert.Greater(t, meanChannel(bright, 0), base)

	p.Filter = Darker
	dark, _, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	assert.Less(t, meanChannel(dark, 0), base)
}

func TestTints(t *testing.T) {
	gray := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range gray.Pix {
		gray.Pix[i] = 128
	}
	for i := 3; i < len(gray.Pix); i += 4 {
		gray.Pix[i] = 255
	}
	batch, err := tensor.FromImages([]image.Image{gray})
	require.NoError(t, err)

	p := DefaultParams()
	p.Filter = Cooler
	cool, _, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	assert.Greater(t, meanChannel(cool, 2), meanChannel(cool, 0))

	p.Filter = Warmer
	warm, _, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	assert.Greater(t, meanChannel(warm, 0), meanChannel(warm, 2))

	// ~12% tint: 128 + 30/255*(255-128)
	assert.InDelta(t, (128+30.0/255*(255-128))/255, meanChannel(cool, 2), 2.0/255)
}

func TestHalfStrengthBlends(t *testing.T) {
	batch := createTestBatch(t, 1)
	p := DefaultParams()
	p.Filter = Grayscale

	full, _, err := quiet().Execute(batch, p)
	require.NoError(t, err)
	p.Strength = 0.5
	half, _, err := quiet().Execute(batch, p)
	require.NoError(t, err)

	for i := range half.Data {
		want := (batch.Data[i] + full.Data[i]) / 2
		assert.InDelta(t, want, half.Data[i], 2.0/255)
	}
}

func TestResolveRandomization(t *testing.T) {
	p := DefaultParams()
	p.RandomizeFilter = true
	p.RandomizeStrength = true
	p.RandomStrengthMin = 0.9
	p.RandomStrengthMax = 0.2

	seen := map[Type]bool{}
	for seed := uint64(0); seed < 100; seed++ {
		p.Seed = seed
		f, s := Resolve(p)
		assert.NotEqual(t, Original, f)
		assert.GreaterOrEqual(t, s, 0.2)
		assert.LessOrEqual(t, s, 0.9)
		seen[f] = true

		f2, s2 := Resolve(p)
		assert.Equal(t, f, f2)
		assert.Equal(t, s, s2)
	}
	assert.Greater(t, len(seen), 1)
}

func TestResolveClampsStrength(t *testing.T) {
	p := DefaultParams()
	p.Strength = 3
	_, s := Resolve(p)
	assert.Equal(t, 1.0, s)
	p.Strength = -1
	_, s = Resolve(p)
	assert.Equal(t, 0.0, s)
}

func TestNaNStrengthUsesDefault(t *testing.T) {
	p := DefaultParams()
	p.Filter = Brighter
	p.Strength = math.NaN()
	_, s := Resolve(p)
	assert.Equal(t, 1.0, s)

	p.RandomizeStrength = true
	p.RandomStrengthMin, p.RandomStrengthMax = math.NaN(), math.NaN()
	_, s = Resolve(p)
	assert.GreaterOrEqual(t, s, 0.5)
	assert.LessOrEqual(t, s, 1.0)

	gray := tensor.NewImages(1, 4, 4, 3)
	for i := range gray.Data {
		gray.Data[i] = 0.5
	}
	p.RandomizeStrength = false
	out, report, err := quiet().Execute(gray, p)
	require.NoError(t, err)
	assert.Zero(t, report.Fallbacks())
	assert.Greater(t, out.Data[0], float32(0.5))
}

func TestFailingFilterFallsBack(t *testing.T) {
	a := quiet()
	a.filters[Vivid] = func(*image.NRGBA) (*image.NRGBA, error) {
		return nil, fmt.Errorf("boom")
	}
	batch := createTestBatch(t, 3)
	p := DefaultParams()
	p.Filter = Vivid

	out, report, err := a.Execute(batch, p)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fallbacks())
	for _, e := range report.Errors() {
		assert.True(t, errors.Is(e, errors.ErrCodeFilterFailure))
	}
	for i := range out.Data {
		assert.InDelta(t, batch.Data[i], out.Data[i], 1.0/255+1e-6)
	}
}

func TestInvalidFilterType(t *testing.T) {
	p := DefaultParams()
	p.Filter = "sepia"
	_, _, err := quiet().Execute(createTestBatch(t, 1), p)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidParameter))

	ft, err := ParseType(" Warmer ")
	require.NoError(t, err)
	assert.Equal(t, Warmer, ft)
}

func TestMalformedBatch(t *testing.T) {
	bad := &tensor.Images{N: 1, H: 2, W: 2, C: 3, Data: make([]float32, 5)}
	_, _, err := quiet().Execute(bad, DefaultParams())
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestSaturationZeroIsGray(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{200, 50, 10, 255})
	out := Saturation(img, 0)
	c := out.NRGBAAt(0, 0)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func BenchmarkVivid(b *testing.B) {
	batch := createTestBatch(b, 4)
	a := quiet()
	p := DefaultParams()
	p.Filter = Vivid
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Execute(batch, p)
	}
}
