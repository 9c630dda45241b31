package snapfx

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/snapfx/pkg/degrade"
	"github.com/menta2k/snapfx/pkg/faceavoid"
	"github.com/menta2k/snapfx/pkg/filters"
	"github.com/menta2k/snapfx/pkg/tensor"
	"github.com/menta2k/snapfx/pkg/textoverlay"
)

// countingCodec returns its input and counts calls
type countingCodec struct{ calls int }

func (c *countingCodec) RoundTrip(img image.Image, quality int, s degrade.Subsampling) (image.Image, error) {
	c.calls++
	return img, nil
}

func createTestBatch(n int) *tensor.Images {
	b := tensor.NewImages(n, 30, 40, 3)
	b.Fill(color.NRGBA{120, 90, 60, 255})
	return b
}

func TestSchemas(t *testing.T) {
	fx := New()
	schemas := fx.Schemas()
	require.Len(t, schemas, 4)

	names := make([]string, 0, len(schemas))
	for _, s := range schemas {
		require.NoError(t, s.Validate())
		names = append(names, s.DisplayName)
	}
	assert.Equal(t, []string{"Face Avoid", "Snap Basic Filters", "Snap Text", "Low Quality Digital Look"}, names)

	s, ok := fx.Schema("SnapTextOverlay")
	require.True(t, ok)
	assert.Equal(t, "Snap Text", s.DisplayName)
	_, ok = fx.Schema("Low Quality Digital Look")
	assert.True(t, ok)
	_, ok = fx.Schema("nope")
	assert.False(t, ok)
}

func TestSharedLogger(t *testing.T) {
	var buf bytes.Buffer
	fx := NewWithConfig(Config{Logger: log.New(&buf)})

	p := faceavoid.DefaultParams()
	p.AvoidThreshold = 50
	res, err := fx.FaceAvoid(tensor.NewMasks(1, 10, 10), p)
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	assert.Equal(t, 50.0, res.Position)
	assert.Contains(t, buf.String(), "avoidance zone")
}

func TestPipeline(t *testing.T) {
	codec := &countingCodec{}
	fx := NewWithConfig(Config{Codec: codec})
	in := createTestBatch(2)

	fp := filters.DefaultParams()
	fp.Filter = filters.Grayscale
	filtered, report, err := fx.Filter(in, fp)
	require.NoError(t, err)
	assert.Zero(t, report.Fallbacks())
	px := filtered.Frame(0).NRGBAAt(5, 5)
	assert.Equal(t, px.R, px.G)
	assert.Equal(t, px.G, px.B)

	tp := textoverlay.DefaultParams()
	tp.FontName = ""
	tp.Placement = textoverlay.Top
	texted, report, err := fx.TextOverlay(filtered, tp)
	require.NoError(t, err)
	assert.Zero(t, report.Fallbacks())

	dp := degrade.DefaultParams()
	dp.EffectLevel = 1
	out, report, err := fx.Degrade(texted, dp)
	require.NoError(t, err)
	assert.Zero(t, report.Fallbacks())
	assert.Equal(t, 2, codec.calls)
	assert.Equal(t, in.Shape(), out.Shape())
}

func TestFilterFastPathReturnsSameBatch(t *testing.T) {
	in := createTestBatch(1)
	out, _, err := New().Filter(in, filters.DefaultParams())
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestHexToRGB(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, HexToRGB("#F00"))
	assert.Equal(t, color.RGBA{0x12, 0x34, 0x56, 255}, HexToRGB("123456"))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, HexToRGB("#12"))
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}

func BenchmarkPipeline(b *testing.B) {
	fx := NewWithConfig(Config{Logger: log.New(&bytes.Buffer{})})
	in := createTestBatch(4)
	fp := filters.DefaultParams()
	fp.Filter = filters.Vivid
	dp := degrade.DefaultParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, _, err := fx.Filter(in, fp)
		if err != nil {
			b.Fatal(err)
		}
		if _, _, err := fx.Degrade(out, dp); err != nil {
			b.Fatal(err)
		}
	}
}
