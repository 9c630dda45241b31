package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

func TestSaveAndLoad(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := createTestImage(40, 30)

	for _, format := range []string{"jpg", "png", "webp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out."+format)
			require.NoError(t, p.SaveImage(img, path, format, 90, format == "webp"))

			loaded, err := p.LoadImage(path)
			require.NoError(t, err)
			assert.Equal(t, image.Pt(40, 30), loaded.Bounds().Size())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewProcessor().LoadImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestLoadImageFromURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(16, 8)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(buf.Bytes())
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewProcessor()
	img, err := p.LoadImageSmart(srv.URL + "/img.png")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 8), img.Bounds().Size())

	for _, bad := range []string{srv.URL + "/page", srv.URL + "/missing", "ftp://example.com/a.png"} {
		_, err = p.LoadImageFromURL(bad)
		assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), bad)
	}
}

func TestLoadCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewProcessor().LoadImage(path)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestLoadBatch(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	require.NoError(t, p.SaveImage(createTestImage(20, 10), a, "png", 0, false))
	require.NoError(t, p.SaveImage(createTestImage(20, 10), b, "png", 0, false))
	require.NoError(t, p.SaveImage(createTestImage(10, 10), c, "png", 0, false))

	batch, err := p.LoadBatch([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 10, 20, 3}, batch.Shape())

	_, err = p.LoadBatch([]string{a, c})
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
	_, err = p.LoadBatch(nil)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestLoadGroups(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	require.NoError(t, p.SaveImage(createTestImage(20, 10), a, "png", 0, false))
	require.NoError(t, p.SaveImage(createTestImage(10, 10), b, "png", 0, false))
	require.NoError(t, p.SaveImage(createTestImage(20, 10), c, "png", 0, false))

	groups, err := p.LoadGroups([]string{a, b, c})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{a, c}, groups[0].Sources)
	assert.Equal(t, []int{2, 10, 20, 3}, groups[0].Images.Shape())
	assert.Equal(t, []string{b}, groups[1].Sources)
	assert.Equal(t, []int{1, 10, 10, 3}, groups[1].Images.Shape())

	_, err = p.LoadGroups([]string{filepath.Join(dir, "missing.png")})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestLoadMask(t *testing.T) {
	p := NewProcessor()
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	gray.Pix[0] = 255
	path := filepath.Join(t.TempDir(), "mask.png")
	require.NoError(t, p.SaveImage(gray, path, "png", 0, false))

	m, err := p.LoadMask(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, m.Shape())
	assert.Equal(t, float32(1), m.At(0, 0, 0))
	assert.Equal(t, float32(0), m.At(0, 1, 3))
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	b64, size, err := p.PrepareImageForModel(createTestImage(800, 400), "jpg", 200, 80)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), size)

	data, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 100), decoded.Bounds().Size())

	_, size, err = p.PrepareImageForModel(createTestImage(50, 60), "png", 200, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(50, 60), size)
}

func TestCreateDebugOverlay(t *testing.T) {
	p := NewProcessor()
	src := image.NewNRGBA(image.Rect(0, 0, 100, 101))
	out := p.CreateDebugOverlay(src, types.Box{X: 0.4, Y: 0.1, W: 0.2, H: 0.2},
		Placement{Center: 80, Position: 20, Band: 10}).(*image.NRGBA)

	// chosen position: 20% from the bottom is row 80
	assert.Equal(t, color.NRGBA{255, 204, 0, 255}, out.NRGBAAt(50, 80))
	// face box edge
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(50, 10))
	// avoided band between rows 10 and 30 is shaded
	assert.NotEqual(t, color.NRGBA{}, out.NRGBAAt(30, 25))
	// outside everything
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(30, 60))
	// source untouched
	assert.Equal(t, color.NRGBA{}, src.NRGBAAt(50, 80))
}
