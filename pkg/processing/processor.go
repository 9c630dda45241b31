// Package processing loads, saves and annotates images around the nodes:
// files and URLs in, files out, and the encoded copies sent to face locators.
package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/tensor"
	"github.com/menta2k/snapfx/pkg/types"
)

const userAgent = "snapfx/1.0"

// Processor reads and writes the images the nodes work on.
type Processor struct {
	httpClient *http.Client
}

func NewProcessor() *Processor {
	return &Processor{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// LoadImageFromURL fetches an http(s) image. Transport failures, non-200
// answers and non-image content types are FILE_NOT_FOUND.
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "parse %s", imageURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeFileNotFound, "unsupported URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "request %s", imageURL)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "download %s", imageURL)
	}
	defer resp.Body.Close()

	switch ct := resp.Header.Get("Content-Type"); {
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeFileNotFound, "download %s: %s", imageURL, resp.Status)
	case !strings.HasPrefix(ct, "image/"):
		return nil, errors.New(errors.ErrCodeFileNotFound, "%s is %q, not an image", imageURL, ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", imageURL, err)
	}
	return decode(imageURL, data)
}

// LoadImage opens a local image. imaging.Open covers every registered
// decoder; chai2010/webp is tried on what it rejects.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decode(path, data)
}

// LoadImageSmart dispatches on whether source is a URL or a path.
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadBatch loads every source into one image batch. All images must share
// the size of the first one.
func (p *Processor) LoadBatch(sources []string) (*tensor.Images, error) {
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedInput, "no input images")
	}
	imgs := make([]image.Image, 0, len(sources))
	for _, src := range sources {
		img, err := p.LoadImageSmart(src)
		if err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return tensor.FromImages(imgs)
}

// Group is a batch of equally sized images and the sources they came from.
type Group struct {
	Sources []string
	Images  *tensor.Images
}

// LoadGroups loads every source and splits them into one batch per image
// size. Groups appear in the order their first source was given.
func (p *Processor) LoadGroups(sources []string) ([]Group, error) {
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedInput, "no input images")
	}

	type pending struct {
		sources []string
		imgs    []image.Image
	}
	var order []image.Point
	bySize := map[image.Point]*pending{}
	for _, src := range sources {
		img, err := p.LoadImageSmart(src)
		if err != nil {
			return nil, err
		}
		size := img.Bounds().Size()
		g, ok := bySize[size]
		if !ok {
			g = &pending{}
			bySize[size] = g
			order = append(order, size)
		}
		g.sources = append(g.sources, src)
		g.imgs = append(g.imgs, img)
	}

	groups := make([]Group, 0, len(order))
	for _, size := range order {
		g := bySize[size]
		batch, err := tensor.FromImages(g.imgs)
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{Sources: g.sources, Images: batch})
	}
	return groups, nil
}

// LoadMask loads a gray or color image as a one-frame mask
func (p *Processor) LoadMask(source string) (*tensor.Masks, error) {
	img, err := p.LoadImageSmart(source)
	if err != nil {
		return nil, err
	}
	return tensor.MaskFromImage(img), nil
}

func decode(name string, data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode %s", name)
	}
	return img, nil
}

// PrepareImageForModel shrinks img to fit maxDim and base64-encodes it for
// a vision model. The returned size is that of the encoded image, so pixel
// answers can be normalized against it.
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, image.Point, error) {
	if size := img.Bounds().Size(); maxDim > 0 && (size.X > maxDim || size.Y > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	f, opts := imaging.JPEG, []imaging.EncodeOption{imaging.JPEGQuality(quality)}
	if strings.EqualFold(format, "png") {
		f, opts = imaging.PNG, []imaging.EncodeOption{imaging.PNGCompressionLevel(png.BestCompression)}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, opts...); err != nil {
		return "", image.Point{}, fmt.Errorf("encode for model: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), img.Bounds().Size(), nil
}

// SaveImage writes img as jpg, png or webp. Quality applies to jpg and lossy
// webp.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: lossless, Quality: float32(quality)}); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return f.Close()
	case "png":
		return imaging.Save(img, path)
	default:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// Placement is what the debug overlay shows of a placement decision.
// Positions are percentages of the height measured from the bottom.
type Placement struct {
	Center   float64
	Position float64
	Band     float64
}

// CreateDebugOverlay draws the face box, the avoided band around the face
// center and the chosen text position onto a copy of img.
func (p *Processor) CreateDebugOverlay(img image.Image, face types.Box, pl Placement) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	green := color.NRGBA{0, 255, 0, 255}  // face box
	gold := color.NRGBA{255, 204, 0, 255} // chosen position
	blue := color.NRGBA{0, 170, 255, 255} // face center
	shade := color.NRGBA{255, 0, 0, 72}   // avoided band

	stroke := int(math.Max(2, 0.004*float64(min(w, h)))) // ~0.4% of min side

	if pl.Band > 0 {
		top := percentToRow(math.Min(100, pl.Center+pl.Band), h)
		bottom := percentToRow(math.Max(0, pl.Center-pl.Band), h)
		if bottom > top {
			nrgba = imaging.Overlay(nrgba, imaging.New(w, bottom-top+1, shade), image.Pt(0, top), 1.0)
		}
	}

	if !face.Empty() {
		drawBox(nrgba, face, w, h, green, stroke)
	}

	cy := percentToRow(pl.Center, h)
	for s := 0; s < stroke; s++ {
		drawHLine(nrgba, cy+s, 0, w/8, blue)
		drawHLine(nrgba, cy+s, w-w/8, w, blue)
	}

	py := percentToRow(pl.Position, h)
	for s := 0; s < stroke; s++ {
		drawHLine(nrgba, py+s, 0, w, gold)
	}
	return nrgba
}

// percentToRow maps 100 to the top row and 0 to the bottom row.
func percentToRow(pct float64, h int) int {
	return int((1-clamp(pct, 0, 100)/100)*float64(h-1) + 0.5)
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

func boxToPixels(box types.Box, w, h int) (int, int, int, int) {
	x0 := int(clamp(box.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(box.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(box.X+box.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(box.Y+box.H, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawBox(img *image.NRGBA, box types.Box, w, h int, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := boxToPixels(box, w, h)
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < 0 || y >= b.Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, 0), min(x1, b.Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < 0 || x >= b.Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, 0), min(y1, b.Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
		i += img.Stride
	}
}
