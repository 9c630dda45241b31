// Package textoverlay implements the Snap Text node: a line of caption text,
// wrapped to the frame width, centered in a semi-transparent bar.
package textoverlay

import (
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/hexcolor"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
)

// Placement selects where the bar sits vertically.
type Placement string

const (
	Top    Placement = "top"
	Middle Placement = "middle"
	Bottom Placement = "bottom"
	Custom Placement = "custom"
)

const (
	horizontalPadding = 0.025
	minBarHeight      = 5
)

// Placements lists the recognized placements.
func Placements() []Placement {
	return []Placement{Top, Middle, Bottom, Custom}
}

// ParsePlacement matches case-insensitively; unknown names mean Middle.
func ParsePlacement(s string) Placement {
	p := Placement(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Top, Middle, Bottom, Custom:
		return p
	}
	return Middle
}

// Params are the node inputs besides the image batch.
type Params struct {
	Text                 string
	Placement            Placement
	CustomPercentage     float64 // 0 is the bottom edge, 100 the top
	TextColor            string
	FontName             string
	FontSizeRatio        float64 // of the frame width
	VerticalPaddingRatio float64 // of the font size
	LineSpacing          int
	BarColor             string
	BarAlpha             float64
}

// DefaultParams returns the declared defaults.
func DefaultParams() Params {
	return Params{
		Text:                 "Your Text Here",
		Placement:            Middle,
		TextColor:            "#FFFFFF",
		FontName:             "arial.ttf",
		FontSizeRatio:        0.05,
		VerticalPaddingRatio: 0.7,
		LineSpacing:          4,
		BarColor:             "#000000",
		BarAlpha:             0.5,
	}
}

func (p Params) clamped() Params {
	def := DefaultParams()
	p.CustomPercentage = clamp(orDefault(p.CustomPercentage, def.CustomPercentage), 0, 100)
	p.FontSizeRatio = clamp(orDefault(p.FontSizeRatio, def.FontSizeRatio), 0.01, 0.2)
	p.VerticalPaddingRatio = clamp(orDefault(p.VerticalPaddingRatio, def.VerticalPaddingRatio), 0, 3)
	p.LineSpacing = int(clamp(float64(p.LineSpacing), 0, 50))
	p.BarAlpha = clamp(orDefault(p.BarAlpha, def.BarAlpha), 0, 1)
	return p
}

// Renderer is the Snap Text node.
type Renderer struct {
	logger   *log.Logger
	fonts    *FontLoader
	loadFace func(name string, size int) (font.Face, error)
}

// New creates a Renderer with its own font cache
func New() *Renderer {
	r := &Renderer{logger: log.Default()}
	r.fonts = NewFontLoader(r.logger)
	r.loadFace = r.fonts.Face
	return r
}

// SetLogger replaces the node logger
func (r *Renderer) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
		r.fonts.logger = l
	}
}

// Schema declares the node inputs and outputs.
func (r *Renderer) Schema() node.Schema {
	def := DefaultParams()
	names := make([]string, 0, 4)
	for _, p := range Placements() {
		names = append(names, string(p))
	}
	return node.Schema{
		Name:        "SnapTextOverlay",
		DisplayName: "Snap Text",
		Category:    "snap",
		Inputs: []node.Input{
			{Name: "image", Kind: node.KindImage},
			{Name: "text", Kind: node.KindString, Default: def.Text},
			node.Enum("vertical_placement", string(def.Placement), names...),
			node.Float("custom_vertical_percentage", def.CustomPercentage, 0, 100, 0.1),
			{Name: "text_color", Kind: node.KindColor, Default: def.TextColor},
			{Name: "font_name", Kind: node.KindString, Default: def.FontName},
			node.Float("font_size_ratio", def.FontSizeRatio, 0.01, 0.2, 0.005),
			node.Float("vertical_padding_ratio_of_size", def.VerticalPaddingRatio, 0, 3, 0.05),
			node.Int("line_spacing", int64(def.LineSpacing), 0, 50),
			{Name: "bar_color", Kind: node.KindColor, Default: def.BarColor},
			node.Float("bar_alpha", def.BarAlpha, 0, 1, 0.01),
		},
		Outputs: []node.Output{{Name: "IMAGE", Kind: node.KindImage}},
	}
}

// Execute draws the caption on every frame. All frames share one size, so the
// overlay layer is rendered once and composited onto each frame.
func (r *Renderer) Execute(images *tensor.Images, p Params) (*tensor.Images, node.Report, error) {
	if err := images.Validate(); err != nil {
		return nil, node.Report{}, err
	}
	p = p.clamped()
	p.Placement = ParsePlacement(string(p.Placement))
	report := node.NewReport(images.N)

	size := max(1, int(math.Round(float64(images.W)*p.FontSizeRatio)))
	face, err := r.loadFace(p.FontName, size)
	if errors.Is(err, errors.ErrCodeFontNotFound) {
		return nil, report, err
	}
	if err != nil {
		r.logger.Warn("no usable font, passing frames through", "font", p.FontName, "err", err)
		for i := 0; i < images.N; i++ {
			report.Skip(i)
		}
		return images.Clone(), report, nil
	}
	defer face.Close()

	layer := r.layer(images.W, images.H, face, size, p)
	out := images.Clone()
	for i := 0; i < images.N; i++ {
		if layer != nil {
			if err := out.SetFrame(i, imaging.Overlay(images.Frame(i), layer, image.Pt(0, 0), 1.0)); err != nil {
				return nil, report, err
			}
		}
		report.Record(i, nil)
	}
	return out, report, nil
}

// layer renders the bar and text onto a transparent image. It returns nil when
// there is nothing to draw.
func (r *Renderer) layer(w, h int, face font.Face, size int, p Params) *image.NRGBA {
	if p.Text == "" {
		return nil
	}
	padX := int(float64(w) * horizontalPadding)
	lines := Wrap(p.Text, face, w-2*padX)
	textHeight := Measure(lines, face, p.LineSpacing)
	barHeight := min(max(minBarHeight, textHeight+int(float64(size)*p.VerticalPaddingRatio)), h)
	top := BarGeometry(h, barHeight, p.Placement, p.CustomPercentage)

	r.logger.Debug("text layout", "lines", len(lines), "font_size", size,
		"text_height", textHeight, "bar_height", barHeight, "bar_top", top)

	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	if p.BarAlpha > 0 {
		bar := imaging.New(w, barHeight, hexcolor.WithAlpha(hexcolor.ToRGB(p.BarColor), p.BarAlpha))
		layer = imaging.Paste(layer, bar, image.Pt(0, top))
	}

	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(hexcolor.ToRGB(p.TextColor)),
		Face: face,
	}
	centerX, centerY := w/2, top+barHeight/2
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	if len(lines) == 1 {
		baseline := centerY + (ascent-descent)/2
		d.Dot = fixed.P(centerX-width(face, lines[0])/2, baseline)
		d.DrawString(lines[0])
		return layer
	}

	lineHeight := m.Height.Ceil()
	blockTop := centerY - Measure(lines, face, p.LineSpacing)/2
	for i, line := range lines {
		baseline := blockTop + i*(lineHeight+p.LineSpacing) + ascent
		d.Dot = fixed.P(centerX-width(face, line)/2, baseline)
		d.DrawString(line)
	}
	return layer
}

// BarGeometry returns the top row of a bar of height barH in a frame of height
// imgH. For Custom, pct 100 is the top edge and 0 the bottom edge.
func BarGeometry(imgH, barH int, placement Placement, pct float64) int {
	if barH >= imgH {
		return 0
	}
	free := imgH - barH
	switch placement {
	case Top:
		return 0
	case Bottom:
		return free
	case Custom:
		y := int(float64(free) * (1 - clamp(pct, 0, 100)/100))
		return min(max(y, 0), free)
	}
	return free / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// orDefault replaces NaN with def.
func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
