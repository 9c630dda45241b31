// Package filters implements the Snap Basic Filters node: a small palette of
// tone transforms blended with the original image by a strength factor.
package filters

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
)

// Type names a filter.
type Type string

const (
	Original  Type = "original"
	Grayscale Type = "grayscale"
	Vivid     Type = "vivid"
	Cooler    Type = "cooler"
	Warmer    Type = "warmer"
	Brighter  Type = "brighter"
	Darker    Type = "darker"
)

// minStrength is the effective strength below which the input is returned as is.
const minStrength = 0.001

var (
	coolTint = color.NRGBA{120, 150, 255, 30}
	warmTint = color.NRGBA{255, 180, 100, 30}
)

// Types lists every filter in declaration order.
func Types() []Type {
	return []Type{Original, Grayscale, Vivid, Cooler, Warmer, Brighter, Darker}
}

// ParseType accepts a filter name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidParameter,
		"invalid filter type %q, valid options are %v", s, Types())
}

// FilterFunc produces the fully filtered version of one frame.
type FilterFunc func(img *image.NRGBA) (*image.NRGBA, error)

func builtinFilters() map[Type]FilterFunc {
	return map[Type]FilterFunc{
		Original: func(img *image.NRGBA) (*image.NRGBA, error) { return img, nil },
		Grayscale: func(img *image.NRGBA) (*image.NRGBA, error) {
			return imaging.Grayscale(img), nil
		},
		Vivid: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Saturation(Contrast(img, 1.3), 1.3), nil
		},
		Cooler: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Tint(img, coolTint), nil
		},
		Warmer: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Tint(img, warmTint), nil
		},
		Brighter: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Brightness(img, 1.25), nil
		},
		Darker: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Contrast(Brightness(img, 0.8), 1.1), nil
		},
	}
}

// Params are the node inputs besides the image batch.
type Params struct {
	Filter            Type
	Strength          float64
	RandomizeFilter   bool
	RandomizeStrength bool
	RandomStrengthMin float64
	RandomStrengthMax float64
	Seed              uint64
}

// DefaultParams returns the declared defaults.
func DefaultParams() Params {
	return Params{
		Filter:            Original,
		Strength:          1.0,
		RandomStrengthMin: 0.5,
		RandomStrengthMax: 1.0,
	}
}

// Applier is the Snap Basic Filters node.
type Applier struct {
	logger  *log.Logger
	filters map[Type]FilterFunc
}

// New creates an Applier with the built-in filters
func New() *Applier {
	return &Applier{logger: log.Default(), filters: builtinFilters()}
}

// SetLogger replaces the node logger
func (a *Applier) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = l
	}
}

// Schema declares the node inputs and outputs.
func (a *Applier) Schema() node.Schema {
	def := DefaultParams()
	names := make([]string, 0, len(Types()))
	for _, t := range Types() {
		names = append(names, string(t))
	}
	return node.Schema{
		Name:        "SnapBasicFilters",
		DisplayName: "Snap Basic Filters",
		Category:    "snap",
		Inputs: []node.Input{
			{Name: "image", Kind: node.KindImage},
			node.Enum("filter_type", string(def.Filter), names...),
			node.Float("strength", def.Strength, 0, 1, 0.01),
			{Name: "randomize_filter", Kind: node.KindBool, Default: false},
			{Name: "randomize_strength", Kind: node.KindBool, Default: false},
			node.Float("random_strength_min", def.RandomStrengthMin, 0, 1, 0.01),
			node.Float("random_strength_max", def.RandomStrengthMax, 0, 1, 0.01),
			node.Int("seed", 0, 0, math.MaxUint64),
		},
		Outputs: []node.Output{{Name: "IMAGE", Kind: node.KindImage}},
	}
}

// Resolve returns the filter and strength a call with p will use, after
// randomization and clamping.
func Resolve(p Params) (Type, float64) {
	def := DefaultParams()
	filter, strength := p.Filter, orDefault(p.Strength, def.Strength)
	if p.RandomizeFilter || p.RandomizeStrength {
		rng := rand.New(rand.NewPCG(p.Seed, p.Seed))
		if p.RandomizeFilter {
			choices := Types()[1:]
			filter = choices[rng.IntN(len(choices))]
		}
		if p.RandomizeStrength {
			lo := orDefault(p.RandomStrengthMin, def.RandomStrengthMin)
			hi := orDefault(p.RandomStrengthMax, def.RandomStrengthMax)
			if lo > hi {
				lo, hi = hi, lo
			}
			strength = lo + (hi-lo)*rng.Float64()
		}
	}
	return filter, clamp(strength, 0, 1)
}

// Execute applies the resolved filter to every frame. When the call is a
// no-op the input batch itself is returned.
func (a *Applier) Execute(images *tensor.Images, p Params) (*tensor.Images, node.Report, error) {
	if err := images.Validate(); err != nil {
		return nil, node.Report{}, err
	}
	ft, err := ParseType(string(p.Filter))
	if err != nil {
		return nil, node.Report{}, err
	}
	p.Filter = ft

	filter, strength := Resolve(p)
	report := node.NewReport(images.N)
	if (filter == Original && strength >= 1.0) || strength <= minStrength {
		for i := 0; i < images.N; i++ {
			report.Record(i, nil)
		}
		return images, report, nil
	}

	a.logger.Debug("applying filter", "filter", filter, "strength", strength, "frames", images.N)
	out := images.Clone()
	for i := 0; i < images.N; i++ {
		original := images.Frame(i)
		filtered, err := a.apply(filter, original)
		if err != nil {
			a.logger.Warn("filter failed, keeping original frame", "frame", i, "filter", filter, "err", err)
			filtered = original
		}
		report.Record(i, err)
		if err := out.SetFrame(i, Blend(original, filtered, strength)); err != nil {
			return nil, report, err
		}
	}
	return out, report, nil
}

func (a *Applier) apply(filter Type, img *image.NRGBA) (*image.NRGBA, error) {
	fn, ok := a.filters[filter]
	if !ok {
		return nil, errors.New(errors.ErrCodeFilterFailure, "no implementation for filter %q", filter)
	}
	filtered, err := fn(img)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilterFailure, err, "filter %q", filter)
	}
	if filtered == nil || filtered.Bounds().Size() != img.Bounds().Size() {
		return nil, errors.New(errors.ErrCodeFilterFailure, "filter %q changed frame geometry", filter)
	}
	return filtered, nil
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
