// Package faceavoid picks a vertical position for an overlay that stays clear
// of a face. Positions use a 0-100 scale where 100 is the top of the frame.
package faceavoid

import (
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
)

const (
	minPosition = 0.0
	maxPosition = 100.0

	// DefaultCenter is used when the mask has no weight.
	DefaultCenter = 50.0
)

// Params are the node inputs besides the mask.
type Params struct {
	CentroidThreshold  float64
	VerticalAdjustment float64
	AvoidThreshold     float64
	Seed               uint64
	GenerateRandom     bool
}

// DefaultParams returns the declared defaults.
func DefaultParams() Params {
	return Params{
		CentroidThreshold:  0.5,
		VerticalAdjustment: 0,
		AvoidThreshold:     15,
		Seed:               0,
		GenerateRandom:     true,
	}
}

// clamped forces every ratio into its schema range. NaN takes the default.
func (p Params) clamped() Params {
	def := DefaultParams()
	p.CentroidThreshold = clamp(orDefault(p.CentroidThreshold, def.CentroidThreshold), 0.01, 1)
	p.VerticalAdjustment = clamp(orDefault(p.VerticalAdjustment, def.VerticalAdjustment), -100, 100)
	p.AvoidThreshold = clamp(orDefault(p.AvoidThreshold, def.AvoidThreshold), 0, 50)
	return p
}

// Result is the outcome of one call.
type Result struct {
	Position float64 // node output, 0-100 with 100 = top
	Centroid float64 // mask centroid on the same scale
	Center   float64 // centroid after vertical adjustment
	FellBack bool    // avoidance band covered the whole axis
}

// Randomizer is the Face Avoid node.
type Randomizer struct {
	logger *log.Logger
}

// New creates a Randomizer logging to the default logger
func New() *Randomizer {
	return &Randomizer{logger: log.Default()}
}

// SetLogger replaces the node logger
func (r *Randomizer) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Schema declares the node inputs and outputs.
func (r *Randomizer) Schema() node.Schema {
	def := DefaultParams()
	return node.Schema{
		Name:        "FaceAvoidRandomY",
		DisplayName: "Face Avoid",
		Category:    "snap",
		Inputs: []node.Input{
			{Name: "mask", Kind: node.KindMask},
			node.Float("centroid_threshold", def.CentroidThreshold, 0.01, 1, 0.01),
			node.Float("vertical_adjustment", def.VerticalAdjustment, -100, 100, 1),
			node.Float("avoid_threshold", def.AvoidThreshold, 0, 50, 0.1),
			node.Int("seed", 0, 0, math.MaxUint64),
			{Name: "generate_random", Kind: node.KindBool, Default: def.GenerateRandom},
		},
		Outputs: []node.Output{{Name: "vertical_pos_100_top", Kind: node.KindFloat}},
	}
}

// Execute computes the centroid of the first mask and, if requested, draws a
// position outside the avoidance band around it.
func (r *Randomizer) Execute(masks *tensor.Masks, p Params) (Result, error) {
	if err := masks.Validate(); err != nil {
		return Result{}, err
	}
	if masks.N == 0 {
		return Result{}, errors.New(errors.ErrCodeMalformedInput, "mask batch is empty")
	}
	p = p.clamped()

	centroid := Centroid(masks, p.CentroidThreshold)
	center := clamp(centroid+p.VerticalAdjustment, minPosition, maxPosition)
	res := Result{Position: center, Centroid: centroid, Center: center}
	if !p.GenerateRandom {
		return res, nil
	}

	pos, ok := Avoid(center, p.AvoidThreshold, rand.New(rand.NewPCG(p.Seed, p.Seed)))
	if !ok {
		r.logger.Warn("avoidance zone covers entire range, returning adjusted center",
			"center", center, "avoid", p.AvoidThreshold)
		res.FellBack = true
	}
	res.Position = pos
	return res, nil
}

// Centroid returns the weighted vertical centroid of the first mask frame on
// the 100-top scale. Samples strictly above threshold count as weight 1.
// An empty mask or a mask of height <= 1 yields DefaultCenter.
func Centroid(masks *tensor.Masks, threshold float64) float64 {
	if masks.H <= 1 {
		return DefaultCenter
	}
	var sum, weighted float64
	for y := 0; y < masks.H; y++ {
		for x := 0; x < masks.W; x++ {
			if float64(masks.At(0, y, x)) > threshold {
				sum++
				weighted += float64(y)
			}
		}
	}
	if sum == 0 {
		return DefaultCenter
	}
	normalized := clamp(weighted/sum/float64(masks.H-1), 0, 1)
	return maxPosition * (1 - normalized)
}

// Avoid draws a uniform position from [0, center-band) and (center+band, 100]
// using rng. It reports false and returns center when both ranges are empty.
func Avoid(center, band float64, rng *rand.Rand) (float64, bool) {
	center = orDefault(center, DefaultCenter)
	band = orDefault(band, 0)
	excludeBottom := math.Max(minPosition, center-band)
	excludeTop := math.Min(maxPosition, center+band)

	lower := math.Max(0, excludeBottom-minPosition)
	upper := math.Max(0, maxPosition-excludeTop)
	total := lower + upper
	if total <= 0 {
		return center, false
	}

	y := rng.Float64() * total
	var pos float64
	if y < lower {
		pos = minPosition + y
	} else {
		pos = excludeTop + (y - lower)
	}
	return clamp(pos, minPosition, maxPosition), true
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
