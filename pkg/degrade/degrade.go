// Package degrade implements the Low Quality Digital Look node. It darkens,
// desaturates, adds sensor noise and recompresses frames to imitate a cheap
// or early digital camera.
package degrade

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/filters"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
)

const (
	// minLevel is the effect level at or below which frames pass through.
	minLevel = 0.001
	// neutralTolerance skips saturation or brightness changes this close to 1.
	neutralTolerance = 0.01
	// minNoise is the smallest standard deviation worth sampling.
	minNoise = 0.01
	// maxQualityForCodec disables the compression pass at or above it.
	maxQualityForCodec = 98
	maxSeed            = math.MaxUint32
)

// Params are the node inputs besides the image batch.
type Params struct {
	Preset      Preset
	EffectLevel float64
	Seed        uint64
}

// DefaultParams returns the declared defaults.
func DefaultParams() Params {
	return Params{Preset: StandardLowLight, EffectLevel: 0.5}
}

// Simulator is the Low Quality Digital Look node.
type Simulator struct {
	logger *log.Logger
	codec  Codec
}

// New creates a Simulator using the JPEG codec
func New() *Simulator {
	return &Simulator{logger: log.Default(), codec: JPEGCodec{}}
}

// NewWithCodec creates a Simulator with a custom compression codec
func NewWithCodec(c Codec) *Simulator {
	s := New()
	if c != nil {
		s.codec = c
	}
	return s
}

// SetLogger replaces the node logger
func (s *Simulator) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Schema declares the node inputs and outputs.
func (s *Simulator) Schema() node.Schema {
	def := DefaultParams()
	names := make([]string, 0, 2)
	for _, p := range Presets() {
		names = append(names, string(p))
	}
	return node.Schema{
		Name:        "LowQualityDigitalLook",
		DisplayName: "Low Quality Digital Look",
		Category:    "snap",
		Inputs: []node.Input{
			{Name: "image", Kind: node.KindImage},
			node.Enum("preset", string(def.Preset), names...),
			node.Float("effect_level", def.EffectLevel, 0, 1, 0.01),
			node.Int("seed", 0, 0, maxSeed),
		},
		Outputs: []node.Output{{Name: "IMAGE", Kind: node.KindImage}},
	}
}

// Execute degrades every frame of the batch.
func (s *Simulator) Execute(images *tensor.Images, p Params) (*tensor.Images, node.Report, error) {
	if err := images.Validate(); err != nil {
		return nil, node.Report{}, err
	}
	report := node.NewReport(images.N)
	level := clamp(orDefault(p.EffectLevel, DefaultParams().EffectLevel), 0, 1)
	if level <= minLevel {
		for i := 0; i < images.N; i++ {
			report.Record(i, nil)
		}
		return images.Clone(), report, nil
	}

	effect := Interpolate(ParsePreset(string(p.Preset)), level)
	seed := min(p.Seed, maxSeed)
	rng := rand.New(rand.NewPCG(seed, seed))
	s.logger.Debug("degrading batch", "preset", p.Preset, "level", level,
		"quality", effect.Quality, "noise", effect.NoiseStdDev,
		"saturation", effect.Saturation, "brightness", effect.Brightness,
		"subsampling", effect.Subsampling)

	out := images.Clone()
	for i := 0; i < images.N; i++ {
		frame, err := s.degradeFrame(images.Frame(i), effect, rng)
		if err != nil {
			s.logger.Warn("degradation step failed, keeping pre-failure frame", "frame", i, "err", err)
		}
		report.Record(i, err)
		if err := out.SetFrame(i, frame); err != nil {
			return nil, report, err
		}
	}
	return out, report, nil
}

// degradeFrame always returns a usable frame; on error it is the image as it
// was before the failing step.
func (s *Simulator) degradeFrame(img *image.NRGBA, e Effect, rng *rand.Rand) (image.Image, error) {
	if math.Abs(e.Saturation-1) > neutralTolerance {
		img = filters.Saturation(img, e.Saturation)
	}
	if math.Abs(e.Brightness-1) > neutralTolerance {
		img = filters.Brightness(img, e.Brightness)
	}
	if e.NoiseStdDev > minNoise {
		img = AddNoise(img, e.NoiseStdDev/255, rng)
	}
	if e.Quality >= maxQualityForCodec {
		return img, nil
	}
	compressed, err := s.codec.RoundTrip(img, e.Quality, e.Subsampling)
	if err != nil {
		return img, errors.Wrap(errors.ErrCodeCodecFailure, err, "recompress at quality %d", e.Quality)
	}
	if compressed.Bounds().Size() != img.Bounds().Size() {
		return img, errors.New(errors.ErrCodeCodecFailure, "codec changed frame size to %v", compressed.Bounds().Size())
	}
	return compressed, nil
}

// AddNoise adds zero-mean Gaussian noise with standard deviation sigma (in
// normalized sample units) to every color channel and clips to [0,1].
func AddNoise(img *image.NRGBA, sigma float64, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float32(out.Pix[i+c])/255 + float32(rng.NormFloat64()*sigma)
			out.Pix[i+c] = quantize(v)
		}
	}
	return out
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
