package degrade

import (
	"math"
	"strings"
)

// Preset names a calibration of the effect.
type Preset string

const (
	StandardLowLight  Preset = "Standard Low Light"
	Early2000sDigital Preset = "Early 2000s Digital"
)

// Presets lists the recognized presets. Any other name uses the fallback calibration.
func Presets() []Preset {
	return []Preset{StandardLowLight, Early2000sDigital}
}

// ParsePreset matches a preset name case-insensitively. The older
// "Standard Snapchat Low Light" label is accepted as StandardLowLight.
// Unknown names are returned unchanged and select the fallback calibration.
func ParsePreset(s string) Preset {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch norm {
	case "standard low light", "standard snapchat low light":
		return StandardLowLight
	case "early 2000s digital":
		return Early2000sDigital
	}
	return Preset(s)
}

// Subsampling is the chroma subsampling mode of the compression pass.
type Subsampling int

const (
	Subsampling444 Subsampling = iota
	Subsampling420
)

func (s Subsampling) String() string {
	if s == Subsampling420 {
		return "4:2:0"
	}
	return "4:4:4"
}

// Effect is the set of parameters applied to every frame.
type Effect struct {
	Quality     int
	NoiseStdDev float64
	Saturation  float64
	Brightness  float64
	Subsampling Subsampling
}

type calibration struct {
	quality     float64
	noise       float64
	saturation  float64
	brightness  float64
	subsampling Subsampling
}

var (
	noEffect = calibration{quality: 95, noise: 0, saturation: 1, brightness: 1}

	presetBase = map[Preset]calibration{
		StandardLowLight:  {quality: 70, noise: 8, saturation: 0.9, brightness: 0.95, subsampling: Subsampling444},
		Early2000sDigital: {quality: 50, noise: 15, saturation: 0.8, brightness: 1.0, subsampling: Subsampling420},
	}
	fallbackBase = calibration{quality: 75, noise: 5, saturation: 1, brightness: 1, subsampling: Subsampling444}
)

const maxEffectQuality = 15

func baseFor(p Preset) calibration {
	if c, ok := presetBase[p]; ok {
		return c
	}
	return fallbackBase
}

func maxFor(base calibration) calibration {
	return calibration{
		quality:     maxEffectQuality,
		noise:       base.noise * 2.5,
		saturation:  1 + (base.saturation-1)*1.5,
		brightness:  1 + (base.brightness-1)*1.5,
		subsampling: base.subsampling,
	}
}

// lerp3 interpolates linearly between v0 and v05 on [0,0.5] and between v05
// and v1 on (0.5,1].
func lerp3(level, v0, v05, v1 float64) float64 {
	if level <= 0.5 {
		return v0 + level/0.5*(v05-v0)
	}
	return v05 + (level-0.5)/0.5*(v1-v05)
}

// Interpolate computes the effect for a preset at an intensity in [0,1].
// Level 0 is no effect, 0.5 the preset calibration and 1 the maximum effect.
func Interpolate(preset Preset, level float64) Effect {
	level = clamp(level, 0, 1)
	base := baseFor(preset)
	most := maxFor(base)

	q := lerp3(level, noEffect.quality, base.quality, most.quality)
	return Effect{
		Quality:     int(clamp(math.Round(q), 1, 100)),
		NoiseStdDev: math.Max(0, lerp3(level, noEffect.noise, base.noise, most.noise)),
		Saturation:  math.Max(0.01, lerp3(level, noEffect.saturation, base.saturation, most.saturation)),
		Brightness:  math.Max(0.01, lerp3(level, noEffect.brightness, base.brightness, most.brightness)),
		Subsampling: base.subsampling,
	}
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
