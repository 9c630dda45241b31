package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/snapfx/pkg/degrade"
	"github.com/menta2k/snapfx/pkg/errors"
	"github.com/menta2k/snapfx/pkg/faceavoid"
	"github.com/menta2k/snapfx/pkg/filters"
	"github.com/menta2k/snapfx/pkg/textoverlay"
)

// Config holds the application configuration
type Config struct {
	Avoid   AvoidConfig   `json:"avoid" yaml:"avoid" toml:"avoid"`
	Filter  FilterConfig  `json:"filter" yaml:"filter" toml:"filter"`
	Text    TextConfig    `json:"text" yaml:"text" toml:"text"`
	Degrade DegradeConfig `json:"degrade" yaml:"degrade" toml:"degrade"`
	Detect  DetectConfig  `json:"detect" yaml:"detect" toml:"detect"`
	Output  OutputConfig  `json:"output" yaml:"output" toml:"output"`
}

// AvoidConfig holds the placement randomizer inputs
type AvoidConfig struct {
	CentroidThreshold  float64 `json:"centroid_threshold" yaml:"centroid_threshold" toml:"centroid_threshold"`
	VerticalAdjustment float64 `json:"vertical_adjustment" yaml:"vertical_adjustment" toml:"vertical_adjustment"`
	AvoidThreshold     float64 `json:"avoid_threshold" yaml:"avoid_threshold" toml:"avoid_threshold"`
	Seed               uint64  `json:"seed" yaml:"seed" toml:"seed"`
	GenerateRandom     bool    `json:"generate_random" yaml:"generate_random" toml:"generate_random"`
}

// FilterConfig holds the color filter inputs
type FilterConfig struct {
	Filter            string  `json:"filter_type" yaml:"filter_type" toml:"filter_type"`
	Strength          float64 `json:"strength" yaml:"strength" toml:"strength"`
	RandomizeFilter   bool    `json:"randomize_filter" yaml:"randomize_filter" toml:"randomize_filter"`
	RandomizeStrength bool    `json:"randomize_strength" yaml:"randomize_strength" toml:"randomize_strength"`
	RandomStrengthMin float64 `json:"random_strength_min" yaml:"random_strength_min" toml:"random_strength_min"`
	RandomStrengthMax float64 `json:"random_strength_max" yaml:"random_strength_max" toml:"random_strength_max"`
	Seed              uint64  `json:"seed" yaml:"seed" toml:"seed"`
}

// TextConfig holds the text overlay inputs
type TextConfig struct {
	Text                 string  `json:"text" yaml:"text" toml:"text"`
	Placement            string  `json:"vertical_placement" yaml:"vertical_placement" toml:"vertical_placement"`
	CustomPercentage     float64 `json:"custom_vertical_percentage" yaml:"custom_vertical_percentage" toml:"custom_vertical_percentage"`
	TextColor            string  `json:"text_color" yaml:"text_color" toml:"text_color"`
	FontName             string  `json:"font_name" yaml:"font_name" toml:"font_name"`
	FontSizeRatio        float64 `json:"font_size_ratio" yaml:"font_size_ratio" toml:"font_size_ratio"`
	VerticalPaddingRatio float64 `json:"vertical_padding_ratio_of_size" yaml:"vertical_padding_ratio_of_size" toml:"vertical_padding_ratio_of_size"`
	LineSpacing          int     `json:"line_spacing" yaml:"line_spacing" toml:"line_spacing"`
	BarColor             string  `json:"bar_color" yaml:"bar_color" toml:"bar_color"`
	BarAlpha             float64 `json:"bar_alpha" yaml:"bar_alpha" toml:"bar_alpha"`
}

// DegradeConfig holds the degradation effect inputs
type DegradeConfig struct {
	Preset      string  `json:"preset" yaml:"preset" toml:"preset"`
	EffectLevel float64 `json:"effect_level" yaml:"effect_level" toml:"effect_level"`
	Seed        uint64  `json:"seed" yaml:"seed" toml:"seed"`
}

// DetectConfig holds configuration for the face locator backend
type DetectConfig struct {
	Backend        string `json:"backend" yaml:"backend" toml:"backend"`
	URL            string `json:"url" yaml:"url" toml:"url"`
	Model          string `json:"model" yaml:"model" toml:"model"`
	SendFormat     string `json:"send_format" yaml:"send_format" toml:"send_format"`
	SendSize       int    `json:"send_size" yaml:"send_size" toml:"send_size"`
	SendQuality    int    `json:"send_quality" yaml:"send_quality" toml:"send_quality"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format    string `json:"format" yaml:"format" toml:"format"`
	Quality   int    `json:"quality" yaml:"quality" toml:"quality"`
	Lossless  bool   `json:"lossless" yaml:"lossless" toml:"lossless"`
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	Prefix    string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Suffix    string `json:"suffix" yaml:"suffix" toml:"suffix"`
}

// Default returns a configuration with the node defaults
func Default() *Config {
	av := faceavoid.DefaultParams()
	fl := filters.DefaultParams()
	tx := textoverlay.DefaultParams()
	dg := degrade.DefaultParams()
	return &Config{
		Avoid: AvoidConfig{
			CentroidThreshold:  av.CentroidThreshold,
			VerticalAdjustment: av.VerticalAdjustment,
			AvoidThreshold:     av.AvoidThreshold,
			Seed:               av.Seed,
			GenerateRandom:     av.GenerateRandom,
		},
		Filter: FilterConfig{
			Filter:            string(fl.Filter),
			Strength:          fl.Strength,
			RandomizeFilter:   fl.RandomizeFilter,
			RandomizeStrength: fl.RandomizeStrength,
			RandomStrengthMin: fl.RandomStrengthMin,
			RandomStrengthMax: fl.RandomStrengthMax,
			Seed:              fl.Seed,
		},
		Text: TextConfig{
			Text:                 tx.Text,
			Placement:            string(tx.Placement),
			CustomPercentage:     tx.CustomPercentage,
			TextColor:            tx.TextColor,
			FontName:             tx.FontName,
			FontSizeRatio:        tx.FontSizeRatio,
			VerticalPaddingRatio: tx.VerticalPaddingRatio,
			LineSpacing:          tx.LineSpacing,
			BarColor:             tx.BarColor,
			BarAlpha:             tx.BarAlpha,
		},
		Degrade: DegradeConfig{
			Preset:      string(dg.Preset),
			EffectLevel: dg.EffectLevel,
			Seed:        dg.Seed,
		},
		Detect: DetectConfig{
			Backend:        "ollama",
			URL:            "http://localhost:11434",
			Model:          "llava:13b",
			SendFormat:     "jpg",
			SendSize:       768,
			SendQuality:    85,
			TimeoutSeconds: 300,
		},
		Output: OutputConfig{
			Format:    "jpg",
			Quality:   90,
			OutputDir: "./output",
			Suffix:    "_snap",
		},
	}
}

// AvoidParams converts the section to node inputs
func (c AvoidConfig) AvoidParams() faceavoid.Params {
	return faceavoid.Params{
		CentroidThreshold:  c.CentroidThreshold,
		VerticalAdjustment: c.VerticalAdjustment,
		AvoidThreshold:     c.AvoidThreshold,
		Seed:               c.Seed,
		GenerateRandom:     c.GenerateRandom,
	}
}

// FilterParams converts the section to node inputs
func (c FilterConfig) FilterParams() filters.Params {
	return filters.Params{
		Filter:            filters.Type(c.Filter),
		Strength:          c.Strength,
		RandomizeFilter:   c.RandomizeFilter,
		RandomizeStrength: c.RandomizeStrength,
		RandomStrengthMin: c.RandomStrengthMin,
		RandomStrengthMax: c.RandomStrengthMax,
		Seed:              c.Seed,
	}
}

// TextParams converts the section to node inputs
func (c TextConfig) TextParams() textoverlay.Params {
	return textoverlay.Params{
		Text:                 c.Text,
		Placement:            textoverlay.Placement(c.Placement),
		CustomPercentage:     c.CustomPercentage,
		TextColor:            c.TextColor,
		FontName:             c.FontName,
		FontSizeRatio:        c.FontSizeRatio,
		VerticalPaddingRatio: c.VerticalPaddingRatio,
		LineSpacing:          c.LineSpacing,
		BarColor:             c.BarColor,
		BarAlpha:             c.BarAlpha,
	}
}

// DegradeParams converts the section to node inputs
func (c DegradeConfig) DegradeParams() degrade.Params {
	return degrade.Params{
		Preset:      degrade.Preset(c.Preset),
		EffectLevel: c.EffectLevel,
		Seed:        c.Seed,
	}
}

type format int

const (
	formatJSON format = iota
	formatYAML
	formatTOML
)

func formatOf(filename string) format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		return formatTOML
	case ".yaml", ".yml":
		return formatYAML
	}
	return formatJSON
}

// Load reads filename if it exists and returns the defaults otherwise
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFromFile(filename)
}

// LoadFromFile loads configuration from a TOML, YAML or JSON file. Keys the
// file leaves out keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", filename)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch formatOf(filename) {
	case formatTOML:
		_, err = toml.Decode(string(data), config)
	case formatYAML:
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config file %s", filename)
	}
	return config, nil
}

// Marshal encodes the configuration in the format named by ext
// ("toml", "yaml", "yml" or "json", with or without a leading dot).
func (c *Config) Marshal(ext string) ([]byte, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	switch formatOf(ext) {
	case formatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatYAML:
		return yaml.Marshal(c)
	default:
		return json.MarshalIndent(c, "", "  ")
	}
}

// SaveToFile saves configuration in the format given by the file extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(filepath.Ext(filename))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Avoid.CentroidThreshold < 0.01 || c.Avoid.CentroidThreshold > 1 {
		return invalid("avoid.centroid_threshold must be between 0.01 and 1")
	}
	if c.Avoid.VerticalAdjustment < -100 || c.Avoid.VerticalAdjustment > 100 {
		return invalid("avoid.vertical_adjustment must be between -100 and 100")
	}
	if c.Avoid.AvoidThreshold < 0 || c.Avoid.AvoidThreshold > 50 {
		return invalid("avoid.avoid_threshold must be between 0 and 50")
	}

	if _, err := filters.ParseType(c.Filter.Filter); err != nil {
		return invalid("filter.filter_type %q is not one of %v", c.Filter.Filter, filters.Types())
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"strength", c.Filter.Strength},
		{"random_strength_min", c.Filter.RandomStrengthMin},
		{"random_strength_max", c.Filter.RandomStrengthMax},
	} {
		if f.v < 0 || f.v > 1 {
			return invalid("filter.%s must be between 0 and 1", f.name)
		}
	}

	if c.Text.FontSizeRatio < 0.01 || c.Text.FontSizeRatio > 0.2 {
		return invalid("text.font_size_ratio must be between 0.01 and 0.2")
	}
	if c.Text.VerticalPaddingRatio < 0 || c.Text.VerticalPaddingRatio > 3 {
		return invalid("text.vertical_padding_ratio_of_size must be between 0 and 3")
	}
	if c.Text.LineSpacing < 0 || c.Text.LineSpacing > 50 {
		return invalid("text.line_spacing must be between 0 and 50")
	}
	if c.Text.BarAlpha < 0 || c.Text.BarAlpha > 1 {
		return invalid("text.bar_alpha must be between 0 and 1")
	}
	if c.Text.CustomPercentage < 0 || c.Text.CustomPercentage > 100 {
		return invalid("text.custom_vertical_percentage must be between 0 and 100")
	}

	if c.Degrade.EffectLevel < 0 || c.Degrade.EffectLevel > 1 {
		return invalid("degrade.effect_level must be between 0 and 1")
	}

	switch c.Detect.Backend {
	case "ollama", "llamacpp":
	default:
		return invalid("detect.backend must be ollama or llamacpp, got %q", c.Detect.Backend)
	}
	if c.Detect.SendQuality < 1 || c.Detect.SendQuality > 100 {
		return invalid("detect.send_quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return invalid("output.format must be jpg, png or webp, got %q", c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return invalid("output.quality must be between 1 and 100")
	}
	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./snapfx.toml"
	}
	return filepath.Join(home, ".config", "snapfx", "config.toml")
}
