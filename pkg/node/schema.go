// Package node describes the inputs and outputs every snapfx node declares,
// and the per-frame report the batch nodes return.
package node

import (
	"fmt"
)

// Kind is the declared type of a node input or output.
type Kind string

const (
	KindImage  Kind = "IMAGE"
	KindMask   Kind = "MASK"
	KindFloat  Kind = "FLOAT"
	KindInt    Kind = "INT"
	KindBool   Kind = "BOOLEAN"
	KindString Kind = "STRING"
	KindColor  Kind = "COLOR"
	KindEnum   Kind = "ENUM"
)

// Input declares one named input and its constraints.
type Input struct {
	Name      string   `json:"name" yaml:"name"`
	Kind      Kind     `json:"kind" yaml:"kind"`
	Default   any      `json:"default,omitempty" yaml:"default,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step      float64  `json:"step,omitempty" yaml:"step,omitempty"`
	Choices   []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Multiline bool     `json:"multiline,omitempty" yaml:"multiline,omitempty"`
}

// Output declares one named output.
type Output struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Schema is the full declaration of a node.
type Schema struct {
	Name        string   `json:"name" yaml:"name"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Category    string   `json:"category" yaml:"category"`
	Inputs      []Input  `json:"inputs" yaml:"inputs"`
	Outputs     []Output `json:"outputs" yaml:"outputs"`
}

// Describer is implemented by every node.
type Describer interface {
	Schema() Schema
}

// Float declares a numeric input with a range and step.
func Float(name string, def, lo, hi, step float64) Input {
	return Input{Name: name, Kind: KindFloat, Default: def, Min: &lo, Max: &hi, Step: step}
}

// Int declares an integer input with a range.
func Int(name string, def int64, lo, hi float64) Input {
	return Input{Name: name, Kind: KindInt, Default: def, Min: &lo, Max: &hi, Step: 1}
}

// Enum declares a categorical input.
func Enum(name, def string, choices ...string) Input {
	return Input{Name: name, Kind: KindEnum, Default: def, Choices: choices}
}

// Input looks up an input by name.
func (s Schema) Input(name string) (Input, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Validate checks that names are unique and defaults satisfy their constraints.
func (s Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	if len(s.Outputs) == 0 {
		return fmt.Errorf("%s: no outputs declared", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Inputs))
	for _, in := range s.Inputs {
		if in.Name == "" {
			return fmt.Errorf("%s: input without name", s.Name)
		}
		if _, dup := seen[in.Name]; dup {
			return fmt.Errorf("%s: duplicate input %q", s.Name, in.Name)
		}
		seen[in.Name] = struct{}{}
		if err := in.validateDefault(); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name, in.Name, err)
		}
	}
	return nil
}

func (in Input) validateDefault() error {
	switch in.Kind {
	case KindEnum:
		def, _ := in.Default.(string)
		for _, c := range in.Choices {
			if c == def {
				return nil
			}
		}
		return fmt.Errorf("default %q is not one of %v", def, in.Choices)
	case KindFloat, KindInt:
		var v float64
		switch d := in.Default.(type) {
		case float64:
			v = d
		case int64:
			v = float64(d)
		case uint64:
			v = float64(d)
		default:
			return fmt.Errorf("numeric default has type %T", in.Default)
		}
		if in.Min != nil && v < *in.Min {
			return fmt.Errorf("default %v below min %v", v, *in.Min)
		}
		if in.Max != nil && v > *in.Max {
			return fmt.Errorf("default %v above max %v", v, *in.Max)
		}
	}
	return nil
}
