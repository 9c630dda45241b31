package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx/pkg/filters"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
)

type filterOptions struct {
	filter         string
	strength       float64
	randomFilter   bool
	randomStrength bool
	min, max       float64
	seed           uint64
}

func newFilterCmd() *cobra.Command {
	opts := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "filter <image|dir|url>...",
		Short: "Apply a Snap color filter",
		Long:  `Apply one of the Snap Basic Filters to every image. Flags override the [filter] section of the config file.`,
		Example: `  snapfx filter --type warmer --strength 0.8 photo.jpg
  snapfx filter --random --seed 7 ./frames`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.params(cmd)
			if err != nil {
				return err
			}
			fx := newFX(cmd)
			return runBatches(cmd, args, "Filtered", func(b *tensor.Images) (*tensor.Images, node.Report, error) {
				return fx.Filter(b, p)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.filter, "type", "t", "", fmt.Sprintf("filter type %v", filters.Types()))
	f.Float64VarP(&opts.strength, "strength", "s", 0, "filter strength (0-1)")
	f.BoolVar(&opts.randomFilter, "random", false, "pick a random filter other than original")
	f.BoolVar(&opts.randomStrength, "random-strength", false, "draw the strength from --min..--max")
	f.Float64Var(&opts.min, "min", 0, "lower bound of the random strength")
	f.Float64Var(&opts.max, "max", 0, "upper bound of the random strength")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed")
	return cmd
}

func (o *filterOptions) params(cmd *cobra.Command) (filters.Params, error) {
	p := configFromContext(cmd.Context()).Filter.FilterParams()
	flags := cmd.Flags()
	if flags.Changed("type") {
		ft, err := filters.ParseType(o.filter)
		if err != nil {
			return p, err
		}
		p.Filter = ft
	}
	if flags.Changed("strength") {
		p.Strength = o.strength
	}
	if flags.Changed("random") {
		p.RandomizeFilter = o.randomFilter
	}
	if flags.Changed("random-strength") {
		p.RandomizeStrength = o.randomStrength
	}
	if flags.Changed("min") {
		p.RandomStrengthMin = o.min
	}
	if flags.Changed("max") {
		p.RandomStrengthMax = o.max
	}
	if flags.Changed("seed") {
		p.Seed = o.seed
	}
	return p, nil
}
