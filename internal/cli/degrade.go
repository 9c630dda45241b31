package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx/pkg/degrade"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
)

type degradeOptions struct {
	preset string
	level  float64
	seed   uint64
}

func newDegradeCmd() *cobra.Command {
	opts := &degradeOptions{}

	cmd := &cobra.Command{
		Use:   "degrade <image|dir|url>...",
		Short: "Apply the low quality digital look",
		Long:  `Simulate a cheap phone camera: color and brightness loss, sensor noise and heavy JPEG compression.`,
		Example: `  snapfx degrade --level 0.8 photo.jpg
  snapfx degrade --preset "Early 2000s Digital" --seed 3 ./frames`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := configFromContext(cmd.Context()).Degrade.DegradeParams()
			flags := cmd.Flags()
			if flags.Changed("preset") {
				p.Preset = degrade.ParsePreset(opts.preset)
			}
			if flags.Changed("level") {
				p.EffectLevel = opts.level
			}
			if flags.Changed("seed") {
				p.Seed = opts.seed
			}
			p.Preset = degrade.ParsePreset(string(p.Preset))

			e := degrade.Interpolate(p.Preset, p.EffectLevel)
			loggerFromContext(cmd.Context()).Debug("effect", "preset", p.Preset, "quality", e.Quality,
				"noise", e.NoiseStdDev, "saturation", e.Saturation, "brightness", e.Brightness, "subsampling", e.Subsampling)

			fx := newFX(cmd)
			return runBatches(cmd, args, "Degraded", func(b *tensor.Images) (*tensor.Images, node.Report, error) {
				return fx.Degrade(b, p)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.preset, "preset", "p", "", fmt.Sprintf("calibration preset %q", degrade.Presets()))
	f.Float64VarP(&opts.level, "level", "l", 0, "effect level (0-1)")
	f.Uint64Var(&opts.seed, "seed", 0, "noise seed")
	return cmd
}
