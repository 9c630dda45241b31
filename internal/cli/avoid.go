package cli

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx/pkg/detection"
	"github.com/menta2k/snapfx/pkg/faceavoid"
	"github.com/menta2k/snapfx/pkg/processing"
	"github.com/menta2k/snapfx/pkg/tensor"
	"github.com/menta2k/snapfx/pkg/types"
)

type avoidOptions struct {
	mask      string
	threshold float64
	adjust    float64
	band      float64
	seed      uint64
	fixed     bool
	asJSON    bool
	debug     bool
}

// avoidOutput is what avoid --json prints
type avoidOutput struct {
	Position float64     `json:"vertical_pos_100_top"`
	Centroid float64     `json:"centroid"`
	Center   float64     `json:"center"`
	FellBack bool        `json:"fell_back"`
	Face     *types.Face `json:"face,omitempty"`
}

func newAvoidCmd() *cobra.Command {
	opts := &avoidOptions{}

	cmd := &cobra.Command{
		Use:   "avoid [image|url]",
		Short: "Pick a text position clear of a face",
		Long: `Run the Face Avoid node and print the chosen vertical position on a 0-100
scale where 100 is the top of the image.

The face mask comes from --mask, or from the vision backend when only an
image is given.`,
		Example: `  snapfx avoid --mask face.png --seed 4
  snapfx avoid --debug photo.jpg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mask == "" && len(args) == 0 {
				return fmt.Errorf("avoid needs an image or --mask")
			}
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			proc := processing.NewProcessor()

			var img image.Image
			if len(args) == 1 {
				var err error
				if img, err = proc.LoadImageSmart(args[0]); err != nil {
					return err
				}
			}

			var masks *tensor.Masks
			var face *types.Face
			if opts.mask != "" {
				var err error
				if masks, err = proc.LoadMask(opts.mask); err != nil {
					return err
				}
			} else {
				result, err := locateFace(ctx, cfg.Detect, proc, img, "")
				if err != nil {
					return err
				}
				if f, ok := result.Primary(); ok {
					face = &f
				} else {
					loggerFromContext(ctx).Warn("no face located, using the image center")
				}
				b := img.Bounds()
				masks = detection.Mask(result, b.Dy(), b.Dx())
			}

			p := opts.params(cmd)
			res, err := newFX(cmd).FaceAvoid(masks, p)
			if err != nil {
				return err
			}

			if opts.asJSON {
				js, err := json.MarshalIndent(avoidOutput{
					Position: res.Position,
					Centroid: res.Centroid,
					Center:   res.Center,
					FellBack: res.FellBack,
					Face:     face,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(js))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", res.Position)
			}

			if opts.debug && img != nil {
				var box types.Box
				if face != nil {
					box = face.Box
				}
				band := 0.0
				if p.GenerateRandom {
					band = p.AvoidThreshold
				}
				return saveDebugOverlay(cmd, proc, img, args[0], box, processing.Placement{
					Center:   res.Center,
					Position: res.Position,
					Band:     band,
				})
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mask, "mask", "", "face mask image (white = face)")
	f.Float64Var(&opts.threshold, "threshold", 0, "mask binarization threshold (0.01-1)")
	f.Float64Var(&opts.adjust, "adjust", 0, "shift added to the face center (-100..100)")
	f.Float64Var(&opts.band, "band", 0, "half height of the avoided band (0-50)")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed")
	f.BoolVar(&opts.fixed, "fixed", false, "return the adjusted face center instead of a random position")
	f.BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	f.BoolVar(&opts.debug, "debug", false, "write an image showing the face, the avoided band and the position")
	return cmd
}

func (o *avoidOptions) params(cmd *cobra.Command) faceavoid.Params {
	p := configFromContext(cmd.Context()).Avoid.AvoidParams()
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		p.CentroidThreshold = o.threshold
	}
	if flags.Changed("adjust") {
		p.VerticalAdjustment = o.adjust
	}
	if flags.Changed("band") {
		p.AvoidThreshold = o.band
	}
	if flags.Changed("seed") {
		p.Seed = o.seed
	}
	if flags.Changed("fixed") {
		p.GenerateRandom = !o.fixed
	}
	return p
}
