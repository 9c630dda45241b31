package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/processing"
	"github.com/menta2k/snapfx/pkg/tensor"
	"github.com/menta2k/snapfx/pkg/textoverlay"
)

type textOptions struct {
	text      string
	placement string
	percent   float64
	color     string
	font      string
	sizeRatio float64
	padding   float64
	spacing   int
	barColor  string
	barAlpha  float64
	mask      string
}

func newTextCmd() *cobra.Command {
	opts := &textOptions{}

	cmd := &cobra.Command{
		Use:   "text <image|dir|url>...",
		Short: "Draw a Snap text bar",
		Long: `Draw wrapped text on a translucent full-width bar.

With --mask the bar is placed by the Face Avoid node so it stays clear of the
white area of the mask. A literal \n in --text starts a new line.`,
		Example: `  snapfx text --text "hello" --placement top photo.jpg
  snapfx text --text "run" --mask face.png --font "" photo.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.params(cmd)
			if err != nil {
				return err
			}
			fx := newFX(cmd)
			return runBatches(cmd, args, "Captioned", func(b *tensor.Images) (*tensor.Images, node.Report, error) {
				return fx.TextOverlay(b, p)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.text, "text", "t", "", "text to draw")
	f.StringVarP(&opts.placement, "placement", "p", "", fmt.Sprintf("vertical placement %v", textoverlay.Placements()))
	f.Float64Var(&opts.percent, "percent", 0, "bar center for custom placement, 0 bottom to 100 top")
	f.StringVar(&opts.color, "color", "", "text color as #RRGGBB")
	f.StringVar(&opts.font, "font", "", `font file or system font name; "" selects the built-in font`)
	f.Float64Var(&opts.sizeRatio, "size", 0, "font size as a fraction of the image width (0.01-0.2)")
	f.Float64Var(&opts.padding, "padding", 0, "bar padding as a fraction of the font size (0-3)")
	f.IntVar(&opts.spacing, "spacing", 0, "extra pixels between lines (0-50)")
	f.StringVar(&opts.barColor, "bar-color", "", "bar color as #RRGGBB")
	f.Float64Var(&opts.barAlpha, "bar-alpha", 0, "bar opacity (0-1)")
	f.StringVar(&opts.mask, "mask", "", "face mask image; places the bar with Face Avoid")
	return cmd
}

func (o *textOptions) params(cmd *cobra.Command) (textoverlay.Params, error) {
	cfg := configFromContext(cmd.Context())
	p := cfg.Text.TextParams()
	flags := cmd.Flags()
	if flags.Changed("text") {
		p.Text = strings.ReplaceAll(o.text, `\n`, "\n")
	}
	if flags.Changed("placement") {
		p.Placement = textoverlay.ParsePlacement(o.placement)
	}
	if flags.Changed("percent") {
		p.CustomPercentage = o.percent
	}
	if flags.Changed("color") {
		p.TextColor = o.color
	}
	if flags.Changed("font") {
		p.FontName = o.font
	}
	if flags.Changed("size") {
		p.FontSizeRatio = o.sizeRatio
	}
	if flags.Changed("padding") {
		p.VerticalPaddingRatio = o.padding
	}
	if flags.Changed("spacing") {
		p.LineSpacing = o.spacing
	}
	if flags.Changed("bar-color") {
		p.BarColor = o.barColor
	}
	if flags.Changed("bar-alpha") {
		p.BarAlpha = o.barAlpha
	}

	if o.mask != "" {
		masks, err := processing.NewProcessor().LoadMask(o.mask)
		if err != nil {
			return p, err
		}
		res, err := newFX(cmd).FaceAvoid(masks, cfg.Avoid.AvoidParams())
		if err != nil {
			return p, err
		}
		loggerFromContext(cmd.Context()).Info("placing text clear of the mask",
			"centroid", res.Centroid, "position", res.Position)
		p.Placement = textoverlay.Custom
		p.CustomPercentage = res.Position
	}
	return p, nil
}
