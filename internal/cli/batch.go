package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx"
	"github.com/menta2k/snapfx/internal/utils"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/processing"
	"github.com/menta2k/snapfx/pkg/tensor"
)

// batchFunc runs one node over a batch of equally sized frames.
type batchFunc func(*tensor.Images) (*tensor.Images, node.Report, error)

func newFX(cmd *cobra.Command) *snapfx.FX {
	return snapfx.NewWithConfig(snapfx.Config{Logger: loggerFromContext(cmd.Context())})
}

// runBatches expands args into image sources, runs fn once per image size
// and writes every output frame. Output paths are printed to stdout.
func runBatches(cmd *cobra.Command, args []string, verb string, fn batchFunc) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := configFromContext(ctx).Output

	sources, err := utils.ExpandInputs(args)
	if err != nil {
		return err
	}
	prog := newProgress(logger)
	proc := processing.NewProcessor()
	groups, err := proc.LoadGroups(sources)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(out.OutputDir); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	written, fallbacks := 0, 0
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("processing batch", "frames", g.Images.N, "width", g.Images.W, "height", g.Images.H)

		result, report, err := fn(g.Images)
		if err != nil {
			return err
		}
		fallbacks += report.Fallbacks()

		for i, src := range g.Sources {
			path := utils.GenerateOutputFilename(src, out.OutputDir, out.Prefix, out.Suffix, out.Format)
			if err := proc.SaveImage(result.Frame(i), path, out.Format, out.Quality, out.Lossless); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			logger.Debug("wrote", "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			written++
		}
	}

	if fallbacks > 0 {
		logger.Warn("frames passed through unchanged", "count", fallbacks)
	}
	prog.done(fmt.Sprintf("%s %d images", verb, written))
	return nil
}
