package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx/internal/config"
	"github.com/menta2k/snapfx/internal/utils"
	"github.com/menta2k/snapfx/pkg/client"
	"github.com/menta2k/snapfx/pkg/detection"
	"github.com/menta2k/snapfx/pkg/faceavoid"
	"github.com/menta2k/snapfx/pkg/llamacpp"
	"github.com/menta2k/snapfx/pkg/ollama"
	"github.com/menta2k/snapfx/pkg/processing"
	"github.com/menta2k/snapfx/pkg/types"
)

// newVisionClient creates the backend named in the detect section
func newVisionClient(cfg config.DetectConfig) (client.VisionClient, error) {
	switch cfg.Backend {
	case "ollama":
		return ollama.NewClient(cfg.URL)
	case "llamacpp":
		return llamacpp.NewClient(cfg.URL)
	}
	return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Backend)
}

func locateOptions(cfg config.DetectConfig) types.LocateOptions {
	return types.LocateOptions{
		Model:      cfg.Model,
		SendFormat: cfg.SendFormat,
		SendSize:   cfg.SendSize,
		SendQ:      cfg.SendQuality,
	}
}

// locateFace sends img to the configured backend. An empty prompt uses the
// default face locator prompt.
func locateFace(ctx context.Context, cfg config.DetectConfig, proc *processing.Processor, img image.Image, prompt string) (*types.LocateResult, error) {
	vc, err := newVisionClient(cfg)
	if err != nil {
		return nil, err
	}
	opts := locateOptions(cfg)
	imgB64, size, err := proc.PrepareImageForModel(img, opts.SendFormat, opts.SendSize, opts.SendQ)
	if err != nil {
		return nil, fmt.Errorf("prepare image: %w", err)
	}

	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	logger := loggerFromContext(ctx)
	logger.Debug("locating faces", "backend", cfg.Backend, "model", opts.Model, "sent", size)
	prog := newProgress(logger)

	detector := detection.NewDetector(vc)
	var result *types.LocateResult
	if prompt == "" {
		result, err = detector.LocateFace(ctx, opts.Model, imgB64, size.X, size.Y)
	} else {
		result, err = detector.LocateFaceWithPrompt(ctx, opts.Model, imgB64, prompt, size.X, size.Y)
	}
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Located %d faces", len(result.Faces)))
	return result, nil
}

type locateCmdOptions struct {
	prompt string
	test   bool
	debug  bool
}

func newLocateCmd() *cobra.Command {
	opts := &locateCmdOptions{}

	cmd := &cobra.Command{
		Use:   "locate <image|url>",
		Short: "Locate faces with a vision model",
		Long: `Ask the configured vision backend (ollama or llama.cpp) for face boxes and
print them as JSON. The backend can be set in the [detect] config section or
with SNAPFX_BACKEND, SNAPFX_BACKEND_URL and SNAPFX_MODEL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			proc := processing.NewProcessor()

			img, err := proc.LoadImageSmart(args[0])
			if err != nil {
				return err
			}

			if opts.test {
				return testVision(cmd, cfg.Detect, proc, img)
			}

			result, err := locateFace(ctx, cfg.Detect, proc, img, opts.prompt)
			if err != nil {
				return err
			}
			js, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(js))

			if opts.debug {
				var box types.Box
				if face, ok := result.Primary(); ok {
					box = face.Box
				}
				b := img.Bounds()
				center := faceavoid.Centroid(detection.Mask(result, b.Dy(), b.Dx()), cfg.Avoid.CentroidThreshold)
				return saveDebugOverlay(cmd, proc, img, args[0], box, processing.Placement{Center: center, Position: center})
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.prompt, "prompt", "", "custom locator prompt")
	f.BoolVar(&opts.test, "test", false, "only check that the model can see the image")
	f.BoolVar(&opts.debug, "debug", false, "write an image with the located face box")
	return cmd
}

func testVision(cmd *cobra.Command, cfg config.DetectConfig, proc *processing.Processor, img image.Image) error {
	vc, err := newVisionClient(cfg)
	if err != nil {
		return err
	}
	opts := locateOptions(cfg)
	imgB64, _, err := proc.PrepareImageForModel(img, opts.SendFormat, opts.SendSize, opts.SendQ)
	if err != nil {
		return fmt.Errorf("prepare image: %w", err)
	}
	reply, err := detection.NewDetector(vc).TestVision(cmd.Context(), opts.Model, imgB64)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// saveDebugOverlay writes the annotated copy of img as <name>_debug.png
func saveDebugOverlay(cmd *cobra.Command, proc *processing.Processor, img image.Image, source string, face types.Box, pl processing.Placement) error {
	out := configFromContext(cmd.Context()).Output
	if err := utils.EnsureDir(out.OutputDir); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := utils.GenerateOutputFilename(source, out.OutputDir, out.Prefix, "_debug", "png")
	if err := proc.SaveImage(proc.CreateDebugOverlay(img, face, pl), path, "png", 0, false); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	loggerFromContext(cmd.Context()).Info("wrote debug overlay", "path", path)
	return nil
}
