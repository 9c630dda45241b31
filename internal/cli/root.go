package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/snapfx"
	"github.com/menta2k/snapfx/internal/config"
	"github.com/menta2k/snapfx/internal/utils"
	"github.com/menta2k/snapfx/pkg/errors"
)

var (
	version = snapfx.Version // semantic version
	commit  string           // git commit SHA
	date    string           // build timestamp
)

// Environment variables that override the face locator settings.
const (
	envBackend = "SNAPFX_BACKEND"
	envURL     = "SNAPFX_BACKEND_URL"
	envModel   = "SNAPFX_MODEL"
)

// SetVersion sets the version information displayed by --version.
// The main package calls it with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
	outDir     string
	format     string
	quality    int
}

// Execute runs the snapfx CLI with ctx, logging to stderr.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stderr).ExecuteContext(ctx)
}

// FormatError renders err for the terminal. Coded errors show their message
// followed by the code.
func FormatError(err error) string {
	code := errors.GetCode(err)
	if code == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s [%s]", errors.UserMessage(err), code)
}

// NewRootCommand builds the command tree. Logs go to logOut.
func NewRootCommand(logOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "snapfx",
		Short:         "snapfx applies Snap-style effects to images",
		Long:          `snapfx runs the Face Avoid, Snap Basic Filters, Snap Text and Low Quality Digital Look nodes over images, URLs and directories of images.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(logOut, level)

			cfg, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			logger.Debug("configuration loaded", "backend", cfg.Detect.Backend, "output", cfg.Output.OutputDir)

			ctx := withConfig(withLogger(cmd.Context(), logger), cfg)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("snapfx %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (toml, yaml or json; default "+config.GetConfigPath()+")")
	pf.StringVar(&opts.envFile, "env-file", "", "dotenv file with SNAPFX_* settings (default .env when present)")
	pf.StringVarP(&opts.outDir, "out", "o", "", "output directory")
	pf.StringVarP(&opts.format, "format", "f", "", "output format: jpg, png or webp")
	pf.IntVarP(&opts.quality, "quality", "q", 0, "output quality for jpg and webp (1-100)")

	root.AddCommand(newAvoidCmd())
	root.AddCommand(newFilterCmd())
	root.AddCommand(newTextCmd())
	root.AddCommand(newDegradeCmd())
	root.AddCommand(newLocateCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// loadSettings reads the dotenv file and the config file, then applies the
// environment and the output flags on top.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	if err := loadEnv(opts.envFile); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load(config.GetConfigPath())
	}
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.OutputDir = opts.outDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("quality") {
		cfg.Output.Quality = opts.quality
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnv loads path into the environment. Without a path, ./.env is loaded
// when it exists. Variables already set win.
func loadEnv(path string) error {
	if path == "" {
		if !utils.FileExists(".env") {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *config.Config) {
	if v := os.Getenv(envBackend); v != "" {
		cfg.Detect.Backend = v
	}
	if v := os.Getenv(envURL); v != "" {
		cfg.Detect.URL = v
	}
	if v := os.Getenv(envModel); v != "" {
		cfg.Detect.Model = v
	}
}
