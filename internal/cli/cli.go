package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dcmdict/pkg/buildinfo"
	"github.com/matzehuels/dcmdict/pkg/cache"
	"github.com/matzehuels/dcmdict/pkg/config"
	"github.com/matzehuels/dcmdict/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "dcmdict"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command results. Logs and progress go to the logger.
	Out io.Writer

	configPath string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "dcmdict extracts the DICOM data dictionary from the docbook sources of the standard",
		Long: `dcmdict reads the docbook edition of the DICOM standard and extracts the
data dictionary, the UID registry, and every SOP class with its IOD, modules
and nested attributes, reduced to what the selected SOP classes reach.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML configuration file")

	// Register all subcommands
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the --config file on top of the defaults. A file cache
// without a directory uses cacheDir.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Cache.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	return cfg, nil
}

// runnerOpts are the cache flags shared by commands that resolve.
type runnerOpts struct {
	noCache bool
	edition string
}

func (o *runnerOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching of downloaded parts")
	cmd.Flags().StringVar(&o.edition, "edition", "", "label isolating cached parts of one edition (e.g. 2024b)")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, opts runnerOpts) (*pipeline.Runner, error) {
	if opts.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	cc, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	var keyer cache.Keyer
	if opts.edition != "" {
		keyer = cache.NewScopedKeyer(nil, opts.edition+":")
	}
	return pipeline.NewRunner(cfg, cc, keyer, c.Logger), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dcmdict/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
