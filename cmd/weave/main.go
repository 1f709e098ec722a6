package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weave/internal/config"
	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┌─┐┬  ┬┌─┐
  ║║║├┤ ├─┤└┐┌┘├┤
  ╚╩╝└─┘┴ ┴ └┘ └─┘
`

// cli holds state shared by subcommands. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	dir     string
	level   string
	format  string
	verbose bool

	cfg    *config.Config
	logger *logging.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "weave",
		Short: "A reactive UI engine for Go",
		Long: `Weave renders components from HTML templates and keeps them in sync
with reactive state.

  • Fine-grained dependency tracking
  • Templates compiled once, static subtrees hoisted
  • Keyed list reconciliation with minimal moves
  • Batched updates on a microtask queue`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.dir, "dir", ".", "Directory containing weave.json")
	flags.StringVar(&c.level, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&c.format, "log-format", "", "Log format (text, json)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Shorthand for --log-level=debug")

	rootCmd.AddCommand(
		compileCmd(c),
		serveCmd(c),
		benchCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration, applies flags over it and builds the
// logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.dir)
	if err != nil {
		return err
	}
	if c.level != "" {
		cfg.Log.Level = c.level
	}
	if c.format != "" {
		cfg.Log.Format = c.format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if c.verbose {
		logger.Level.Set(slog.LevelDebug)
	}
	if path := cfg.Path(); path != "" {
		logger.Debug("config loaded", "path", path)
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

// printBanner prints the Weave ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
