// Package cli provides the command-line interface for detox-expect.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/0xflotus/Detox/pkg/config"
	"github.com/0xflotus/Detox/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Page source format (ios, android, json); detected from content when empty",
		EnvVars: []string{"DETOX_EXPECT_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config.yaml (default: config.yaml or config.yml in the working directory)",
		EnvVars: []string{"DETOX_EXPECT_CONFIG"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Write the diagnostic log to stderr",
		EnvVars: []string{"DETOX_EXPECT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "detox-expect",
		Usage:   "Evaluate element expectations against captured UI hierarchies",
		Version: Version,
		Description: `detox-expect compiles serialized matchers and expectations and evaluates
them against a page source (iOS WDA XML, Android UIAutomator XML or JSON),
retrying until each expectation holds or its timeout elapses.

Examples:
  detox-expect expect --source page.xml login.yaml
  detox-expect describe login.js
  detox-expect describe --matcher 'by.id("submit").and(by.type("UIButton"))'
  detox-expect hierarchy page.xml`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			expectCommand,
			describeCommand,
			hierarchyCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config, or config.yaml / config.yml from the working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p := c.String("platform"); p != "" {
		cfg.Platform = p
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setupLogger directs the diagnostic log to stderr (--verbose) or the
// configured rotating file. The returned func closes it.
func setupLogger(c *cli.Context, cfg *config.Config) func() {
	if c.Bool("verbose") {
		logger.InitWriter(os.Stderr)
		return logger.Close
	}
	path, rotation := cfg.Rotation()
	if path == "" {
		return func() {}
	}
	if err := logger.InitWithRotation(path, rotation); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
		return func() {}
	}
	return logger.Close
}
