package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/executor"
	"github.com/0xflotus/Detox/pkg/hierarchy"
	"github.com/0xflotus/Detox/pkg/invocation"
	"github.com/0xflotus/Detox/pkg/logger"
	"github.com/0xflotus/Detox/pkg/report"
)

var expectCommand = &cli.Command{
	Name:      "expect",
	Usage:     "Evaluate expectations against a page source",
	ArgsUsage: "<suite-file>",
	Description: `Evaluate every expectation of a suite (.yaml, .yml, .json or .js) against
a page source. The source is re-read on every attempt, so expectations with
a timeout observe updates written while they are retrying. A source starting
with http:// or https:// is fetched from a WebDriver server (WebDriverAgent,
UIAutomator2 or Appium) instead of read from disk.

Examples:
  detox-expect expect --source page.xml login.yaml
  detox-expect expect --source tree.json -e USER=alice --output ./reports login.yaml
  detox-expect expect --source page.xml --timeout 2000 --allure login.js
  detox-expect expect --source http://localhost:8100 login.yaml`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Page source file (iOS WDA XML, Android UIAutomator XML or JSON) or WebDriver server URL",
			Required: true,
		},
		sessionFlag,
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Variables for ${...} expansion and scripts (KEY=VALUE)",
		},
		&cli.Float64Flag{
			Name:  "timeout",
			Usage: "Default timeout in ms for expectations without one (overrides config)",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Delay between attempts (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining expectations after the first failure",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Write report.json and failure artifacts to this directory",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results (requires --output)",
		},
	},
	Action: runExpect,
}

func runExpect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one suite file, got %d", c.NArg())
	}
	if c.Bool("allure") && c.String("output") == "" {
		return fmt.Errorf("--allure requires --output")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer setupLogger(c, cfg)()

	env := mergeEnv(cfg.Env, parseEnvVars(c.StringSlice("env")))
	suite, err := invocation.ParseFile(c.Args().First(), env)
	if err != nil {
		return err
	}
	platform := cfg.Platform
	if platform == "" {
		platform = suite.Platform
	}
	logger.Info("=== expect started ===")
	logger.Info("Suite: %s (%d expectation(s))", suite.SourcePath, len(suite.Invocations))
	logger.Info("Source: %s, platform: %q", c.String("source"), platform)

	runCfg := executor.RunnerConfig{
		Options:        cfg.PredicateOptions(),
		Interval:       cfg.RetryInterval,
		DefaultTimeout: cfg.DefaultTimeout(),
		StopOnFail:     c.Bool("stop-on-fail"),
		Artifacts:      cfg.ArtifactConfig(),
		OnAssertionEnd: func(res core.AssertionResult) {
			printResult(c.App.Writer, res)
		},
	}
	if c.IsSet("timeout") {
		runCfg.DefaultTimeout = time.Duration(c.Float64("timeout") * float64(time.Millisecond))
	}
	if c.IsSet("interval") {
		runCfg.Interval = c.Duration("interval")
	}
	if c.String("output") != "" {
		runCfg.Collector = hierarchy.Collector{}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source := newSourceProvider(c.String("source"), c.String("session"), platform)
	fmt.Fprintf(c.App.Writer, "\n  %s%s%s (%s)\n", color(colorCyan), suite.Name, color(colorReset), suite.SourcePath)

	result, err := executor.New(source, runCfg).Run(ctx, suite)
	if err != nil {
		return err
	}
	printSummary(c.App.Writer, result)

	if out := c.String("output"); out != "" {
		if err := report.Write(out, result); err != nil {
			return err
		}
		if c.Bool("allure") {
			if err := report.GenerateAllure(out); err != nil {
				fmt.Fprintf(c.App.ErrWriter, "  %s⚠%s Warning: failed to generate Allure results: %v\n",
					color(colorYellow), color(colorReset), err)
			}
		}
		fmt.Fprintf(c.App.Writer, "  Report: %s\n", filepath.Join(out, report.ReportFile))
	}

	if !result.Status.IsSuccess() {
		return fmt.Errorf("%d of %d expectation(s) did not pass", result.Failed+result.Errored, result.Total)
	}
	return nil
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}

// mergeEnv returns base overlaid with override.
func mergeEnv(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
