package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/0xflotus/Detox/pkg/invocation"
	"github.com/0xflotus/Detox/pkg/jsengine"
	"github.com/0xflotus/Detox/pkg/predicate"
)

var describeCommand = &cli.Command{
	Name:      "describe",
	Usage:     "Print the rendered description of expectations or a matcher",
	ArgsUsage: "[suite-file]",
	Description: `Compile a suite or a single matcher expression without evaluating it and
print the descriptions used in failure messages. Construction errors are
reported the same way the expect command reports them.

Examples:
  detox-expect describe login.yaml
  detox-expect describe --matcher 'by.text("Submit").withAncestor(by.id("form")).not'`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "matcher",
			Aliases: []string{"m"},
			Usage:   "Matcher expression written with by.*",
		},
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Variables for ${...} expansion and scripts (KEY=VALUE)",
		},
	},
	Action: runDescribe,
}

func runDescribe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts := cfg.PredicateOptions()

	if expr := c.String("matcher"); expr != "" {
		if c.NArg() > 0 {
			return fmt.Errorf("--matcher cannot be combined with a suite file")
		}
		engine, err := jsengine.New()
		if err != nil {
			return err
		}
		m, err := engine.Matcher(expr)
		if err != nil {
			return err
		}
		p, err := predicate.FromMap(m, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, p.Describe())
		return nil
	}

	if c.NArg() != 1 {
		return fmt.Errorf("expected a suite file or --matcher")
	}
	env := mergeEnv(cfg.Env, parseEnvVars(c.StringSlice("env")))
	suite, err := invocation.ParseFile(c.Args().First(), env)
	if err != nil {
		return err
	}
	exps, err := suite.Expectations(opts)
	if err != nil {
		return err
	}
	for i, exp := range exps {
		fmt.Fprintf(c.App.Writer, "%d. %s\n", i+1, exp.Describe())
	}
	return nil
}
