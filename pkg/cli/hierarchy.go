package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/0xflotus/Detox/pkg/hierarchy"
)

var hierarchyCommand = &cli.Command{
	Name:      "hierarchy",
	Usage:     "Print a parsed page source",
	ArgsUsage: "<page-source|url>",
	Description: `Parse a page source the way the expect command does and print it in the
JSON hierarchy format, or as an indented outline with --compact.

Examples:
  detox-expect hierarchy page.xml
  detox-expect -p android hierarchy --compact window_dump.xml
  detox-expect hierarchy --session 7f3c http://localhost:4723`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "Print one line per element instead of JSON",
		},
		sessionFlag,
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one page source file or server URL")
		}
		data, err := readSource(c.Args().First(), c.String("session"))
		if err != nil {
			return err
		}
		tree, err := parsePageSource(data, c.String("platform"))
		if err != nil {
			return err
		}

		if c.Bool("compact") {
			printOutline(c.App.Writer, tree)
			return nil
		}
		out, err := tree.Dump()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(out))
		return nil
	},
}

// printOutline prints each element indented by depth with its attributes.
func printOutline(w io.Writer, tree *hierarchy.Tree) {
	for _, e := range tree.Elements() {
		keys := make([]string, 0, len(e.Attributes))
		for k := range e.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var attrs []string
		for _, k := range keys {
			attrs = append(attrs, fmt.Sprintf("%s=%q", k, e.Attributes[k]))
		}
		if !tree.IsVisible(e) {
			attrs = append(attrs, color(colorGray)+"hidden"+color(colorReset))
		}
		if pos, err := tree.ScalarPosition(e); err == nil {
			attrs = append(attrs, fmt.Sprintf("position=%g", pos))
		}
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", e.Depth), e.Type, strings.Join(attrs, " "))
	}
}
