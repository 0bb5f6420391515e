package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/0xflotus/Detox/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func statusSymbol(s core.StepStatus) string {
	switch s {
	case core.StatusPassed:
		return color(colorGreen) + "✓" + color(colorReset)
	case core.StatusFailed:
		return color(colorRed) + "✗" + color(colorReset)
	case core.StatusErrored:
		return color(colorRed) + "!" + color(colorReset)
	default:
		return color(colorGray) + "-" + color(colorReset)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// printResult prints one line per assertion, plus its message when it did not pass.
func printResult(w io.Writer, res core.AssertionResult) {
	desc := res.Description
	if desc == "" {
		desc = fmt.Sprintf("expectation %d", res.Index+1)
	}
	fmt.Fprintf(w, "  %s %s %s(%s, %d attempt(s))%s\n",
		statusSymbol(res.Status), desc,
		color(colorGray), formatDuration(res.Duration), res.Attempts, color(colorReset))
	if res.Status != core.StatusPassed && res.Message != "" {
		fmt.Fprintf(w, "      %s%s%s\n", color(colorDim), res.Message, color(colorReset))
	}
}

// printSummary prints the suite totals.
func printSummary(w io.Writer, suite *core.SuiteResult) {
	fmt.Fprintln(w, strings.Repeat("─", 60))
	statusColor := colorGreen
	if !suite.Status.IsSuccess() {
		statusColor = colorRed
	}
	fmt.Fprintf(w, "  %s%s%s %s: %d passed, %d failed, %d errored, %d skipped in %s\n",
		color(colorBold+statusColor), strings.ToUpper(suite.Status.String()), color(colorReset),
		suite.Name, suite.Passed, suite.Failed, suite.Errored, suite.Skipped,
		formatDuration(suite.Duration))
}
