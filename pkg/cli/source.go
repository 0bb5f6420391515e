package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/driver/remote"
	"github.com/0xflotus/Detox/pkg/hierarchy"
)

var sessionFlag = &cli.StringFlag{
	Name:  "session",
	Usage: "WebDriver session ID when --source is a server URL",
}

// isRemote reports whether src names a WebDriver server rather than a file.
func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// newSourceProvider returns a provider for a page source file or server URL.
func newSourceProvider(src, session, platform string) core.TreeProvider {
	if !isRemote(src) {
		return &pageSource{path: src, platform: platform}
	}
	client := remote.NewClient(src, 0)
	client.SetSession(session)
	return &remote.Source{
		Client: client,
		Parse: func(data string) (core.Tree, error) {
			tree, err := parsePageSource(data, platform)
			if err != nil {
				return nil, err
			}
			return tree, nil
		},
	}
}

// readSource returns the raw page source from a file or server URL.
func readSource(src, session string) (string, error) {
	if isRemote(src) {
		client := remote.NewClient(src, 0)
		client.SetSession(session)
		return client.Source()
	}
	data, err := os.ReadFile(src) //#nosec G304 -- user-provided page source
	if err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return string(data), nil
}

// pageSource is a core.TreeProvider that re-reads and parses a page source
// file on every fetch, so a file rewritten by another process is picked up
// by the next attempt.
type pageSource struct {
	path     string
	platform string // ios, android, json; empty = detect
}

var _ core.TreeProvider = (*pageSource)(nil)

func (s *pageSource) Tree() (core.Tree, error) {
	data, err := readSource(s.path, "")
	if err != nil {
		return nil, err
	}
	tree, err := parsePageSource(data, s.platform)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func parsePageSource(data, platform string) (*hierarchy.Tree, error) {
	if platform == "" {
		platform = detectPlatform(data)
	}
	switch platform {
	case "ios":
		return hierarchy.ParseIOS(data)
	case "android":
		return hierarchy.ParseAndroid(data)
	case "json":
		return hierarchy.ParseJSON(data, nil)
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
}

// detectPlatform guesses the page source format from its content.
func detectPlatform(data string) string {
	trimmed := strings.TrimSpace(data)
	switch {
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return "json"
	case strings.Contains(trimmed, "<hierarchy"):
		return "android"
	default:
		return "ios"
	}
}
