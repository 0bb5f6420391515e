package remote

import (
	"fmt"

	"github.com/0xflotus/Detox/pkg/core"
)

// Source is a core.TreeProvider that fetches and parses the server's page
// source on every call.
type Source struct {
	Client *Client
	Parse  func(source string) (core.Tree, error)
}

var _ core.TreeProvider = (*Source)(nil)

// Tree fetches the current page source and parses it.
func (s *Source) Tree() (core.Tree, error) {
	data, err := s.Client.Source()
	if err != nil {
		return nil, fmt.Errorf("fetch page source: %w", err)
	}
	return s.Parse(data)
}
