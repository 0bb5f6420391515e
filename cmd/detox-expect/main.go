// Command detox-expect evaluates element expectations against captured UI hierarchies.
package main

import "github.com/0xflotus/Detox/pkg/cli"

func main() {
	cli.Execute()
}
