// Command boundary runs scenarios against the effect and subscription
// runtime and inspects their journals.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/boundary/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
