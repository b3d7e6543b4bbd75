// Command wavetest runs the Wave compiler conformance suite.
package main

import (
	"fmt"
	"os"

	"github.com/wavelang/wavetest/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wavetest: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
