// Command skirmish runs the duel server and its operator tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hexhammer/skirmish/internal/server"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "skirmish",
		Short:        "Hex-grid skirmish duel server",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), validateCmd(), autoplayCmd(), initdbCmd())

	server.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
