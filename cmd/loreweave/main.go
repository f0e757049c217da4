package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "loreweave",
		Short: "Unified knowledge-graph engine for notes and extracted entities",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(buildCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(enqueueCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
