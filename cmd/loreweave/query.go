package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a built snapshot from the CLI",
	}
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(queryPathCmd())
	cmd.AddCommand(queryNeighborsCmd())
	return cmd
}
