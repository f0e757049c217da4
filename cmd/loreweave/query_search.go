package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loreweave/internal/loader"
	"loreweave/pkg/query"
)

func querySearchCmd() *cobra.Command {
	var snapshotPath string
	var fuzzy bool
	cmd := &cobra.Command{
		Use:   "search <label>",
		Short: "Find nodes by label",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(snapshotPath, args[0], fuzzy)
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "graph.json", "Graph snapshot file")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Substring match instead of exact label")
	return cmd
}

func runQuerySearch(snapshotPath, label string, fuzzy bool) error {
	s, _, err := loader.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	nodes := query.SearchByLabel(s, label, fuzzy)
	if len(nodes) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, node := range nodes {
		kind := string(node.Type)
		if node.EntityKind != "" {
			kind = node.EntityKind
		}
		fmt.Fprintf(os.Stdout, "%s (%s) id=%s\n", node.Label, kind, node.ID)
	}
	return nil
}
