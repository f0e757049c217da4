package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"loreweave/internal/loader"
	"loreweave/pkg/query"
)

func queryPathCmd() *cobra.Command {
	var snapshotPath string
	cmd := &cobra.Command{
		Use:   "path <from-id> <to-id>",
		Short: "Find the shortest path between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryPath(snapshotPath, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "graph.json", "Graph snapshot file")
	return cmd
}

func runQueryPath(snapshotPath, fromID, toID string) error {
	s, _, err := loader.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	path := query.ShortestPath(s, fromID, toID)
	if path == nil {
		fmt.Fprintln(os.Stdout, "No path found.")
		return nil
	}

	labels := make([]string, len(path.Nodes))
	for i, id := range path.Nodes {
		labels[i] = id
		if node := s.GetNode(id); node != nil && node.Label != "" {
			labels[i] = node.Label
		}
	}

	fmt.Fprintf(os.Stdout, "%s\n", strings.Join(labels, " -> "))
	fmt.Fprintf(os.Stdout, "  hops=%d weight=%.2f\n", path.Hops, path.Weight)
	return nil
}
