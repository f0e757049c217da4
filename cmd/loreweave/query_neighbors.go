package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loreweave/internal/loader"
	"loreweave/pkg/query"
)

func queryNeighborsCmd() *cobra.Command {
	var snapshotPath string
	var depth int
	cmd := &cobra.Command{
		Use:   "neighbors <node-id>",
		Short: "List nodes within N hops of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryNeighbors(snapshotPath, args[0], depth)
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "graph.json", "Graph snapshot file")
	cmd.Flags().IntVar(&depth, "depth", 1, "Maximum hop distance")
	return cmd
}

func runQueryNeighbors(snapshotPath, id string, depth int) error {
	s, _, err := loader.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	nodes := query.Neighborhood(s, id, depth)
	if len(nodes) == 0 {
		fmt.Fprintln(os.Stdout, "Node not found.")
		return nil
	}

	for _, node := range nodes {
		fmt.Fprintf(os.Stdout, "%s (%s) id=%s\n", node.Label, node.Type, node.ID)
	}
	return nil
}
