package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loreweave/internal/loader"
	"loreweave/pkg/analytics"
)

func statsCmd() *cobra.Command {
	var snapshotPath string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for a built snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(snapshotPath)
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "graph.json", "Graph snapshot file")
	return cmd
}

func runStats(snapshotPath string) error {
	s, snap, err := loader.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	stats := analytics.ComputeStatistics(s)

	fmt.Fprintf(os.Stdout, "Project: %s\n", snap.Project)
	fmt.Fprintf(os.Stdout, "  Nodes:          %d\n", stats.NodeCount)
	fmt.Fprintf(os.Stdout, "  Edges:          %d\n", stats.EdgeCount)
	fmt.Fprintf(os.Stdout, "  Density:        %.4f\n", stats.Density)
	fmt.Fprintf(os.Stdout, "  Average degree: %.2f\n", stats.AverageDegree)

	if len(stats.NodesByType) > 0 {
		fmt.Fprintln(os.Stdout, "  Nodes by type:")
		for t, n := range stats.NodesByType {
			fmt.Fprintf(os.Stdout, "    %-10s %d\n", t, n)
		}
	}
	if len(stats.EntitiesByKind) > 0 {
		fmt.Fprintln(os.Stdout, "  Entities by kind:")
		for kind, n := range stats.EntitiesByKind {
			fmt.Fprintf(os.Stdout, "    %-10s %d\n", kind, n)
		}
	}

	return nil
}
