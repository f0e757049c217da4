package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"loreweave/internal/loader"
	"loreweave/internal/util"
	"loreweave/pkg/analytics"
)

func analyzeCmd() *cobra.Command {
	var snapshotPath string
	var measure string
	var top int
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute centrality and communities over a built snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(snapshotPath, measure, top)
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "graph.json", "Graph snapshot file")
	cmd.Flags().StringVar(&measure, "measure", "degree", "Centrality measure (degree, betweenness, closeness)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of top-ranked nodes to print")
	return cmd
}

func runAnalyze(snapshotPath, measure string, top int) error {
	s, snap, err := loader.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	var scores map[string]float64
	switch measure {
	case "betweenness":
		scores = analytics.BetweennessCentrality(s)
	case "closeness":
		scores = analytics.ClosenessCentrality(s)
	case "degree":
		scores = analytics.DegreeCentrality(s)
	default:
		return fmt.Errorf("unknown measure: %s", measure)
	}

	type ranked struct {
		id    string
		score float64
	}
	rankings := make([]ranked, 0, len(scores))
	for id, score := range scores {
		rankings = append(rankings, ranked{id, score})
	}
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].score != rankings[j].score {
			return rankings[i].score > rankings[j].score
		}
		return rankings[i].id < rankings[j].id
	})

	limit := util.Max(util.Min(top, len(rankings)), 0)
	fmt.Fprintf(os.Stdout, "Project: %s\n\n", snap.Project)
	fmt.Fprintf(os.Stdout, "Top %d by %s centrality:\n", limit, measure)
	for i, r := range rankings[:limit] {
		label := r.id
		if node := s.GetNode(r.id); node != nil && node.Label != "" {
			label = node.Label
		}
		fmt.Fprintf(os.Stdout, "  %2d. %-40s %.4f\n", i+1, label, r.score)
	}

	communities := analytics.DetectCommunities(s)
	shown := util.Max(util.Min(top, len(communities)), 0)
	fmt.Fprintf(os.Stdout, "\nCommunities: %d\n", len(communities))
	for i, members := range communities[:shown] {
		fmt.Fprintf(os.Stdout, "  #%d: %d members\n", i+1, len(members))
	}
	if shown < len(communities) {
		fmt.Fprintf(os.Stdout, "  ... and %d more\n", len(communities)-shown)
	}

	return nil
}
