package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loreweave/internal/config"
	"loreweave/internal/loader"
	"loreweave/pkg/graph"
)

var buildConfigPath string

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the graph from extraction result files",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}
	cmd.Flags().StringVar(&buildConfigPath, "config", "loreweave.yaml", "Project config file")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(buildConfigPath)
	if err != nil {
		return err
	}

	results, err := loader.LoadExtractionFiles(ctx, cfg.Inputs)
	if err != nil {
		return err
	}

	s := graph.New()
	resolver := graph.NewResolver(s)
	apply := loader.NewApplySerialized(resolver)

	var totalEntities, totalRelationships int
	var failures []error
	for i := range results {
		entities, relationships, err := apply.Apply(&results[i].Result)
		totalEntities += entities
		totalRelationships += relationships
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", results[i].Path, err))
		}
	}

	builder := graph.NewCooccurrenceBuilder(s)
	var built int
	if cfg.SentenceLevel {
		built, err = builder.BuildSentenceLevel()
	} else {
		built, err = builder.BuildNoteLevel()
	}
	if err != nil {
		return err
	}
	scored := builder.ScorePMI(builder.DocumentCount())

	if err := loader.SaveSnapshot(cfg.Output, cfg.Project, s); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Build complete.")
	fmt.Fprintf(os.Stdout, "  Files ingested:      %d\n", len(results))
	fmt.Fprintf(os.Stdout, "  Entities resolved:   %d\n", totalEntities)
	fmt.Fprintf(os.Stdout, "  Relationships:       %d\n", totalRelationships)
	fmt.Fprintf(os.Stdout, "  Co-occurrence edges: %d\n", built)
	fmt.Fprintf(os.Stdout, "  PMI scored:          %d\n", scored)
	fmt.Fprintf(os.Stdout, "  Snapshot:            %s\n", cfg.Output)

	if len(failures) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(failures))
		for _, item := range failures {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("build completed with errors")
	}

	return nil
}
