package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"loreweave/internal/queue"
	"loreweave/internal/util"
	"loreweave/pkg/logger"
	"loreweave/pkg/logger/console"
)

func enqueueCmd() *cobra.Command {
	var sentenceLevel bool
	cmd := &cobra.Command{
		Use:   "enqueue <graph-id>",
		Short: "Queue an analysis rebuild for a graph on the worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(cmd.Context(), args[0], sentenceLevel)
		},
	}
	cmd.Flags().BoolVar(&sentenceLevel, "sentence-level", false, "Use sentence windows for co-occurrence")
	return cmd
}

func runEnqueue(ctx context.Context, graphID string, sentenceLevel bool) error {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	conn := queue.Init(ctx)
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(queue.AnalyzeMessage{
		GraphID:       graphID,
		SentenceLevel: sentenceLevel,
	})
	if err != nil {
		return err
	}

	if err := queue.PublishFIFO(ch, queue.AnalyzeQueue, body); err != nil {
		return err
	}
	logger.Info("Queued analysis", "graphId", graphID, "queue", queue.AnalyzeQueue)
	return nil
}
