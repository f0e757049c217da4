package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"loreweave/internal/util"
	"loreweave/pkg/analytics"
	"loreweave/pkg/common"
	"loreweave/pkg/graph"
	"loreweave/pkg/logger"
	"loreweave/pkg/store"
)

// flushMaxTries bounds mirror flush attempts per message. The mirror
// keeps its dirty sets on failure, so retries only replay what is
// still unsynced.
const flushMaxTries = 3

// IngestMessage carries one extraction pipeline result for a graph.
type IngestMessage struct {
	GraphID string                  `json:"graphId"`
	Result  common.ExtractionResult `json:"result"`
}

// AnalyzeMessage requests a derived-data rebuild for a graph:
// co-occurrence edges, PMI scores, communities and statistics.
type AnalyzeMessage struct {
	GraphID string `json:"graphId"`

	// SentenceLevel switches co-occurrence from note windows to
	// sentence windows.
	SentenceLevel bool `json:"sentenceLevel"`
}

type graphState struct {
	store    *graph.Store
	resolver *graph.Resolver
	mirror   *store.Mirror
}

// Processor owns the in-memory graphs the worker mutates. Message
// handling is serialized by the worker's single consumer loop, which is
// what makes the lock-free store safe here.
type Processor struct {
	backend store.GraphStorage
	graphs  map[string]*graphState
}

func NewProcessor(backend store.GraphStorage) *Processor {
	return &Processor{
		backend: backend,
		graphs:  make(map[string]*graphState),
	}
}

// graphFor returns the live state for a graph, hydrating it from the
// mirror on first use.
func (p *Processor) graphFor(ctx context.Context, graphID string) (*graphState, error) {
	if state, ok := p.graphs[graphID]; ok {
		return state, nil
	}

	s := graph.New()
	nodes, edges, err := p.backend.LoadGraph(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", graphID, err)
	}
	if len(nodes) > 0 {
		if err := s.Restore(nodes, edges); err != nil {
			logger.Warn("[Worker] Partial graph restore", "graphId", graphID, "err", err)
		}
		logger.Info("[Worker] Graph hydrated from storage",
			"graphId", graphID, "nodes", len(nodes), "edges", len(edges))
	}

	state := &graphState{
		store:    s,
		resolver: graph.NewResolver(s),
		mirror:   store.NewMirror(s, p.backend, graphID),
	}
	p.graphs[graphID] = state
	return state, nil
}

// ProcessIngest applies one extraction result to its graph and flushes
// the changes to storage.
func (p *Processor) ProcessIngest(ctx context.Context, body string) error {
	var msg IngestMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal ingest message: %w", err)
	}
	if msg.GraphID == "" {
		return fmt.Errorf("ingest message is missing graphId")
	}

	state, err := p.graphFor(ctx, msg.GraphID)
	if err != nil {
		return err
	}

	nodes, edges, err := state.resolver.ApplyExtractionResult(&msg.Result)
	if err != nil {
		// Partially applied batches still get mirrored so storage never
		// trails what the in-memory graph already holds.
		if flushErr := util.RetryErrWithContext(ctx, flushMaxTries, state.mirror.Flush); flushErr != nil {
			logger.Error("[Worker] Flush after failed ingest", "err", flushErr)
		}
		return fmt.Errorf("failed to apply extraction result: %w", err)
	}

	logger.Info("[Worker] Ingested extraction result",
		"graphId", msg.GraphID,
		"entities", len(nodes),
		"relationships", len(edges),
	)
	return util.RetryErrWithContext(ctx, flushMaxTries, state.mirror.Flush)
}

// ProcessAnalyze rebuilds derived data for a graph and persists the
// analysis snapshots.
func (p *Processor) ProcessAnalyze(ctx context.Context, body string) error {
	var msg AnalyzeMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal analyze message: %w", err)
	}
	if msg.GraphID == "" {
		return fmt.Errorf("analyze message is missing graphId")
	}

	state, err := p.graphFor(ctx, msg.GraphID)
	if err != nil {
		return err
	}

	builder := graph.NewCooccurrenceBuilder(state.store)
	var built int
	if msg.SentenceLevel {
		built, err = builder.BuildSentenceLevel()
	} else {
		built, err = builder.BuildNoteLevel()
	}
	if err != nil {
		return fmt.Errorf("failed to build co-occurrence edges: %w", err)
	}

	scored := builder.ScorePMI(builder.DocumentCount())

	communities := analytics.DetectCommunities(state.store)
	stats := analytics.ComputeStatistics(state.store)

	snapshots := make([]store.Community, len(communities))
	for i, members := range communities {
		snapshots[i] = store.Community{ID: i, Members: members}
	}
	if err := p.backend.SaveCommunities(ctx, msg.GraphID, snapshots); err != nil {
		return fmt.Errorf("failed to save communities: %w", err)
	}

	statSnap := store.Statistics{
		NodeCount:      stats.NodeCount,
		EdgeCount:      stats.EdgeCount,
		Density:        stats.Density,
		AverageDegree:  stats.AverageDegree,
		NodesByType:    make(map[string]int, len(stats.NodesByType)),
		EntitiesByKind: stats.EntitiesByKind,
	}
	for t, n := range stats.NodesByType {
		statSnap.NodesByType[string(t)] = n
	}
	if err := p.backend.SaveStatistics(ctx, msg.GraphID, statSnap); err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}

	logger.Info("[Worker] Analysis complete",
		"graphId", msg.GraphID,
		"cooccurrence", built,
		"pmiScored", scored,
		"communities", len(communities),
	)
	return util.RetryErrWithContext(ctx, flushMaxTries, state.mirror.Flush)
}
