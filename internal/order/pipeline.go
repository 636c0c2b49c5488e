package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/extract"
	"github.com/roach88/pushorder/internal/graph"
)

// Options configures Plan.
type Options struct {
	// CriticalTypes overrides capture.CriticalTypes.
	CriticalTypes []capture.ResourceType

	Logger *slog.Logger
}

// Result is the outcome of one dependency-aware ordering run.
type Result struct {
	Root       string           `json:"root"`
	Records    []capture.Record `json:"-"`
	Report     extract.Report   `json:"report"`
	Layers     map[string]int   `json:"layers"`
	Plans      []LayerPlan      `json:"plans"`
	FinalOrder []string         `json:"final_order"`
}

// Plan runs the dependency-aware policy over a capture: extract the
// critical resources and their dependencies, build and layer the graph,
// order each layer and merge the layers into one sequence.
//
// Any fatal error aborts the whole run; no partial order is returned. A
// capture without critical resources yields an empty order.
func Plan(ctx context.Context, entries []capture.Entry, namer *capture.Namer, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ex, err := extract.Extract(entries, namer, extract.Options{
		CriticalTypes: opts.CriticalTypes,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("extract dependencies: %w", err)
	}
	res := &Result{
		Root:       ex.Root,
		Records:    ex.Records,
		Report:     ex.Report,
		Layers:     map[string]int{},
		FinalOrder: []string{},
	}
	if len(ex.Records) == 0 {
		logger.Warn("capture has no critical resources")
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := graph.Build(ex.Root, ex.Records)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	if err := g.AssignLayers(); err != nil {
		return nil, fmt.Errorf("assign layers: %w", err)
	}
	logger.Debug("assigned layers", "nodes", g.Len(), "max_layer", g.MaxLayer())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Layers = g.LayerOf()
	res.Plans = OrderLayers(g)
	res.FinalOrder = Merge(res.Plans)

	if err := Verify(g, res.FinalOrder); err != nil {
		return nil, err
	}
	return res, nil
}
