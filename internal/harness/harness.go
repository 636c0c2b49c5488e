package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/pushorder/internal/callstack"
	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/graph"
	"github.com/roach88/pushorder/internal/order"
)

// Run executes a scenario and evaluates its assertions.
//
// An ordering error is not a Run error: it is recorded in Result.Err for
// error assertions to inspect, and fails the scenario when nothing
// expected it. Run only fails when the scenario's inputs cannot be
// loaded.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	entries, err := scenarioEntries(scenario)
	if err != nil {
		return nil, err
	}

	namer, err := capture.NewNamer(scenario.BaseURL, scenario.RootID, 0)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result := NewResult()

	switch scenario.Policy {
	case PolicyStatic:
		p, _ := order.StaticPriority(entries, namer, logger)
		result.Priority = &p
	default:
		res, err := order.Plan(ctx, entries, namer, order.Options{
			CriticalTypes: criticalTypes(scenario.CriticalTypes),
			Logger:        logger,
		})
		if err != nil {
			result.Err = err
			result.verify = err
			break
		}
		result.FinalOrder = res.FinalOrder
		result.Layers = res.Layers
		for _, d := range res.Report.Dropped {
			result.Dropped = append(result.Dropped, d.ID)
		}
		result.verify = verifyResult(res)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if result.Err != nil && !expectsError(scenario) {
		result.AddError(fmt.Sprintf("unexpected %s error: %v", ErrorKind(result.Err), result.Err))
	}

	return result, nil
}

// verifyResult rebuilds the graph from the run's records and checks the
// order's structural properties.
func verifyResult(res *order.Result) error {
	if len(res.Records) == 0 {
		return nil
	}
	g, err := graph.Build(res.Root, res.Records)
	if err != nil {
		return err
	}
	if err := g.AssignLayers(); err != nil {
		return err
	}
	return order.Verify(g, res.FinalOrder)
}

func expectsError(s *Scenario) bool {
	for _, a := range s.Assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}

func scenarioEntries(s *Scenario) ([]capture.Entry, error) {
	if s.Capture != "" {
		c, err := capture.LoadFile(s.Capture)
		if err != nil {
			return nil, fmt.Errorf("load capture: %w", err)
		}
		return c.Entries, nil
	}

	entries := make([]capture.Entry, len(s.Resources))
	for i, r := range s.Resources {
		e := capture.Entry{
			Index:    i,
			URL:      resolveURL(s.BaseURL, r.URL),
			Method:   "GET",
			MimeType: r.MimeType,
			Size:     r.Size,
		}
		if t, ok := capture.ParseResourceType(r.Type); ok {
			e.ResourceType = t
			e.ExplicitType = true
		} else {
			e.ResourceType = capture.TypeFromMIME(r.MimeType)
		}
		e.Initiator = resourceInitiator(s.BaseURL, r)
		entries[i] = e
	}
	return entries, nil
}

func resourceInitiator(base string, r Resource) *capture.Initiator {
	kind := r.Initiator
	if kind == "none" {
		return nil
	}
	if kind == "" {
		kind = capture.InitiatorParser
		if len(r.Stack) > 0 {
			kind = "script"
		}
	}

	init := &capture.Initiator{Type: kind}
	var parent *callstack.Stack
	for i := len(r.Stack) - 1; i >= 0; i-- {
		frameURL := ""
		if r.Stack[i] != "" {
			frameURL = resolveURL(base, r.Stack[i])
		}
		parent = &callstack.Stack{
			CallFrames: []callstack.Frame{{URL: frameURL}},
			Parent:     parent,
		}
	}
	init.Stack = parent
	return init
}

func resolveURL(base, u string) string {
	if strings.Contains(u, "://") {
		return u
	}
	return base + strings.TrimPrefix(u, "/")
}

func criticalTypes(names []string) []capture.ResourceType {
	var out []capture.ResourceType
	for _, name := range names {
		if t, ok := capture.ParseResourceType(name); ok {
			out = append(out, t)
		}
	}
	return out
}
