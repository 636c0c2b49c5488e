// Package extract derives per-resource dependency lists from a capture.
//
// Only critical resources (document, script, stylesheet, font by default)
// take part. The first accepted entry is the root document. Each later
// entry gets its dependencies from its initiator:
//
//   - parser or other initiator: the root document alone
//   - initiator with a call stack: the stack's dependency chain,
//     outermost resource first
//   - anything else: the entry is dropped and reported
//
// Duplicate fetches of the same resource collapse onto the first one.
package extract

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/pushorder/internal/callstack"
	"github.com/roach88/pushorder/internal/capture"
)

// ErrUnclassifiableInitiator is the kind of every UnclassifiableInitiatorError.
var ErrUnclassifiableInitiator = errors.New("unclassifiable initiator")

// UnclassifiableInitiatorError describes an entry dropped because its
// initiator carries no dependency information. It is soft: extraction
// continues and the error is collected in the Report.
type UnclassifiableInitiatorError struct {
	Index         int
	ID            string
	InitiatorType string
}

func (e *UnclassifiableInitiatorError) Error() string {
	return fmt.Sprintf("entry %d (%s): %s %q", e.Index, e.ID, ErrUnclassifiableInitiator, e.InitiatorType)
}

func (e *UnclassifiableInitiatorError) Unwrap() error { return ErrUnclassifiableInitiator }

// Report counts what extraction filtered out.
type Report struct {
	Accepted    int                             `json:"accepted"`
	NonCritical int                             `json:"non_critical"`
	Duplicates  int                             `json:"duplicates"`
	Dropped     []*UnclassifiableInitiatorError `json:"-"`
}

// Result is the outcome of Extract.
type Result struct {
	Root    string
	Records []capture.Record
	Report  Report
}

// Options configures Extract.
type Options struct {
	// CriticalTypes overrides capture.CriticalTypes.
	CriticalTypes []capture.ResourceType

	Logger *slog.Logger
}

// Extract filters entries to the critical set and derives each one's
// dependency list. Identifiers come from namer, which is bound to the root
// document URL.
//
// A critical entry without an initiator fails with
// *capture.MissingFieldError.
func Extract(entries []capture.Entry, namer *capture.Namer, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	critical := opts.CriticalTypes
	if len(critical) == 0 {
		critical = capture.CriticalTypes
	}
	isCritical := make(map[capture.ResourceType]bool, len(critical))
	for _, t := range critical {
		isCritical[t] = true
	}

	res := &Result{}
	seen := make(map[string]struct{}, len(entries))
	rootBound := false

	for _, e := range entries {
		if !isCritical[e.ResourceType] {
			res.Report.NonCritical++
			continue
		}

		var id string
		if !rootBound {
			id = namer.BindRoot(e.URL)
			res.Root = id
			rootBound = true
		} else {
			id = namer.ID(e.URL)
		}

		if _, dup := seen[id]; dup {
			res.Report.Duplicates++
			logger.Debug("skipping duplicate fetch", "id", id, "index", e.Index)
			continue
		}
		seen[id] = struct{}{}

		if e.Initiator == nil {
			return nil, &capture.MissingFieldError{Index: e.Index, URL: e.URL, Field: "initiator"}
		}

		deps, ok := dependencies(e.Initiator, res.Root, namer)
		if !ok {
			if id == res.Root {
				// The root anchors every parser-discovered resource and is
				// kept even when its own initiator says nothing.
				deps = nil
			} else {
				drop := &UnclassifiableInitiatorError{Index: e.Index, ID: id, InitiatorType: e.Initiator.Type}
				res.Report.Dropped = append(res.Report.Dropped, drop)
				logger.Warn("dropping entry", "id", id, "initiator", e.Initiator.Type)
				continue
			}
		}
		if e.Initiator.Stack != nil {
			logger.Debug("flattened call stack",
				"id", id, "levels", callstack.Depth(e.Initiator.Stack), "dependencies", len(deps))
		}

		res.Records = append(res.Records, capture.Record{
			ID:           id,
			MimeType:     e.MimeType,
			Size:         e.Size,
			Type:         e.ResourceType,
			Dependencies: deps,
		})
		res.Report.Accepted++
	}

	logger.Debug("extracted dependencies",
		"root", res.Root,
		"accepted", res.Report.Accepted,
		"non_critical", res.Report.NonCritical,
		"duplicates", res.Report.Duplicates,
		"dropped", len(res.Report.Dropped))

	return res, nil
}

// dependencies classifies an initiator. ok is false when it carries no
// dependency information.
func dependencies(init *capture.Initiator, root string, namer *capture.Namer) ([]string, bool) {
	switch {
	case init.Type == capture.InitiatorParser || init.Type == capture.InitiatorOther:
		return []string{root}, true
	case init.Stack != nil:
		return callstack.DependencyChain(init.Stack, namer.ID), true
	}
	return nil, false
}
