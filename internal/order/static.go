package order

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/roach88/pushorder/internal/artifact"
	"github.com/roach88/pushorder/internal/capture"
)

// staticBuckets maps a resource type to its priority bucket.
var staticBuckets = map[capture.ResourceType]string{
	capture.TypeDocument:   artifact.BucketHighest,
	capture.TypeStylesheet: artifact.BucketHigh,
	capture.TypeScript:     artifact.BucketNormal,
	capture.TypeFont:       artifact.BucketLow,
	capture.TypeImage:      artifact.BucketLowest,
	capture.TypeXHR:        artifact.BucketBackground,
	capture.TypeManifest:   artifact.BucketBackground,
	capture.TypeOther:      artifact.BucketBackground,
}

// StaticReport counts what the static policy left out.
type StaticReport struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`

	// Unbucketed lists the indexes of entries whose type fits no bucket.
	Unbucketed []int `json:"unbucketed,omitempty"`
}

type staticEntry struct {
	id   string
	size int64
}

// StaticPriority orders entries by type and size alone, ignoring
// dependencies. Each bucket is sorted by ascending size, then repeated ids
// are dropped keeping the first (smallest) occurrence.
//
// namer is bound to the first document entry, or to the first entry when
// there is no document.
func StaticPriority(entries []capture.Entry, namer *capture.Namer, logger *slog.Logger) (artifact.PriorityOrder, StaticReport) {
	if logger == nil {
		logger = slog.Default()
	}

	var report StaticReport
	if len(entries) == 0 {
		return artifact.PriorityOrder{}.Normalize(), report
	}

	rootURL := entries[0].URL
	for _, e := range entries {
		if e.ResourceType == capture.TypeDocument && !unknownType(e) {
			rootURL = e.URL
			break
		}
	}
	namer.BindRoot(rootURL)

	grouped := make(map[string][]staticEntry, len(artifact.PriorityBuckets))
	for _, e := range entries {
		bucket, ok := staticBuckets[e.ResourceType]
		if !ok || unknownType(e) {
			logger.Warn("no priority bucket for resource",
				"index", e.Index,
				"url", e.URL,
				"resource_type", cmp.Or(e.RawType, string(e.ResourceType)))
			report.Unbucketed = append(report.Unbucketed, e.Index)
			continue
		}
		grouped[bucket] = append(grouped[bucket], staticEntry{id: namer.ID(e.URL), size: e.Size})
	}

	var out artifact.PriorityOrder
	for _, name := range artifact.PriorityBuckets {
		list := grouped[name]
		slices.SortStableFunc(list, func(a, b staticEntry) int {
			return cmp.Compare(a.size, b.size)
		})

		dst := out.Bucket(name)
		seen := make(map[string]bool, len(list))
		for _, se := range list {
			if seen[se.id] {
				report.Duplicates++
				continue
			}
			seen[se.id] = true
			*dst = append(*dst, se.id)
			report.Accepted++
		}
	}

	logger.Debug("static priority order",
		"accepted", report.Accepted,
		"duplicates", report.Duplicates,
		"unbucketed", len(report.Unbucketed))

	return out.Normalize(), report
}

// unknownType reports whether the capture named a type outside the known
// set. Such entries carry a MIME-derived ResourceType that the static policy
// does not trust.
func unknownType(e capture.Entry) bool {
	return e.RawType != "" && !e.ExplicitType
}
