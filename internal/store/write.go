package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/pushorder/internal/artifact"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one archived artifact.
type Run struct {
	ID             string        `json:"id"`
	Seq            int64         `json:"seq"`
	Policy         artifact.Kind `json:"policy"`
	Source         string        `json:"source"`
	CaptureDigest  string        `json:"capture_digest"`
	ArtifactDigest string        `json:"artifact_digest"`

	// Artifact is the artifact JSON exactly as written.
	Artifact []byte `json:"-"`

	// Entries is only filled by ReadRun.
	Entries []Entry `json:"entries,omitempty"`
}

// Entry is one ordered resource of a run.
type Entry struct {
	Bucket     string `json:"bucket,omitempty"`
	Position   int    `json:"position"`
	ResourceID string `json:"resource_id"`
}

// NewRunID returns a time-sortable UUIDv7 run id.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WriteRun archives a produced artifact. The run gets a fresh UUIDv7 id
// and the next seq; both are returned in the Run.
//
// source names the capture; captureDigest identifies its bytes (see
// artifact.CaptureDigest).
func (s *Store) WriteRun(ctx context.Context, source, captureDigest string, a artifact.Artifact) (*Run, error) {
	digest, err := a.Digest()
	if err != nil {
		return nil, fmt.Errorf("write run: %w", err)
	}
	data, err := artifact.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("write run: %w", err)
	}

	run := &Run{
		ID:             NewRunID(),
		Policy:         a.Kind(),
		Source:         source,
		CaptureDigest:  captureDigest,
		ArtifactDigest: digest,
		Artifact:       data,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return nil, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, policy, source, capture_digest, artifact_digest, artifact)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		string(run.Policy),
		run.Source,
		run.CaptureDigest,
		run.ArtifactDigest,
		string(run.Artifact),
	)
	if err != nil {
		return nil, fmt.Errorf("write run: %w", err)
	}

	if err := insertEntries(ctx, tx, run.ID, a.Entries()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, runID string, buckets []artifact.Bucket) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_entries (run_id, bucket, position, resource_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write run entries: %w", err)
	}
	defer stmt.Close()

	for _, b := range buckets {
		for pos, id := range b.IDs {
			if _, err := stmt.ExecContext(ctx, runID, b.Name, pos, id); err != nil {
				return fmt.Errorf("write run entry %s[%d]: %w", b.Name, pos, err)
			}
		}
	}
	return nil
}
