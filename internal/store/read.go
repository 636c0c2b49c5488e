package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pushorder/internal/artifact"
)

// ReadRun returns the run with the given id, entries included. Entries are
// ordered by bucket priority, then position.
//
// Returns ErrRunNotFound if no run has that id.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, policy, source, capture_digest, artifact_digest, artifact
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	entries, err := s.readEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Entries = entries
	return run, nil
}

// ListRuns returns archived runs without their entries.
// Results are ordered by ORDER BY seq ASC, id ASC COLLATE BINARY.
// A positive limit keeps only the most recent runs.
//
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, seq, policy, source, capture_digest, artifact_digest, artifact
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query = `
			SELECT * FROM (
				SELECT id, seq, policy, source, capture_digest, artifact_digest, artifact
				FROM runs
				ORDER BY seq DESC, id COLLATE BINARY DESC
				LIMIT ?
			)
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// FindByDigest returns the runs whose artifact has the given digest.
func (s *Store) FindByDigest(ctx context.Context, digest string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, policy, source, capture_digest, artifact_digest, artifact
		FROM runs
		WHERE artifact_digest = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("query runs by digest: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Decode parses the stored artifact JSON.
func (r *Run) Decode() (artifact.Artifact, error) {
	return artifact.Decode(r.Policy, r.Artifact)
}

func (s *Store) readEntries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket, position, resource_id
		FROM run_entries
		WHERE run_id = ?
		ORDER BY CASE bucket
			WHEN '' THEN 0
			WHEN 'highest' THEN 1
			WHEN 'high' THEN 2
			WHEN 'normal' THEN 3
			WHEN 'low' THEN 4
			WHEN 'lowest' THEN 5
			WHEN 'background' THEN 6
			ELSE 7
		END, position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Bucket, &e.Position, &e.ResourceID); err != nil {
			return nil, fmt.Errorf("scan run entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run      Run
		policy   string
		contents string
	)
	err := row.Scan(&run.ID, &run.Seq, &policy, &run.Source, &run.CaptureDigest, &run.ArtifactDigest, &contents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Policy = artifact.Kind(policy)
	run.Artifact = []byte(contents)
	return &run, nil
}
