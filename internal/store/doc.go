// Package store archives produced order artifacts in SQLite.
//
// Every run records the policy, the capture it came from, the artifact
// JSON and one row per ordered resource:
//   - runs: one row per produced artifact
//   - run_entries: (run, bucket, position) → resource id
//
// The working dependency graph is never stored; the archive only lets
// earlier artifacts be listed, compared and shown again.
//
// # Ordering
//
//   - runs carry a seq INTEGER logical clock assigned at write time
//   - all listings use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Connections run in WAL mode with foreign keys enforced and a 5s busy
// timeout. Schema upgrades are tracked in PRAGMA user_version.
//
// Artifact digests come from internal/artifact: SHA-256 over RFC 8785
// canonical JSON with domain separation.
package store
