package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/pushorder/internal/artifact"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testFinalOrder returns a small dependency-policy artifact.
func testFinalOrder(ids ...string) artifact.FinalOrder {
	if len(ids) == 0 {
		ids = []string{"index.html", "style.css", "app.js"}
	}
	return artifact.FinalOrder{FinalOrder: ids}
}

// verifyPragma checks that a pragma reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
