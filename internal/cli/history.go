package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pushorder/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Digest   string // only runs with this artifact digest
}

// HistoryResult lists archived runs.
type HistoryResult struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		Long: `List the runs archived with --db, oldest first.

Examples:
  pushorder history --db runs.db
  pushorder history --db runs.db --limit 5
  pushorder history --db runs.db --digest sha256:... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent runs")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "show only runs with this artifact digest")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.Formatter(cmd)

	st, err := openArchive(opts.Database)
	if err != nil {
		return commandError(formatter, "", "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.Digest != "" {
		runs, err = st.FindByDigest(ctx, opts.Digest)
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(HistoryResult{Runs: runs, Total: len(runs)})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs archived.")
		return nil
	}
	formatter.Heading(fmt.Sprintf("%d run(s)", len(runs)))
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %-15s  %s\n", r.Seq, r.ID, r.Policy, r.Source)
		formatter.Note("      %s", r.ArtifactDigest)
	}
	return nil
}

// openArchive opens an existing archive database. Unlike store.Open it
// never creates one.
func openArchive(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}
