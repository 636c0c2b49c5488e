package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pushorder/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// ShowResult is an archived run with its artifact.
type ShowResult struct {
	store.Run
	Artifact json.RawMessage `json:"artifact"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show an archived run",
		Long: `Show one archived run: its metadata and ordered resources.

Examples:
  pushorder show --db runs.db 0190c5d2-...
  pushorder show --db runs.db 0190c5d2-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, id string, cmd *cobra.Command) error {
	formatter := opts.Formatter(cmd)

	st, err := openArchive(opts.Database)
	if err != nil {
		return commandError(formatter, "", "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, id)
	if err != nil {
		return commandError(formatter, "", "failed to read run", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ShowResult{Run: *run, Artifact: run.Artifact})
	}

	formatter.Heading(fmt.Sprintf("Run %s", run.ID))
	formatter.Field("seq", run.Seq)
	formatter.Field("policy", run.Policy)
	formatter.Field("source", run.Source)
	formatter.Field("capture", run.CaptureDigest)
	formatter.Field("digest", run.ArtifactDigest)
	fmt.Fprintln(formatter.Writer)

	bucket := ""
	for _, e := range run.Entries {
		if e.Bucket != bucket {
			bucket = e.Bucket
			formatter.Heading(bucket)
		}
		fmt.Fprintf(formatter.Writer, "  [%d] %s\n", e.Position+1, e.ResourceID)
	}
	return nil
}
