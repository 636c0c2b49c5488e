package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/pushorder/internal/artifact"
	"github.com/roach88/pushorder/internal/order"
)

// StaticOptions holds flags for the static command.
type StaticOptions struct {
	*RootOptions
	Output   string
	Database string
}

// StaticSummary describes a static priority run.
type StaticSummary struct {
	Source        string                 `json:"source"`
	Output        string                 `json:"output,omitempty"`
	Digest        string                 `json:"digest"`
	CaptureDigest string                 `json:"capture_digest"`
	RunID         string                 `json:"run_id,omitempty"`
	Priority      artifact.PriorityOrder `json:"priority"`
	Report        order.StaticReport     `json:"report"`
}

// NewStaticCommand creates the static command.
func NewStaticCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StaticOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "static <capture>",
		Short: "Compute the static priority order",
		Long: `Bucket every fetched resource by type and sort each bucket by size,
ignoring dependencies.

  highest     document
  high        stylesheet
  normal      script
  low         font
  lowest      image
  background  xhr, manifest, other

Examples:
  pushorder static site.har
  pushorder static site.har -o priority.json --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatic(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the artifact to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in this SQLite database")

	return cmd
}

func runStatic(ctx context.Context, opts *StaticOptions, path string, cmd *cobra.Command) error {
	formatter := opts.Formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cfg, err := opts.LoadConfig()
	if err != nil {
		return commandError(formatter, "", "failed to load config", err)
	}

	in, err := readCapture(path)
	if err != nil {
		return commandError(formatter, "", "failed to load capture", err)
	}

	namer, err := cfg.NewNamer()
	if err != nil {
		return commandError(formatter, "", "failed to configure naming", err)
	}

	p, report := order.StaticPriority(in.capture.Entries, namer, logger)

	summary := StaticSummary{
		Source:        path,
		Output:        opts.Output,
		CaptureDigest: in.digest,
		Priority:      p,
		Report:        report,
	}
	if summary.Digest, err = p.Digest(); err != nil {
		return commandError(formatter, "", "failed to digest artifact", err)
	}
	// a failed archive leaves no artifact behind
	if opts.Database != "" {
		run, err := archiveRun(ctx, opts.Database, path, in.digest, p, logger)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to archive run", err)
		}
		summary.RunID = run.ID
	}
	if err := emitArtifact(cmd.OutOrStdout(), opts.Output, p); err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "failed to write artifact", err)
	}

	if opts.Output == "" {
		return nil
	}
	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	formatter.Pass("Bucketed %d resource(s) from %s", report.Accepted, path)
	for _, b := range p.Entries() {
		formatter.Field(b.Name, len(b.IDs))
	}
	formatter.Field("priority", opts.Output)
	formatter.Field("digest", summary.Digest)
	if summary.RunID != "" {
		formatter.Field("run", summary.RunID)
	}
	if report.Duplicates > 0 || len(report.Unbucketed) > 0 {
		formatter.Note("  %d duplicate, %d unbucketed", report.Duplicates, len(report.Unbucketed))
	}
	return nil
}
