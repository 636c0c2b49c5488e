package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pushorder/internal/artifact"
	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/extract"
	"github.com/roach88/pushorder/internal/order"
	"github.com/roach88/pushorder/internal/store"
)

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Output   string // artifact path; stdout when empty
	Artifact string // final-order | managed-streams
	Database string // archive database (optional)
}

// OrderSummary describes a dependency-aware ordering run.
type OrderSummary struct {
	Source        string         `json:"source"`
	Root          string         `json:"root"`
	Artifact      artifact.Kind  `json:"artifact"`
	Output        string         `json:"output,omitempty"`
	Digest        string         `json:"digest"`
	CaptureDigest string         `json:"capture_digest"`
	RunID         string         `json:"run_id,omitempty"`
	Layers        int            `json:"layers"`
	FinalOrder    []string       `json:"final_order"`
	Report        extract.Report `json:"report"`
	Dropped       []string       `json:"dropped,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "order <capture>",
		Short: "Compute the dependency-aware transmission order",
		Long: `Compute the transmission order of a page's critical resources.

Resources are layered by the script call stacks that fetched them and
ordered so every resource follows everything it depends on. The capture
is a preprocessed log or a raw HAR.

Without -o the artifact is written to stdout. With -o a summary is
printed instead. Nothing is written when ordering fails.

Examples:
  pushorder order site.har
  pushorder order site.har -o sequence.json --artifact managed-streams
  pushorder order site.har -o order.json --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the artifact to this file")
	cmd.Flags().StringVar(&opts.Artifact, "artifact", string(artifact.KindFinalOrder), "artifact layout (final-order|managed-streams)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in this SQLite database")

	return cmd
}

func runOrder(ctx context.Context, opts *OrderOptions, path string, cmd *cobra.Command) error {
	formatter := opts.Formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	kind, err := artifact.ParseKind(opts.Artifact)
	if err != nil || kind == artifact.KindPriority {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("invalid --artifact %q: want final-order or managed-streams", opts.Artifact), nil)
	}

	cfg, err := opts.LoadConfig()
	if err != nil {
		return commandError(formatter, "", "failed to load config", err)
	}

	in, err := readCapture(path)
	if err != nil {
		return commandError(formatter, "", "failed to load capture", err)
	}
	formatter.VerboseLog("Loaded %d entries from %s (%s)", len(in.capture.Entries), path, in.capture.Format)

	namer, err := cfg.NewNamer()
	if err != nil {
		return commandError(formatter, "", "failed to configure naming", err)
	}

	res, err := order.Plan(ctx, in.capture.Entries, namer, order.Options{
		CriticalTypes: cfg.ResourceTypes(),
		Logger:        logger,
	})
	if err != nil {
		return commandError(formatter, "", "ordering failed", err)
	}

	var a artifact.Artifact = artifact.FinalOrder{FinalOrder: res.FinalOrder}
	if kind == artifact.KindManagedStreams {
		a = artifact.ManagedStreams{ManagedStreams: res.FinalOrder}
	}

	summary := OrderSummary{
		Source:        path,
		Root:          res.Root,
		Artifact:      kind,
		Output:        opts.Output,
		CaptureDigest: in.digest,
		Layers:        len(res.Plans),
		FinalOrder:    res.FinalOrder,
		Report:        res.Report,
	}
	for _, d := range res.Report.Dropped {
		summary.Dropped = append(summary.Dropped, d.ID)
	}

	if summary.Digest, err = a.Digest(); err != nil {
		return commandError(formatter, "", "failed to digest artifact", err)
	}
	// a failed archive leaves no artifact behind
	if opts.Database != "" {
		run, err := archiveRun(ctx, opts.Database, path, in.digest, a, logger)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to archive run", err)
		}
		summary.RunID = run.ID
	}
	if err := emitArtifact(cmd.OutOrStdout(), opts.Output, a); err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "failed to write artifact", err)
	}

	if opts.Output == "" {
		return nil
	}
	if opts.Format == "json" {
		return formatter.Success(summary)
	}
	outputOrderText(formatter, summary)
	return nil
}

func outputOrderText(f *OutputFormatter, s OrderSummary) {
	f.Pass("Ordered %d resource(s) in %d layer(s) from %s", len(s.FinalOrder), s.Layers, s.Source)
	f.Field("root", s.Root)
	f.Field(string(s.Artifact), s.Output)
	f.Field("digest", s.Digest)
	if s.RunID != "" {
		f.Field("run", s.RunID)
	}
	f.Note("  %d accepted, %d non-critical, %d duplicate, %d dropped",
		s.Report.Accepted, s.Report.NonCritical, s.Report.Duplicates, len(s.Dropped))
	for _, id := range s.Dropped {
		f.Note("  dropped %s", id)
	}
}

// captureInput is a decoded capture and the digest of its bytes.
type captureInput struct {
	capture *capture.Capture
	digest  string
}

func readCapture(path string) (*captureInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := capture.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &captureInput{capture: c, digest: artifact.CaptureDigest(data)}, nil
}

// emitArtifact writes a to path, or to w when path is empty.
func emitArtifact(w io.Writer, path string, a artifact.Artifact) error {
	if path == "" {
		return artifact.Write(w, a)
	}
	return artifact.WriteFile(path, a)
}

func archiveRun(ctx context.Context, dbPath, source, captureDigest string, a artifact.Artifact, logger *slog.Logger) (*store.Run, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	run, err := st.WriteRun(ctx, source, captureDigest, a)
	if err != nil {
		return nil, err
	}
	logger.Debug("archived run", "id", run.ID, "seq", run.Seq, "digest", run.ArtifactDigest)
	return run, nil
}
