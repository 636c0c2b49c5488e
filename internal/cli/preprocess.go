package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pushorder/internal/capture"
)

// PreprocessOptions holds flags for the preprocess command.
type PreprocessOptions struct {
	*RootOptions
	Output string
	Host   string
	Status int
}

// PreprocessSummary describes a preprocess run.
type PreprocessSummary struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Read   int    `json:"read"`
	Kept   int    `json:"kept"`
	Host   string `json:"host,omitempty"`
	Status int    `json:"status,omitempty"`
}

// NewPreprocessCommand creates the preprocess command.
func NewPreprocessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreprocessOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preprocess <har>",
		Short: "Reduce a HAR to the preprocessed log",
		Long: `Reduce a raw HAR to the preprocessed log read by order and static.

Only entries for the configured host with the configured response status
are kept, and response bodies are dropped. --host and --status override
the config file.

Examples:
  pushorder preprocess site.har -o site.json
  pushorder preprocess site.har -o site.json --host www.example.com --status 0`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreprocess(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the log to this file (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&opts.Host, "host", "", "keep only this host (overrides config)")
	cmd.Flags().IntVar(&opts.Status, "status", 0, "keep only this status, 0 keeps all (overrides config)")

	return cmd
}

func runPreprocess(opts *PreprocessOptions, path string, cmd *cobra.Command) error {
	formatter := opts.Formatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return commandError(formatter, "", "failed to load config", err)
	}
	popts := cfg.PreprocessOptions()
	if cmd.Flags().Changed("host") {
		popts.Host = opts.Host
	}
	if cmd.Flags().Changed("status") {
		popts.Status = opts.Status
	}

	in, err := readCapture(path)
	if err != nil {
		return commandError(formatter, "", "failed to load capture", err)
	}

	log := capture.Preprocess(in.capture, popts)

	f, err := os.Create(opts.Output)
	if err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "failed to create output", err)
	}
	if err := capture.WriteLog(f, log); err != nil {
		f.Close()
		return commandError(formatter, ErrCodeWriteFailed, "failed to write log", err)
	}
	if err := f.Close(); err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "failed to write log", err)
	}

	summary := PreprocessSummary{
		Source: path,
		Output: opts.Output,
		Read:   len(in.capture.Entries),
		Kept:   len(log.Log),
		Host:   popts.Host,
		Status: popts.Status,
	}
	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	formatter.Pass("Kept %d of %d entries from %s", summary.Kept, summary.Read, path)
	formatter.Field("log", summary.Output)
	return nil
}
