package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/pushorder/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogFormat string // "json" | "text"
	Config    string // config file path; falls back to $PUSHORDER_CONFIG
}

// ValidFormats defines the allowed output and log formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pushorder CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pushorder",
		Short: "pushorder - resource transmission order for page loads",
		Long: `Derive the order in which a server should push a page's critical
resources from a recorded page load.

The dependency policy layers resources by the script call stacks that
fetched them; the static policy buckets them by type and size.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flags
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !isValidFormat(opts.LogFormat) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return NewExitError(ExitCommandError, "no command given")
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format on stderr (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default $"+config.EnvConfig+")")

	// Add subcommands
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewStaticCommand(opts))
	cmd.AddCommand(NewPreprocessCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Formatter returns an output formatter writing to the command's streams.
func (o *RootOptions) Formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Logger returns the diagnostic logger for a command, writing to w.
// --verbose lowers the level to debug.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := "info"
	if o.Verbose {
		level = "debug"
	}
	return newLogger(level, o.LogFormat, w)
}

// LoadConfig loads the config file named by --config or
// $PUSHORDER_CONFIG, or the defaults when neither is set.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	path := o.Config
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	return config.Load(path)
}

// newLogger builds a slog logger with the given level and format.
// Unknown levels fall back to info, unknown formats to text.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}
