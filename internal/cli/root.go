// Package cli implements the pins command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pins/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	backend     string
	boardPath   string
	bucket      string
	jsonMode    bool
	verbose     bool
	metricsFile string
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags   rootFlags
	metrics *prometheus.Registry
	logger  *slog.Logger
}

// NewRootCmd creates the top-level "pins" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{metrics: prometheus.NewRegistry()}

	root := &cobra.Command{
		Use:   "pins",
		Short: "Versioned storage for data objects",
		Long: "Pins writes named data objects to a board as immutable, timestamped\n" +
			"versions and reads them back.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.flags.verbose)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.writeMetrics()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.backend, "backend", "", "board backend: file, memory, s3, gcs")
	pf.StringVar(&a.flags.boardPath, "path", "", "board path, or key prefix for object stores")
	pf.StringVar(&a.flags.bucket, "bucket", "", "bucket for object store backends")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log board operations to stderr")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write operation metrics to this file on exit")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newWriteCmd(),
		a.newReadCmd(),
		a.newMetaCmd(),
		a.newListCmd(),
		a.newVersionsCmd(),
		a.newExistsCmd(),
		a.newDeleteCmd(),
		a.newPruneCmd(),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps errors the user can fix to exitUserError and everything else
// to exitSysError.
func exitCode(err error) int {
	for _, target := range []error{
		types.ErrPinNotFound,
		types.ErrVersionNotFound,
		types.ErrInvalidPinName,
		types.ErrUntypedObject,
		types.ErrUnknownType,
		types.ErrInsecureRead,
		types.ErrInvalidRetention,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrBucketRequired,
		types.ErrPathRequired,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// writeMetrics dumps the metrics registry in text exposition format, for
// pickup by a node exporter textfile collector.
func (a *app) writeMetrics() error {
	if a.flags.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.flags.metricsFile, a.metrics); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
