package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/bunsenite/bunsenite/pkg/router"
	"github.com/bunsenite/bunsenite/pkg/telemetry"
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// app holds the global flags and the outcome of one invocation.
type app struct {
	build  BuildInfo
	stdout io.Writer
	stderr io.Writer

	// Global flags
	verbose       bool
	metricsFile   string
	traceExporter string
	otlpEndpoint  string

	exitCode int
}

// Execute runs the root command with the process arguments and returns the
// exit code.
func Execute(ctx context.Context, build BuildInfo) int {
	return Run(ctx, build, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args against a fresh command tree. Argument and flag errors
// are rendered like any other invalid input.
func Run(ctx context.Context, build BuildInfo, args []string, stdout, stderr io.Writer) int {
	a := &app{build: build, stdout: stdout, stderr: stderr}

	rootCmd := a.newRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var e engine.Error
		if !errors.As(err, &e) {
			e = engine.NewInvalidInputError(err.Error())
		}
		router.Render(stderr, e)
		return router.ExitFailure
	}
	return a.exitCode
}

func (a *app) newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bunsenite",
		Short: "Bunsenite - configuration file evaluator",
		Long: `Bunsenite parses, validates and evaluates configuration programs and emits
the result as JSON.

Languages:
  - CUE (.cue, and any unrecognised extension)
  - Starlark (.star, .starlark, .bzl, .sky)
  - HCL (.hcl)`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", a.build.Version, a.build.Commit, a.build.BuildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, router.NoCommand{})
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "bunsenite %s\n" .Version}}`)

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file at exit")
	rootCmd.PersistentFlags().StringVar(&a.traceExporter, "trace-exporter", "none", "trace exporter (none, stderr, otlp)")
	rootCmd.PersistentFlags().StringVar(&a.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for the otlp exporter")
	rootCmd.Flags().BoolP("version", "V", false, "print version information")

	// Add subcommands
	rootCmd.AddCommand(a.newParseCommand())
	rootCmd.AddCommand(a.newValidateCommand())
	rootCmd.AddCommand(a.newInfoCommand())

	return rootCmd
}

// dispatch sets up telemetry for the invocation and hands c to the router.
func (a *app) dispatch(cmd *cobra.Command, c router.Command) error {
	tel, err := telemetry.NewTelemetry(a.telemetryConfig())
	if err != nil {
		return engine.NewInvalidInputError(err.Error())
	}

	r := router.New(
		router.WithStdout(a.stdout),
		router.WithStderr(a.stderr),
		router.WithLogger(tel.Logger),
		router.WithMetrics(tel.Metrics),
		router.WithTracer(tel.Tracer),
		router.WithVersion(a.build.Version),
	)

	ctx := tel.WithContext(cmd.Context())
	a.exitCode = r.Run(ctx, c, a.verbose)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), tel.Config.Tracing.ExportTimeout)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		tel.Logger.WithError(err).Warn("Failed to flush telemetry")
	}
	return nil
}

func (a *app) telemetryConfig() *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = a.build.Version

	cfg.Logging.Writer = a.stderr
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	cfg.Tracing.Enabled = a.traceExporter != "none"
	cfg.Tracing.Exporter = a.traceExporter
	cfg.Tracing.Endpoint = a.otlpEndpoint
	cfg.Tracing.Writer = a.stderr

	cfg.Metrics.Enabled = a.metricsFile != ""
	cfg.Metrics.TextfilePath = a.metricsFile

	return cfg
}
