// Package telemetry provides observability for bunsenite invocations.
//
// The package integrates structured logging (zerolog), tracing
// (OpenTelemetry) and metrics (Prometheus) behind one Telemetry value that
// the CLI builds once per invocation.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//	cfg.Logging.Writer = os.Stderr
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// Loggers write to stderr only, since stdout carries evaluated results. The
// console format omits timestamps unless LoggingConfig.Timestamps is set, so
// repeated runs print identical diagnostics.
//
//	logger := telemetry.FromContext(ctx).NewComponentLogger("loader")
//	logger.WithFile(path).Debug("Evaluating configuration")
//
// FromContext returns a no-op logger when the context carries none.
//
// # Tracing
//
// Each command runs in a root span carrying a random invocation ID, and each
// loader call gets a child span:
//
//	ctx, span := tracer.StartCommandSpan(ctx, "parse", uuid.NewString())
//	defer span.End()
//
// Spans are exported to stderr or to an OTLP gRPC collector, or dropped.
//
// # Metrics
//
// Counters and histograms are kept in a private registry. A CLI process is
// too short-lived to be scraped, so the registry is written in the Prometheus
// text format to MetricsConfig.TextfilePath on Shutdown.
//
//	bunsenite_commands_executed_total{command,status}
//	bunsenite_command_duration_seconds{command}
//	bunsenite_loader_calls_total{operation,status}
//	bunsenite_loader_call_duration_seconds{operation}
//	bunsenite_errors_total{kind,recoverable}
package telemetry
