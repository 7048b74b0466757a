package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bunsenite/bunsenite/pkg/config"
	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/bunsenite/bunsenite/pkg/output"
	"github.com/bunsenite/bunsenite/pkg/policy"
	"github.com/bunsenite/bunsenite/pkg/telemetry"
)

// Process exit codes. Scripts depend on these, not on the message text.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ValidMessage is printed by a successful validate.
const ValidMessage = "✓ Configuration is valid"

// Router maps commands onto loader and formatter calls and failures onto
// exit codes.
type Router struct {
	stdout    io.Writer
	stderr    io.Writer
	newLoader engine.LoaderFactory
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	version   string
	validate  *validator.Validate
}

// Option configures a Router.
type Option func(*Router)

// WithStdout sets the stream that receives results.
func WithStdout(w io.Writer) Option {
	return func(r *Router) { r.stdout = w }
}

// WithStderr sets the stream that receives errors and diagnostics.
func WithStderr(w io.Writer) Option {
	return func(r *Router) { r.stderr = w }
}

// WithLoaderFactory replaces the loader constructor.
func WithLoaderFactory(f engine.LoaderFactory) Option {
	return func(r *Router) { r.newLoader = f }
}

// WithLogger sets the logger used for verbose traces.
func WithLogger(l *telemetry.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *telemetry.Tracer) Option {
	return func(r *Router) { r.tracer = t }
}

// WithVersion sets the version shown by info and help.
func WithVersion(v string) Option {
	return func(r *Router) { r.version = v }
}

// New creates a router. Without options it writes to the process streams and
// loads files with config.NewLoader.
func New(opts ...Option) *Router {
	nop := telemetry.Nop()
	r := &Router{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		newLoader: config.NewLoader,
		logger:    nop.Logger,
		metrics:   nop.Metrics,
		tracer:    nop.Tracer,
		version:   "dev",
		validate:  newValidator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("flag"); name != "" {
			return name
		}
		return strings.ToLower(field.Name)
	})
	return v
}

// Run dispatches cmd and returns the process exit code. Failures are rendered
// on the error stream.
func (r *Router) Run(ctx context.Context, cmd Command, verbose bool) int {
	name := "unknown"
	if cmd != nil {
		name = cmd.Name()
	}

	ctx, span := r.tracer.StartCommandSpan(ctx, name, uuid.NewString())
	defer span.End()
	timer := telemetry.NewTimer()

	err := r.Dispatch(ctx, cmd, verbose)
	if err != nil {
		e := engine.AsError(err)
		telemetry.RecordError(span, e, e.Kind().String())
		r.metrics.RecordError(e.Kind().String(), e.Kind().Recoverable())
		r.metrics.RecordCommand(name, "failure", timer.Duration())
		Render(r.stderr, e)
		return ExitFailure
	}

	telemetry.RecordSuccess(span)
	r.metrics.RecordCommand(name, "success", timer.Duration())
	return ExitSuccess
}

// Dispatch runs cmd and returns its failure unchanged.
func (r *Router) Dispatch(ctx context.Context, cmd Command, verbose bool) error {
	switch c := cmd.(type) {
	case Parse:
		return r.parse(ctx, c, verbose)
	case *Parse:
		if c == nil {
			return engine.NewInternalError("nil parse command")
		}
		return r.parse(ctx, *c, verbose)
	case Validate:
		return r.validateFile(ctx, c, verbose)
	case *Validate:
		if c == nil {
			return engine.NewInternalError("nil validate command")
		}
		return r.validateFile(ctx, *c, verbose)
	case Info, *Info:
		_, err := fmt.Fprintln(r.stdout, InfoText(r.version))
		return writeErr(err)
	case NoCommand, *NoCommand:
		_, err := fmt.Fprintln(r.stdout, HelpText(r.version))
		return writeErr(err)
	default:
		return engine.NewInternalError(fmt.Sprintf("unhandled command %T", cmd))
	}
}

func (r *Router) parse(ctx context.Context, c Parse, verbose bool) error {
	if err := r.checkOptions(c); err != nil {
		return err
	}

	loader, err := r.loader(engine.LoaderConfig{Verbose: verbose, Lang: c.Lang, Schema: c.Schema})
	if err != nil {
		return err
	}

	var value engine.Value
	err = r.callLoader(ctx, "parse", c.File, verbose, func(ctx context.Context) error {
		var err error
		value, err = loader.ParseFile(ctx, c.File)
		return err
	})
	if err != nil {
		return err
	}

	out, err := output.Render(value, output.Options{Format: c.Format, Pretty: c.Pretty})
	if err != nil {
		return err
	}

	if len(c.Policy) > 0 {
		if err := r.checkPolicies(ctx, c, value, verbose); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(r.stdout, out)
	return writeErr(err)
}

// checkPolicies evaluates the Rego policies of c against value. Deny
// entries fail the command; warn entries are only logged.
func (r *Router) checkPolicies(ctx context.Context, c Parse, value engine.Value, verbose bool) error {
	return r.callLoader(ctx, "policy", strings.Join(c.Policy, ","), verbose, func(ctx context.Context) error {
		eng, err := policy.NewEngine(ctx, c.Policy, r.logger)
		if err != nil {
			return err
		}

		if verbose {
			r.logger.NewComponentLogger("router").WithField("policies", len(eng.Policies())).Info("Policies loaded")
		}

		result, err := eng.Evaluate(ctx, value)
		if err != nil {
			return err
		}

		for _, msg := range result.Warnings() {
			r.logger.WithFile(c.File).Warn("Policy warning: " + msg)
		}
		if !result.Allowed() {
			return engine.NewEvaluationError(c.File, "policy violation: "+strings.Join(result.Errors(), "; "))
		}
		return nil
	})
}

func (r *Router) validateFile(ctx context.Context, c Validate, verbose bool) error {
	if err := r.checkOptions(c); err != nil {
		return err
	}

	src, err := os.ReadFile(c.File)
	if err != nil {
		return engine.NewIOError(err)
	}
	name := config.DisplayName(c.File)

	loader, err := r.loader(engine.LoaderConfig{Verbose: verbose, Lang: c.Lang, Schema: c.Schema})
	if err != nil {
		return err
	}

	err = r.callLoader(ctx, "validate", c.File, verbose, func(ctx context.Context) error {
		return loader.Validate(ctx, string(src), name)
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(r.stdout, ValidMessage)
	return writeErr(err)
}

func (r *Router) loader(cfg engine.LoaderConfig) (engine.Loader, error) {
	loader, err := r.newLoader(cfg)
	if err != nil {
		return nil, err
	}
	if loader == nil {
		return nil, engine.NewInternalError("loader factory returned no loader")
	}
	return loader, nil
}

// callLoader wraps one loader call with its verbose trace lines, span and
// metrics.
func (r *Router) callLoader(ctx context.Context, op, file string, verbose bool, fn func(context.Context) error) error {
	logger := telemetry.NopLogger()
	if verbose {
		logger = r.logger.NewComponentLogger("router").WithOperation(op).WithFile(file)
	}
	logger.Info("Calling loader")

	ctx = r.logger.WithContext(ctx)
	ctx, span := r.tracer.StartLoaderSpan(ctx, op, file)
	defer span.End()
	timer := telemetry.NewTimer()

	err := fn(ctx)
	if err != nil {
		e := engine.AsError(err)
		telemetry.RecordError(span, e, e.Kind().String())
		r.metrics.RecordLoaderCall(op, "failure", timer.Duration())
		logger.WithError(e).Info("Loader call failed")
		return e
	}

	telemetry.RecordSuccess(span)
	r.metrics.RecordLoaderCall(op, "success", timer.Duration())
	logger.Info("Loader call completed")
	return nil
}

// checkOptions validates user-supplied options before any file is touched.
func (r *Router) checkOptions(opts interface{}) error {
	err := r.validate.Struct(opts)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return engine.NewInternalError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s %q is not one of: %s",
				fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s check", fe.Field(), fe.Tag()))
		}
	}
	return engine.NewInvalidInputError(strings.Join(msgs, "; "))
}

func writeErr(err error) error {
	if err != nil {
		return engine.NewIOError(err)
	}
	return nil
}

// Render writes err as "Error: <display>" followed, when the kind has one, by
// a blank line and "Suggestion: <hint>". Labels are styled only when w is a
// terminal.
func Render(w io.Writer, err error) {
	if err == nil {
		return
	}
	e := engine.AsError(err)

	renderer := lipgloss.NewRenderer(w)
	errorLabel := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintLabel := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

	fmt.Fprintf(w, "%s %s\n", errorLabel.Render("Error:"), e.Error())
	if hint, ok := engine.Suggestion(e); ok {
		fmt.Fprintf(w, "\n%s %s\n", hintLabel.Render("Suggestion:"), hint)
	}
}
