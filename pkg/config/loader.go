package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/bunsenite/bunsenite/pkg/telemetry"
)

// Loader drives the configuration engine matching each source: CUE,
// Starlark or HCL. It implements engine.Loader.
type Loader struct {
	cfg      engine.LoaderConfig
	cue      *CUEParser
	starlark *StarlarkEvaluator
	hcl      *HCLParser
}

var _ engine.Loader = (*Loader)(nil)

// NewLoader creates a loader for one invocation. An unsupported language in
// cfg yields an *engine.InvalidInputError.
func NewLoader(cfg engine.LoaderConfig) (engine.Loader, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, engine.NewInvalidInputError(fmt.Sprintf(
			"unsupported language %q (must be one of: %s)", cfg.Lang, strings.Join(engine.Languages, ", ")))
	}

	return &Loader{
		cfg:      cfg,
		cue:      NewCUEParser(),
		starlark: NewStarlarkEvaluator(30 * time.Second),
		hcl:      NewHCLParser(),
	}, nil
}

// ParseFile reads, parses and evaluates the file at path.
func (l *Loader) ParseFile(ctx context.Context, path string) (engine.Value, error) {
	lang, err := l.language(path)
	if err != nil {
		return nil, err
	}
	l.logger(ctx).WithFile(path).WithField("lang", lang).Debug("Evaluating configuration")

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewIOError(err)
	}

	var value engine.Value
	switch lang {
	case engine.LangStarlark:
		value, err = l.starlark.EvaluateFile(ctx, path, src)
	case engine.LangHCL:
		value, err = l.hcl.Evaluate(ctx, path, src)
	default:
		if err := l.loadSchema(ctx); err != nil {
			return nil, err
		}
		return l.cue.Evaluate(ctx, path, src)
	}
	if err != nil {
		return nil, err
	}

	// Starlark and HCL results are checked against the schema after
	// evaluation. Unlike CUE, defaults from the schema are not applied.
	if err := l.loadSchema(ctx); err != nil {
		return nil, err
	}
	if err := l.cue.CheckValue(path, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Validate checks source for syntax and type errors without evaluating it.
func (l *Loader) Validate(ctx context.Context, source, name string) error {
	if name == "" {
		name = DefaultDisplayName
	}
	lang, err := l.language(name)
	if err != nil {
		return err
	}
	if l.cfg.Schema != "" && lang != engine.LangCUE {
		return engine.NewInvalidInputError(fmt.Sprintf(
			"%s is %s, which must be evaluated before a schema can be checked; use parse --schema", name, lang))
	}
	l.logger(ctx).WithFile(name).WithField("lang", lang).Debug("Checking configuration")

	switch lang {
	case engine.LangStarlark:
		return l.starlark.Check(name, []byte(source))
	case engine.LangHCL:
		return l.hcl.Check(name, []byte(source))
	default:
		if err := l.loadSchema(ctx); err != nil {
			return err
		}
		return l.cue.Check(name, []byte(source))
	}
}

// language resolves the language of name, honouring an explicit override.
func (l *Loader) language(name string) (string, error) {
	lang := l.cfg.Lang
	if lang == "" {
		lang = DetectLanguage(name)
	}
	return lang, nil
}

func (l *Loader) loadSchema(ctx context.Context) error {
	if l.cfg.Schema == "" {
		return nil
	}
	l.logger(ctx).WithFile(l.cfg.Schema).Debug("Loading schema")
	return l.cue.UseSchemaFile(l.cfg.Schema)
}

func (l *Loader) logger(ctx context.Context) *telemetry.Logger {
	if !l.cfg.Verbose {
		return telemetry.NopLogger()
	}
	return telemetry.FromContext(ctx).NewComponentLogger("loader")
}
