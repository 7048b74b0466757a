package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/parser"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

// CUEParser parses, checks and evaluates CUE programs.
type CUEParser struct {
	ctx            *cue.Context
	schemaRegistry *SchemaRegistry
	schema         string
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	ctx := cuecontext.New()
	return &CUEParser{
		ctx:            ctx,
		schemaRegistry: NewSchemaRegistry(ctx),
	}
}

// UseSchemaFile loads the schema at path and unifies every subsequent
// program with it.
func (cp *CUEParser) UseSchemaFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return engine.NewIOError(err)
	}
	if err := cp.schemaRegistry.RegisterSchema(path, string(content)); err != nil {
		return err
	}
	cp.schema = path
	return nil
}

// Evaluate compiles src, requires every field to be concrete and returns the
// exported value.
func (cp *CUEParser) Evaluate(ctx context.Context, filename string, src []byte) (engine.Value, error) {
	val, err := cp.build(filename, src)
	if err != nil {
		return nil, err
	}

	if err := val.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, engine.NewEvaluationError(filename, formatCUEErrors(err))
	}

	var result interface{}
	if err := val.Decode(&result); err != nil {
		return nil, engine.NewEvaluationError(filename, formatCUEErrors(err))
	}

	return result, nil
}

// CheckValue validates a value produced by another engine against the
// active schema. Without a schema it does nothing.
func (cp *CUEParser) CheckValue(filename string, value engine.Value) error {
	if cp.schema == "" {
		return nil
	}
	err := cp.schemaRegistry.ValidateAgainstSchema(cp.schema, value)
	if err == nil {
		return nil
	}
	if _, ok := engine.KindOf(err); ok {
		return err
	}
	return engine.NewEvaluationError(filename, err.Error())
}

// Check compiles src and reports conflicts without requiring concrete values.
func (cp *CUEParser) Check(filename string, src []byte) error {
	val, err := cp.build(filename, src)
	if err != nil {
		return err
	}

	if err := val.Validate(); err != nil {
		return engine.NewEvaluationError(filename, formatCUEErrors(err))
	}

	return nil
}

// build parses src and builds it into a value, unified with the active schema.
// Syntax errors are parse errors; everything after parsing is evaluation.
func (cp *CUEParser) build(filename string, src []byte) (cue.Value, error) {
	file, err := parser.ParseFile(filename, src, parser.ParseComments)
	if err != nil {
		return cue.Value{}, engine.NewParseError(filename, formatCUEErrors(err))
	}

	val := cp.ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return cue.Value{}, engine.NewEvaluationError(filename, formatCUEErrors(err))
	}

	if cp.schema != "" {
		val, err = cp.schemaRegistry.Apply(cp.schema, val)
		if err != nil {
			return cue.Value{}, engine.NewEvaluationError(filename, err.Error())
		}
	}

	return val, nil
}

// formatCUEErrors flattens a CUE error list into one line per error, each
// prefixed with its path and position when known.
func formatCUEErrors(err error) string {
	var messages []string

	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + msg
		}

		if pos := cueerrors.Positions(e); len(pos) > 0 && pos[0].Line() > 0 {
			msg = fmt.Sprintf("%d:%d: %s", pos[0].Line(), pos[0].Column(), msg)
		}

		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return err.Error()
	}
	return strings.Join(messages, "; ")
}
