package config

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/parser"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

// SchemaRegistry manages CUE schemas that programs are unified with.
// Schemas must be compiled in the same cue.Context as the programs they
// constrain.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates an empty schema registry bound to ctx.
func NewSchemaRegistry(ctx *cue.Context) *SchemaRegistry {
	return &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}
}

// RegisterSchema compiles schema and registers it under name. Syntax errors
// are reported as parse errors against name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	file, err := parser.ParseFile(name, schema, parser.ParseComments)
	if err != nil {
		return engine.NewParseError(name, formatCUEErrors(err))
	}

	val := sr.ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return engine.NewEvaluationError(name, formatCUEErrors(err))
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// Apply unifies val with the named schema.
func (sr *SchemaRegistry) Apply(name string, val cue.Value) (cue.Value, error) {
	schema, ok := sr.GetSchema(name)
	if !ok {
		return cue.Value{}, fmt.Errorf("schema %s not found", name)
	}

	unified := schema.Unify(val)
	if err := unified.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("does not satisfy schema %s: %s", name, formatCUEErrors(err))
	}
	return unified, nil
}

// ValidateAgainstSchema validates Go data against a named schema, requiring
// the result to be concrete. Data that has no CUE representation is a
// serialization error.
func (sr *SchemaRegistry) ValidateAgainstSchema(schemaName string, data interface{}) error {
	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return engine.NewSerializationError(fmt.Sprintf("cannot check value against schema %s: %s", schemaName, formatCUEErrors(err)))
	}

	unified, err := sr.Apply(schemaName, dataVal)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("does not satisfy schema %s: %s", schemaName, formatCUEErrors(err))
	}

	return nil
}
