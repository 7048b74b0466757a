package engine

import "context"

// Loader parses, validates and evaluates configuration programs.
// Implementations must return one of the Error kinds on failure.
type Loader interface {
	// ParseFile reads, parses and evaluates the file at path in one step.
	ParseFile(ctx context.Context, path string) (Value, error)

	// Validate performs syntax and type checking of source without evaluating
	// it. name is used in diagnostics only.
	Validate(ctx context.Context, source, name string) error
}

// LoaderFactory constructs a Loader for a single invocation.
type LoaderFactory func(cfg LoaderConfig) (Loader, error)
