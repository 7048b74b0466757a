package router

// Command is one user-invoked operation. The set is closed: only the types
// in this package implement it.
type Command interface {
	// Name is the command name used in logs, metrics and spans.
	Name() string
	command()
}

// Parse evaluates File and prints the result.
type Parse struct {
	File   string `flag:"file" validate:"required"`
	Pretty bool   `flag:"pretty"`

	// Format selects the output encoding. Empty means JSON.
	Format string `flag:"format" validate:"omitempty,oneof=json yaml"`

	// Lang forces the configuration language. Empty detects it from File.
	Lang string `flag:"lang" validate:"omitempty,oneof=cue starlark hcl"`

	// Schema is an optional CUE schema unified with the program.
	Schema string `flag:"schema"`

	// Policy lists Rego files or directories checked against the result.
	Policy []string `flag:"policy" validate:"dive,required"`
}

// Validate checks File for syntax and type errors without evaluating it.
type Validate struct {
	File   string `flag:"file" validate:"required"`
	Lang   string `flag:"lang" validate:"omitempty,oneof=cue starlark hcl"`
	Schema string `flag:"schema"`
}

// Info prints version and compliance information.
type Info struct{}

// NoCommand prints the help text.
type NoCommand struct{}

func (Parse) Name() string     { return "parse" }
func (Validate) Name() string  { return "validate" }
func (Info) Name() string      { return "info" }
func (NoCommand) Name() string { return "help" }

func (Parse) command()     {}
func (Validate) command()  {}
func (Info) command()      {}
func (NoCommand) command() {}
