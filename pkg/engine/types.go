package engine

// Value is an evaluated configuration: a JSON-shaped tree of nil, bool,
// numbers, string, []any and map[string]any.
type Value = any

// LoaderConfig configures a Loader for one invocation.
type LoaderConfig struct {
	// Verbose enables diagnostic logging inside the loader.
	Verbose bool

	// Lang forces the configuration language. Empty selects by file extension.
	Lang string `validate:"omitempty,oneof=cue starlark hcl"`

	// Schema is an optional CUE schema file unified with the program.
	Schema string
}

// Supported configuration languages.
const (
	LangCUE      = "cue"
	LangStarlark = "starlark"
	LangHCL      = "hcl"
)

// Languages lists the supported configuration languages.
var Languages = []string{LangCUE, LangStarlark, LangHCL}
