// Package engine defines the contract between bunsenite and the configuration
// language engines it drives.
//
// # Error taxonomy
//
// Every failure surfaced to the operator is one of six kinds:
//
//	Kind            Recoverable  Display
//	parse           yes          Failed to parse configuration file '<file>': <message>
//	evaluation      yes          Failed to evaluate configuration program '<file>': <message>
//	serialization   no           Failed to serialize result: <message>
//	io              no           File I/O error: <cause>
//	invalid_input   yes          Invalid input: <message>
//	internal        no           Internal error: <message>
//
// Recoverable kinds are problems with the user's input. The others are
// environment problems or defects. Each kind has exactly one fixed
// suggestion, see Kind.Suggestion.
//
// Error is a sealed interface: only the concrete types in this package
// implement it, and each carries only the payload of its kind.
//
//	err := engine.NewParseError("config.cue", "expected '}', found EOF")
//	engine.IsRecoverable(err) // true
//	hint, _ := engine.Suggestion(err)
//
// # Loader
//
// Loader is the narrow interface implemented by the engines in pkg/config.
// Tests substitute a fake Loader that returns canned values and errors.
package engine
