// Package config implements the configuration language engines behind
// bunsenite's engine.Loader contract.
//
// # Engines
//
// Loader picks an engine per source, by the --lang override or by file
// extension:
//
//	.cue (and anything unrecognised)   CUEParser
//	.star .starlark .bzl .sky          StarlarkEvaluator
//	.hcl                               HCLParser
//
// Every engine offers two operations. Evaluate (ParseFile on the Loader)
// parses and evaluates a program into a JSON-shaped value. Check (Validate
// on the Loader) performs syntax and reference checking only.
//
// # Error classification
//
// Engines never return raw library errors:
//
//   - syntax errors are *engine.ParseError
//   - conflicts, incomplete values, undefined names and runtime failures are
//     *engine.EvaluationError
//   - unreadable files are *engine.IOError
//   - values with no JSON form are *engine.SerializationError
//   - an unsupported --lang, or a schema check of a Starlark or HCL source
//     that is not evaluated, is *engine.InvalidInputError
//
// # Schemas
//
// A CUE schema file can be unified with a CUE program before it is checked or
// exported, so schema defaults and constraints apply:
//
//	loader, _ := config.NewLoader(engine.LoaderConfig{Schema: "schema.cue"})
//	value, err := loader.ParseFile(ctx, "service.cue")
//
// Starlark and HCL results are checked against the schema after evaluation.
// Their values are not changed, so schema defaults do not apply. Validate
// does not execute those programs and rejects a schema for them.
//
// # Starlark
//
// A Starlark program's configuration is its public globals. Names starting
// with an underscore and functions are omitted. print() output is discarded
// and execution is cancelled after 30 seconds. The json, math and struct
// modules are predeclared.
package config
