package router

import "fmt"

// RepositoryURL is the project home shown by info and help.
const RepositoryURL = "https://github.com/bunsenite/bunsenite"

// InfoText returns the static version, feature and compliance text.
func InfoText(version string) string {
	return fmt.Sprintf(`Bunsenite v%s

A configuration evaluator for CUE, Starlark and HCL

Features:
  • Typed configs: CUE unification with optional schema checks
  • Programmable configs: Starlark with json, math and struct built in
  • HCL documents: blocks, expressions and the standard function library
  • Offline-first: works completely air-gapped, no network access during evaluation

Standards Compliance:
  • RSR Framework: Bronze Tier
  • TPCF Perimeter: 3 (Community Sandbox)
  • License: Dual MIT + Palimpsest 0.8

Repository: %s
`, version, RepositoryURL)
}

// HelpText returns the static help printed when no command is given.
func HelpText(version string) string {
	return fmt.Sprintf(`Bunsenite v%s
Configuration file evaluator

USAGE:
    bunsenite <COMMAND>

COMMANDS:
    parse       Parse and evaluate a configuration file
    validate    Validate a configuration without evaluating it
    info        Show version and compliance information
    help        Print this message or the help of the given subcommand(s)

OPTIONS:
    -v, --verbose    Enable verbose output
    -h, --help       Print help information
    -V, --version    Print version information

EXAMPLES:
    # Parse and evaluate a config file
    bunsenite parse config.cue

    # Parse with pretty-printed output
    bunsenite parse config.cue --pretty

    # Evaluate a Starlark program as YAML
    bunsenite parse deploy.star --format yaml

    # Validate without evaluating
    bunsenite validate config.cue

    # Show info
    bunsenite info

For more information, visit:
%s
`, version, RepositoryURL)
}
