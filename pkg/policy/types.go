package policy

import "github.com/open-policy-agent/opa/v1/ast"

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityWarning is reported on stderr but does not fail the command.
	SeverityWarning Severity = "warning"

	// SeverityError fails the command.
	SeverityError Severity = "error"
)

// Rule names read from every policy package. A deny entry is an error, a
// warn entry a warning.
const (
	DenyRule = "deny"
	WarnRule = "warn"
)

// Policy is one Rego module.
type Policy struct {
	// Name is the file name without its extension.
	Name string

	// Source is the path the module was read from.
	Source string

	// Package is the module's data path, such as data.bunsenite.ports.
	Package string

	module *ast.Module
}

// Violation is a single deny or warn entry produced by a policy.
type Violation struct {
	// Policy is the name of the policy that produced the entry.
	Policy string

	// Message is the human-readable message.
	Message string

	// Severity is the violation severity level.
	Severity Severity
}

// Result is the outcome of evaluating every loaded policy against one value.
type Result struct {
	Violations []Violation
}

// Allowed reports whether no error-level violation was found.
func (r *Result) Allowed() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the messages of error-level violations.
func (r *Result) Errors() []string {
	return r.messages(SeverityError)
}

// Warnings returns the messages of warning-level violations.
func (r *Result) Warnings() []string {
	return r.messages(SeverityWarning)
}

func (r *Result) messages(severity Severity) []string {
	var out []string
	for _, v := range r.Violations {
		if v.Severity == severity {
			out = append(out, v.Message)
		}
	}
	return out
}
