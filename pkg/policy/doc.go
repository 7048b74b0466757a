// Package policy provides Open Policy Agent (OPA) checks for evaluated
// configurations.
//
// Policies are Rego modules read from files or directories. The evaluated
// configuration is the policy input, and each package may define two rules
// holding sets of messages:
//
//	package bunsenite.ports
//
//	deny contains msg if {
//	    input.port < 1024
//	    msg := sprintf("port %d is privileged", [input.port])
//	}
//
//	warn contains msg if {
//	    not input.owner
//	    msg := "owner is not set"
//	}
//
// A deny entry fails the command. A warn entry is reported on stderr only.
//
// # Usage
//
//	eng, err := policy.NewEngine(ctx, []string{"policies/"}, logger)
//	if err != nil {
//	    return err
//	}
//
//	result, err := eng.Evaluate(ctx, value)
//	if err != nil {
//	    return err
//	}
//	if !result.Allowed() {
//	    // result.Errors() lists the deny messages
//	}
//
// Unreadable policy files are I/O errors, Rego syntax errors are parse
// errors, and compile or runtime failures are evaluation errors attributed
// to the policy file.
package policy
