package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/bunsenite/bunsenite/pkg/telemetry"
)

// Engine evaluates evaluated configurations against Rego policies. Each
// policy package may define a deny and a warn rule holding a set of
// messages, in the style of conftest.
type Engine struct {
	policies []compiledPolicy
	logger   *telemetry.Logger
}

// compiledPolicy represents a prepared Rego query for one policy.
type compiledPolicy struct {
	policy *Policy
	query  rego.PreparedEvalQuery
}

// NewEngine loads and compiles the policies found at paths.
func NewEngine(ctx context.Context, paths []string, logger *telemetry.Logger) (*Engine, error) {
	if logger == nil {
		logger = telemetry.NopLogger()
	}

	policies, err := NewLoader(logger).LoadFromPaths(ctx, paths)
	if err != nil {
		return nil, err
	}

	e := &Engine{logger: logger.NewComponentLogger("policy-engine")}
	for i := range policies {
		if err := e.compile(ctx, &policies[i]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// compile prepares the query that returns the policy's package document.
func (e *Engine) compile(ctx context.Context, policy *Policy) error {
	r := rego.New(
		rego.ParsedModule(policy.module),
		rego.Query(policy.Package),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return engine.NewEvaluationError(policy.Source, err.Error())
	}

	e.policies = append(e.policies, compiledPolicy{policy: policy, query: query})
	e.logger.WithField("policy", policy.Name).Debug("Policy compiled successfully")
	return nil
}

// Policies returns the loaded policies.
func (e *Engine) Policies() []Policy {
	out := make([]Policy, 0, len(e.policies))
	for _, cp := range e.policies {
		out = append(out, *cp.policy)
	}
	return out
}

// Evaluate evaluates every policy with value as input.
func (e *Engine) Evaluate(ctx context.Context, value engine.Value) (*Result, error) {
	result := &Result{}

	for _, cp := range e.policies {
		rs, err := cp.query.Eval(ctx, rego.EvalInput(value))
		if err != nil {
			return nil, engine.NewEvaluationError(cp.policy.Source, err.Error())
		}

		for _, r := range rs {
			if len(r.Expressions) == 0 {
				continue
			}
			doc, ok := r.Expressions[0].Value.(map[string]interface{})
			if !ok {
				continue
			}
			for _, rule := range []struct {
				name     string
				severity Severity
			}{{DenyRule, SeverityError}, {WarnRule, SeverityWarning}} {
				violations, err := collect(cp.policy, rule.name, doc[rule.name], rule.severity)
				if err != nil {
					return nil, err
				}
				result.Violations = append(result.Violations, violations...)
			}
		}
	}

	sort.SliceStable(result.Violations, func(i, j int) bool {
		a, b := result.Violations[i], result.Violations[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityError
		}
		return a.Message < b.Message
	})

	e.logger.WithField("violations", len(result.Violations)).Debug("Policy evaluation completed")
	return result, nil
}

// collect turns a deny or warn rule value into violations. Set rules hold
// strings or objects with a msg field. A boolean rule that holds is a single
// violation named after the policy and rule.
func collect(policy *Policy, name string, rule interface{}, severity Severity) ([]Violation, error) {
	var entries []interface{}
	switch value := rule.(type) {
	case nil:
		return nil, nil
	case bool:
		if !value {
			return nil, nil
		}
		return []Violation{{
			Policy:   policy.Name,
			Message:  policy.Name + ": " + name,
			Severity: severity,
		}}, nil
	case []interface{}:
		entries = value
	default:
		return nil, engine.NewEvaluationError(policy.Source,
			fmt.Sprintf("rule %s must be a set of messages or a boolean, got %T", name, rule))
	}

	violations := make([]Violation, 0, len(entries))
	for _, entry := range entries {
		v := Violation{Policy: policy.Name, Severity: severity}
		switch msg := entry.(type) {
		case string:
			v.Message = msg
		case map[string]interface{}:
			if s, ok := msg["msg"].(string); ok {
				v.Message = s
			} else {
				v.Message = fmt.Sprintf("%v", msg)
			}
		default:
			v.Message = fmt.Sprintf("%v", entry)
		}
		violations = append(violations, v)
	}
	return violations, nil
}
