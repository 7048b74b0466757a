package policy

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/bunsenite/bunsenite/pkg/telemetry"
)

// Loader reads Rego modules from files and directories.
type Loader struct {
	logger *telemetry.Logger
}

// NewLoader creates a new policy loader.
func NewLoader(logger *telemetry.Logger) *Loader {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Loader{
		logger: logger.NewComponentLogger("policy-loader"),
	}
}

// LoadFromPaths loads policies from a list of file or directory paths.
// Directories are walked recursively for .rego files in lexical order.
func (l *Loader) LoadFromPaths(ctx context.Context, paths []string) ([]Policy, error) {
	var allPolicies []Policy

	for _, path := range paths {
		policies, err := l.loadFromPath(ctx, path)
		if err != nil {
			return nil, err
		}
		allPolicies = append(allPolicies, policies...)
	}

	l.logger.WithField("total", len(allPolicies)).Debug("Policies loaded from paths")
	return allPolicies, nil
}

// loadFromPath loads policies from a single path (file or directory).
func (l *Loader) loadFromPath(ctx context.Context, path string) ([]Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, engine.NewIOError(err)
	}

	if !info.IsDir() {
		policy, err := l.loadFromFile(path)
		if err != nil {
			return nil, err
		}
		return []Policy{*policy}, nil
	}

	var policies []Policy
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return engine.NewIOError(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(p, ".rego") {
			return nil
		}

		policy, err := l.loadFromFile(p)
		if err != nil {
			return err
		}
		policies = append(policies, *policy)
		return nil
	})
	if err != nil {
		var e engine.Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, engine.NewInternalError(err.Error())
	}

	return policies, nil
}

// loadFromFile reads and parses a single Rego module.
func (l *Loader) loadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewIOError(err)
	}

	module, err := ast.ParseModule(path, string(data))
	if err != nil {
		return nil, engine.NewParseError(path, err.Error())
	}
	if module == nil {
		return nil, engine.NewParseError(path, "empty policy module")
	}

	policy := &Policy{
		Name:    strings.TrimSuffix(filepath.Base(path), ".rego"),
		Source:  path,
		Package: module.Package.Path.String(),
		module:  module,
	}

	l.logger.WithFile(path).WithField("package", policy.Package).Debug("Policy loaded from file")
	return policy, nil
}
