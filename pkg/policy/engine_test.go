package policy

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

const portsPolicy = `package bunsenite.ports

deny contains msg if {
	input.port < 1024
	msg := sprintf("port %d is privileged", [input.port])
}

warn contains msg if {
	not input.owner
	msg := "owner is not set"
}
`

const structuredPolicy = `package bunsenite.names

deny contains {"msg": msg} if {
	some name in input.services
	not startswith(name, "svc-")
	msg := sprintf("service %s must start with svc-", [name])
}
`

func writePolicy(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngine_Evaluate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writePolicy(t, dir, "ports.rego", portsPolicy)
	writePolicy(t, dir, "nested/names.rego", structuredPolicy)
	writePolicy(t, dir, "README.md", "not a policy")

	eng, err := NewEngine(ctx, []string{dir}, nil)
	require.NoError(t, err)

	policies := eng.Policies()
	require.Len(t, policies, 2)
	assert.Equal(t, "names", policies[0].Name)
	assert.Equal(t, "data.bunsenite.names", policies[0].Package)
	assert.Equal(t, "ports", policies[1].Name)

	tests := []struct {
		name         string
		input        engine.Value
		wantAllowed  bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name: "compliant",
			input: map[string]interface{}{
				"port":     int64(8080),
				"owner":    "platform",
				"services": []interface{}{"svc-api"},
			},
			wantAllowed: true,
		},
		{
			name: "warning only",
			input: map[string]interface{}{
				"port": int64(8080),
			},
			wantAllowed:  true,
			wantWarnings: []string{"owner is not set"},
		},
		{
			name: "denied",
			input: map[string]interface{}{
				"port":     int64(80),
				"owner":    "platform",
				"services": []interface{}{"api", "svc-db", "worker"},
			},
			wantAllowed: false,
			wantErrors: []string{
				"port 80 is privileged",
				"service api must start with svc-",
				"service worker must start with svc-",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Evaluate(ctx, tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAllowed, result.Allowed())
			assert.Equal(t, tt.wantErrors, result.Errors())
			assert.Equal(t, tt.wantWarnings, result.Warnings())
		})
	}
}

func TestEngine_BooleanRules(t *testing.T) {
	ctx := context.Background()
	path := writePolicy(t, t.TempDir(), "ssh.rego", `package bunsenite.ssh

deny if {
	input.port == 22
}

warn if {
	input.debug
}
`)

	eng, err := NewEngine(ctx, []string{path}, nil)
	require.NoError(t, err)

	tests := []struct {
		name         string
		input        engine.Value
		wantAllowed  bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:         "rules hold",
			input:        map[string]interface{}{"port": int64(22), "debug": true},
			wantAllowed:  false,
			wantErrors:   []string{"ssh: deny"},
			wantWarnings: []string{"ssh: warn"},
		},
		{
			name:        "rules undefined",
			input:       map[string]interface{}{"port": int64(8080)},
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Evaluate(ctx, tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAllowed, result.Allowed())
			assert.Equal(t, tt.wantErrors, result.Errors())
			assert.Equal(t, tt.wantWarnings, result.Warnings())
		})
	}
}

func TestEngine_FalseAndMalformedRules(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	falsePath := writePolicy(t, dir, "off.rego", "package bunsenite.off\n\ndeny := false\n")
	eng, err := NewEngine(ctx, []string{falsePath}, nil)
	require.NoError(t, err)
	result, err := eng.Evaluate(ctx, map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, result.Allowed())

	numberPath := writePolicy(t, dir, "number.rego", "package bunsenite.number\n\ndeny := 5\n")
	eng, err = NewEngine(ctx, []string{numberPath}, nil)
	require.NoError(t, err)
	_, err = eng.Evaluate(ctx, map[string]interface{}{})
	var evalErr *engine.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, numberPath, evalErr.File)
	assert.Contains(t, evalErr.Message, "rule deny must be a set of messages or a boolean")
}

func TestEngine_NonObjectInput(t *testing.T) {
	path := writePolicy(t, t.TempDir(), "ports.rego", portsPolicy)

	eng, err := NewEngine(context.Background(), []string{path}, nil)
	require.NoError(t, err)

	result, err := eng.Evaluate(context.Background(), []interface{}{int64(1), "two"})
	require.NoError(t, err)
	assert.True(t, result.Allowed())
}

func TestEngine_LoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := NewEngine(ctx, []string{filepath.Join(dir, "missing.rego")}, nil)
	var ioErr *engine.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	syntax := writePolicy(t, dir, "syntax.rego", "package bunsenite\n\ndeny contains msg if {\n")
	_, err = NewEngine(ctx, []string{syntax}, nil)
	var parseErr *engine.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, syntax, parseErr.File)

	unsafe := writePolicy(t, dir, "unsafe.rego", "package bunsenite\n\ndeny contains msg if {\n\tx > 1\n}\n")
	_, err = NewEngine(ctx, []string{unsafe}, nil)
	var evalErr *engine.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, unsafe, evalErr.File)
}

func TestResult(t *testing.T) {
	r := &Result{Violations: []Violation{
		{Policy: "a", Message: "careful", Severity: SeverityWarning},
	}}
	assert.True(t, r.Allowed())
	assert.Equal(t, []string{"careful"}, r.Warnings())
	assert.Nil(t, r.Errors())

	r.Violations = append(r.Violations, Violation{Policy: "a", Message: "no", Severity: SeverityError})
	assert.False(t, r.Allowed())
	assert.Equal(t, []string{"no"}, r.Errors())
}
