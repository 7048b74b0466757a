package config

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"github.com/bunsenite/bunsenite/pkg/telemetry"
)

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"config.cue":          engine.LangCUE,
		"BUILD.bzl":           engine.LangStarlark,
		"deploy.star":         engine.LangStarlark,
		"deploy.starlark":     engine.LangStarlark,
		"rules.sky":           engine.LangStarlark,
		"main.hcl":            engine.LangHCL,
		"MAIN.HCL":            engine.LangHCL,
		"config.ncl":          engine.LangCUE,
		"noextension":         engine.LangCUE,
		"dir.star/config.cue": engine.LangCUE,
	}

	for name, want := range tests {
		assert.Equal(t, want, DetectLanguage(name), name)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"":                  DefaultDisplayName,
		".":                 DefaultDisplayName,
		"/":                 DefaultDisplayName,
		"config.cue":        "config.cue",
		"/etc/app/main.hcl": "main.hcl",
	}

	for path, want := range tests {
		assert.Equal(t, want, DisplayName(path), "path %q", path)
	}
}

func TestNewLoader_InvalidLanguage(t *testing.T) {
	loader, err := NewLoader(engine.LoaderConfig{Lang: "nickel"})
	assert.Nil(t, loader)

	var inputErr *engine.InvalidInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Message, `"nickel"`)
	assert.Contains(t, inputErr.Message, "cue, starlark, hcl")
}

func TestLoader_ParseFile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		file    string
		content string
		lang    string
		want    string
	}{
		{
			name:    "cue",
			file:    "app.cue",
			content: "name: \"api\"\nport: 8080\n",
			want:    `{"name":"api","port":8080}`,
		},
		{
			name:    "starlark",
			file:    "app.star",
			content: "name = \"api\"\nport = 8000 + 80\n",
			want:    `{"name":"api","port":8080}`,
		},
		{
			name:    "hcl",
			file:    "app.hcl",
			content: "name = \"api\"\nport = 8080\n",
			want:    `{"name":"api","port":8080}`,
		},
		{
			name:    "unknown extension defaults to cue",
			file:    "app.ncl",
			content: "port: 1 + 1\n",
			want:    `{"port":2}`,
		},
		{
			name:    "explicit language overrides extension",
			file:    "app.conf",
			content: "port = 2 * 4\n",
			lang:    engine.LangStarlark,
			want:    `{"port":8}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewLoader(engine.LoaderConfig{Lang: tt.lang})
			require.NoError(t, err)

			value, err := loader.ParseFile(ctx, writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assertJSON(t, tt.want, value)
		})
	}
}

func TestLoader_ParseFileMissing(t *testing.T) {
	loader, err := NewLoader(engine.LoaderConfig{})
	require.NoError(t, err)

	_, err = loader.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.cue"))

	var ioErr *engine.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, engine.IsRecoverable(err))
}

func TestLoader_Schema(t *testing.T) {
	ctx := context.Background()
	schema := writeFile(t, "schema.cue", "port: int & >0\nhost: *\"localhost\" | string\n")

	loader, err := NewLoader(engine.LoaderConfig{Schema: schema})
	require.NoError(t, err)

	value, err := loader.ParseFile(ctx, writeFile(t, "app.cue", "port: 8080\n"))
	require.NoError(t, err)
	assertJSON(t, `{"host":"localhost","port":8080}`, value)

	_, err = loader.ParseFile(ctx, writeFile(t, "bad.cue", "port: -1\n"))
	kind, ok := engine.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, engine.KindEvaluation, kind)

	err = loader.Validate(ctx, "port = 1\n", "app.star")
	var inputErr *engine.InvalidInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Message, "app.star is starlark")
}

func TestLoader_SchemaOnEvaluatedEngines(t *testing.T) {
	ctx := context.Background()
	schema := writeFile(t, "schema.cue", "port: int & >0\nname: string\n")

	loader, err := NewLoader(engine.LoaderConfig{Schema: schema})
	require.NoError(t, err)

	tests := []struct {
		name     string
		file     string
		content  string
		wantJSON string
	}{
		{
			name:     "starlark satisfies schema",
			file:     "app.star",
			content:  "port = 8080\nname = \"web\"\n",
			wantJSON: `{"name":"web","port":8080}`,
		},
		{
			name:     "hcl satisfies schema",
			file:     "app.hcl",
			content:  "port = 8080\nname = \"web\"\n",
			wantJSON: `{"name":"web","port":8080}`,
		},
		{
			name:    "starlark out of range",
			file:    "bad.star",
			content: "port = -1\nname = \"web\"\n",
		},
		{
			name:    "hcl wrong type",
			file:    "bad.hcl",
			content: "port = \"http\"\nname = \"web\"\n",
		},
		{
			name:    "starlark missing field",
			file:    "partial.star",
			content: "port = 80\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			value, err := loader.ParseFile(ctx, path)

			if tt.wantJSON == "" {
				var evalErr *engine.EvaluationError
				require.ErrorAs(t, err, &evalErr)
				assert.Equal(t, path, evalErr.File)
				assert.Contains(t, evalErr.Message, "schema")
				return
			}
			require.NoError(t, err)
			assertJSON(t, tt.wantJSON, value)
		})
	}
}

func TestLoader_Validate(t *testing.T) {
	ctx := context.Background()
	loader, err := NewLoader(engine.LoaderConfig{})
	require.NoError(t, err)

	assert.NoError(t, loader.Validate(ctx, "a: 1\n", "config.cue"))
	assert.NoError(t, loader.Validate(ctx, "a = 1\n", "config.star"))
	assert.NoError(t, loader.Validate(ctx, "a = 1\n", "config.hcl"))

	err = loader.Validate(ctx, "a: {\n", "")
	var parseErr *engine.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, DefaultDisplayName, parseErr.File)

	err = loader.Validate(ctx, "a = b\n", "config.star")
	kind, _ := engine.KindOf(err)
	assert.Equal(t, engine.KindEvaluation, kind)
}

func TestLoader_VerboseLogging(t *testing.T) {
	path := writeFile(t, "app.cue", "a: 1\n")

	run := func(verbose bool) string {
		var buf bytes.Buffer
		logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
			Level:   "debug",
			Format:  "console",
			Writer:  &buf,
			NoColor: true,
		})
		require.NoError(t, err)

		loader, err := NewLoader(engine.LoaderConfig{Verbose: verbose})
		require.NoError(t, err)

		_, err = loader.ParseFile(logger.WithContext(context.Background()), path)
		require.NoError(t, err)
		return buf.String()
	}

	assert.Contains(t, run(true), "Evaluating configuration")
	assert.Empty(t, run(false))
}
