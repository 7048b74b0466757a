package config

import (
	"path/filepath"
	"strings"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

// DefaultDisplayName is used in diagnostics when a source has no file name.
const DefaultDisplayName = "unknown.ncl"

// extensionLanguages maps file extensions to configuration languages.
// Anything not listed here is treated as CUE.
var extensionLanguages = map[string]string{
	".cue":      engine.LangCUE,
	".star":     engine.LangStarlark,
	".starlark": engine.LangStarlark,
	".bzl":      engine.LangStarlark,
	".sky":      engine.LangStarlark,
	".hcl":      engine.LangHCL,
}

// DetectLanguage returns the configuration language for a file name based on
// its extension.
func DetectLanguage(name string) string {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(name))]; ok {
		return lang
	}
	return engine.LangCUE
}

// DisplayName returns the base name of path for diagnostics, or
// DefaultDisplayName when path has none.
func DisplayName(path string) string {
	base := filepath.Base(path)
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return DefaultDisplayName
	}
	return base
}
