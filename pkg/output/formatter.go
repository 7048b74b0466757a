// Package output renders evaluated configuration values as JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/bunsenite/bunsenite/pkg/engine"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Options controls how a value is rendered.
type Options struct {
	// Format is the output format (json, yaml). Empty means json.
	Format string `validate:"omitempty,oneof=json yaml"`

	// Pretty enables indented JSON. YAML is always indented.
	Pretty bool
}

// Format renders value as canonical JSON. Object keys are sorted. Values that
// cannot be represented in JSON yield an *engine.SerializationError.
func Format(value engine.Value, pretty bool) (string, error) {
	return Render(value, Options{Format: FormatJSON, Pretty: pretty})
}

// Render renders value according to opts.
func Render(value engine.Value, opts Options) (string, error) {
	if err := checkRepresentable(reflect.ValueOf(value), "$"); err != nil {
		return "", err
	}

	switch opts.Format {
	case "", FormatJSON:
		return renderJSON(value, opts.Pretty)
	case FormatYAML:
		return renderYAML(value)
	default:
		return "", engine.NewInvalidInputError(fmt.Sprintf("unsupported output format %q", opts.Format))
	}
}

func renderJSON(value engine.Value, pretty bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(value); err != nil {
		return "", engine.NewSerializationError(err.Error())
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func renderYAML(value engine.Value) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return "", engine.NewSerializationError(err.Error())
	}
	if err := enc.Close(); err != nil {
		return "", engine.NewSerializationError(err.Error())
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// checkRepresentable walks v and rejects nodes that have no JSON
// representation. path is a JSONPath-like location used in the message.
func checkRepresentable(v reflect.Value, path string) error {
	if !v.IsValid() {
		return nil
	}

	if v.Type() == reflect.TypeOf(json.Number("")) {
		if _, err := v.Interface().(json.Number).Float64(); err != nil {
			return engine.NewSerializationError(fmt.Sprintf("invalid number %q at %s", v.String(), path))
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return checkRepresentable(v.Elem(), path)
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return engine.NewSerializationError(fmt.Sprintf("non-finite number %v at %s", f, path))
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkRepresentable(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return engine.NewSerializationError(fmt.Sprintf("unsupported map key type %s at %s", v.Type().Key(), path))
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := checkRepresentable(iter.Value(), path+"."+iter.Key().String()); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := checkRepresentable(v.Field(i), path+"."+v.Type().Field(i).Name); err != nil {
				return err
			}
		}
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return engine.NewSerializationError(fmt.Sprintf("unsupported value of type %s at %s", v.Type(), path))
	}

	return nil
}
