package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

// StarlarkEvaluator executes Starlark configuration programs. The evaluated
// configuration is the set of public globals left when the program finishes.
type StarlarkEvaluator struct {
	timeout time.Duration
}

// NewStarlarkEvaluator creates a new Starlark evaluator.
func NewStarlarkEvaluator(timeout time.Duration) *StarlarkEvaluator {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &StarlarkEvaluator{
		timeout: timeout,
	}
}

// predeclared returns the environment available to every program.
func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"json":   starlarkjson.Module,
		"math":   starlarkmath.Module,
	}
}

// Check resolves src without executing it. Syntax errors are parse errors;
// references to undefined names are evaluation errors.
func (se *StarlarkEvaluator) Check(filename string, src []byte) error {
	env := predeclared()
	_, _, err := starlark.SourceProgram(filename, src, env.Has)
	if err != nil {
		return classifyStarlarkError(filename, err)
	}
	return nil
}

// EvaluateFile executes src and converts its public globals into a value.
// Execution is cancelled after the evaluator's timeout.
func (se *StarlarkEvaluator) EvaluateFile(ctx context.Context, filename string, src []byte) (engine.Value, error) {
	thread := &starlark.Thread{
		Name: "bunsenite",
		Print: func(_ *starlark.Thread, msg string) {
			// print() must not reach stdout, which carries the result.
		},
	}

	timer := time.AfterFunc(se.timeout, func() {
		thread.Cancel(fmt.Sprintf("execution timeout after %v", se.timeout))
	})
	defer timer.Stop()

	globals, err := starlark.ExecFile(thread, filename, src, predeclared())
	if err != nil {
		return nil, classifyStarlarkError(filename, err)
	}

	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	output := make(map[string]interface{}, len(globals))
	for _, name := range names {
		val := globals[name]
		// Private names and helper functions are not part of the configuration.
		if name[0] == '_' {
			continue
		}
		if _, ok := val.(starlark.Callable); ok {
			continue
		}
		goVal, err := fromStarlarkValue(val, name)
		if err != nil {
			return nil, err
		}
		output[name] = goVal
	}

	return output, nil
}

// classifyStarlarkError maps Starlark failures onto the error taxonomy.
func classifyStarlarkError(filename string, err error) error {
	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return engine.NewParseError(filename, syntaxErr.Error())
	}

	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) {
		return engine.NewEvaluationError(filename, resolveErrs.Error())
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return engine.NewEvaluationError(filename, evalErr.Msg)
	}

	return engine.NewEvaluationError(filename, err.Error())
}

// converter turns Starlark values into Go values. It remembers the mutable
// containers on the current path so that self-referencing values are reported
// instead of recursing forever.
type converter struct {
	active map[starlark.Value]bool
}

func fromStarlarkValue(v starlark.Value, path string) (interface{}, error) {
	c := &converter{active: make(map[starlark.Value]bool)}
	return c.convert(v, path)
}

// enter marks v as being converted. It fails if v is already on the path.
func (c *converter) enter(v starlark.Value, path string) error {
	if c.active[v] {
		return engine.NewSerializationError("cyclic value at " + path)
	}
	c.active[v] = true
	return nil
}

func (c *converter) leave(v starlark.Value) {
	delete(c.active, v)
}

// convert converts a Starlark value to a Go value. path locates v in error
// messages.
func (c *converter) convert(v starlark.Value, path string) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i, nil
		}
		// Arbitrary precision integers are kept exact.
		return json.Number(val.String()), nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		if err := c.enter(val, path); err != nil {
			return nil, err
		}
		defer c.leave(val)
		return c.convertIterable(val, val.Len(), path)
	case starlark.Tuple:
		return c.convertIterable(val, val.Len(), path)
	case *starlark.Set:
		if err := c.enter(val, path); err != nil {
			return nil, err
		}
		defer c.leave(val)
		return c.convertIterable(val, val.Len(), path)
	case *starlark.Dict:
		if err := c.enter(val, path); err != nil {
			return nil, err
		}
		defer c.leave(val)
		return c.convertDict(val, path)
	case *starlarkstruct.Struct:
		if err := c.enter(val, path); err != nil {
			return nil, err
		}
		defer c.leave(val)
		dict := make(map[string]interface{})
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				return nil, engine.NewEvaluationError(path, err.Error())
			}
			value, err := c.convert(attr, path+"."+name)
			if err != nil {
				return nil, err
			}
			dict[name] = value
		}
		return dict, nil
	default:
		return nil, engine.NewSerializationError(fmt.Sprintf("unsupported starlark type %s at %s", v.Type(), path))
	}
}

func (c *converter) convertIterable(iterable starlark.Iterable, n int, path string) (interface{}, error) {
	list := make([]interface{}, 0, n)
	iter := iterable.Iterate()
	defer iter.Done()

	var x starlark.Value
	for iter.Next(&x) {
		item, err := c.convert(x, fmt.Sprintf("%s[%d]", path, len(list)))
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, nil
}

// convertDict converts a dict. Dicts with non-string keys are returned as
// map[interface{}]interface{} so the formatter can reject them.
func (c *converter) convertDict(dict *starlark.Dict, path string) (interface{}, error) {
	stringKeys := make(map[string]interface{}, dict.Len())
	var otherKeys map[interface{}]interface{}

	for _, item := range dict.Items() {
		value, err := c.convert(item[1], fmt.Sprintf("%s[%s]", path, item[0].String()))
		if err != nil {
			return nil, err
		}

		if key, ok := item[0].(starlark.String); ok && otherKeys == nil {
			stringKeys[string(key)] = value
			continue
		}

		if otherKeys == nil {
			otherKeys = make(map[interface{}]interface{}, dict.Len())
			for k, v := range stringKeys {
				otherKeys[k] = v
			}
		}
		key, err := c.convert(item[0], path)
		if err != nil {
			return nil, err
		}
		// Tuples and structs are hashable in Starlark but convert to slices
		// and maps, which cannot be Go map keys.
		switch key.(type) {
		case []interface{}, map[string]interface{}, map[interface{}]interface{}:
			key = item[0].String()
		}
		otherKeys[key] = value
	}

	if otherKeys != nil {
		return otherKeys, nil
	}
	return stringKeys, nil
}
