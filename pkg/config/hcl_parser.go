package config

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/bunsenite/bunsenite/pkg/engine"
)

// HCLParser evaluates HCL documents. Attributes become object fields and
// blocks nest under their type and labels, the way Terraform renders HCL as
// JSON. Repeated blocks with the same address become a list.
type HCLParser struct {
	functions map[string]function.Function
}

// NewHCLParser creates a new HCL parser with the standard function library.
func NewHCLParser() *HCLParser {
	return &HCLParser{
		functions: map[string]function.Function{
			"abs":        stdlib.AbsoluteFunc,
			"coalesce":   stdlib.CoalesceFunc,
			"concat":     stdlib.ConcatFunc,
			"format":     stdlib.FormatFunc,
			"join":       stdlib.JoinFunc,
			"jsondecode": stdlib.JSONDecodeFunc,
			"jsonencode": stdlib.JSONEncodeFunc,
			"keys":       stdlib.KeysFunc,
			"length":     stdlib.LengthFunc,
			"lower":      stdlib.LowerFunc,
			"max":        stdlib.MaxFunc,
			"merge":      stdlib.MergeFunc,
			"min":        stdlib.MinFunc,
			"range":      stdlib.RangeFunc,
			"replace":    stdlib.ReplaceFunc,
			"split":      stdlib.SplitFunc,
			"trimspace":  stdlib.TrimSpaceFunc,
			"upper":      stdlib.UpperFunc,
			"values":     stdlib.ValuesFunc,
		},
	}
}

// Check parses src and verifies that every expression only calls known
// functions and references no variables. Nothing is evaluated.
func (hp *HCLParser) Check(filename string, src []byte) error {
	body, err := hp.parse(filename, src)
	if err != nil {
		return err
	}

	diags := hclsyntax.VisitAll(body, func(node hclsyntax.Node) hcl.Diagnostics {
		call, ok := node.(*hclsyntax.FunctionCallExpr)
		if !ok {
			return nil
		}
		if _, known := hp.functions[call.Name]; known {
			return nil
		}
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Call to unknown function",
			Detail:   fmt.Sprintf("There is no function named %q.", call.Name),
			Subject:  call.NameRange.Ptr(),
		}}
	})
	diags = append(diags, checkVariables(body)...)

	if diags.HasErrors() {
		return engine.NewEvaluationError(filename, diags.Error())
	}
	return nil
}

// checkVariables reports every free variable reference in body. Names bound
// by for expressions are not free.
func checkVariables(body *hclsyntax.Body) hcl.Diagnostics {
	var diags hcl.Diagnostics

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, traversal := range body.Attributes[name].Expr.Variables() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown variable",
				Detail:   fmt.Sprintf("There is no variable named %q.", traversal.RootName()),
				Subject:  traversal.SourceRange().Ptr(),
			})
		}
	}

	for _, block := range body.Blocks {
		diags = append(diags, checkVariables(block.Body)...)
	}
	return diags
}

// Evaluate parses and evaluates src into a value.
func (hp *HCLParser) Evaluate(ctx context.Context, filename string, src []byte) (engine.Value, error) {
	body, err := hp.parse(filename, src)
	if err != nil {
		return nil, err
	}

	evalCtx := &hcl.EvalContext{Functions: hp.functions}
	return hp.decodeBody(filename, body, evalCtx)
}

func (hp *HCLParser) parse(filename string, src []byte) (*hclsyntax.Body, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, engine.NewParseError(filename, diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, engine.NewInternalError(fmt.Sprintf("unexpected HCL body type %T", file.Body))
	}
	return body, nil
}

func (hp *HCLParser) decodeBody(filename string, body *hclsyntax.Body, evalCtx *hcl.EvalContext) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(body.Attributes)+len(body.Blocks))

	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attr := body.Attributes[name]
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, engine.NewEvaluationError(filename, diags.Error())
		}
		goVal, err := ctyToGo(filename, val, name)
		if err != nil {
			return nil, err
		}
		out[name] = goVal
	}

	for _, block := range body.Blocks {
		decoded, err := hp.decodeBody(filename, block.Body, evalCtx)
		if err != nil {
			return nil, err
		}
		if err := insertBlock(out, append([]string{block.Type}, block.Labels...), decoded); err != nil {
			return nil, engine.NewEvaluationError(filename, fmt.Sprintf("%s: %s", block.DefRange().String(), err))
		}
	}

	return out, nil
}

// insertBlock stores decoded at the nested address in out.
func insertBlock(out map[string]interface{}, address []string, decoded map[string]interface{}) error {
	key := address[0]
	existing, exists := out[key]

	if len(address) == 1 {
		switch cur := existing.(type) {
		case nil:
			if exists {
				return fmt.Errorf("block %q conflicts with an attribute of the same name", key)
			}
			out[key] = decoded
		case map[string]interface{}:
			out[key] = []interface{}{cur, decoded}
		case []interface{}:
			out[key] = append(cur, decoded)
		default:
			return fmt.Errorf("block %q conflicts with an attribute of the same name", key)
		}
		return nil
	}

	if !exists {
		nested := make(map[string]interface{})
		out[key] = nested
		return insertBlock(nested, address[1:], decoded)
	}

	nested, ok := existing.(map[string]interface{})
	if !ok {
		return fmt.Errorf("block %q conflicts with an attribute of the same name", key)
	}
	return insertBlock(nested, address[1:], decoded)
}

// ctyToGo converts an evaluated cty value into a Go value.
func ctyToGo(filename string, val cty.Value, path string) (interface{}, error) {
	val, _ = val.Unmark()

	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, engine.NewEvaluationError(filename, fmt.Sprintf("value of %s is not known", path))
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
			return json.Number(bf.Text('f', -1)), nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := make([]interface{}, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			item, err := ctyToGo(filename, elem, fmt.Sprintf("%s[%d]", path, len(list)))
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case ty.IsMapType() || ty.IsObjectType():
		obj := make(map[string]interface{}, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			item, err := ctyToGo(filename, elem, path+"."+key.AsString())
			if err != nil {
				return nil, err
			}
			obj[key.AsString()] = item
		}
		return obj, nil
	default:
		return nil, engine.NewSerializationError(fmt.Sprintf("unsupported HCL value of type %s at %s", ty.FriendlyName(), path))
	}
}
