package document

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/timitprog-hue/buildplan/internal/models"
)

const hclFilename = "build.hcl"

// HCL parses documents written in HashiCorp configuration syntax:
//
//	applicationId     = "com.example.app"
//	compileSdkVersion = 36
//	minSdkVersion     = flutter.minSdkVersion
//	pluginList        = ["com.android.application", "kotlin-android"]
//
//	buildTypes {
//	  release {
//	    signingConfig = "debug"
//	  }
//	}
//
// Bare references such as flutter.minSdkVersion cannot be evaluated without
// a toolchain, so they are kept as dotted strings for the resolver, except
// in versionName where they become explicit {"$ref": name} values. Blocks
// nest by type and then by label.
type HCL struct{}

// HCLParser returns a koanf parser for HCL documents
func HCLParser() *HCL {
	return &HCL{}
}

// Unmarshal parses HCL native syntax into a nested map
func (p *HCL) Unmarshal(b []byte) (map[string]interface{}, error) {
	file, diags := hclsyntax.ParseConfig(b, hclFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body type %T", file.Body)
	}
	return hclBodyToMap(body)
}

// Marshal is not supported; HCL documents are read-only input
func (p *HCL) Marshal(map[string]interface{}) ([]byte, error) {
	return nil, fmt.Errorf("marshalling to HCL is not supported")
}

func hclBodyToMap(body *hclsyntax.Body) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(body.Attributes)+len(body.Blocks))

	for name, attr := range body.Attributes {
		v, err := hclExprToNative(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", attr.SrcRange, name, err)
		}
		// A bare reference in the free-form versionName must not read as text
		if _, isRef := attr.Expr.(*hclsyntax.ScopeTraversalExpr); isRef && name == models.KeyVersionName {
			v = models.Reference(v.(string))
		}
		out[name] = v
	}

	for _, block := range body.Blocks {
		inner, err := hclBodyToMap(block.Body)
		if err != nil {
			return nil, err
		}

		path := append([]string{block.Type}, block.Labels...)
		target := out
		for _, key := range path[:len(path)-1] {
			existing, ok := target[key]
			if !ok {
				next := make(map[string]interface{})
				target[key] = next
				target = next
				continue
			}
			next, ok := existing.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: block %q conflicts with attribute %q", block.DefRange(), strings.Join(path, "."), key)
			}
			target = next
		}

		last := path[len(path)-1]
		if _, exists := target[last]; exists {
			return nil, fmt.Errorf("%s: duplicate %q block", block.DefRange(), strings.Join(path, "."))
		}
		target[last] = inner
	}

	return out, nil
}

// hclExprToNative evaluates an expression without a scope. Traversals become
// dotted reference strings; everything else must be a constant.
func hclExprToNative(expr hclsyntax.Expression) (interface{}, error) {
	switch e := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		return traversalName(e.Traversal)

	case *hclsyntax.TupleConsExpr:
		items := make([]interface{}, 0, len(e.Exprs))
		for _, item := range e.Exprs {
			v, err := hclExprToNative(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil

	case *hclsyntax.ObjectConsExpr:
		obj := make(map[string]interface{}, len(e.Items))
		for _, item := range e.Items {
			key := hcl.ExprAsKeyword(item.KeyExpr)
			if key == "" {
				kv, diags := item.KeyExpr.Value(nil)
				if diags.HasErrors() {
					return nil, diags
				}
				if kv.Type() != cty.String || kv.IsNull() {
					return nil, fmt.Errorf("object keys must be strings")
				}
				key = kv.AsString()
			}
			v, err := hclExprToNative(item.ValueExpr)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		return obj, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(val)
}

func traversalName(traversal hcl.Traversal) (string, error) {
	parts := make([]string, 0, len(traversal))
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			parts = append(parts, s.Name)
		case hcl.TraverseAttr:
			parts = append(parts, s.Name)
		default:
			return "", fmt.Errorf("unsupported reference %T; only dotted names are allowed", step)
		}
	}
	return strings.Join(parts, "."), nil
}

// ctyToNative converts a cty.Value into plain Go values. Whole numbers
// become int so SDK levels survive unchanged.
func ctyToNative(v cty.Value) (interface{}, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		items := make([]interface{}, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil

	case ty.IsObjectType() || ty.IsMapType():
		obj := make(map[string]interface{})
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			obj[key.AsString()] = native
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
