package objgraph

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DefaultRenderDepth is the nesting Render descends into before truncating
const DefaultRenderDepth = 8

// Truncated marks a value Render did not descend into
const Truncated = "<truncated>"

// Render converts a PDF object into JSON friendly values. Names keep their
// leading slash ("/JavaScript"), strings are decoded and references are not
// followed but rendered as "N G R", so the output is bounded by the size of
// the direct object.
func Render(obj types.Object, depth int) any {
	if depth < 0 {
		return Truncated
	}

	switch v := obj.(type) {
	case nil:
		return nil
	case types.Name:
		return "/" + v.Value()
	case types.StringLiteral:
		return DecodeString(v)
	case types.HexLiteral:
		return DecodeHex(v)
	case types.Integer:
		return v.Value()
	case types.Float:
		return v.Value()
	case types.Boolean:
		return v.Value()
	case types.IndirectRef:
		return IDOf(v).String()
	case *types.IndirectRef:
		if v == nil {
			return nil
		}
		return IDOf(*v).String()
	case types.Array:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, Render(item, depth-1))
		}
		return out
	case types.Dict:
		return renderDict(v, depth)
	case types.StreamDict:
		return renderDict(v.Dict, depth)
	case *types.StreamDict:
		return renderDict(v.Dict, depth)
	default:
		return v.String()
	}
}

func renderDict(d types.Dict, depth int) map[string]any {
	out := make(map[string]any, len(d))
	for k, item := range d {
		out[k] = Render(item, depth-1)
	}
	return out
}

// RenderDict renders a dictionary at the default depth
func RenderDict(d types.Dict) map[string]any {
	return renderDict(d, DefaultRenderDepth)
}
