package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/objgraph"
)

// listFields walks the AcroForm field tree and returns its terminal fields.
// Kids without /T are widgets of their parent, not fields of their own.
func listFields(g *objgraph.Graph) ([]FieldInfo, []objgraph.Problem) {
	catalog, err := g.Catalog()
	if err != nil {
		return nil, []objgraph.Problem{{Location: "catalog", Err: err}}
	}
	if catalog == nil {
		return nil, nil
	}

	acroForm, err := g.DictAt(catalog, objgraph.KeyAcroForm)
	if err != nil {
		return nil, []objgraph.Problem{{Location: "AcroForm", Object: objgraph.RefString(catalog[string(objgraph.KeyAcroForm)]), Err: err}}
	}
	roots, err := g.ArrayAt(acroForm, objgraph.KeyFields)
	if err != nil {
		return nil, []objgraph.Problem{{Location: "AcroForm.Fields", Object: objgraph.RefString(acroForm[string(objgraph.KeyFields)]), Err: err}}
	}

	l := &fieldLister{g: g, seen: objgraph.NewVisited(), fields: []FieldInfo{}}
	for i, root := range roots {
		l.walk(root, "", "", fmt.Sprintf("AcroForm.Fields[%d]", i), 0)
	}
	return l.fields, l.problems
}

type fieldLister struct {
	g        *objgraph.Graph
	seen     *objgraph.Visited
	fields   []FieldInfo
	problems []objgraph.Problem
}

func (l *fieldLister) problem(location, object string, err error) {
	l.problems = append(l.problems, objgraph.Problem{Location: location, Object: object, Err: err})
}

func (l *fieldLister) walk(node types.Object, parentName, inheritedFT, location string, depth int) {
	refStr := objgraph.RefString(node)
	if depth > objgraph.MaxDepth {
		l.problem(location, refStr, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedObject, "field tree too deep"))
		return
	}
	if err := l.seen.EnterObject(node); err != nil {
		l.problem(location, refStr, err)
		return
	}

	d, err := l.g.DictOf(node)
	if err != nil {
		l.problem(location, refStr, err)
		return
	}
	if d == nil {
		return
	}

	partial := l.g.TextAt(d, objgraph.KeyT)
	name := parentName
	if partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}
	fieldType := l.g.NameAt(d, objgraph.KeyFT)
	if fieldType == "" {
		fieldType = inheritedFT
	}

	kids, err := l.g.ArrayAt(d, objgraph.KeyKids)
	if err != nil {
		l.problem(location+".Kids", refStr, err)
		kids = nil
	}

	hasChildFields := false
	for i, kid := range kids {
		kd, err := l.g.DictOf(kid)
		if err != nil {
			l.problem(fmt.Sprintf("%s.Kids[%d]", location, i), objgraph.RefString(kid), err)
			continue
		}
		if kd == nil {
			continue
		}
		if _, ok := kd.Find(string(objgraph.KeyT)); !ok {
			continue
		}
		hasChildFields = true
		l.walk(kid, name, fieldType, fmt.Sprintf("%s.Kids[%d]", location, i), depth+1)
	}
	if hasChildFields {
		return
	}

	info := FieldInfo{
		Name:        name,
		PartialName: partial,
		Type:        fieldType,
		ObjectRef:   refStr,
	}
	if v, ok := l.g.Get(d, objgraph.KeyV); ok {
		info.Value = objgraph.Render(v, objgraph.DefaultRenderDepth)
	}
	l.fields = append(l.fields, info)
}
