package objgraph

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

// MaxDepth bounds every recursive walk, independently of cycle detection
const MaxDepth = 128

// Visited records the references a walk has entered
type Visited struct {
	seen map[ObjectID]struct{}
}

// NewVisited creates an empty visited set
func NewVisited() *Visited {
	return &Visited{seen: make(map[ObjectID]struct{})}
}

// Enter marks ref as visited. Entering a reference twice is a cycle.
func (v *Visited) Enter(ref types.IndirectRef) error {
	id := IDOf(ref)
	if _, ok := v.seen[id]; ok {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeCycleDetected,
			"reference cycle detected").WithRef(id.String())
	}
	v.seen[id] = struct{}{}
	return nil
}

// EnterObject enters obj if it is a reference; direct objects cannot cycle
func (v *Visited) EnterObject(obj types.Object) error {
	if ref, ok := AsRef(obj); ok {
		return v.Enter(ref)
	}
	return nil
}

// Contains reports whether ref has been entered
func (v *Visited) Contains(ref types.IndirectRef) bool {
	_, ok := v.seen[IDOf(ref)]
	return ok
}

// Len returns the number of entered references
func (v *Visited) Len() int {
	return len(v.seen)
}

// Problem is a node a walk had to skip
type Problem struct {
	Location string `json:"location"`
	Object   string `json:"object,omitempty"`
	Err      error  `json:"-"`
}

// Reason returns a short human readable cause
func (p Problem) Reason() string {
	if p.Err == nil {
		return ""
	}
	switch pdferrors.TypeOf(p.Err) {
	case pdferrors.ErrorTypeCycleDetected:
		return "cycle detected"
	case pdferrors.ErrorTypeDanglingReference:
		return "dangling reference"
	case pdferrors.ErrorTypeMalformedObject:
		var pe *pdferrors.PDFError
		if errors.As(p.Err, &pe) && pe.Message != "" {
			return "malformed object: " + pe.Message
		}
		return "malformed object"
	default:
		return p.Err.Error()
	}
}

// RefString renders obj's reference, or "" for direct objects
func RefString(obj types.Object) string {
	if ref, ok := AsRef(obj); ok {
		return IDOf(ref).String()
	}
	return ""
}

// Page is a leaf of the page tree
type Page struct {
	Index int
	Ref   string
	Dict  types.Dict
}

// Pages walks the page tree from the catalog in document order
func (g *Graph) Pages() ([]Page, []Problem) {
	catalog, err := g.Catalog()
	if err != nil {
		return nil, []Problem{{Location: "catalog", Object: RefString(g.Trailer()[string(KeyRoot)]), Err: err}}
	}
	if catalog == nil {
		return nil, nil
	}

	root, found := catalog.Find(string(KeyPages))
	if !found || root == nil {
		return nil, nil
	}

	w := &pageWalker{g: g, seen: NewVisited()}
	w.walk(root, "pages", 0)
	return w.pages, w.problems
}

type pageWalker struct {
	g        *Graph
	seen     *Visited
	pages    []Page
	problems []Problem
}

func (w *pageWalker) walk(node types.Object, location string, depth int) {
	refStr := RefString(node)
	if depth > MaxDepth {
		w.problems = append(w.problems, Problem{Location: location, Object: refStr,
			Err: pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedObject, "page tree too deep")})
		return
	}
	if err := w.seen.EnterObject(node); err != nil {
		w.problems = append(w.problems, Problem{Location: location, Object: refStr, Err: err})
		return
	}

	d, err := w.g.DictOf(node)
	if err != nil {
		w.problems = append(w.problems, Problem{Location: location, Object: refStr, Err: err})
		return
	}
	if d == nil {
		return
	}

	typ := w.g.NameAt(d, KeyType)
	kidsObj, hasKids := d.Find(string(KeyKids))
	if typ == TypePage || (typ != TypePages && !hasKids) {
		w.pages = append(w.pages, Page{Index: len(w.pages), Ref: refStr, Dict: d})
		return
	}

	kids, err := w.g.ArrayOf(kidsObj)
	if err != nil {
		w.problems = append(w.problems, Problem{Location: location + ".Kids", Object: refStr, Err: err})
		return
	}
	for i, kid := range kids {
		w.walk(kid, fmt.Sprintf("%s.Kids[%d]", location, i), depth+1)
	}
}

// NamedObject is a leaf entry of a name tree
type NamedObject struct {
	Name  string
	Value types.Object
}

// NameTree flattens a name tree rooted at root
func (g *Graph) NameTree(root types.Object, location string) ([]NamedObject, []Problem) {
	w := &nameTreeWalker{g: g, seen: NewVisited()}
	w.walk(root, location, 0)
	return w.entries, w.problems
}

type nameTreeWalker struct {
	g        *Graph
	seen     *Visited
	entries  []NamedObject
	problems []Problem
}

func (w *nameTreeWalker) walk(node types.Object, location string, depth int) {
	refStr := RefString(node)
	if depth > MaxDepth {
		w.problems = append(w.problems, Problem{Location: location, Object: refStr,
			Err: pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedObject, "name tree too deep")})
		return
	}
	if err := w.seen.EnterObject(node); err != nil {
		w.problems = append(w.problems, Problem{Location: location, Object: refStr, Err: err})
		return
	}

	d, err := w.g.DictOf(node)
	if err != nil {
		w.problems = append(w.problems, Problem{Location: location, Object: refStr, Err: err})
		return
	}
	if d == nil {
		return
	}

	names, err := w.g.ArrayAt(d, KeyNamesArray)
	if err != nil {
		w.problems = append(w.problems, Problem{Location: location + ".Names", Object: refStr, Err: err})
	}
	for i := 0; i+1 < len(names); i += 2 {
		name, err := w.g.TextOf(names[i])
		if err != nil {
			w.problems = append(w.problems, Problem{Location: fmt.Sprintf("%s.Names[%d]", location, i),
				Object: refStr, Err: err})
			continue
		}
		w.entries = append(w.entries, NamedObject{Name: name, Value: names[i+1]})
	}

	kids, err := w.g.ArrayAt(d, KeyKids)
	if err != nil {
		w.problems = append(w.problems, Problem{Location: location + ".Kids", Object: refStr, Err: err})
		return
	}
	for i, kid := range kids {
		w.walk(kid, fmt.Sprintf("%s.Kids[%d]", location, i), depth+1)
	}
}
