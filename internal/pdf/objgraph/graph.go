// Package objgraph resolves indirect references in a parsed PDF and walks the
// object graph without trusting it: references may dangle, point at objects of
// the wrong kind, or form cycles. Every transitive walk carries a Visited set.
package objgraph

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

// Source is the object table a Graph reads from. Lookup returns (nil, nil)
// when the slot is absent or free.
type Source interface {
	Lookup(ref types.IndirectRef) (types.Object, error)
	Trailer() types.Dict
	StreamContent(sd types.StreamDict) ([]byte, error)
}

// ObjectID identifies a slot in the object table
type ObjectID struct {
	Num int
	Gen int
}

// String renders the id the way it appears in a PDF file
func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d R", id.Num, id.Gen)
}

// Ref converts the id back into a pdfcpu reference
func (id ObjectID) Ref() types.IndirectRef {
	return types.IndirectRef{
		ObjectNumber:     types.Integer(id.Num),
		GenerationNumber: types.Integer(id.Gen),
	}
}

// IDOf returns the ObjectID of a reference
func IDOf(ref types.IndirectRef) ObjectID {
	return ObjectID{Num: ref.ObjectNumber.Value(), Gen: ref.GenerationNumber.Value()}
}

// AsRef reports whether obj is an indirect reference
func AsRef(obj types.Object) (types.IndirectRef, bool) {
	switch v := obj.(type) {
	case types.IndirectRef:
		return v, true
	case *types.IndirectRef:
		if v != nil {
			return *v, true
		}
	}
	return types.IndirectRef{}, false
}

// Graph is the accessor over one document's object table. Resolved objects
// are kept in an arena keyed by ObjectID so repeated lookups are cheap.
// A Graph is meant for a single extraction and is not safe for concurrent use.
type Graph struct {
	src      Source
	resolved map[ObjectID]types.Object
}

// New creates a Graph reading from src
func New(src Source) *Graph {
	return &Graph{
		src:      src,
		resolved: make(map[ObjectID]types.Object),
	}
}

// Trailer returns the trailer dictionary, never nil
func (g *Graph) Trailer() types.Dict {
	if t := g.src.Trailer(); t != nil {
		return t
	}
	return types.Dict{}
}

// Resolve looks up a single reference. Absent slots yield a dangling
// reference error.
func (g *Graph) Resolve(ref types.IndirectRef) (types.Object, error) {
	id := IDOf(ref)
	if obj, ok := g.resolved[id]; ok {
		return obj, nil
	}

	obj, err := g.src.Lookup(ref)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeDanglingReference,
			"cannot load referenced object", err).WithRef(id.String())
	}
	if obj == nil {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeDanglingReference,
			"reference points at a missing object").WithRef(id.String())
	}

	g.resolved[id] = obj
	return obj, nil
}

// Deref follows references until it reaches a direct object. A chain that
// revisits a reference yields a cycle error. Non-reference input is returned
// unchanged, including nil.
func (g *Graph) Deref(obj types.Object) (types.Object, error) {
	seen := NewVisited()
	for {
		ref, ok := AsRef(obj)
		if !ok {
			return obj, nil
		}
		if err := seen.Enter(ref); err != nil {
			return nil, err
		}
		next, err := g.Resolve(ref)
		if err != nil {
			return nil, err
		}
		obj = next
	}
}

// Lookup returns the dereferenced value stored under key. An absent key
// yields (nil, nil).
func (g *Graph) Lookup(d types.Dict, key Key) (types.Object, error) {
	if d == nil {
		return nil, nil
	}
	obj, found := d.Find(string(key))
	if !found || obj == nil {
		return nil, nil
	}
	return g.Deref(obj)
}

// Get is Lookup with every failure folded into "missing"
func (g *Graph) Get(d types.Dict, key Key) (types.Object, bool) {
	obj, err := g.Lookup(d, key)
	if err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// DictOf dereferences obj and asserts it is a dictionary. Streams yield their
// dictionary part. nil yields (nil, nil).
func (g *Graph) DictOf(obj types.Object) (types.Dict, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return nil, err
	}
	switch v := obj.(type) {
	case types.Dict:
		return v, nil
	case types.StreamDict:
		return v.Dict, nil
	case *types.StreamDict:
		return v.Dict, nil
	}
	return nil, typeError("dictionary", obj)
}

// ArrayOf dereferences obj and asserts it is an array
func (g *Graph) ArrayOf(obj types.Object) (types.Array, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return nil, err
	}
	if a, ok := obj.(types.Array); ok {
		return a, nil
	}
	return nil, typeError("array", obj)
}

// NameOf dereferences obj and asserts it is a name
func (g *Graph) NameOf(obj types.Object) (string, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return "", err
	}
	if n, ok := obj.(types.Name); ok {
		return n.Value(), nil
	}
	return "", typeError("name", obj)
}

// TextOf dereferences obj and decodes a literal or hex string. Names are
// accepted as well since producers are not consistent.
func (g *Graph) TextOf(obj types.Object) (string, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return "", err
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		return DecodeString(v), nil
	case types.HexLiteral:
		return DecodeHex(v), nil
	case types.Name:
		return v.Value(), nil
	}
	return "", typeError("string", obj)
}

// IntOf dereferences obj and asserts it is an integer
func (g *Graph) IntOf(obj types.Object) (int, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return 0, err
	}
	switch v := obj.(type) {
	case types.Integer:
		return v.Value(), nil
	case types.Float:
		return int(v.Value()), nil
	}
	return 0, typeError("integer", obj)
}

// NumberOf dereferences obj and asserts it is numeric
func (g *Graph) NumberOf(obj types.Object) (float64, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return 0, err
	}
	switch v := obj.(type) {
	case types.Integer:
		return float64(v.Value()), nil
	case types.Float:
		return v.Value(), nil
	}
	return 0, typeError("number", obj)
}

// StreamOf dereferences obj and asserts it is a stream
func (g *Graph) StreamOf(obj types.Object) (*types.StreamDict, error) {
	obj, err := g.Deref(obj)
	if err != nil || obj == nil {
		return nil, err
	}
	switch v := obj.(type) {
	case types.StreamDict:
		return &v, nil
	case *types.StreamDict:
		return v, nil
	}
	return nil, typeError("stream", obj)
}

// StreamText returns the decoded content of a stream as text
func (g *Graph) StreamText(sd *types.StreamDict) (string, error) {
	content, err := g.src.StreamContent(*sd)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeMalformedObject, "cannot decode stream", err)
	}
	return string(content), nil
}

// Catalog returns the document catalog. A trailer without /Root yields (nil, nil).
func (g *Graph) Catalog() (types.Dict, error) {
	root, found := g.Trailer().Find(string(KeyRoot))
	if !found || root == nil {
		return nil, nil
	}
	return g.DictOf(root)
}

// DictAt combines Lookup and DictOf
func (g *Graph) DictAt(d types.Dict, key Key) (types.Dict, error) {
	obj, err := g.Lookup(d, key)
	if err != nil || obj == nil {
		return nil, err
	}
	return g.DictOf(obj)
}

// ArrayAt combines Lookup and ArrayOf
func (g *Graph) ArrayAt(d types.Dict, key Key) (types.Array, error) {
	obj, err := g.Lookup(d, key)
	if err != nil || obj == nil {
		return nil, err
	}
	return g.ArrayOf(obj)
}

// NameAt combines Lookup and NameOf, folding failures into ""
func (g *Graph) NameAt(d types.Dict, key Key) string {
	obj, err := g.Lookup(d, key)
	if err != nil || obj == nil {
		return ""
	}
	name, err := g.NameOf(obj)
	if err != nil {
		return ""
	}
	return name
}

// TextAt combines Lookup and TextOf, folding failures into ""
func (g *Graph) TextAt(d types.Dict, key Key) string {
	obj, err := g.Lookup(d, key)
	if err != nil || obj == nil {
		return ""
	}
	text, err := g.TextOf(obj)
	if err != nil {
		return ""
	}
	return text
}

func typeError(want string, obj types.Object) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedObject,
		fmt.Sprintf("expected %s, found %s", want, KindOf(obj)))
}

// KindOf names the kind of a PDF object
func KindOf(obj types.Object) string {
	switch obj.(type) {
	case nil:
		return "null"
	case types.Dict:
		return "dictionary"
	case types.StreamDict, *types.StreamDict:
		return "stream"
	case types.Array:
		return "array"
	case types.Name:
		return "name"
	case types.StringLiteral, types.HexLiteral:
		return "string"
	case types.Integer:
		return "integer"
	case types.Float:
		return "number"
	case types.Boolean:
		return "boolean"
	case types.IndirectRef, *types.IndirectRef:
		return "reference"
	default:
		return fmt.Sprintf("%T", obj)
	}
}

// DecodeString decodes a literal string (PDFDocEncoding or UTF-16BE), falling
// back to the raw bytes
func DecodeString(s types.StringLiteral) string {
	if text, err := types.StringLiteralToString(s); err == nil {
		return text
	}
	return s.Value()
}

// DecodeHex decodes a hex string, falling back to its hex digits
func DecodeHex(h types.HexLiteral) string {
	if text, err := types.HexLiteralToString(h); err == nil {
		return text
	}
	return h.Value()
}
