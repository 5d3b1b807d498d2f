package objgraph

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Arena is an in-memory object table. It backs synthetic documents and lets
// graph walks be exercised without a parser.
type Arena struct {
	objects map[ObjectID]types.Object
	trailer types.Dict
}

// NewArena creates an empty arena with an empty trailer
func NewArena() *Arena {
	return &Arena{
		objects: make(map[ObjectID]types.Object),
		trailer: types.Dict{},
	}
}

// Put stores obj in slot (num, 0) and returns its reference
func (a *Arena) Put(num int, obj types.Object) types.IndirectRef {
	return a.PutGen(num, 0, obj)
}

// PutGen stores obj in slot (num, gen) and returns its reference
func (a *Arena) PutGen(num, gen int, obj types.Object) types.IndirectRef {
	id := ObjectID{Num: num, Gen: gen}
	a.objects[id] = obj
	return id.Ref()
}

// SetRoot points the trailer's /Root at ref
func (a *Arena) SetRoot(ref types.IndirectRef) {
	a.trailer[string(KeyRoot)] = ref
}

// SetTrailer replaces the trailer dictionary
func (a *Arena) SetTrailer(d types.Dict) {
	a.trailer = d
}

// Lookup implements Source
func (a *Arena) Lookup(ref types.IndirectRef) (types.Object, error) {
	return a.objects[IDOf(ref)], nil
}

// Trailer implements Source
func (a *Arena) Trailer() types.Dict {
	return a.trailer
}

// StreamContent implements Source. Arena streams are stored unfiltered.
func (a *Arena) StreamContent(sd types.StreamDict) ([]byte, error) {
	if sd.Content != nil {
		return sd.Content, nil
	}
	return sd.Raw, nil
}

// Ref is shorthand for building a generation-0 reference
func Ref(num int) types.IndirectRef {
	return ObjectID{Num: num}.Ref()
}
