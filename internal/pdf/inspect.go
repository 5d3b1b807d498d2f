package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/actions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/objgraph"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/security"
)

// Annotations lists every annotation that carries an action, keyed by label
func (s *Service) Annotations(ctx context.Context, req PDFDocumentRequest) (*PDFAnnotationsResult, error) {
	var result *PDFAnnotationsResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		report := s.report(doc)
		result = &PDFAnnotationsResult{
			Path:             doc.Path(),
			TotalAnnotations: len(report.AnnotationActions),
			Annotations:      report.AnnotationActions,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PageAnnotations lists every annotation of one page, with or without actions
func (s *Service) PageAnnotations(ctx context.Context, req PDFPageAnnotationsRequest) (*PDFPageAnnotationsResult, error) {
	var result *PDFPageAnnotationsResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		if err := checkPageIndex(doc, req.PageIndex); err != nil {
			return err
		}
		result = pageAnnotations(doc.Graph(), doc.Pages()[req.PageIndex])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func pageAnnotations(g *objgraph.Graph, page objgraph.Page) *PDFPageAnnotationsResult {
	result := &PDFPageAnnotationsResult{
		PageIndex:   page.Index,
		PageRef:     page.Ref,
		Annotations: []AnnotationInfo{},
	}
	location := fmt.Sprintf("page%d.Annots", page.Index)

	annots, err := g.ArrayAt(page.Dict, objgraph.KeyAnnots)
	if err != nil {
		result.Skipped = append(result.Skipped, skipped(location, "", err))
		return result
	}

	for i, item := range annots {
		at := fmt.Sprintf("%s[%d]", location, i)
		d, err := g.DictOf(item)
		if err != nil || d == nil {
			if err == nil {
				err = pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedObject, "annotation is null")
			}
			result.Skipped = append(result.Skipped, skipped(at, objgraph.RefString(item), err))
			continue
		}

		info := AnnotationInfo{
			Subtype:   g.NameAt(d, objgraph.KeySubtype),
			Rect:      rect(g, d),
			Contents:  g.TextAt(d, objgraph.KeyContents),
			ObjectRef: objgraph.RefString(item),
		}
		if info.Subtype == "" {
			info.Subtype = "Unknown"
		}
		_, hasA := g.Get(d, objgraph.KeyA)
		_, hasAA := g.Get(d, objgraph.KeyAA)
		info.HasAction = hasA || hasAA

		result.Annotations = append(result.Annotations, info)
	}
	result.AnnotationsCount = len(result.Annotations)
	return result
}

func rect(g *objgraph.Graph, d types.Dict) []float64 {
	arr, err := g.ArrayAt(d, objgraph.KeyRect)
	if err != nil {
		return []float64{}
	}
	out := make([]float64, 0, len(arr))
	for _, v := range arr {
		if n, err := g.NumberOf(v); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func skipped(location, object string, err error) actions.SkippedEntry {
	p := objgraph.Problem{Location: location, Object: object, Err: err}
	return actions.SkippedEntry{
		Scope:    actions.ScopeAnnotations,
		Location: location,
		Object:   object,
		Reason:   p.Reason(),
	}
}

// Trailer renders the trailer dictionary and summarizes it
func (s *Service) Trailer(ctx context.Context, req PDFDocumentRequest) (*PDFTrailerResult, error) {
	var result *PDFTrailerResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		g := doc.Graph()
		trailer := g.Trailer()

		analysis := TrailerAnalysis{Encrypted: doc.Encrypted()}
		_, analysis.HasRoot = trailer.Find(string(objgraph.KeyRoot))
		_, analysis.HasInfo = trailer.Find(string(objgraph.KeyInfo))
		_, analysis.HasID = trailer.Find(string(objgraph.KeyID))
		if size, ok := trailer.Find(string(objgraph.KeySize)); ok {
			analysis.Size, _ = g.IntOf(size)
		}

		if enc, err := g.DictAt(trailer, objgraph.KeyEncrypt); err == nil && enc != nil {
			analysis.EncryptionFilter = g.NameAt(enc, objgraph.KeyFilter)
			if p, ok := g.Get(enc, objgraph.KeyPermissions); ok {
				if bits, err := g.IntOf(p); err == nil {
					perms := security.NewPermissions(int32(bits))
					analysis.Permissions = &perms
					analysis.DeniedOperations = perms.Denied()
				}
			}
		}

		result = &PDFTrailerResult{
			TrailerContent: objgraph.RenderDict(trailer),
			Analysis:       analysis,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FieldsByName lists the terminal form fields whose fully qualified name
// contains the query, ignoring case
func (s *Service) FieldsByName(ctx context.Context, req PDFFieldsByNameRequest) (*PDFFieldsByNameResult, error) {
	var result *PDFFieldsByNameResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		fields, problems := listFields(doc.Graph())

		result = &PDFFieldsByNameResult{FieldName: req.FieldName, FoundFields: []FieldInfo{}}
		query := strings.ToLower(req.FieldName)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f.Name), query) {
				result.FoundFields = append(result.FoundFields, f)
			}
		}
		result.TotalFound = len(result.FoundFields)

		for _, p := range problems {
			result.Skipped = append(result.Skipped, actions.SkippedEntry{
				Scope:    actions.ScopeFields,
				Location: p.Location,
				Object:   p.Object,
				Reason:   p.Reason(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ObjectInfo renders the object with the given number
func (s *Service) ObjectInfo(ctx context.Context, req PDFObjectRequest) (*PDFObjectInfoResult, error) {
	var result *PDFObjectInfoResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		ref, obj, err := doc.Object(req.ObjectNumber)
		if err != nil {
			return err
		}

		id := objgraph.IDOf(ref)
		result = &PDFObjectInfoResult{
			ObjectNumber: id.Num,
			Generation:   id.Gen,
			ObjectRef:    id.String(),
			ObjectType:   objgraph.KindOf(obj),
			ObjectInfo:   objgraph.Render(obj, objgraph.DefaultRenderDepth),
		}

		g := doc.Graph()
		if sd, err := g.StreamOf(obj); err == nil && sd != nil {
			if text, err := g.StreamText(sd); err != nil {
				result.StreamError = err.Error()
			} else {
				result.StreamLength = len(text)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PageIndexByObjectNumber finds the pages whose page object, or one of whose
// annotations, has the given object number
func (s *Service) PageIndexByObjectNumber(ctx context.Context, req PDFObjectRequest) (*PDFPageIndexResult, error) {
	var result *PDFPageIndexResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		g := doc.Graph()
		result = &PDFPageIndexResult{
			ObjectNumber: req.ObjectNumber,
			FoundPages:   []int{},
			Matches:      []PageMatch{},
		}

		for _, page := range doc.Pages() {
			kind := ""
			if refNumber(page.Ref) == req.ObjectNumber {
				kind = "page"
			} else if annots, err := g.ArrayAt(page.Dict, objgraph.KeyAnnots); err == nil {
				for _, a := range annots {
					if ref, ok := objgraph.AsRef(a); ok && objgraph.IDOf(ref).Num == req.ObjectNumber {
						kind = "annotation"
						break
					}
				}
			}
			if kind != "" {
				result.FoundPages = append(result.FoundPages, page.Index)
				result.Matches = append(result.Matches, PageMatch{PageIndex: page.Index, Kind: kind})
			}
		}
		result.TotalMatches = len(result.Matches)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// refNumber extracts the object number from an "N G R" reference string
func refNumber(ref string) int {
	var num, gen int
	if _, err := fmt.Sscanf(ref, "%d %d R", &num, &gen); err != nil {
		return -1
	}
	return num
}
