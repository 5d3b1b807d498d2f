package pdf

import (
	"context"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/actions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/objgraph"
)

// DocumentOverview returns file information, metadata, structure flags and
// the action report
func (s *Service) DocumentOverview(ctx context.Context, req PDFDocumentRequest) (*PDFDocumentOverviewResult, error) {
	var result *PDFDocumentOverviewResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		g := doc.Graph()
		report := s.report(doc)
		info := basicInfo(doc)

		result = &PDFDocumentOverviewResult{
			Filename:       info.Filename,
			BasicInfo:      info,
			Metadata:       metadata(g),
			Structure:      structure(doc, g, report),
			ActionsSummary: report,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func metadata(g *objgraph.Graph) Metadata {
	info, err := g.DictAt(g.Trailer(), objgraph.KeyInfo)
	if err != nil || info == nil {
		return Metadata{}
	}
	return Metadata{
		Title:            g.TextAt(info, objgraph.KeyTitle),
		Author:           g.TextAt(info, objgraph.KeyAuthor),
		Subject:          g.TextAt(info, objgraph.KeySubject),
		Creator:          g.TextAt(info, objgraph.KeyCreator),
		Producer:         g.TextAt(info, objgraph.KeyProducer),
		CreationDate:     g.TextAt(info, objgraph.KeyCreationDate),
		ModificationDate: g.TextAt(info, objgraph.KeyModDate),
	}
}

func structure(doc *document.Document, g *objgraph.Graph, report *actions.Report) Structure {
	st := Structure{
		PageCount:     doc.PageCount(),
		HasJavaScript: report.HasJavaScript(),
	}
	for _, p := range doc.PageProblems() {
		st.PageProblems = append(st.PageProblems, p.Location+": "+p.Reason())
	}

	catalog, err := g.Catalog()
	if err != nil || catalog == nil {
		return st
	}
	_, st.HasAcroForm = g.Get(catalog, objgraph.KeyAcroForm)
	_, st.HasBookmarks = g.Get(catalog, objgraph.KeyOutlines)
	_, st.HasOpenAction = g.Get(catalog, objgraph.KeyOpenAction)

	if names, err := g.DictAt(catalog, objgraph.KeyNames); err == nil && names != nil {
		if _, ok := g.Get(names, objgraph.KeyJavaScript); ok {
			st.HasJavaScript = true
		}
	}
	return st
}
