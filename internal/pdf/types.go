package pdf

import (
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/actions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/security"
)

// Request Types

// PDFDocumentRequest identifies a document and an optional password
type PDFDocumentRequest struct {
	Path     string `json:"path"`
	Password string `json:"password,omitempty"`
}

// PDFPageTextRequest represents a request for the text of one page
type PDFPageTextRequest struct {
	Path       string `json:"path"`
	Password   string `json:"password,omitempty"`
	PageNumber int    `json:"page_number"` // 0-based
}

// PDFPageSpansRequest represents a request for the text of several pages
type PDFPageSpansRequest struct {
	Path      string `json:"path"`
	Password  string `json:"password,omitempty"`
	PageSpans string `json:"page_spans"` // e.g. "0-2,5"
}

// PDFPageAnnotationsRequest represents a request for the annotations of one page
type PDFPageAnnotationsRequest struct {
	Path      string `json:"path"`
	Password  string `json:"password,omitempty"`
	PageIndex int    `json:"page_index"`
}

// PDFFieldsByNameRequest represents a form field lookup
type PDFFieldsByNameRequest struct {
	Path      string `json:"path"`
	Password  string `json:"password,omitempty"`
	FieldName string `json:"field_name"`
}

// PDFObjectRequest identifies an object by number
type PDFObjectRequest struct {
	Path         string `json:"path"`
	Password     string `json:"password,omitempty"`
	ObjectNumber int    `json:"object_number"`
}

// PDFSetPasswordRequest stores a password for a document
type PDFSetPasswordRequest struct {
	Path     string `json:"path"`
	Password string `json:"password"`
}

// PDFClearCacheRequest evicts one document, or every document when Path is empty
type PDFClearCacheRequest struct {
	Path string `json:"path,omitempty"`
}

// PDFListDocumentsRequest lists PDF files under the configured directory
type PDFListDocumentsRequest struct {
	Directory string `json:"directory,omitempty"` // relative to the configured directory
	Query     string `json:"query,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Response Types

// PDFExtractActionsResult is the action report of one document
type PDFExtractActionsResult struct {
	Path string `json:"path"`
	*actions.Report
}

// BasicInfo describes the document as a file
type BasicInfo struct {
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
	Encrypted  bool   `json:"encrypted"`
	PDFVersion string `json:"pdf_version"`
	FileSize   int64  `json:"file_size"`
}

// Metadata holds the document information dictionary
type Metadata struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	Subject          string `json:"subject"`
	Creator          string `json:"creator"`
	Producer         string `json:"producer"`
	CreationDate     string `json:"creation_date"`
	ModificationDate string `json:"modification_date"`
}

// Structure flags the catalog features relevant to active content
type Structure struct {
	HasAcroForm   bool     `json:"has_acroform"`
	HasBookmarks  bool     `json:"has_bookmarks"`
	HasJavaScript bool     `json:"has_javascript"`
	HasOpenAction bool     `json:"has_open_action"`
	PageCount     int      `json:"page_count"`
	PageProblems  []string `json:"page_problems,omitempty"`
}

// PDFDocumentOverviewResult combines file information, metadata, structure
// and the action report
type PDFDocumentOverviewResult struct {
	Filename       string          `json:"filename"`
	BasicInfo      BasicInfo       `json:"basic_info"`
	Metadata       Metadata        `json:"metadata"`
	Structure      Structure       `json:"structure"`
	ActionsSummary *actions.Report `json:"actions_summary"`
}

// PageTextResult is the text of one page
type PageTextResult struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	CharCount  int    `json:"char_count"`
	Truncated  bool   `json:"truncated,omitempty"`
	Error      string `json:"error,omitempty"`
}

// PDFPageSpansResult is the text of the pages selected by a span expression
type PDFPageSpansResult struct {
	PageSpans     string           `json:"page_spans"`
	ParsedIndices []int            `json:"parsed_indices"`
	TotalPages    int              `json:"total_pages"`
	PagesInfo     []PageTextResult `json:"pages_info"`
}

// PDFAnnotationsResult lists the annotations that carry actions
type PDFAnnotationsResult struct {
	Path             string                              `json:"path"`
	TotalAnnotations int                                 `json:"total_annotations"`
	Annotations      map[string]*actions.AnnotationEntry `json:"annotations"`
}

// AnnotationInfo describes one annotation of a page
type AnnotationInfo struct {
	Subtype   string    `json:"subtype"`
	Rect      []float64 `json:"rect"`
	Contents  string    `json:"contents"`
	HasAction bool      `json:"has_action"`
	ObjectRef string    `json:"object_ref,omitempty"`
}

// PDFPageAnnotationsResult lists every annotation of one page
type PDFPageAnnotationsResult struct {
	PageIndex        int                    `json:"page_index"`
	PageRef          string                 `json:"page_ref,omitempty"`
	AnnotationsCount int                    `json:"annotations_count"`
	Annotations      []AnnotationInfo       `json:"annotations"`
	Skipped          []actions.SkippedEntry `json:"skipped,omitempty"`
}

// TrailerAnalysis summarizes the trailer
type TrailerAnalysis struct {
	HasRoot          bool                  `json:"has_root"`
	HasInfo          bool                  `json:"has_info"`
	HasID            bool                  `json:"has_id"`
	Encrypted        bool                  `json:"encrypted"`
	Size             int                   `json:"size"`
	EncryptionFilter string                `json:"encryption_filter,omitempty"`
	Permissions      *security.Permissions `json:"permissions,omitempty"`
	DeniedOperations []string              `json:"denied_operations,omitempty"`
}

// PDFTrailerResult is the rendered trailer and its analysis
type PDFTrailerResult struct {
	TrailerContent map[string]any  `json:"trailer_content"`
	Analysis       TrailerAnalysis `json:"analysis"`
}

// FieldInfo describes one terminal form field
type FieldInfo struct {
	Name        string `json:"name"`
	PartialName string `json:"partial_name"`
	Type        string `json:"type"`
	Value       any    `json:"value"`
	ObjectRef   string `json:"object_ref,omitempty"`
}

// PDFFieldsByNameResult lists the fields whose name contains the query
type PDFFieldsByNameResult struct {
	FieldName   string                 `json:"field_name"`
	FoundFields []FieldInfo            `json:"found_fields"`
	TotalFound  int                    `json:"total_found"`
	Skipped     []actions.SkippedEntry `json:"skipped,omitempty"`
}

// PDFObjectInfoResult describes one object of the cross-reference table
type PDFObjectInfoResult struct {
	ObjectNumber int    `json:"object_number"`
	Generation   int    `json:"generation"`
	ObjectRef    string `json:"object_ref"`
	ObjectType   string `json:"object_type"`
	ObjectInfo   any    `json:"object_info"`
	StreamLength int    `json:"stream_length,omitempty"`
	StreamError  string `json:"stream_error,omitempty"`
}

// PageMatch is a page related to a looked up object
type PageMatch struct {
	PageIndex int    `json:"page_index"`
	Kind      string `json:"kind"` // "page" or "annotation"
}

// PDFPageIndexResult lists the pages an object number belongs to
type PDFPageIndexResult struct {
	ObjectNumber int         `json:"object_number"`
	FoundPages   []int       `json:"found_pages"`
	Matches      []PageMatch `json:"matches"`
	TotalMatches int         `json:"total_matches"`
}

// PDFClearCacheResult reports how many handles were evicted
type PDFClearCacheResult struct {
	Path    string `json:"path,omitempty"`
	Evicted int    `json:"evicted"`
}

// DocumentFile is a PDF file found by ListDocuments
type DocumentFile struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	TooLarge     bool   `json:"too_large,omitempty"`
}

// PDFListDocumentsResult holds the files found under one directory
type PDFListDocumentsResult struct {
	Directory  string         `json:"directory"`
	Query      string         `json:"query,omitempty"`
	Files      []DocumentFile `json:"files"`
	TotalFound int            `json:"total_found"`
	Truncated  bool           `json:"truncated,omitempty"`
}
