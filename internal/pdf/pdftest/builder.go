// Package pdftest builds small, well-formed PDF files for tests. Offsets in
// the cross-reference table are computed from the generated bytes, so the
// output opens with any conforming parser.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Builder accumulates numbered object bodies
type Builder struct {
	objects []string
	info    int
}

// New creates an empty builder
func New() *Builder {
	return &Builder{}
}

// Add appends an object and returns its number
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// Reserve allocates an object number to be filled with Set
func (b *Builder) Reserve() int {
	return b.Add("null")
}

// Set replaces the body of object num
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = body
}

// Stream returns a stream object body with a correct /Length
func Stream(content string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
}

// SetInfo makes object num the document information dictionary
func (b *Builder) SetInfo(num int) {
	b.info = num
}

// Bytes serializes the file with root as the catalog
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", len(b.objects)+1, root)
	if b.info > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", b.info)
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xrefStart)
	return buf.Bytes()
}

// Doc describes a simple document: one text line per page plus optional
// extra catalog and page entries.
type Doc struct {
	Pages        []string
	CatalogExtra string
	PageExtra    map[int]string
	Info         map[string]string
}

// Build renders d into a PDF file
func (d Doc) Build() []byte {
	b := New()
	catalog := b.Reserve()
	pages := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	kids := make([]string, 0, len(d.Pages))
	for i, text := range d.Pages {
		content := b.Add(Stream(fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escape(text))))
		page := b.Add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R %s >>",
			pages, font, content, d.PageExtra[i]))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R %s >>", pages, d.CatalogExtra))

	if len(d.Info) > 0 {
		var entries []string
		for k, v := range d.Info {
			entries = append(entries, fmt.Sprintf("/%s (%s)", k, escape(v)))
		}
		b.SetInfo(b.Add("<< " + strings.Join(entries, " ") + " >>"))
	}

	return b.Bytes(catalog)
}

// Simple returns a document with one line of text per page
func Simple(pages ...string) []byte {
	return Doc{Pages: pages}.Build()
}

// SignatureScenario returns a two page document whose signature field on the
// first page runs JavaScript on mouse down. The widget is object 7 and its
// action object 8.
func SignatureScenario() []byte {
	b := New()
	catalog := b.Reserve()
	pages := b.Reserve()
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	content0 := b.Add(Stream("BT /F1 12 Tf 72 720 Td (Please sign below) Tj ET"))
	page0 := b.Reserve()
	price := b.Reserve()
	sig := b.Reserve()
	action := b.Add("<< /Type /Action /S /JavaScript /JS (this.getField\\('Price'\\).value = 0;) >>")
	content1 := b.Add(Stream("BT /F1 12 Tf 72 720 Td (Terms and conditions) Tj ET"))
	page1 := b.Add(fmt.Sprintf(
		"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
		pages, font, content1))

	b.Set(page0, fmt.Sprintf(
		"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R /Annots [%d 0 R %d 0 R] >>",
		pages, font, content0, price, sig))
	b.Set(price, fmt.Sprintf(
		"<< /Type /Annot /Subtype /Widget /FT /Tx /T (Price) /V (100) /DA (/Helv 0 Tf 0 g) /Rect [72 600 272 620] /P %d 0 R /F 4 >>", page0))
	b.Set(sig, fmt.Sprintf(
		"<< /Type /Annot /Subtype /Widget /FT /Sig /T (Signature1) /DA (/Helv 0 Tf 0 g) /Rect [72 500 272 550] /P %d 0 R /F 4 /AA << /D %d 0 R >> >>",
		page0, action))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R %d 0 R] /Count 2 >>", page0, page1))
	b.Set(catalog, fmt.Sprintf(
		"<< /Type /Catalog /Pages %d 0 R /AcroForm << /Fields [%d 0 R %d 0 R] >> >>", pages, price, sig))

	return b.Bytes(catalog)
}

// Encrypt protects data with AES-128 using pdfcpu
func Encrypt(data []byte, userPW, ownerPW string) ([]byte, error) {
	conf := model.NewAESConfiguration(userPW, ownerPW, 128)
	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to encrypt fixture: %w", err)
	}
	return out.Bytes(), nil
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
