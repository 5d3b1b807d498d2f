// Package document opens PDF files into handles the inspector can walk. A
// Document owns its open file and the parsed pdfcpu context; the reader cache
// owns the Document.
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/spf13/afero"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/objgraph"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home
	api.DisableConfigDir()
}

// Document is an opened, possibly decrypted PDF. It is not safe for
// concurrent use; the reader cache serializes access per path.
type Document struct {
	path      string
	file      afero.File
	ctx       *model.Context
	source    *source
	password  string
	encrypted bool
	modTime   time.Time
	size      int64
	openedAt  time.Time

	pages    []objgraph.Page
	problems []objgraph.Problem

	textOnce   sync.Once
	textReader *pdf.Reader
	textErr    error

	closeOnce sync.Once
	closeErr  error
}

// Open opens path on fs and parses it, decrypting with password when the
// file is encrypted. Failures are typed PDFErrors: NotFound, PermissionDenied,
// WrongPassword or CorruptDocument.
func Open(fs afero.Fs, path, password string) (*Document, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, pdferrors.FromFileError(err, path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pdferrors.FromFileError(err, path)
	}
	if info.IsDir() {
		f.Close()
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "path is a directory").WithPath(path)
	}

	ctx, err := readContext(f, password)
	if err != nil {
		f.Close()
		return nil, classifyParseError(err, path)
	}

	d := &Document{
		path:      path,
		file:      f,
		ctx:       ctx,
		encrypted: ctx.Encrypt != nil,
		modTime:   info.ModTime(),
		size:      info.Size(),
		openedAt:  time.Now(),
	}
	if d.encrypted {
		d.password = password
	}
	d.source = newSource(ctx)
	d.pages, d.problems = d.Graph().Pages()

	return d, nil
}

func readContext(rs io.ReadSeeker, password string) (ctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password

	return api.ReadContext(rs, conf)
}

func classifyParseError(err error, path string) error {
	if IsWrongPassword(err) {
		return pdferrors.WrapError(pdferrors.ErrorTypeWrongPassword,
			"document is encrypted and the password was rejected", err).WithPath(path)
	}
	return pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument, "cannot parse PDF", err).WithPath(path)
}

// IsWrongPassword reports whether a pdfcpu error means decryption failed
func IsWrongPassword(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "correct password")
}

// Path returns the path the document was opened from
func (d *Document) Path() string { return d.path }

// ModTime returns the file modification time observed at open
func (d *Document) ModTime() time.Time { return d.modTime }

// Size returns the file size observed at open
func (d *Document) Size() int64 { return d.size }

// OpenedAt returns when the document was parsed
func (d *Document) OpenedAt() time.Time { return d.openedAt }

// Encrypted reports whether the file carries an /Encrypt dictionary
func (d *Document) Encrypted() bool { return d.encrypted }

// Password returns the password the document was decrypted with; empty for
// unencrypted documents
func (d *Document) Password() string { return d.password }

// Version returns the PDF version, preferring the catalog's over the header's
func (d *Document) Version() string {
	if d.ctx.HeaderVersion == nil && d.ctx.RootVersion == nil {
		return ""
	}
	return d.ctx.VersionString()
}

// Graph returns a fresh accessor over the document's object table
func (d *Document) Graph() *objgraph.Graph {
	return objgraph.New(d.source)
}

// Trailer returns the trailer dictionary as rebuilt from the cross-reference
// table
func (d *Document) Trailer() types.Dict {
	return d.source.Trailer()
}

// Catalog returns the document catalog
func (d *Document) Catalog() (types.Dict, error) {
	return d.Graph().Catalog()
}

// Pages returns the page tree leaves in document order
func (d *Document) Pages() []objgraph.Page {
	return d.pages
}

// PageProblems returns the page tree nodes that could not be walked
func (d *Document) PageProblems() []objgraph.Problem {
	return d.problems
}

// PageCount returns the number of pages reached by the page tree walk
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Object looks up an object by number alone, using the generation recorded
// in the cross-reference table
func (d *Document) Object(num int) (types.IndirectRef, types.Object, error) {
	entry, ok := d.ctx.Table[num]
	if !ok || entry == nil || entry.Free {
		return types.IndirectRef{}, nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNotFound,
			fmt.Sprintf("object %d not found", num)).WithPath(d.path)
	}
	gen := 0
	if entry.Generation != nil {
		gen = *entry.Generation
	}
	ref := objgraph.ObjectID{Num: num, Gen: gen}.Ref()
	obj, err := d.Graph().Resolve(ref)
	if err != nil {
		return ref, nil, err
	}
	return ref, obj, nil
}

// TextReader returns a text extraction reader over the same file. It is
// created on first use.
func (d *Document) TextReader() (*pdf.Reader, error) {
	d.textOnce.Do(func() {
		d.textReader, d.textErr = d.newTextReader()
	})
	return d.textReader, d.textErr
}

func (d *Document) newTextReader() (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = pdferrors.NewPDFError(pdferrors.ErrorTypeCorruptDocument,
				fmt.Sprintf("text reader panic: %v", rec)).WithPath(d.path)
		}
	}()

	if !d.encrypted {
		r, err = pdf.NewReader(d.file, d.size)
	} else {
		offered := false
		r, err = pdf.NewReaderEncrypted(d.file, d.size, func() string {
			if offered {
				return ""
			}
			offered = true
			return d.password
		})
	}
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument, "cannot read page text", err).WithPath(d.path)
	}
	return r, nil
}

// Close releases the file. It is safe to call more than once.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.file.Close()
	})
	return d.closeErr
}

// source adapts a pdfcpu context to objgraph.Source
type source struct {
	ctx     *model.Context
	trailer types.Dict
}

func newSource(ctx *model.Context) *source {
	trailer := types.Dict{}
	if ctx.Root != nil {
		trailer[string(objgraph.KeyRoot)] = *ctx.Root
	}
	if ctx.Info != nil {
		trailer[string(objgraph.KeyInfo)] = *ctx.Info
	}
	if ctx.Encrypt != nil {
		trailer[string(objgraph.KeyEncrypt)] = *ctx.Encrypt
	}
	if ctx.ID != nil {
		trailer[string(objgraph.KeyID)] = ctx.ID
	}
	if ctx.Size != nil {
		trailer[string(objgraph.KeySize)] = types.Integer(*ctx.Size)
	}
	return &source{ctx: ctx, trailer: trailer}
}

func (s *source) Lookup(ref types.IndirectRef) (types.Object, error) {
	return s.ctx.Dereference(ref)
}

func (s *source) Trailer() types.Dict {
	return s.trailer
}

func (s *source) StreamContent(sd types.StreamDict) ([]byte, error) {
	if sd.Content == nil {
		if err := sd.Decode(); err != nil {
			return nil, err
		}
	}
	return sd.Content, nil
}
