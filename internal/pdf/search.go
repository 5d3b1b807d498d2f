package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

var errListLimit = errors.New("list limit reached")

// ListDocuments walks the configured directory, or a directory inside it, for
// PDF files whose names match the query. Hidden directories and empty files
// are skipped.
func (s *Service) ListDocuments(ctx context.Context, req PDFListDocumentsRequest) (*PDFListDocumentsResult, error) {
	if req.Limit < 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument, "limit cannot be negative")
	}

	root := s.pathValidator.ConfiguredDirectory()
	if req.Directory != "" {
		abs, err := s.pathValidator.Resolve(req.Directory)
		if err != nil {
			return nil, err
		}
		root = abs
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, pdferrors.FromFileError(err, root)
	}
	if !info.IsDir() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidArgument, "not a directory").WithPath(root)
	}

	result := &PDFListDocumentsResult{
		Directory: root,
		Query:     req.Query,
		Files:     []DocumentFile{},
	}
	query := strings.ToLower(strings.TrimSpace(req.Query))

	err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// unreadable entries are left out
			return nil
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPDFFile(info.Name()) || info.Size() == 0 || !matchesQuery(info.Name(), query) {
			return nil
		}
		if req.Limit > 0 && len(result.Files) >= req.Limit {
			result.Truncated = true
			return errListLimit
		}

		result.Files = append(result.Files, DocumentFile{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
			TooLarge:     s.maxFileSize > 0 && info.Size() > s.maxFileSize,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errListLimit) {
		return nil, err
	}

	result.TotalFound = len(result.Files)
	s.logger.WithFields(logrus.Fields{
		"directory": root,
		"found":     result.TotalFound,
		"truncated": result.Truncated,
	}).Debug("Listed documents")
	return result, nil
}

func isPDFFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// matchesQuery accepts a name when every query word appears in one of the
// name's words. query must already be lower case.
func matchesQuery(name, query string) bool {
	if query == "" {
		return true
	}

	name = strings.ToLower(name)
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(name, ".pdf"))
	for _, q := range splitIntoWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
