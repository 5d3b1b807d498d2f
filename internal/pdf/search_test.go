package pdf

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/pdftest"
)

func names(files []DocumentFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestService_ListDocuments(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/reports/annual-report_2024.pdf", pdftest.Simple("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/.hidden/secret.pdf", pdftest.Simple("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/notes.txt", []byte("not a pdf"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/empty.pdf", nil, 0o644))
	s := newTestService(t, Options{Fs: fs})
	ctx := context.Background()

	t.Run("all documents", func(t *testing.T) {
		result, err := s.ListDocuments(ctx, PDFListDocumentsRequest{})
		require.NoError(t, err)

		assert.Equal(t, "/docs", result.Directory)
		assert.ElementsMatch(t,
			[]string{"sign.pdf", "plain.pdf", "locked.pdf", "annual-report_2024.pdf"}, names(result.Files))
		assert.Equal(t, 4, result.TotalFound)
		assert.False(t, result.Truncated)
	})

	t.Run("query matches words", func(t *testing.T) {
		result, err := s.ListDocuments(ctx, PDFListDocumentsRequest{Query: "Report 2024"})
		require.NoError(t, err)
		require.Len(t, result.Files, 1)
		assert.Equal(t, "/docs/reports/annual-report_2024.pdf", result.Files[0].Path)
	})

	t.Run("subdirectory", func(t *testing.T) {
		result, err := s.ListDocuments(ctx, PDFListDocumentsRequest{Directory: "reports"})
		require.NoError(t, err)
		assert.Equal(t, "/docs/reports", result.Directory)
		assert.Equal(t, []string{"annual-report_2024.pdf"}, names(result.Files))
	})

	t.Run("limit", func(t *testing.T) {
		result, err := s.ListDocuments(ctx, PDFListDocumentsRequest{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, result.Files, 2)
		assert.True(t, result.Truncated)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := s.ListDocuments(ctx, PDFListDocumentsRequest{Directory: "../etc"})
		assert.ErrorIs(t, err, pdferrors.ErrInvalidPath)

		_, err = s.ListDocuments(ctx, PDFListDocumentsRequest{Directory: "missing"})
		assert.ErrorIs(t, err, pdferrors.ErrNotFound)

		_, err = s.ListDocuments(ctx, PDFListDocumentsRequest{Directory: "sign.pdf"})
		assert.ErrorIs(t, err, pdferrors.ErrInvalidArgument)

		_, err = s.ListDocuments(ctx, PDFListDocumentsRequest{Limit: -1})
		assert.ErrorIs(t, err, pdferrors.ErrInvalidArgument)
	})
}

func TestService_ListDocumentsFlagsLargeFiles(t *testing.T) {
	s := newTestService(t, Options{MaxFileSize: 10})

	result, err := s.ListDocuments(context.Background(), PDFListDocumentsRequest{Query: "plain"})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.True(t, result.Files[0].TooLarge)
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"Invoice-2024.pdf", "", true},
		{"Invoice-2024.pdf", "invoice", true},
		{"Invoice-2024.pdf", "2024 inv", true},
		{"Invoice-2024.pdf", "receipt", false},
		{"my_tax (final).pdf", "final tax", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesQuery(tt.name, tt.query))
		})
	}
}
