package readercache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/pdftest"
)

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func write(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

// countingOpener wraps document.Open and counts calls
func countingOpener(n *atomic.Int32) Opener {
	return func(fs afero.Fs, path, password string) (*document.Document, error) {
		n.Add(1)
		return document.Open(fs, path, password)
	}
}

func newCache(fs afero.Fs, opts ...Option) *Cache {
	return New(fs, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func TestGetReader_Hit(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/docs/a.pdf", pdftest.Simple("one", "two"))

	var opens atomic.Int32
	c := newCache(fs, WithOpener(countingOpener(&opens)))
	defer c.Close()

	first, err := c.GetReader("/docs/a.pdf", "")
	require.NoError(t, err)
	second, err := c.GetReader("/docs/a.pdf", "")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())
	assert.Equal(t, 2, second.PageCount())

	st := c.Status()
	assert.Equal(t, 1, st.TotalEntries)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
}

func TestGetReader_StaleAfterModification(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("one"))

	c := newCache(fs)
	defer c.Close()

	first, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.PageCount())

	write(t, fs, "/a.pdf", pdftest.Simple("one", "two", "three"))

	st := c.Status()
	require.Len(t, st.Entries, 1)
	assert.True(t, st.Entries[0].Stale)
	assert.Equal(t, "size changed", st.Entries[0].StaleReason)

	second, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 3, second.PageCount())
	assert.Equal(t, 1, c.Status().TotalEntries)
}

func TestGetReader_StaleAfterTouch(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("one"))

	c := newCache(fs)
	defer c.Close()

	first, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)

	later := first.ModTime().Add(time.Hour)
	require.NoError(t, fs.Chtimes("/a.pdf", later, later))

	second, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.True(t, second.ModTime().Equal(later))
}

func TestGetReader_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/big.pdf", pdftest.Simple("large"))
	require.NoError(t, fs.MkdirAll("/dir", 0o755))

	c := newCache(fs, WithMaxFileSize(100))
	defer c.Close()

	write(t, fs, "/small.pdf", []byte("%PDF"))

	tests := []struct {
		path string
		want *pdferrors.PDFError
	}{
		{"/missing.pdf", pdferrors.ErrNotFound},
		{"/dir", pdferrors.ErrInvalidPath},
		{"/big.pdf", pdferrors.ErrFileTooLarge},
		{"/small.pdf", pdferrors.ErrCorruptDocument},
		{"", pdferrors.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := c.GetReader(tt.path, "")
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Equal(t, 0, c.Status().TotalEntries)
}

func TestGetReader_RemovedFileEvictsEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("one"))

	c := newCache(fs)
	defer c.Close()

	_, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)
	require.NoError(t, fs.Remove("/a.pdf"))

	_, err = c.GetReader("/a.pdf", "")
	assert.True(t, errors.Is(err, pdferrors.ErrNotFound))
	assert.Equal(t, 0, c.Status().TotalEntries)
}

func encryptedFixture(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	data, err := pdftest.Encrypt(pdftest.Simple("confidential"), "open-sesame", "owner-secret")
	require.NoError(t, err)
	write(t, fs, path, data)
}

func TestPasswords_StoredPasswordIsUsed(t *testing.T) {
	fs := afero.NewMemMapFs()
	encryptedFixture(t, fs, "/enc.pdf")

	c := newCache(fs)
	defer c.Close()

	_, err := c.GetReader("/enc.pdf", "")
	assert.True(t, errors.Is(err, pdferrors.ErrWrongPassword), "got %v", err)

	require.NoError(t, c.SetPassword("/enc.pdf", "open-sesame"))
	doc, err := c.GetReader("/enc.pdf", "")
	require.NoError(t, err)
	assert.True(t, doc.Encrypted())
	assert.Equal(t, 1, doc.PageCount())

	st := c.Status()
	assert.Equal(t, 1, st.StoredPasswords)
	require.Len(t, st.Entries, 1)
	assert.True(t, st.Entries[0].HasPassword)
	assert.True(t, st.Entries[0].Encrypted)
}

func TestPasswords_WrongExplicitPasswordKeepsValidHandle(t *testing.T) {
	fs := afero.NewMemMapFs()
	encryptedFixture(t, fs, "/enc.pdf")

	var opens atomic.Int32
	c := newCache(fs, WithOpener(countingOpener(&opens)))
	defer c.Close()

	require.NoError(t, c.SetPassword("/enc.pdf", "open-sesame"))
	good, err := c.GetReader("/enc.pdf", "")
	require.NoError(t, err)

	_, err = c.GetReader("/enc.pdf", "guess")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdferrors.ErrWrongPassword), "got %v", err)

	again, err := c.GetReader("/enc.pdf", "")
	require.NoError(t, err)
	assert.Same(t, good, again)
	assert.Equal(t, int32(2), opens.Load())
	assert.Equal(t, 1, c.Status().StoredPasswords)
}

func TestPasswords_ExplicitPasswordOverridesAndIsRemembered(t *testing.T) {
	fs := afero.NewMemMapFs()
	encryptedFixture(t, fs, "/enc.pdf")

	c := newCache(fs)
	defer c.Close()

	require.NoError(t, c.SetPassword("/enc.pdf", "stale-password"))

	doc, err := c.GetReader("/enc.pdf", "open-sesame")
	require.NoError(t, err)
	assert.Equal(t, "open-sesame", doc.Password())

	c.ClearCache("/enc.pdf")
	again, err := c.GetReader("/enc.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "open-sesame", again.Password())
}

func TestPasswords_PlainDocumentIgnoresPassword(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/plain.pdf", pdftest.Simple("x"))

	var opens atomic.Int32
	c := newCache(fs, WithOpener(countingOpener(&opens)))
	defer c.Close()

	_, err := c.GetReader("/plain.pdf", "something")
	require.NoError(t, err)
	_, err = c.GetReader("/plain.pdf", "other")
	require.NoError(t, err)

	assert.Equal(t, int32(1), opens.Load())
	assert.Equal(t, 0, c.Status().StoredPasswords)
}

func TestSetPassword_MissingFile(t *testing.T) {
	c := newCache(afero.NewMemMapFs())
	err := c.SetPassword("/nope.pdf", "pw")
	assert.True(t, errors.Is(err, pdferrors.ErrNotFound))
	assert.Equal(t, 0, c.Status().StoredPasswords)
}

func TestForgetPassword(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("x"))
	c := newCache(fs)

	require.NoError(t, c.SetPassword("/a.pdf", "pw"))
	c.ForgetPassword("/a.pdf")
	assert.Equal(t, 0, c.Status().StoredPasswords)
}

func TestClearCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("a"))
	write(t, fs, "/b.pdf", pdftest.Simple("b"))

	c := newCache(fs)
	defer c.Close()

	_, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)
	_, err = c.GetReader("/b.pdf", "")
	require.NoError(t, err)
	require.NoError(t, c.SetPassword("/a.pdf", "kept"))

	assert.Equal(t, 1, c.ClearCache("/a.pdf"))
	st := c.Status()
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "/b.pdf", st.Entries[0].Path)
	assert.Equal(t, 1, st.StoredPasswords, "clearing one path keeps its password")

	assert.Equal(t, 0, c.ClearCache("/a.pdf"))

	assert.Equal(t, 1, c.ClearCache(""))
	st = c.Status()
	assert.Equal(t, 0, st.TotalEntries)
	assert.Equal(t, 0, st.StoredPasswords)
	assert.Empty(t, st.Entries)
}

func TestCapacityEviction(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"a", "b", "c"} {
		write(t, fs, "/"+name+".pdf", pdftest.Simple(name))
	}

	c := newCache(fs, WithCapacity(2))
	defer c.Close()

	for _, name := range []string{"a", "b"} {
		_, err := c.GetReader("/"+name+".pdf", "")
		require.NoError(t, err)
	}
	// touch a so b becomes least recently used
	_, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)
	_, err = c.GetReader("/c.pdf", "")
	require.NoError(t, err)

	st := c.Status()
	assert.Equal(t, 2, st.TotalEntries)
	assert.Equal(t, 2, st.Capacity)
	assert.Equal(t, int64(1), st.Evictions)

	var paths []string
	for _, e := range st.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"/a.pdf", "/c.pdf"}, paths)
}

func TestUse_HandleSurvivesEvictionUntilReleased(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("kept open"))
	write(t, fs, "/b.pdf", pdftest.Simple("evicts a"))

	c := newCache(fs, WithCapacity(1))
	defer c.Close()

	err := c.Use("/a.pdf", "", func(doc *document.Document) error {
		_, err := c.GetReader("/b.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Status().TotalEntries)

		r, err := doc.TextReader()
		if err != nil {
			return err
		}
		text, err := r.Page(1).GetPlainText(nil)
		if err != nil {
			return err
		}
		assert.Contains(t, text, "kept open")
		return nil
	})
	require.NoError(t, err)
}

func TestUse_PropagatesErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("x"))
	c := newCache(fs)
	defer c.Close()

	sentinel := errors.New("callback failed")
	err := c.Use("/a.pdf", "", func(*document.Document) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	called := false
	err = c.Use("/missing.pdf", "", func(*document.Document) error { called = true; return nil })
	assert.True(t, errors.Is(err, pdferrors.ErrNotFound))
	assert.False(t, called)
}

func TestConcurrentLookupsOpenOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	const files = 4
	for i := 0; i < files; i++ {
		write(t, fs, fmt.Sprintf("/doc%d.pdf", i), pdftest.Simple(fmt.Sprintf("doc %d", i)))
	}

	var opens atomic.Int32
	c := newCache(fs, WithOpener(countingOpener(&opens)))
	defer c.Close()

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		path := fmt.Sprintf("/doc%d.pdf", i%files)
		g.Go(func() error {
			return c.Use(path, "", func(doc *document.Document) error {
				if doc.PageCount() != 1 {
					return fmt.Errorf("unexpected page count %d", doc.PageCount())
				}
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(files), opens.Load())
	assert.Equal(t, files, c.Status().TotalEntries)
	assert.Empty(t, c.locks, "path locks are released")
}

func TestClock(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/a.pdf", pdftest.Simple("x"))

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newCache(fs, WithClock(func() time.Time { return fixed }))
	defer c.Close()

	_, err := c.GetReader("/a.pdf", "")
	require.NoError(t, err)

	st := c.Status()
	require.Len(t, st.Entries, 1)
	assert.Equal(t, fixed, st.Entries[0].OpenedAt)
	assert.Equal(t, fixed, st.Entries[0].LastAccess)
}

func TestWatch_EvictsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Simple("before"), 0o644))

	c := newCache(afero.NewOsFs())
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))
	assert.Error(t, c.Watch(ctx), "second watcher is rejected")

	_, err := c.GetReader(path, "")
	require.NoError(t, err)
	require.Equal(t, 1, c.Status().TotalEntries)
	assert.True(t, c.Status().Watching)

	require.NoError(t, os.WriteFile(path, pdftest.Simple("after", "more"), 0o644))

	require.Eventually(t, func() bool {
		return c.Status().TotalEntries == 0
	}, 5*time.Second, 20*time.Millisecond)

	doc, err := c.GetReader(path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())
}
