package pdf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/actions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/readercache"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/security"
)

// DefaultMaxConcurrentOpens bounds document operations when Options leaves it unset
const DefaultMaxConcurrentOpens = 4

// Options configures a Service
type Options struct {
	Directory          string
	MaxFileSize        int64
	CacheCapacity      int
	MaxConcurrentOpens int
	Fs                 afero.Fs
	Logger             logrus.FieldLogger
}

// Service handles PDF inspection requests by orchestrating the reader cache,
// the action extraction engine and the path validator
type Service struct {
	maxFileSize   int64
	fs            afero.Fs
	cache         *readercache.Cache
	pathValidator *security.PathValidator
	opens         *semaphore.Weighted
	logger        logrus.FieldLogger
}

// NewService creates a new PDF service owning its reader cache
func NewService(opts Options) (*Service, error) {
	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.MaxConcurrentOpens <= 0 {
		opts.MaxConcurrentOpens = DefaultMaxConcurrentOpens
	}

	cache := readercache.New(opts.Fs,
		readercache.WithCapacity(opts.CacheCapacity),
		readercache.WithMaxFileSize(opts.MaxFileSize),
		readercache.WithLogger(opts.Logger.WithField("component", "readercache")),
	)

	return &Service{
		maxFileSize:   opts.MaxFileSize,
		fs:            opts.Fs,
		cache:         cache,
		pathValidator: pathValidator,
		opens:         semaphore.NewWeighted(int64(opts.MaxConcurrentOpens)),
		logger:        opts.Logger,
	}, nil
}

// withDocument resolves path inside the configured directory and runs fn
// with the cached handle. The semaphore bounds how many documents are parsed
// or walked at once; waiting for it honours ctx, the work itself does not.
func (s *Service) withDocument(ctx context.Context, path, password string, fn func(*document.Document) error) error {
	abs, err := s.pathValidator.Resolve(path)
	if err != nil {
		return err
	}

	if err := s.opens.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for a document slot: %w", err)
	}
	defer s.opens.Release(1)

	return s.cache.Use(abs, password, fn)
}

// report runs the extraction engine over a borrowed handle
func (s *Service) report(doc *document.Document) *actions.Report {
	report := actions.Extract(doc.Graph())
	s.logger.WithFields(logrus.Fields{
		"path":    doc.Path(),
		"actions": report.TotalActions,
		"skipped": len(report.Skipped),
	}).Debug("Extracted actions")
	return report
}

// ExtractActions returns every action reachable from the document
func (s *Service) ExtractActions(ctx context.Context, req PDFDocumentRequest) (*PDFExtractActionsResult, error) {
	var result *PDFExtractActionsResult
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		result = &PDFExtractActionsResult{Path: doc.Path(), Report: s.report(doc)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AnalyzeActionsSecurity builds a security review prompt holding the analysis
// policy, basic document information and the action report
func (s *Service) AnalyzeActionsSecurity(ctx context.Context, req PDFDocumentRequest) (string, error) {
	var prompt string
	err := s.withDocument(ctx, req.Path, req.Password, func(doc *document.Document) error {
		var err error
		prompt, err = buildSecurityPrompt(basicInfo(doc), s.report(doc))
		return err
	})
	if err != nil {
		return "", err
	}
	return prompt, nil
}

// SetPassword stores a password for a document inside the configured directory
func (s *Service) SetPassword(req PDFSetPasswordRequest) error {
	abs, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return err
	}
	return s.cache.SetPassword(abs, req.Password)
}

// ClearCache evicts the handle for one document, or every handle and stored
// password when no path is given
func (s *Service) ClearCache(req PDFClearCacheRequest) (*PDFClearCacheResult, error) {
	if req.Path == "" {
		return &PDFClearCacheResult{Evicted: s.cache.ClearCache("")}, nil
	}

	abs, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, err
	}
	return &PDFClearCacheResult{Path: abs, Evicted: s.cache.ClearCache(abs)}, nil
}

// CacheStatus reports the reader cache contents
func (s *Service) CacheStatus() readercache.Status {
	return s.cache.Status()
}

// Watch evicts cached handles when their files change, until ctx is done
func (s *Service) Watch(ctx context.Context) error {
	return s.cache.Watch(ctx)
}

// Close releases every cached handle
func (s *Service) Close() error {
	return s.cache.Close()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ConfiguredDirectory returns the directory documents are confined to
func (s *Service) ConfiguredDirectory() string {
	return s.pathValidator.ConfiguredDirectory()
}

func basicInfo(doc *document.Document) BasicInfo {
	return BasicInfo{
		Filename:   filepath.Base(doc.Path()),
		Pages:      doc.PageCount(),
		Encrypted:  doc.Encrypted(),
		PDFVersion: doc.Version(),
		FileSize:   doc.Size(),
	}
}
