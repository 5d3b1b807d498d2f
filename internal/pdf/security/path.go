package security

import (
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

// PathValidator confines document paths to the configured directory
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "configured directory cannot be empty")
	}

	abs, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidPath,
			"failed to resolve configured directory", err).WithPath(configuredDirectory)
	}

	// The directory is not required to exist yet
	return &PathValidator{configuredDirectory: filepath.Clean(abs)}, nil
}

// ConfiguredDirectory returns the absolute configured directory
func (v *PathValidator) ConfiguredDirectory() string {
	return v.configuredDirectory
}

// Resolve turns a user supplied path into an absolute path inside the
// configured directory. Relative paths are taken relative to the directory.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeInvalidPath, "failed to resolve path", err).WithPath(path)
	}

	if !v.IsPathWithinDirectory(abs) {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath,
			"path is outside configured directory").WithPath(path)
	}
	return abs, nil
}

// IsPathWithinDirectory checks both the lexical path and, when the path is a
// symlink, its target against the configured directory
func (v *PathValidator) IsPathWithinDirectory(path string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := v.configuredDirectory

	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	return within(cleanPath, cleanDir, realDir) && within(realPath, cleanDir, realDir)
}

func within(path string, dirs ...string) bool {
	for _, dir := range dirs {
		if path == dir {
			return true
		}
		prefix := dir
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
