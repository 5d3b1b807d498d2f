package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

func TestNewPathValidator(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name      string
		dir       string
		wantError bool
	}{
		{name: "valid directory", dir: tempDir},
		{name: "empty directory", dir: "", wantError: true},
		{name: "non-existent directory", dir: "/non/existent/path"},
		{name: "relative directory", dir: "testdata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewPathValidator(tt.dir)
			if tt.wantError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !errors.Is(err, pdferrors.ErrInvalidPath) {
					t.Errorf("Expected invalid path error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !filepath.IsAbs(validator.ConfiguredDirectory()) {
				t.Errorf("Configured directory should be absolute, got %s", validator.ConfiguredDirectory())
			}
		})
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	tempDir := t.TempDir()
	subDir := filepath.Join(tempDir, "subdir")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	validator, err := NewPathValidator(tempDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	dir := validator.ConfiguredDirectory()

	tests := []struct {
		name      string
		path      string
		want      string
		wantError bool
	}{
		{name: "absolute file inside", path: filepath.Join(tempDir, "a.pdf"), want: filepath.Join(dir, "a.pdf")},
		{name: "relative file", path: "a.pdf", want: filepath.Join(dir, "a.pdf")},
		{name: "relative file in subdirectory", path: "subdir/b.pdf", want: filepath.Join(dir, "subdir", "b.pdf")},
		{name: "directory itself", path: tempDir, want: dir},
		{name: "traversal stays inside", path: "subdir/../c.pdf", want: filepath.Join(dir, "c.pdf")},
		{name: "traversal escapes", path: "../escape.pdf", wantError: true},
		{name: "absolute file outside", path: "/etc/passwd", wantError: true},
		{name: "sibling with shared prefix", path: tempDir + "-other/x.pdf", wantError: true},
		{name: "empty path", path: "", wantError: true},
		{name: "only null bytes", path: "\x00\x00", wantError: true},
		{name: "null bytes are stripped", path: "a\x00.pdf", want: filepath.Join(dir, "a.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validator.Resolve(tt.path)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Expected error for %q, got %s", tt.path, got)
				}
				if !errors.Is(err, pdferrors.ErrInvalidPath) {
					t.Errorf("Expected invalid path error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathValidator_SymlinkEscape(t *testing.T) {
	tempDir := t.TempDir()
	outside := t.TempDir()

	target := filepath.Join(outside, "secret.pdf")
	if err := os.WriteFile(target, []byte("%PDF"), 0o600); err != nil {
		t.Fatalf("Failed to create target: %v", err)
	}
	link := filepath.Join(tempDir, "link.pdf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("Symlinks not supported: %v", err)
	}

	validator, err := NewPathValidator(tempDir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	if validator.IsPathWithinDirectory(link) {
		t.Error("Symlink pointing outside the directory should be rejected")
	}
	if _, err := validator.Resolve("link.pdf"); err == nil {
		t.Error("Expected Resolve to reject the symlink")
	}
}
