package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/pdftest"
)

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/sign.pdf", pdftest.SignatureScenario(), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/plain.pdf", pdftest.Simple("hello"), 0o644))
	return fs
}

func runCLI(t *testing.T, fs afero.Fs, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, fs, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_TextOutput(t *testing.T) {
	code, out, _ := runCLI(t, testFs(t), "/docs/sign.pdf")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Found 1 actions")
	assert.Contains(t, out, "Type: JavaScript")
	assert.Contains(t, out, "Object: 8 0 R")
	assert.Contains(t, out, "this.getField('Price').value = 0;")
	assert.NotContains(t, out, "DIAGNOSTIC SUMMARY")
}

func TestRun_NoActions(t *testing.T) {
	code, out, _ := runCLI(t, testFs(t), "/docs/plain.pdf")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "No actions found in the PDF")
}

func TestRun_JSONOutput(t *testing.T) {
	code, out, _ := runCLI(t, testFs(t), "--format", "json", "--diagnostic", "/docs/sign.pdf")
	require.Equal(t, 0, code)

	var result ExtractionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "/docs/sign.pdf", result.FilePath)
	require.NotNil(t, result.Report)
	assert.Equal(t, 1, result.Report.TotalActions)
	require.NotNil(t, result.Diagnostics)
	assert.Equal(t, 2, result.Diagnostics.PageCount)
	assert.False(t, result.Diagnostics.Encrypted)
}

func TestRun_Diagnostic(t *testing.T) {
	code, out, _ := runCLI(t, testFs(t), "--diagnostic", "/docs/sign.pdf")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "DIAGNOSTIC SUMMARY")
	assert.Contains(t, out, "Page Count: 2")
	assert.Contains(t, out, "Actions in annotations: 1")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{name: "no file", args: nil, wantCode: 2, wantErr: "exactly one PDF file path required"},
		{name: "two files", args: []string{"a.pdf", "b.pdf"}, wantCode: 2, wantErr: "exactly one PDF file path required"},
		{name: "bad format", args: []string{"--format", "xml", "/docs/sign.pdf"}, wantCode: 2, wantErr: "unsupported output format"},
		{name: "unknown flag", args: []string{"--nope"}, wantCode: 2},
		{name: "missing file", args: []string{"/docs/missing.pdf"}, wantCode: 1, wantOut: "Action extraction failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, testFs(t), tt.args...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, errOut, tt.wantErr)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCLI(t, testFs(t), "--help")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "USAGE:")
	assert.Contains(t, out, "--diagnostic")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n\t b"))

	long := strings.Repeat("x", maxScriptPreview+10)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, maxScriptPreview+3)
}
