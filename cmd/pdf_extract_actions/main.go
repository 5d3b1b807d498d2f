package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/actions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/document"
)

// maxScriptPreview bounds the script text printed per action in text output
const maxScriptPreview = 200

// ExtractionResult is the output of one run
type ExtractionResult struct {
	FilePath    string          `json:"file_path"`
	Success     bool            `json:"success"`
	Report      *actions.Report `json:"report,omitempty"`
	Diagnostics *DiagnosticInfo `json:"diagnostics,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// DiagnosticInfo describes the parsed document
type DiagnosticInfo struct {
	PDFVersion   string               `json:"pdf_version"`
	PageCount    int                  `json:"page_count"`
	Encrypted    bool                 `json:"encrypted"`
	Counts       map[actions.Scope]int `json:"counts"`
	PageProblems []string             `json:"page_problems,omitempty"`
}

type options struct {
	format     string
	password   string
	diagnostic bool
}

func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

// run parses args, inspects one file and returns the process exit code
func run(args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("pdf_extract_actions", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var opts options
	flags.StringVar(&opts.format, "format", "text", "Output format: text, json")
	flags.StringVar(&opts.password, "password", "", "Password for encrypted documents")
	flags.BoolVar(&opts.diagnostic, "diagnostic", false, "Include document diagnostics and skipped objects")
	help := flags.BoolP("help", "h", false, "Show help message")
	flags.Usage = func() { printHelp(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *help {
		printHelp(stdout, flags)
		return 0
	}
	if flags.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one PDF file path required\n\n")
		printUsage(stderr)
		return 2
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unsupported output format: %s\n", opts.format)
		return 2
	}

	result := extract(fs, flags.Arg(0), opts)

	var err error
	if opts.format == "json" {
		err = outputJSON(stdout, result)
	} else {
		outputText(stdout, result, opts.diagnostic)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing results: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}

func extract(fs afero.Fs, path string, opts options) *ExtractionResult {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	result := &ExtractionResult{FilePath: absPath}

	doc, err := document.Open(fs, absPath, opts.password)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer doc.Close()

	result.Success = true
	result.Report = actions.Extract(doc.Graph())

	if opts.diagnostic {
		info := &DiagnosticInfo{
			PDFVersion: doc.Version(),
			PageCount:  doc.PageCount(),
			Encrypted:  doc.Encrypted(),
			Counts:     result.Report.Count(),
		}
		for _, p := range doc.PageProblems() {
			info.PageProblems = append(info.PageProblems, p.Location+": "+p.Reason())
		}
		result.Diagnostics = info
	}
	return result
}

func outputJSON(w io.Writer, result *ExtractionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result *ExtractionResult, diagnostic bool) {
	if !result.Success {
		fmt.Fprintf(w, "Action extraction failed: %s\n", result.Error)
		return
	}

	report := result.Report
	if report.TotalActions == 0 {
		fmt.Fprintln(w, "No actions found in the PDF")
	} else {
		fmt.Fprintf(w, "Found %d actions\n\n", report.TotalActions)
	}

	for i, loc := range report.All() {
		where := string(loc.Scope)
		if loc.Key != "" {
			where += " " + loc.Key
		}
		fmt.Fprintf(w, "[%d] %s / %s\n", i+1, where, loc.Trigger)
		fmt.Fprintf(w, "    Type: %s\n", loc.Action.Type)
		if loc.Action.ObjectRef != "" {
			fmt.Fprintf(w, "    Object: %s\n", loc.Action.ObjectRef)
		}
		if loc.Action.Script != "" {
			fmt.Fprintf(w, "    Script: %s\n", preview(loc.Action.Script))
		}
		if loc.Action.URI != "" {
			fmt.Fprintf(w, "    URI: %s\n", loc.Action.URI)
		}
		fmt.Fprintln(w)
	}

	if diagnostic {
		printDiagnosticSummary(w, result)
	}
}

func preview(script string) string {
	script = strings.Join(strings.Fields(script), " ")
	if len([]rune(script)) > maxScriptPreview {
		return string([]rune(script)[:maxScriptPreview]) + "..."
	}
	return script
}

func printDiagnosticSummary(w io.Writer, result *ExtractionResult) {
	if result.Diagnostics == nil {
		return
	}
	d := result.Diagnostics

	fmt.Fprintln(w, "DIAGNOSTIC SUMMARY")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "PDF Version: %s\n", d.PDFVersion)
	fmt.Fprintf(w, "Page Count: %d\n", d.PageCount)
	fmt.Fprintf(w, "Encrypted: %t\n", d.Encrypted)
	for _, scope := range []actions.Scope{actions.ScopeDocument, actions.ScopePages, actions.ScopeAnnotations, actions.ScopeFields} {
		fmt.Fprintf(w, "Actions in %s: %d\n", scope, d.Counts[scope])
	}
	for _, p := range d.PageProblems {
		fmt.Fprintf(w, "Page tree problem: %s\n", p)
	}

	if skipped := result.Report.Skipped; len(skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped objects (%d):\n", len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(w, "  %s %s %s: %s\n", s.Scope, s.Location, s.Object, s.Reason)
		}
	}
	fmt.Fprintln(w)
}

func printHelp(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "PDF Extract Actions - List the JavaScript and other actions embedded in a PDF document")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_extract_actions document.pdf")
	fmt.Fprintln(w, "  pdf_extract_actions --diagnostic suspicious.pdf")
	fmt.Fprintln(w, "  pdf_extract_actions --format json --password secret locked.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_extract_actions [OPTIONS] <pdf_file>")
}
