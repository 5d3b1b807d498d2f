package pdf

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/descriptions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/actions"
)

// buildSecurityPrompt renders the analysis task handed to the model
func buildSecurityPrompt(info BasicInfo, report *actions.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode action report: %w", err)
	}

	version := info.PDFVersion
	if version == "" {
		version = "Unknown"
	}

	var b strings.Builder
	b.WriteString("# PDF Security Analysis Task\n\n")
	b.WriteString("## Analysis Strategy\n")
	b.WriteString(descriptions.ActionAnalysisPolicy)
	b.WriteString("\n\n## Document basic information\n")
	fmt.Fprintf(&b, "- Filename: %s\n", info.Filename)
	fmt.Fprintf(&b, "- Pages: %d\n", info.Pages)
	fmt.Fprintf(&b, "- Encrypted: %t\n", info.Encrypted)
	fmt.Fprintf(&b, "- PDF Version: %s\n", version)
	fmt.Fprintf(&b, "- File Size: %d bytes\n", info.FileSize)
	fmt.Fprintf(&b, "- Total Actions: %d\n", report.TotalActions)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(&b, "- Objects that could not be inspected: %d\n", len(report.Skipped))
	}
	b.WriteString("\n## Extracted Actions data\n```json\n")
	b.Write(data)
	b.WriteString("\n```\n\n")
	b.WriteString(`## Analysis requirements
Please conduct a professional PDF security analysis of the Extracted Actions data based on the above strategy, focusing on:
1. Maliciousness assessment of JavaScript code
2. Risk analysis of Action triggering timing
3. Identification of potential attack vectors
4. Overall security risk level assessment
`)
	return b.String(), nil
}
