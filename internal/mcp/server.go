package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-action-inspector/internal/config"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/descriptions"
	"github.com/a3tai/mcp-pdf-action-inspector/internal/pdf"
	pdferrors "github.com/a3tai/mcp-pdf-action-inspector/internal/pdf/errors"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     logrus.FieldLogger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger logrus.FieldLogger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

func pathArg() mcp.ToolOption {
	return mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
	)
}

func passwordArg() mcp.ToolOption {
	return mcp.WithString("password",
		mcp.Description("Password for encrypted documents; remembered for later calls on the same file"),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	documentTool := func(name string) mcp.Tool {
		return mcp.NewTool(name,
			mcp.WithDescription(descriptions.GetToolDescription(name)),
			pathArg(),
			passwordArg(),
		)
	}

	s.mcpServer.AddTool(documentTool("pdf_extract_actions"), s.handleExtractActions)
	s.mcpServer.AddTool(documentTool("pdf_analyze_actions_security"), s.handleAnalyzeActionsSecurity)
	s.mcpServer.AddTool(documentTool("pdf_document_overview"), s.handleDocumentOverview)
	s.mcpServer.AddTool(documentTool("pdf_annotations"), s.handleAnnotations)
	s.mcpServer.AddTool(documentTool("pdf_trailer"), s.handleTrailer)

	s.mcpServer.AddTool(mcp.NewTool("pdf_page_text",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_page_text")),
		pathArg(),
		mcp.WithNumber("page_number", mcp.Required(), mcp.Description("0-based page index")),
		passwordArg(),
	), s.handlePageText)

	s.mcpServer.AddTool(mcp.NewTool("pdf_pages_by_spans",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_pages_by_spans")),
		pathArg(),
		mcp.WithString("page_spans", mcp.Required(), mcp.Description("Page spans such as \"0-2,5\" or \"3-\"")),
		passwordArg(),
	), s.handlePagesBySpans)

	s.mcpServer.AddTool(mcp.NewTool("pdf_page_annotations",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_page_annotations")),
		pathArg(),
		mcp.WithNumber("page_index", mcp.Required(), mcp.Description("0-based page index")),
		passwordArg(),
	), s.handlePageAnnotations)

	s.mcpServer.AddTool(mcp.NewTool("pdf_fields_by_name",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_fields_by_name")),
		pathArg(),
		mcp.WithString("field_name", mcp.Description("Case-insensitive substring of the fully qualified field name")),
		passwordArg(),
	), s.handleFieldsByName)

	s.mcpServer.AddTool(mcp.NewTool("pdf_object_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_object_info")),
		pathArg(),
		mcp.WithNumber("object_number", mcp.Required(), mcp.Description("Indirect object number")),
		passwordArg(),
	), s.handleObjectInfo)

	s.mcpServer.AddTool(mcp.NewTool("pdf_page_index_by_object",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_page_index_by_object")),
		pathArg(),
		mcp.WithNumber("object_number", mcp.Required(), mcp.Description("Object number of a page or annotation")),
		passwordArg(),
	), s.handlePageIndexByObject)

	s.mcpServer.AddTool(mcp.NewTool("pdf_list_documents",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_list_documents")),
		mcp.WithString("directory", mcp.Description("Directory to list, relative to the configured directory")),
		mcp.WithString("query", mcp.Description("Words that must appear in the file name")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of files to return; 0 means no limit")),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool("pdf_set_password",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_set_password")),
		pathArg(),
		mcp.WithString("password", mcp.Required(), mcp.Description("Document password")),
	), s.handleSetPassword)

	s.mcpServer.AddTool(mcp.NewTool("pdf_clear_cache",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_clear_cache")),
		mcp.WithString("path", mcp.Description("Document to evict; empty clears everything")),
	), s.handleClearCache)

	s.mcpServer.AddTool(mcp.NewTool("pdf_cache_status",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_cache_status")),
	), s.handleCacheStatus)
}

// documentRequest reads the path and optional password arguments
func documentRequest(request mcp.CallToolRequest) (pdf.PDFDocumentRequest, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return pdf.PDFDocumentRequest{}, err
	}
	return pdf.PDFDocumentRequest{Path: path, Password: request.GetString("password", "")}, nil
}

// intArg reads a required non-negative integer argument
func intArg(request mcp.CallToolRequest, name string) (int, error) {
	v, err := request.RequireFloat(name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != float64(int(v)) {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %v", name, v)
	}
	return int(v), nil
}

// jsonResult renders v as indented JSON text
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult logs err and turns it into a tool error. Document errors keep
// their type so callers can tell a wrong password from a corrupt file.
func (s *Server) errorResult(tool string, err error) *mcp.CallToolResult {
	fields := logrus.Fields{"tool": tool, "error": err}
	var pdfErr *pdferrors.PDFError
	if errors.As(err, &pdfErr) {
		fields["type"] = pdfErr.Type.String()
	}
	s.logger.WithFields(fields).Warn("Tool call failed")
	return mcp.NewToolResultError(err.Error())
}

// Handler functions
func (s *Server) handleExtractActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ExtractActions(ctx, req)
	if err != nil {
		return s.errorResult("pdf_extract_actions", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleAnalyzeActionsSecurity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prompt, err := s.pdfService.AnalyzeActionsSecurity(ctx, req)
	if err != nil {
		return s.errorResult("pdf_analyze_actions_security", err), nil
	}
	return mcp.NewToolResultText(prompt), nil
}

func (s *Server) handleDocumentOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.DocumentOverview(ctx, req)
	if err != nil {
		return s.errorResult("pdf_document_overview", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handlePageText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := intArg(request, "page_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PageText(ctx, pdf.PDFPageTextRequest{
		Path: doc.Path, Password: doc.Password, PageNumber: page,
	})
	if err != nil {
		return s.errorResult("pdf_page_text", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handlePagesBySpans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spans, err := request.RequireString("page_spans")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PagesBySpans(ctx, pdf.PDFPageSpansRequest{
		Path: doc.Path, Password: doc.Password, PageSpans: spans,
	})
	if err != nil {
		return s.errorResult("pdf_pages_by_spans", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Annotations(ctx, req)
	if err != nil {
		return s.errorResult("pdf_annotations", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handlePageAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := intArg(request, "page_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PageAnnotations(ctx, pdf.PDFPageAnnotationsRequest{
		Path: doc.Path, Password: doc.Password, PageIndex: index,
	})
	if err != nil {
		return s.errorResult("pdf_page_annotations", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleTrailer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Trailer(ctx, req)
	if err != nil {
		return s.errorResult("pdf_trailer", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFieldsByName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FieldsByName(ctx, pdf.PDFFieldsByNameRequest{
		Path: doc.Path, Password: doc.Password, FieldName: request.GetString("field_name", ""),
	})
	if err != nil {
		return s.errorResult("pdf_fields_by_name", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleObjectInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	num, err := intArg(request, "object_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ObjectInfo(ctx, pdf.PDFObjectRequest{
		Path: doc.Path, Password: doc.Password, ObjectNumber: num,
	})
	if err != nil {
		return s.errorResult("pdf_object_info", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handlePageIndexByObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	num, err := intArg(request, "object_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PageIndexByObjectNumber(ctx, pdf.PDFObjectRequest{
		Path: doc.Path, Password: doc.Password, ObjectNumber: num,
	})
	if err != nil {
		return s.errorResult("pdf_page_index_by_object", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.ListDocuments(ctx, pdf.PDFListDocumentsRequest{
		Directory: request.GetString("directory", ""),
		Query:     request.GetString("query", ""),
		Limit:     request.GetInt("limit", 0),
	})
	if err != nil {
		return s.errorResult("pdf_list_documents", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleSetPassword(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	password, err := request.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.pdfService.SetPassword(pdf.PDFSetPasswordRequest{Path: path, Password: password}); err != nil {
		return s.errorResult("pdf_set_password", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Password stored for %s", path)), nil
}

func (s *Server) handleClearCache(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.ClearCache(pdf.PDFClearCacheRequest{Path: request.GetString("path", "")})
	if err != nil {
		return s.errorResult("pdf_clear_cache", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleCacheStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.pdfService.CacheStatus())
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server over standard input and output
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.WithField("directory", s.config.PDFDirectory).Debug("Starting MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.WithFields(logrus.Fields{
		"address":   addr,
		"directory": s.config.PDFDirectory,
	}).Info("Starting MCP server in SSE mode")

	errCh := make(chan error, 1)
	go func() {
		errCh <- sseServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down SSE server: %w", err)
	}
	s.logger.Info("SSE server stopped")
	return nil
}
