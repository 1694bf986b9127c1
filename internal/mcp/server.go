package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/a3tai/mcp-doc-verifier/internal/boq"
	"github.com/a3tai/mcp-doc-verifier/internal/checklist"
	"github.com/a3tai/mcp-doc-verifier/internal/config"
	"github.com/a3tai/mcp-doc-verifier/internal/descriptions"
	"github.com/a3tai/mcp-doc-verifier/internal/evidence"
	"github.com/a3tai/mcp-doc-verifier/internal/pdf"
	"github.com/a3tai/mcp-doc-verifier/internal/session"
	"github.com/a3tai/mcp-doc-verifier/internal/verifier"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// sessionMaxAge bounds how long an idle review session is kept
const sessionMaxAge = 24 * time.Hour

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *verifier.Service
	sessions  *session.Store
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *verifier.Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		sessions:  session.NewStore(),
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	docAnalyzeTool := mcp.NewTool(
		"doc_analyze",
		mcp.WithDescription(descriptions.DocAnalyzeDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, absolute or relative to the document directory"),
		),
	)
	s.mcpServer.AddTool(docAnalyzeTool, s.handleDocAnalyze)

	docSubmitBOQTool := mcp.NewTool(
		"doc_submit_boq",
		mcp.WithDescription(descriptions.DocSubmitBOQDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by doc_analyze"),
		),
		mcp.WithArray("rows",
			mcp.Required(),
			mcp.Description("Verified rows: {designator, quantity} objects or \"DESIGNATOR=QTY\" strings"),
		),
	)
	s.mcpServer.AddTool(docSubmitBOQTool, s.handleDocSubmitBOQ)

	docRecordVerdictsTool := mcp.NewTool(
		"doc_record_verdicts",
		mcp.WithDescription(descriptions.DocRecordVerdictsDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by doc_analyze"),
		),
		mcp.WithObject("verdicts",
			mcp.Required(),
			mcp.Description("Designator to verdict string, or to {verdict, notes}"),
		),
	)
	s.mcpServer.AddTool(docRecordVerdictsTool, s.handleDocRecordVerdicts)

	docReportTool := mcp.NewTool(
		"doc_report",
		mcp.WithDescription(descriptions.DocReportDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by doc_analyze"),
		),
	)
	s.mcpServer.AddTool(docReportTool, s.handleDocReport)

	docResetTool := mcp.NewTool(
		"doc_reset",
		mcp.WithDescription(descriptions.DocResetDescription),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by doc_analyze"),
		),
	)
	s.mcpServer.AddTool(docResetTool, s.handleDocReset)

	docServerInfoTool := mcp.NewTool(
		"doc_server_info",
		mcp.WithDescription(descriptions.DocServerInfoDescription),
	)
	s.mcpServer.AddTool(docServerInfoTool, s.handleDocServerInfo)
}

// Handler functions
func (s *Server) handleDocAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis, err := s.service.AnalyzeFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if pruned := s.sessions.Prune(sessionMaxAge); pruned > 0 {
		s.config.Debugf("pruned %d idle session(s)", pruned)
	}
	sess := s.sessions.Create(analysis)

	return mcp.NewToolResultText(s.formatAnalysis(sess)), nil
}

func (s *Server) handleDocSubmitBOQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}

	rows, err := parseRows(request.GetArguments()["rows"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	accepted, err := sess.SubmitBOQ(rows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gallery, err := s.service.CollectEvidence(ctx, sess.Analysis(), accepted)
	if err != nil {
		// an incomplete gallery would report scanned-looking pages as missing
		sess.Reset()
		return mcp.NewToolResultError(fmt.Sprintf("%v; session returned to %s, submit the rows again", err, sess.Stage())), nil
	}
	if err := sess.AttachEvidence(gallery); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatEvidence(sess, accepted, gallery)), nil
}

func (s *Server) handleDocRecordVerdicts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}

	reviews, err := parseVerdicts(request.GetArguments()["verdicts"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sess.RecordVerdicts(reviews); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := sess.Report()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatReport(sess, report)), nil
}

func (s *Server) handleDocReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}

	report, err := sess.Report()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatReport(sess, report)), nil
}

func (s *Server) handleDocReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := s.lookupSession(request)
	if errResult != nil {
		return errResult, nil
	}

	sess.Reset()
	responseText := fmt.Sprintf("Session %s reset to %s\n", sess.ID(), sess.Stage())
	responseText += s.formatAutoRows(sess.Analysis())
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleDocServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// lookupSession resolves the session_id argument or returns an error result
func (s *Server) lookupSession(request mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sess, err := s.sessions.Get(strings.TrimSpace(id))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return sess, nil
}

// Formatters
func (s *Server) formatAnalysis(sess *session.Session) string {
	a := sess.Analysis()
	doc := a.Document

	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed: %s\n", a.FileName)
	fmt.Fprintf(&b, "Session: %s (stage: %s)\n", sess.ID(), sess.Stage())
	fmt.Fprintf(&b, "Pages: %d\n", doc.PageCount())

	counts := doc.SourceCounts()
	fmt.Fprintf(&b, "Text sources: digital %d, OCR %d, ignored %d, empty %d\n",
		counts[pdf.SourceDigital], counts[pdf.SourceOCR], counts[pdf.SourceIgnored], counts[pdf.SourceEmpty])
	if doc.Structure != nil && doc.Structure.ValidationIssue != "" {
		fmt.Fprintf(&b, "⚠️  Structure: %s\n", doc.Structure.ValidationIssue)
	}
	if doc.Warnings.Count() > 0 {
		fmt.Fprintf(&b, "⚠️  %s\n", doc.Warnings.Summary())
		for _, w := range doc.Warnings.Errors {
			fmt.Fprintf(&b, "  • %s\n", w.Error())
		}
	}
	fmt.Fprintf(&b, "Duration: %s\n", a.Duration.Round(time.Millisecond))

	b.WriteString("\nChecklist:\n")
	missing := 0
	for _, r := range a.Checklist {
		if r.Found() {
			fmt.Fprintf(&b, "  ✅ %s: pages %s\n", r.Item, joinPages(r.Pages))
		} else {
			missing++
			fmt.Fprintf(&b, "  ❌ %s: not found\n", r.Item)
		}
	}
	fmt.Fprintf(&b, "Complete: %d/%d items\n", len(a.Checklist)-missing, len(a.Checklist))

	b.WriteString("\n")
	b.WriteString(s.formatAutoRows(a))

	b.WriteString("\n💡 NEXT: confirm the rows against the BOQ page, then call doc_submit_boq with this session_id.\n")
	return b.String()
}

func (s *Server) formatAutoRows(a *verifier.Analysis) string {
	var b strings.Builder
	if !a.HasBOQ() {
		b.WriteString("BOQ page: not found. Enter the rows manually.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "BOQ page: %d\n", a.BOQPageNumber())
	fmt.Fprintf(&b, "Detected rows (%s):\n", boq.Summary(a.AutoRows))
	for _, r := range a.AutoRows {
		fmt.Fprintf(&b, "  %s\n", r)
	}
	return b.String()
}

func (s *Server) formatEvidence(sess *session.Session, rows []boq.Row, gallery evidence.Gallery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: %d row(s) accepted (stage: %s)\n\n", sess.ID(), len(rows), sess.Stage())
	b.WriteString("Evidence:\n")
	for _, r := range rows {
		pages := gallery.PageNumbers(r.Designator)
		switch {
		case !s.service.Labels().Has(r.Designator):
			fmt.Fprintf(&b, "  %s (qty %d): no caption pattern known, check manually\n", r.Designator, r.Quantity)
		case len(pages) == 0:
			fmt.Fprintf(&b, "  %s (qty %d): no evidence pages found\n", r.Designator, r.Quantity)
		default:
			fmt.Fprintf(&b, "  %s (qty %d): pages %s\n", r.Designator, r.Quantity, joinPages(pages))
		}
	}
	b.WriteString("\n💡 NEXT: inspect the pages, then call doc_record_verdicts with sesuai, tidak_sesuai or perlu_diperiksa per designator.\n")
	return b.String()
}

func (s *Server) formatReport(sess *session.Session, report []session.ReportRow) string {
	a := sess.Analysis()

	var b strings.Builder
	fmt.Fprintf(&b, "Verification report: %s\n", a.FileName)
	fmt.Fprintf(&b, "Session: %s\n\n", sess.ID())

	b.WriteString("Checklist:\n")
	for _, r := range a.Checklist {
		if r.Found() {
			fmt.Fprintf(&b, "  %s  %s (pages %s)\n", r.Status, r.Item, joinPages(r.Pages))
		} else {
			fmt.Fprintf(&b, "  %s %s\n", r.Status, r.Item)
		}
	}

	b.WriteString("\nBOQ:\n")
	tally := make(map[session.Verdict]int)
	for _, r := range report {
		tally[r.Verdict]++
		evidencePages := "-"
		if len(r.EvidencePages) > 0 {
			evidencePages = joinPages(r.EvidencePages)
		}
		fmt.Fprintf(&b, "  %s | qty %d | evidence %s | %s", r.Designator, r.Quantity, evidencePages, r.Verdict)
		if r.Notes != "" {
			fmt.Fprintf(&b, " | %s", r.Notes)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nSummary: %d sesuai, %d tidak_sesuai, %d perlu_diperiksa\n",
		tally[session.VerdictSesuai], tally[session.VerdictTidakSesuai], tally[session.VerdictPerluDiperiksa])
	return b.String()
}

func (s *Server) formatServerInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Server: %s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Document directory: %s\n", s.config.Directory)
	fmt.Fprintf(&b, "Max file size: %d bytes\n", s.config.MaxFileSize)
	fmt.Fprintf(&b, "Rendering: %d DPI\n", s.config.RasterDPI)
	fmt.Fprintf(&b, "OCR: languages %s, timeout %s per page\n",
		strings.Join(s.config.OCRLanguages, "+"), s.config.OCRTimeout)

	stats := s.service.CacheStats()
	fmt.Fprintf(&b, "Analysis cache: %d/%d entries, %.1f%% hit rate\n", stats.Size, stats.Capacity, stats.HitRate)
	fmt.Fprintf(&b, "Open sessions: %d\n", s.sessions.Len())

	b.WriteString("\nChecklist items:\n")
	for _, name := range s.service.Template().Order() {
		item, _ := s.service.Template().Lookup(name)
		fmt.Fprintf(&b, "  • %s [%s]\n", name, joinMethods(item))
	}

	b.WriteString("\nEvidence labels:\n")
	labels := s.service.Labels()
	for _, d := range labels.Designators() {
		fmt.Fprintf(&b, "  • %s: %s\n", d, strings.Join(labels.Patterns(d), " | "))
	}

	b.WriteString("\nAvailable tools:\n")
	for _, tool := range descriptions.Tools {
		fmt.Fprintf(&b, "  • %s: %s (%s)\n", tool.Name, tool.Description, tool.Parameters)
	}

	b.WriteString("\n")
	b.WriteString(descriptions.UsageGuidance)
	b.WriteString("\n")
	return b.String()
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}

func joinMethods(item checklist.Item) string {
	parts := make([]string, len(item.Methods))
	for i, m := range item.Methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}

// Run starts the MCP server
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting document verifier in stdio mode")
		log.Printf("Document directory: %s", s.config.Directory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx ends
func (s *Server) runServerMode(ctx context.Context) error {
	sse := server.NewSSEServer(s.mcpServer)
	addr := s.config.Address()
	log.Printf("Starting document verifier on %s (SSE)", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	}
}
