package mcp

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/Tarachineno/standard-checker/internal/config"
	"github.com/Tarachineno/standard-checker/internal/document"
	"github.com/Tarachineno/standard-checker/internal/export"
	"github.com/Tarachineno/standard-checker/internal/filter"
	"github.com/Tarachineno/standard-checker/internal/portal"
	"github.com/Tarachineno/standard-checker/internal/registry"
	"github.com/Tarachineno/standard-checker/internal/standards"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	reader    *document.Reader
	extractor *standards.Extractor
	registry  *registry.Registry
	portal    *portal.Client
	exporter  *export.Exporter
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(
	cfg *config.Config,
	reader *document.Reader,
	extractor *standards.Extractor,
	reg *registry.Registry,
	portalClient *portal.Client,
	exporter *export.Exporter,
) (*Server, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if portalClient == nil {
		return nil, fmt.Errorf("portal client cannot be nil")
	}
	if exporter == nil {
		return nil, fmt.Errorf("exporter cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		reader:    reader,
		extractor: extractor,
		registry:  reg,
		portal:    portalClient,
		exporter:  exporter,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractFileTool := mcp.NewTool(
		"standards_extract_file",
		mcp.WithDescription("Extract standards references from an accreditation-scope PDF and add them to the registry"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	listTool := mcp.NewTool(
		"standards_list",
		mcp.WithDescription("List all standards in the registry"),
	)
	s.mcpServer.AddTool(listTool, s.handleList)

	filterTool := mcp.NewTool(
		"standards_filter",
		mcp.WithDescription("Filter registry standards by field conditions"),
		mcp.WithString("status",
			mcp.Description("Status equals (e.g. Active, Withdrawn)"),
		),
		mcp.WithString("directive",
			mcp.Description("Directive contains (e.g. RED)"),
		),
		mcp.WithString("type",
			mcp.Description("Standard family equals (e.g. EN, IEC, ISO, CISPR)"),
		),
		mcp.WithString("source",
			mcp.Description("Source equals (e.g. PDF, Manual)"),
		),
		mcp.WithString("number",
			mcp.Description("Display number contains (e.g. 301 489)"),
		),
		mcp.WithString("version",
			mcp.Description("Version year equals (e.g. 2017)"),
		),
		mcp.WithString("has_version",
			mcp.Description("'true' keeps only versioned standards, 'false' only unversioned"),
		),
		mcp.WithString("has_etsi_info",
			mcp.Description("'true' keeps only standards with portal lookup data, 'false' only without"),
		),
		mcp.WithString("date_start",
			mcp.Description("Keep standards extracted after this date (e.g. 2024-01-01)"),
		),
		mcp.WithString("date_end",
			mcp.Description("Keep standards extracted before this date"),
		),
	)
	s.mcpServer.AddTool(filterTool, s.handleFilter)

	updateTool := mcp.NewTool(
		"standards_update",
		mcp.WithDescription("Update the status, directive, or notes of a registry standard"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Registry id of the standard"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
		),
		mcp.WithString("directive",
			mcp.Description("New directive"),
		),
		mcp.WithString("notes",
			mcp.Description("New notes"),
		),
	)
	s.mcpServer.AddTool(updateTool, s.handleUpdate)

	removeTool := mcp.NewTool(
		"standards_remove",
		mcp.WithDescription("Remove a standard from the registry"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Registry id of the standard"),
		),
	)
	s.mcpServer.AddTool(removeTool, s.handleRemove)

	lookupTool := mcp.NewTool(
		"standards_lookup",
		mcp.WithDescription("Look up a standard's published versions on the ETSI portal"),
		mcp.WithString("number",
			mcp.Description("Standard number to look up (e.g. EN 301 489-17)"),
		),
		mcp.WithString("id",
			mcp.Description("Registry id; the lookup result is stored on the record"),
		),
	)
	s.mcpServer.AddTool(lookupTool, s.handleLookup)

	statsTool := mcp.NewTool(
		"standards_stats",
		mcp.WithDescription("Get registry statistics by family, status, and source"),
	)
	s.mcpServer.AddTool(statsTool, s.handleStats)

	exportTool := mcp.NewTool(
		"standards_export",
		mcp.WithDescription("Export registry standards to a file (.csv, .json, .yaml, .xlsx)"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Destination file path; the extension selects the format"),
		),
	)
	s.mcpServer.AddTool(exportTool, s.handleExport)

	serverInfoTool := mcp.NewTool(
		"standards_server_info",
		mcp.WithDescription("Get server information, available tools, registry summary, and usage guidance"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.reader.Read(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records := s.extractor.Extract(doc)
	ids, err := s.registry.BulkAdd(records)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Extracted %d standard(s) from %s\n", len(records), path)
	responseText += fmt.Sprintf("Pages scanned: %d\n", len(doc.Pages))
	responseText += fmt.Sprintf("Registry size: %d\n", s.registry.Len())
	if len(records) > 0 {
		responseText += "\nStandards:\n"
		for i, rec := range records {
			responseText += fmt.Sprintf("%d. %s [%s] (id: %s)\n", i+1, rec.Number, rec.Status, ids[i])
		}
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records := s.registry.All()
	if len(records) == 0 {
		return mcp.NewToolResultText("The registry is empty"), nil
	}
	return mcp.NewToolResultText(s.formatRecords(records)), nil
}

func (s *Server) handleFilter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts := filter.Options{}
	if v, ok := args["status"].(string); ok {
		opts.Status = v
	}
	if v, ok := args["directive"].(string); ok {
		opts.Directive = v
	}
	if v, ok := args["type"].(string); ok {
		opts.Family = v
	}
	if v, ok := args["source"].(string); ok {
		opts.Source = v
	}
	if v, ok := args["number"].(string); ok {
		opts.Number = v
	}
	if v, ok := args["version"].(string); ok {
		opts.Version = v
	}
	if b, ok := boolArg(args, "has_version"); ok {
		opts.HasVersion = &b
	}
	if b, ok := boolArg(args, "has_etsi_info"); ok {
		opts.HasRemoteInfo = &b
	}
	if v, ok := args["date_start"].(string); ok {
		opts.DateStart = v
	}
	if v, ok := args["date_end"].(string); ok {
		opts.DateEnd = v
	}

	f := filter.New()
	f.AddOptions(opts)
	matched := f.Apply(s.registry.All())

	responseText := fmt.Sprintf("Matched %d of %d standard(s)\n", len(matched), s.registry.Len())
	if len(matched) > 0 {
		responseText += "\n" + s.formatRecords(matched)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	upd := registry.Update{}
	if v, ok := args["status"].(string); ok && v != "" {
		upd.Status = &v
	}
	if v, ok := args["directive"].(string); ok && v != "" {
		upd.Directive = &v
	}
	if v, ok := args["notes"].(string); ok && v != "" {
		upd.Notes = &v
	}

	if !s.registry.ApplyUpdate(id, upd) {
		return mcp.NewToolResultError(fmt.Sprintf("standard not found: %s", id)), nil
	}
	if err := s.registry.Save(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, _ := s.registry.Get(id)
	return mcp.NewToolResultText("Updated standard:\n" + s.formatRecord(rec)), nil
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !s.registry.Remove(id) {
		return mcp.NewToolResultError(fmt.Sprintf("standard not found: %s", id)), nil
	}
	if err := s.registry.Save(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Removed standard %s (registry size: %d)", id, s.registry.Len())), nil
}

func (s *Server) handleLookup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id := ""
	if v, ok := args["id"].(string); ok {
		id = v
	}
	number := ""
	if v, ok := args["number"].(string); ok {
		number = v
	}

	if id != "" {
		rec, ok := s.registry.Get(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("standard not found: %s", id)), nil
		}
		number = rec.Number
	}
	if number == "" {
		return mcp.NewToolResultError("either 'number' or 'id' is required"), nil
	}

	info := s.portal.Lookup(ctx, number)

	if id != "" {
		s.registry.ApplyUpdate(id, registry.Update{RemoteInfo: info})
		if err := s.registry.Save(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return mcp.NewToolResultText(s.formatRemoteInfo(info)), nil
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatStats(s.registry.Stats())), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records := s.registry.All()
	if err := s.exporter.Export(records, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Exported %d standard(s) to %s", len(records), path)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.registry.Stats()

	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Registry: %s (%s backend)\n", s.config.RegistryPath, s.config.StoreBackend)
	text += fmt.Sprintf("PDF directory: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("Max file size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Registered standards: %d\n\n", stats.TotalCount)

	text += "Available Tools:\n"
	for _, tool := range toolSummaries {
		text += fmt.Sprintf("\n• %s\n", tool.name)
		text += fmt.Sprintf("  Description: %s\n", tool.description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.parameters)
	}

	text += "\nStart with 'standards_extract_file' on a scope PDF, refine with " +
		"'standards_filter', and enrich records via 'standards_lookup'."
	return mcp.NewToolResultText(text), nil
}

type toolSummary struct {
	name        string
	description string
	parameters  string
}

var toolSummaries = []toolSummary{
	{
		name:        "standards_extract_file",
		description: "Extract standards references from a PDF into the registry",
		parameters:  "path (required)",
	},
	{
		name:        "standards_list",
		description: "List all registered standards",
		parameters:  "none",
	},
	{
		name:        "standards_filter",
		description: "Filter standards by status, directive, family, version, dates",
		parameters:  "status, directive, type, source, number, version, has_version, has_etsi_info, date_start, date_end",
	},
	{
		name:        "standards_update",
		description: "Update status, directive, or notes of one standard",
		parameters:  "id (required), status, directive, notes",
	},
	{
		name:        "standards_remove",
		description: "Remove one standard from the registry",
		parameters:  "id (required)",
	},
	{
		name:        "standards_lookup",
		description: "Query the ETSI portal for published versions",
		parameters:  "number or id",
	},
	{
		name:        "standards_stats",
		description: "Registry counts by family, status, and source",
		parameters:  "none",
	},
	{
		name:        "standards_export",
		description: "Export the registry to CSV, JSON, YAML, or XLSX",
		parameters:  "path (required)",
	},
	{
		name:        "standards_server_info",
		description: "This summary",
		parameters:  "none",
	},
}

// boolArg reads a string-typed tool argument as a boolean. MCP clients send
// these as text, so "true"/"false" in any case are accepted.
func boolArg(args map[string]any, key string) (value, ok bool) {
	raw, present := args[key].(string)
	if !present {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	default:
		return false, false
	}
}

// Formatting methods
func (s *Server) formatRecords(records []standards.Record) string {
	text := fmt.Sprintf("Standards (%d):\n", len(records))
	for i, rec := range records {
		text += fmt.Sprintf("%d. %s\n", i+1, rec.Number)
		text += fmt.Sprintf("   Id: %s\n", rec.ID)
		text += fmt.Sprintf("   Type: %s  Status: %s  Source: %s\n", rec.Family, rec.Status, rec.Source)
		if rec.Directive != nil && *rec.Directive != "" {
			text += fmt.Sprintf("   Directive: %s\n", *rec.Directive)
		}
		if rec.RemoteInfo != nil {
			text += fmt.Sprintf("   Portal: %s (%d version(s))\n", rec.RemoteInfo.Status, rec.RemoteInfo.TotalVersions)
		}
		if i < len(records)-1 {
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatRecord(rec standards.Record) string {
	text := fmt.Sprintf("Number: %s\n", rec.Number)
	text += fmt.Sprintf("Id: %s\n", rec.ID)
	text += fmt.Sprintf("Type: %s\n", rec.Family)
	text += fmt.Sprintf("Number part: %s\n", rec.NumberBody)
	if rec.Year != nil {
		text += fmt.Sprintf("Version: %s\n", *rec.Year)
	}
	text += fmt.Sprintf("Status: %s\n", rec.Status)
	if rec.Directive != nil && *rec.Directive != "" {
		text += fmt.Sprintf("Directive: %s\n", *rec.Directive)
	}
	text += fmt.Sprintf("Source: %s\n", rec.Source)
	text += fmt.Sprintf("Extracted: %s\n", rec.ExtractedAt)
	text += fmt.Sprintf("Last updated: %s\n", rec.LastUpdated)
	if rec.Notes != "" {
		text += fmt.Sprintf("Notes: %s\n", rec.Notes)
	}
	return text
}

func (s *Server) formatRemoteInfo(info *standards.RemoteInfo) string {
	text := fmt.Sprintf("Portal lookup: %s\n", info.StandardNumber)
	text += fmt.Sprintf("Status: %s\n", info.Status)
	if info.Error != "" {
		text += fmt.Sprintf("Error: %s\n", info.Error)
		return text
	}
	if info.Message != "" {
		text += fmt.Sprintf("Message: %s\n", info.Message)
	}
	text += fmt.Sprintf("Versions found: %d\n", info.TotalVersions)
	for i, v := range info.Versions {
		text += fmt.Sprintf("\n%d. %s\n", i+1, v.Identification)
		text += fmt.Sprintf("   Status: %s\n", v.Status)
		if v.PublicationDate != "" {
			text += fmt.Sprintf("   Published: %s\n", v.PublicationDate)
		}
		if v.OJReference != "" {
			text += fmt.Sprintf("   OJ reference: %s\n", v.OJReference)
		}
		if v.Title != "" {
			text += fmt.Sprintf("   Title: %s\n", v.Title)
		}
	}
	return text
}

func (s *Server) formatStats(stats registry.Stats) string {
	text := "Registry Statistics\n"
	text += fmt.Sprintf("Total standards: %d\n", stats.TotalCount)
	text += fmt.Sprintf("With version: %d\n", stats.WithVersion)
	text += fmt.Sprintf("With portal data: %d\n", stats.WithRemoteInfo)

	text += "\nBy type:\n"
	text += formatCounts(stats.ByFamily)
	text += "\nBy status:\n"
	text += formatCounts(stats.ByStatus)
	text += "\nBy source:\n"
	text += formatCounts(stats.BySource)
	return text
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "  (none)\n"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Stable output keeps the tool response deterministic.
	sort.Strings(keys)
	text := ""
	for _, k := range keys {
		text += fmt.Sprintf("  %s: %d\n", k, counts[k])
	}
	return text
}

// Run starts the MCP server over stdio
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting standards MCP server in stdio mode")
		log.Printf("Registry: %s", s.config.RegistryPath)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
