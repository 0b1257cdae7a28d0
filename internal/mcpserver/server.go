// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only inventory tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/inventory"
)

const formatURI = "bhb://truck-format"

// Server wraps the MCP server with inventory tools.
type Server struct {
	mcp *server.MCPServer
	inv *inventory.Service
}

// New creates a new MCP server with all inventory tools registered.
func New(inv *inventory.Service, version string) *Server {
	s := &Server{inv: inv}

	s.mcp = server.NewMCPServer(
		"BHB Truck Sales",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_trucks",
		mcp.WithDescription("List active trucks in the inventory. All filters are optional and combine with AND."),
		mcp.WithBoolean("available", mcp.Description("Only trucks that are still available")),
		mcp.WithBoolean("featured", mcp.Description("Only featured trucks")),
		mcp.WithString("condition", mcp.Description("Condition, e.g. New or Used (case-insensitive)")),
		mcp.WithString("make", mcp.Description("Substring of the make, e.g. kenworth")),
		mcp.WithNumber("year", mcp.Description("Exact model year")),
	), s.listTrucks)

	s.mcp.AddTool(mcp.NewTool("get_truck",
		mcp.WithDescription("Get the full record of one active truck by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Truck id, e.g. 2025-western-star-49x-wc2899")),
	), s.getTruck)

	s.mcp.AddTool(mcp.NewTool("get_site_settings",
		mcp.WithDescription("Get the storefront announcement, banner and logo settings."),
	), s.getSiteSettings)

	s.mcp.AddTool(mcp.NewTool("get_about_page",
		mcp.WithDescription("Get the about page title and sections."),
	), s.getAboutPage)

	s.mcp.AddTool(mcp.NewTool("get_truck_format",
		mcp.WithDescription("Returns the description of the truck record format. "+
			"Call this before interpreting list_trucks or get_truck output."),
	), s.getTruckFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Truck Record Format",
			mcp.WithResourceDescription("Field reference for inventory records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTruckFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listTrucks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := inventory.Filter{
		Available: req.GetBool("available", false),
		Featured:  req.GetBool("featured", false),
		Condition: req.GetString("condition", ""),
		Make:      req.GetString("make", ""),
		Year:      req.GetInt("year", 0),
	}
	list, err := s.inv.List(ctx, f)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(list)
}

func (s *Server) getTruck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	truck, err := s.inv.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(truck)
}

func (s *Server) getSiteSettings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := s.inv.SiteSettings(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(settings)
}

func (s *Server) getAboutPage(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.inv.AboutPage(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(page)
}

func (s *Server) getTruckFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TruckFormatGuide), nil
}

func (s *Server) readTruckFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     TruckFormatGuide,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		if e, ok := apperr.As(err); ok {
			return mcp.NewToolResultError(e.Message)
		}
	}
	return mcp.NewToolResultError(err.Error())
}
