// Package mcp implements the Model Context Protocol surface for the
// qualification engine.
//
// The MCP server exposes the same capabilities as the embedding API
// through tools and resources, so MCP-compatible assistants can record
// answers, read scores, and pull coaching during deal reviews.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dealgrid/meddpicc/internal/service/assessments"
)

// Server wraps the MCP server with the assessment service.
type Server struct {
	mcpServer *mcpserver.MCPServer
	svc       *assessments.Service
	logger    *slog.Logger
}

// New creates and configures an MCP server with all tools and resources.
func New(svc *assessments.Service, version string, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	s.mcpServer = mcpserver.NewMCPServer(
		"meddpicc",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// meddpicc://configuration — the active scoring configuration.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"meddpicc://configuration",
			"Scoring Configuration",
			mcplib.WithResourceDescription("Active pillar catalogue, stage gates, risk rules, and benchmark segments"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleConfiguration,
	)
}

func (s *Server) handleConfiguration(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(s.svc.Configuration(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal configuration: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "meddpicc://configuration",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func jsonResult(v any) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid assessment_id %q", raw)
	}
	return id, nil
}
