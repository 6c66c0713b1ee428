// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Arkadia resonance classifier and records over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/apperr"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/essence"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

// GlossaryURI identifies the resonance glossary resource.
const GlossaryURI = "arkadia://resonance-glossary"

const defaultMessageLimit = 20

// Server wraps the MCP server with Arkadia tools.
type Server struct {
	mcp *server.MCPServer
	svc *essence.Service
}

// New creates a new MCP server with all Arkadia tools registered.
func New(svc *essence.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Arkadia",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("classify_text",
		mcp.WithDescription("Classify text into a resonance signature: type, intensity (1-5), "+
			"detected patterns and whether it contains an activation phrase."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to classify")),
	), s.classifyText)

	s.mcp.AddTool(mcp.NewTool("list_hints",
		mcp.WithDescription("List every guidance hint."),
	), s.listHints)

	s.mcp.AddTool(mcp.NewTool("get_hint",
		mcp.WithDescription("Get one guidance hint by its numeric id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Hint id")),
	), s.getHint)

	s.mcp.AddTool(mcp.NewTool("list_essence_entries",
		mcp.WithDescription("List submitted essence entries, newest first."),
	), s.listEssenceEntries)

	s.mcp.AddTool(mcp.NewTool("recent_messages",
		mcp.WithDescription("Return the most recent commune messages, oldest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of messages (default 20)")),
	), s.recentMessages)

	s.mcp.AddResource(
		mcp.NewResource(GlossaryURI, "Resonance Glossary",
			mcp.WithResourceDescription("Resonance types, watcher states and activation phrases used by Arkana."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGlossaryResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) classifyText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resonance.Analyze(text))
}

func (s *Server) listHints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hints, err := s.svc.ListHints(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hints)
}

func (s *Server) getHint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hint, err := s.svc.GetHint(ctx, int64(id))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("hint not found: %d", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hint)
}

func (s *Server) listEssenceEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.ListEntries(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no essence entries yet"), nil
	}
	return jsonResult(entries)
}

func (s *Server) recentMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultMessageLimit)
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	msgs, err := s.svc.RecentMessages(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(msgs) == 0 {
		return mcp.NewToolResultText("no messages yet"), nil
	}
	return jsonResult(msgs)
}

func (s *Server) readGlossaryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GlossaryURI,
			MIMEType: "text/markdown",
			Text:     Glossary(),
		},
	}, nil
}
