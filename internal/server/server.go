// Package server exposes graph queries as MCP tools over stdio so agents can
// ask about module dependencies, symbols and stale documentation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/negaga53/codecompass/internal/nav"
)

const Name = "codecompass"

// Server serves one immutable graph. Tool handlers only read from the
// engine, so concurrent calls need no locking.
type Server struct {
	mcpServer *mcp.Server
	engine    *nav.Engine
	logger    *slog.Logger
}

func New(engine *nav.Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
		engine:    engine,
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	stats := s.engine.Graph().Stats()
	s.logger.Info("mcp server starting", "modules", stats.Modules, "symbols", stats.Symbols)
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return textResult(string(data)), nil
}
