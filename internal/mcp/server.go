// Package mcp exposes festival registrations to MCP clients over stdio so
// organizers can ask an assistant about sign-ups without opening the
// dashboard. Every tool is read-only.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spardhafest/spardha/internal/model"
)

// RegistrationLister is the read side of the registration service.
type RegistrationLister interface {
	List(ctx context.Context) ([]model.Registration, error)
}

// MCPServer wraps the mcp-go server with the festival tools and resources.
type MCPServer struct {
	festival      string
	registrations RegistrationLister
	logger        *slog.Logger
	server        *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources registered.
func NewMCPServer(festival, version string, registrations RegistrationLister, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		festival:      festival,
		registrations: registrations,
		logger:        logger,
	}

	mcpServer := server.NewMCPServer(
		festival+" Registrations",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go server.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode", "festival", s.festival)
	return server.ServeStdio(s.server)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
