package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spardhafest/spardha/internal/model"
)

const (
	eventsURI = "spardha://events"
	statsURI  = "spardha://stats"
)

func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			eventsURI,
			"Event Catalog",
			mcp.WithResourceDescription("Every event participants can register for."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleEventsResource,
	)

	srv.AddResource(
		mcp.NewResource(
			statsURI,
			"Registration Stats",
			mcp.WithResourceDescription("Total registrations and the count per event."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleStatsResource,
	)
}

func (s *MCPServer) handleEventsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(request.Params.URI, model.Events())
}

func (s *MCPServer) handleStatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res, err := s.stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return jsonResource(request.Params.URI, res)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
