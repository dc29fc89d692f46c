package mcp

import (
	"context"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spardhafest/spardha/internal/model"
	"github.com/spardhafest/spardha/internal/registration"
)

const (
	defaultLimit = 25
	maxLimit     = 500
)

func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("spardha_list_events",
			mcp.WithDescription(
				"List the festival's event catalog. Returns each event's slug, display "+
					"name and category. Slugs are the values stored in events_registered.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListEvents,
	)

	srv.AddTool(
		mcp.NewTool("spardha_list_registrations",
			mcp.WithDescription(
				"List registrations, newest first. Optionally restrict to one event "+
					"or one registration type, and page with limit/offset.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("event",
				mcp.Description("Event slug to filter by (see spardha_list_events)"),
			),
			mcp.WithString("registration_type",
				mcp.Description("individual or team"),
				mcp.Enum(string(model.RegistrationIndividual), string(model.RegistrationTeam)),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of registrations to return (default 25, max 500)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Number of registrations to skip"),
			),
		),
		s.handleListRegistrations,
	)

	srv.AddTool(
		mcp.NewTool("spardha_registration_stats",
			mcp.WithDescription(
				"Summarize registrations: the total and a per-event count ordered "+
					"from most to least popular.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleStats,
	)
}

func (s *MCPServer) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successJSON(model.Events())
}

type registrationPage struct {
	Total         int                  `json:"total"`
	Offset        int                  `json:"offset"`
	Registrations []model.Registration `json:"registrations"`
}

func (s *MCPServer) handleListRegistrations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	event := strings.TrimSpace(optionalString(request, "event"))
	if event != "" {
		if _, ok := model.LookupEvent(event); !ok {
			return toolError("Unknown event %q. Call spardha_list_events for valid slugs.", event)
		}
	}
	regType := model.RegistrationType(optionalString(request, "registration_type"))
	if regType != "" && !regType.Valid() {
		return toolError("registration_type must be individual or team, got %q", regType)
	}
	limit := clamp(optionalInt(request, "limit", defaultLimit), 1, maxLimit)
	offset := max(optionalInt(request, "offset", 0), 0)

	regs, err := s.registrations.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp: list registrations failed", "error", err)
		return toolError("Failed to list registrations: %v", err)
	}

	matched := make([]model.Registration, 0, len(regs))
	for _, r := range regs {
		if event != "" && !slices.Contains(r.Events, event) {
			continue
		}
		if regType != "" && r.RegistrationType != regType {
			continue
		}
		matched = append(matched, r)
	}

	page := registrationPage{Total: len(matched), Offset: offset, Registrations: []model.Registration{}}
	if offset < len(matched) {
		page.Registrations = matched[offset:min(offset+limit, len(matched))]
	}
	return successJSON(page)
}

type eventCount struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type statsResult struct {
	Total    int          `json:"total"`
	PerEvent []eventCount `json:"per_event"`
}

func (s *MCPServer) stats(ctx context.Context) (statsResult, error) {
	regs, err := s.registrations.List(ctx)
	if err != nil {
		return statsResult{}, err
	}
	summary := registration.Summarize(regs)
	res := statsResult{Total: summary.Total}
	for _, ec := range registration.Ranked(summary) {
		res.PerEvent = append(res.PerEvent, eventCount{Slug: ec.Event.Slug, Name: ec.Event.Name, Count: ec.Count})
	}
	return res, nil
}

func (s *MCPServer) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.stats(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp: registration stats failed", "error", err)
		return toolError("Failed to compute stats: %v", err)
	}
	return successJSON(res)
}
