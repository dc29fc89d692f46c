// Package registration accepts festival sign-ups from the public form and
// summarizes them for the admin dashboard.
package registration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spardhafest/spardha/internal/model"
)

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid registration: " + strings.Join(parts, "; ")
}

// Store is the persistence the service needs.
type Store interface {
	CreateRegistration(ctx context.Context, reg *model.Registration) error
	ListRegistrations(ctx context.Context) ([]model.Registration, error)
}

// Service records and lists registrations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService returns a Service backed by store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger}
}

// Register normalizes and validates reg, then stores it. Validation failures
// are returned as *ValidationError.
func (s *Service) Register(ctx context.Context, reg *model.Registration) error {
	Normalize(reg)
	if err := Validate(reg); err != nil {
		return err
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.logger.InfoContext(ctx, "registration received",
		"registration_id", reg.ID, "type", reg.RegistrationType, "events", reg.Events)
	return nil
}

// List returns all registrations, newest first.
func (s *Service) List(ctx context.Context) ([]model.Registration, error) {
	return s.store.ListRegistrations(ctx)
}

// Normalize trims text fields, drops the team name from individual
// entries and removes repeated events, keeping first-seen order.
func Normalize(reg *model.Registration) {
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.College = strings.TrimSpace(reg.College)
	reg.Department = strings.TrimSpace(reg.Department)
	reg.TeamName = strings.TrimSpace(reg.TeamName)
	reg.RegistrationType = model.RegistrationType(strings.ToLower(strings.TrimSpace(string(reg.RegistrationType))))
	if reg.RegistrationType == model.RegistrationIndividual {
		reg.TeamName = ""
	}

	seen := make(map[string]bool, len(reg.Events))
	events := reg.Events[:0]
	for _, e := range reg.Events {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		events = append(events, e)
	}
	reg.Events = events
}

// Validate checks required fields and enumerated values.
func Validate(reg *model.Registration) error {
	var fields []FieldError
	require := func(field, value string) {
		if value == "" {
			fields = append(fields, FieldError{Field: field, Message: "is required"})
		}
	}

	require("full_name", reg.FullName)
	require("email", reg.Email)
	require("phone", reg.Phone)
	require("college", reg.College)

	if reg.YearOfStudy < 1 || reg.YearOfStudy > 4 {
		fields = append(fields, FieldError{Field: "year_of_study", Message: "must be between 1 and 4"})
	}
	if !reg.RegistrationType.Valid() {
		fields = append(fields, FieldError{Field: "registration_type", Message: "must be individual or team"})
	}
	if reg.RegistrationType == model.RegistrationTeam {
		require("team_name", reg.TeamName)
	}

	if len(reg.Events) == 0 {
		fields = append(fields, FieldError{Field: "events_registered", Message: "select an event"})
	}
	for _, slug := range reg.Events {
		if _, ok := model.LookupEvent(slug); !ok {
			fields = append(fields, FieldError{Field: "events_registered", Message: fmt.Sprintf("unknown event %q", slug)})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Summarize counts registrations overall, team entries, and entries per
// event. Every catalog event appears in PerEvent, including those with no
// registrations.
func Summarize(regs []model.Registration) model.RegistrationStats {
	stats := model.RegistrationStats{
		Total:    len(regs),
		PerEvent: make(map[string]int),
	}
	for _, e := range model.Events() {
		stats.PerEvent[e.Slug] = 0
	}
	for _, r := range regs {
		if r.RegistrationType == model.RegistrationTeam {
			stats.Teams++
		}
		for _, slug := range r.Events {
			stats.PerEvent[slug]++
		}
	}
	return stats
}

// EventCount pairs an event with its registration count.
type EventCount struct {
	Event model.Event
	Count int
}

// Ranked returns per-event counts ordered by count descending, then catalog
// order.
func Ranked(stats model.RegistrationStats) []EventCount {
	catalog := model.Events()
	out := make([]EventCount, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, EventCount{Event: e, Count: stats.PerEvent[e.Slug]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
