package model

import "time"

// RegistrationType distinguishes solo entrants from teams.
type RegistrationType string

const (
	RegistrationIndividual RegistrationType = "individual"
	RegistrationTeam       RegistrationType = "team"
)

// Valid reports whether t is a known registration type.
func (t RegistrationType) Valid() bool {
	return t == RegistrationIndividual || t == RegistrationTeam
}

// Registration is one festival sign-up as submitted through the public form.
type Registration struct {
	ID               string           `json:"id"`
	FullName         string           `json:"full_name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	College          string           `json:"college"`
	Department       string           `json:"department,omitempty"`
	YearOfStudy      int              `json:"year_of_study"`
	RegistrationType RegistrationType `json:"registration_type"`
	TeamName         string           `json:"team_name,omitempty"`
	Events           []string         `json:"events_registered"`
	CreatedAt        time.Time        `json:"created_at"`
}

// RegistrationStats summarizes registrations for the dashboard.
type RegistrationStats struct {
	Total    int            `json:"total"`
	Teams    int            `json:"teams"`
	PerEvent map[string]int `json:"per_event"`
}
