package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/spardhafest/spardha/internal/model"
)

func validRegistrationBody() map[string]interface{} {
	return map[string]interface{}{
		"full_name":         "Asha Rao",
		"email":             "asha@example.com",
		"phone":             "9876543210",
		"college":           "City College",
		"department":        "CSE",
		"year_of_study":     3,
		"registration_type": "team",
		"team_name":         "Byte Club",
		"events_registered": []string{"hackathon", "robotics"},
	}
}

func TestListEvents(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/events", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp model.ListResponse[model.Event]
	decodeJSON(t, rr, &resp)
	if resp.Meta.Count != len(model.Events()) || len(resp.Resource) != resp.Meta.Count {
		t.Errorf("got %d events, meta count %d", len(resp.Resource), resp.Meta.Count)
	}
}

func TestCreateRegistration(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/registrations", toJSON(t, validRegistrationBody()))
	assertStatus(t, rr, http.StatusCreated)

	var reg model.Registration
	decodeJSON(t, rr, &reg)
	if reg.ID == "" || reg.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at, got %+v", reg)
	}

	stored, err := env.store.ListRegistrations(context.Background())
	if err != nil {
		t.Fatalf("ListRegistrations: %v", err)
	}
	if len(stored) != 1 || stored[0].TeamName != "Byte Club" || len(stored[0].Events) != 2 {
		t.Errorf("unexpected stored registrations %+v", stored)
	}
}

func TestCreateRegistration_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"missing name", func(b map[string]interface{}) { delete(b, "full_name") }, "full_name"},
		{"bad type", func(b map[string]interface{}) { b["registration_type"] = "duo" }, "registration_type"},
		{"team without name", func(b map[string]interface{}) { b["team_name"] = " " }, "team_name"},
		{"no events", func(b map[string]interface{}) { b["events_registered"] = []string{} }, "events_registered"},
		{"unknown event", func(b map[string]interface{}) { b["events_registered"] = []string{"chess"} }, "events_registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validRegistrationBody()
			tt.mutate(body)

			rr := env.do(t, "POST", "/api/v1/registrations", toJSON(t, body))
			assertStatus(t, rr, http.StatusBadRequest)

			var resp model.ErrorResponse
			decodeJSON(t, rr, &resp)
			fields, _ := resp.Error.Context["fields"].([]interface{})
			found := false
			for _, f := range fields {
				if f.(map[string]interface{})["field"] == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for %s, got %v", tt.field, resp.Error.Context)
			}
		})
	}

	stored, _ := env.store.ListRegistrations(context.Background())
	if len(stored) != 0 {
		t.Errorf("rejected registrations must not be stored, got %d", len(stored))
	}
}

func TestCreateRegistration_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/v1/registrations", toJSON(t, []int{1, 2}))
	assertStatus(t, rr, http.StatusBadRequest)
}
