package openapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/spardhafest/spardha/internal/model"
)

func TestGenerate_Info(t *testing.T) {
	doc := Generate("Spardha 2025", "http://localhost:8080/api/v1")

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI version = %q, want %q", doc.OpenAPI, "3.1.0")
	}
	if doc.Info == nil {
		t.Fatal("Info is nil")
	}
	if doc.Info.Title != "Spardha 2025 API" {
		t.Errorf("Info.Title = %q, want %q", doc.Info.Title, "Spardha 2025 API")
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8080/api/v1" {
		t.Errorf("Servers not set correctly")
	}
}

func TestGenerate_Validates(t *testing.T) {
	doc := Generate("Spardha 2025", "http://localhost:8080/api/v1")
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("document does not validate: %v", err)
	}
	if body := doc.Paths.Find("/registrations").Post.RequestBody.Value.Content.Get("application/json").Schema; body.Value == nil {
		t.Errorf("request body ref %q left unresolved", body.Ref)
	}
}

func TestGenerate_ServedDocumentLoads(t *testing.T) {
	data, err := json.Marshal(Generate("Spardha 2025", "http://localhost:8080/api/v1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Fatalf("served document does not validate: %v", err)
	}
}

func TestGenerate_Paths(t *testing.T) {
	doc := Generate("Spardha 2025", "http://localhost:8080/api/v1")

	tests := []struct {
		path    string
		methods []string
	}{
		{"/events", []string{"GET"}},
		{"/registrations", []string{"POST"}},
		{"/admin/pin", []string{"POST"}},
		{"/admin/session", []string{"POST", "GET", "DELETE"}},
		{"/admin/registrations", []string{"GET"}},
		{"/admin/stats", []string{"GET"}},
		{"/admin/registrations/export", []string{"GET"}},
	}
	for _, tt := range tests {
		item := doc.Paths.Find(tt.path)
		if item == nil {
			t.Errorf("missing path %s", tt.path)
			continue
		}
		for _, m := range tt.methods {
			if item.GetOperation(m) == nil {
				t.Errorf("%s %s: missing operation", m, tt.path)
			}
		}
	}
}

func TestGenerate_AdminEndpointsRequireSession(t *testing.T) {
	doc := Generate("Spardha 2025", "")

	for _, path := range []string{"/admin/registrations", "/admin/stats", "/admin/registrations/export"} {
		op := doc.Paths.Find(path).Get
		if op.Security == nil || len(*op.Security) != 1 {
			t.Fatalf("%s: expected one security requirement", path)
		}
		if _, ok := (*op.Security)[0]["sessionCookie"]; !ok {
			t.Errorf("%s: expected sessionCookie requirement", path)
		}
	}

	login := doc.Paths.Find("/admin/session").Post
	if login.Security == nil || len(*login.Security) != 0 {
		t.Error("login must not require a session")
	}
}

func TestGenerate_EventSlugsEnumerated(t *testing.T) {
	doc := Generate("Spardha 2025", "")

	input := doc.Components.Schemas["RegistrationInput"].Value
	items := input.Properties["events_registered"].Value.Items.Value
	if len(items.Enum) != len(model.Events()) {
		t.Fatalf("got %d event slugs, want %d", len(items.Enum), len(model.Events()))
	}

	reg := doc.Components.Schemas["Registration"].Value
	if _, ok := reg.Properties["id"]; !ok {
		t.Error("Registration schema missing id")
	}
	if _, ok := input.Properties["id"]; ok {
		t.Error("RegistrationInput must not carry id")
	}
}

func TestGenerate_MarshalsToJSON(t *testing.T) {
	doc := Generate("Spardha 2025", "http://localhost:8080/api/v1")
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", out["openapi"])
	}
}
