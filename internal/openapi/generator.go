package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/spardhafest/spardha/internal/model"
)

// SessionCookie is the cookie carrying the signed admin session.
const SessionCookie = "admin_session"

// Generate builds the OpenAPI 3.1 document for the JSON API served under
// /api/v1. Schema references are resolved against the document's own
// components so the result validates without a load step.
func Generate(festival, baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       fmt.Sprintf("%s API", festival),
			Description: fmt.Sprintf("Registration and admin API for %s.", festival),
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["sessionCookie"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "apiKey",
			In:          "cookie",
			Name:        SessionCookie,
			Description: "Signed admin session set by POST /admin/session.",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    intSchema("int32"),
							"message": stringSchema(""),
							"context": objectSchema(openapi3.Schemas{
								"fields": &openapi3.SchemaRef{
									Value: &openapi3.Schema{
										Type:  &openapi3.Types{"array"},
										Items: fieldErrorSchema(),
									},
								},
							}),
						},
					},
				},
			},
		},
	}
	doc.Components.Schemas["Event"] = eventSchema()
	doc.Components.Schemas["RegistrationInput"] = registrationInputSchema()
	doc.Components.Schemas["Registration"] = registrationSchema()
	doc.Components.Schemas["AdminSession"] = adminSessionSchema()
	doc.Components.Schemas["RegistrationStats"] = statsSchema()

	doc.Paths = openapi3.NewPaths()
	addPublicPaths(doc)
	addAdminPaths(doc)

	if err := openapi3.NewLoader().ResolveRefsIn(doc, nil); err != nil {
		panic(fmt.Sprintf("openapi: resolve refs: %v", err))
	}
	return doc
}

func addPublicPaths(doc *openapi3.T) {
	doc.Paths.Set("/events", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listEvents",
			Summary:     "List festival events",
			Tags:        []string{"public"},
			Responses:   newResponses("200", "Event catalog", listSchema(ref("Event"))),
			Security:    &openapi3.SecurityRequirements{},
		},
	})

	doc.Paths.Set("/registrations", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "createRegistration",
			Summary:     "Register for one or more events",
			Tags:        []string{"public"},
			RequestBody: jsonBody("Registration form", ref("RegistrationInput")),
			Responses:   newResponses("201", "Registration recorded", ref("Registration")),
			Security:    &openapi3.SecurityRequirements{},
		},
	})

	doc.Paths.Set("/admin/pin", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "verifyPIN",
			Summary:     "Verify the admin gate PIN",
			Description: "Returns a short-lived ticket that unlocks the login form.",
			Tags:        []string{"admin"},
			RequestBody: jsonBody("PIN", objectSchema(openapi3.Schemas{
				"pin": stringSchema("Four-character gate PIN."),
			}, "pin")),
			Responses: withStatus(
				newResponses("200", "PIN accepted", objectSchema(openapi3.Schemas{
					"state":  stringSchema(""),
					"ticket": stringSchema("Login ticket, valid for a few minutes."),
				})),
				"429", "Too many attempts"),
			Security: &openapi3.SecurityRequirements{},
		},
	})
}

func addAdminPaths(doc *openapi3.T) {
	secured := &openapi3.SecurityRequirements{{"sessionCookie": {}}}

	doc.Paths.Set("/admin/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "login",
			Summary:     "Log in with admin credentials",
			Description: "The ticket from POST /admin/pin is optional here and checked when present. The HTML login form always requires it.",
			Tags:        []string{"admin"},
			RequestBody: jsonBody("Credentials", objectSchema(openapi3.Schemas{
				"email":    stringSchema(""),
				"password": stringSchema(""),
				"ticket":   stringSchema("Gate ticket returned by POST /admin/pin"),
			}, "email", "password")),
			Responses: withStatus(newResponses("200", "Session created", ref("AdminSession")),
				"429", "Too many attempts"),
			Security: &openapi3.SecurityRequirements{},
		},
		Get: &openapi3.Operation{
			OperationID: "currentSession",
			Summary:     "Return the current admin session",
			Tags:        []string{"admin"},
			Responses:   newResponses("200", "Current session", ref("AdminSession")),
			Security:    secured,
		},
		Delete: &openapi3.Operation{
			OperationID: "logout",
			Summary:     "Log out",
			Tags:        []string{"admin"},
			Responses: newResponses("200", "Session cleared", objectSchema(openapi3.Schemas{
				"success": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
			})),
			Security: &openapi3.SecurityRequirements{},
		},
	})

	doc.Paths.Set("/admin/registrations", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listRegistrations",
			Summary:     "List registrations, newest first",
			Tags:        []string{"admin"},
			Responses:   newResponses("200", "Registrations", listSchema(ref("Registration"))),
			Security:    secured,
		},
	})

	doc.Paths.Set("/admin/stats", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "registrationStats",
			Summary:     "Registration totals and per-event counts",
			Tags:        []string{"admin"},
			Responses:   newResponses("200", "Statistics", ref("RegistrationStats")),
			Security:    secured,
		},
	})

	exportDesc := "Spreadsheet of all registrations"
	exportResponses := newResponses("200", exportDesc, nil)
	exportResponses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &exportDesc,
			Content: openapi3.Content{
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "binary"}},
				},
			},
		},
	})
	doc.Paths.Set("/admin/registrations/export", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "exportRegistrations",
			Summary:     "Download registrations as an Excel workbook",
			Tags:        []string{"admin"},
			Responses:   exportResponses,
			Security:    secured,
		},
	})
}

// ─── Schemas ────────────────────────────────────────────────────────────────

func eventSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"slug":     stringSchema(""),
		"name":     stringSchema(""),
		"category": enumSchema(model.CategoryTechnical, model.CategoryCultural, model.CategoryGeneral),
	}, "slug", "name", "category")
}

func registrationInputSchema() *openapi3.SchemaRef {
	slugs := make([]any, 0, len(model.Events()))
	for _, e := range model.Events() {
		slugs = append(slugs, e.Slug)
	}
	minYear, maxYear := 1.0, 4.0

	s := objectSchema(openapi3.Schemas{
		"full_name":  stringSchema(""),
		"email":      {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "email"}},
		"phone":      stringSchema(""),
		"college":    stringSchema(""),
		"department": stringSchema(""),
		"year_of_study": {Value: &openapi3.Schema{
			Type: &openapi3.Types{"integer"}, Format: "int32", Min: &minYear, Max: &maxYear,
		}},
		"registration_type": enumSchema(string(model.RegistrationIndividual), string(model.RegistrationTeam)),
		"team_name":         stringSchema("Required for team registrations."),
		"events_registered": {Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: slugs}},
		}},
	}, "full_name", "email", "phone", "college", "year_of_study", "registration_type", "events_registered")
	return s
}

func registrationSchema() *openapi3.SchemaRef {
	s := registrationInputSchema()
	s.Value.Properties["id"] = stringSchema("")
	s.Value.Properties["created_at"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
	}
	s.Value.Required = append(s.Value.Required, "id", "created_at")
	return s
}

func adminSessionSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"id":         stringSchema(""),
		"email":      stringSchema(""),
		"full_name":  stringSchema(""),
		"role":       enumSchema(model.RoleAdmin, model.RoleSuperAdmin),
		"is_active":  {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
		"last_login": {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
		"issued_at":  {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}},
	}, "id", "email", "role")
}

func statsSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"total": intSchema("int64"),
		"teams": intSchema("int64"),
		"per_event": {Value: &openapi3.Schema{
			Type:                 &openapi3.Types{"object"},
			Description:          "Registration count keyed by event slug.",
			AdditionalProperties: openapi3.AdditionalProperties{Schema: intSchema("int64")},
		}},
	}, "total", "teams", "per_event")
}

func fieldErrorSchema() *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"field":   stringSchema(""),
		"message": stringSchema(""),
	})
}

// listSchema wraps item in the {"resource": [...], "meta": {...}} envelope.
func listSchema(item *openapi3.SchemaRef) *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{
		"resource": {Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: item}},
		"meta": objectSchema(openapi3.Schemas{
			"count": {Value: &openapi3.Schema{
				Type: &openapi3.Types{"integer"}, Format: "int64",
				Description: "Number of records returned.",
			}},
		}),
	}, "resource", "meta")
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func objectSchema(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func stringSchema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func intSchema(format string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: format}}
}

func enumSchema(values ...string) *openapi3.SchemaRef {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: enum}}
}

func jsonBody(desc string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

// newResponses builds a Responses map with a success response and the
// standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	for _, e := range []struct{ code, desc string }{
		{"400", "Bad request"},
		{"401", "Unauthorized"},
		{"500", "Internal server error"},
	} {
		withStatus(responses, e.code, e.desc)
	}
	return responses
}

// withStatus adds an ErrorResponse-shaped response for code.
func withStatus(responses *openapi3.Responses, code, desc string) *openapi3.Responses {
	d := desc
	responses.Set(code, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &d,
			Content:     openapi3.NewContentWithJSONSchemaRef(ref("ErrorResponse")),
		},
	})
	return responses
}
