// Package openapi builds the OpenAPI document describing the key and admin
// surfaces, served at /openapi.json.
package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI 3.1 document for the Kuroukai API.
func Generate() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Kuroukai API",
			Description: "Short-lived access key issuance and validation, with an operator session surface.",
			Version:     "1.0.0",
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{
		"AccessKey":     accessKeySchema(),
		"AdminSession":  adminSessionSchema(),
		"ErrorResponse": errorResponseSchema(),
	}
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"sessionCookie": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type: "apiKey",
				In:   "cookie",
				Name: "kuroukai_session",
			},
		},
	}
	doc.Components = &components
	doc.Paths = openapi3.NewPaths()

	keyRef := openapi3.NewSchemaRef("#/components/schemas/AccessKey", nil)
	sessionRef := openapi3.NewSchemaRef("#/components/schemas/AdminSession", nil)

	doc.Paths.Set("/api/v1/keys", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Create an access key",
			OperationID: "create_key",
			RequestBody: jsonRequestBody("Owner and TTL for the new key", &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type:     &openapi3.Types{"object"},
					Required: []string{"owner_id", "ttl_hours"},
					Properties: openapi3.Schemas{
						"owner_id":  stringSchema(),
						"ttl_hours": intSchema(),
					},
				},
			}),
			Responses: newResponses("201", "Created key record", keyRef),
		},
		Get: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "List keys by owner",
			OperationID: "list_keys",
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewQueryParameter("owner_id").
					WithDescription("Owner whose keys to list.").
					WithSchema(openapi3.NewStringSchema()).
					WithRequired(true)},
			},
			Responses: newResponses("200", "Keys in creation order", listSchema(keyRef)),
		},
	})

	doc.Paths.Set("/api/v1/keys/{keyID}", &openapi3.PathItem{
		Parameters: keyIDParam(),
		Get: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Fetch key info",
			OperationID: "get_key",
			Responses:   newResponses("200", "Key record", keyRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Delete a key permanently",
			OperationID: "delete_key",
			Responses:   newResponses("204", "Key removed", nil),
		},
	})

	doc.Paths.Set("/api/v1/keys/{keyID}/validate", &openapi3.PathItem{
		Parameters: keyIDParam(),
		Get: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Check key validity",
			Description: "Always returns 200; the status field is one of valid, expired, revoked, not_found.",
			OperationID: "validate_key",
			Responses: newResponses("200", "Validity outcome", &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"id": stringSchema(),
						"status": &openapi3.SchemaRef{Value: &openapi3.Schema{
							Type: &openapi3.Types{"string"},
							Enum: []interface{}{"valid", "expired", "revoked", "not_found"},
						}},
					},
				},
			}),
		},
	})

	doc.Paths.Set("/api/v1/keys/{keyID}/revoke", &openapi3.PathItem{
		Parameters: keyIDParam(),
		Post: &openapi3.Operation{
			Tags:        []string{"keys"},
			Summary:     "Revoke a key",
			Description: "Revocation is terminal; a revoked key never becomes active again.",
			OperationID: "revoke_key",
			Responses:   newResponses("200", "Key revoked", nil),
		},
	})

	doc.Paths.Set("/api/v1/admin/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Operator login",
			OperationID: "login",
			RequestBody: jsonRequestBody("Operator credentials", &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type:     &openapi3.Types{"object"},
					Required: []string{"username", "password"},
					Properties: openapi3.Schemas{
						"username": stringSchema(),
						"password": stringSchema(),
					},
				},
			}),
			Responses: newResponses("200", "Session cookie set", nil),
		},
		Get: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Current session info",
			OperationID: "current_session",
			Security:    sessionSecurity(),
			Responses:   newResponses("200", "The caller's session record", sessionRef),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Operator logout",
			Description: "Idempotent; always succeeds and clears the session cookie.",
			OperationID: "logout",
			Responses:   newResponses("200", "Logged out", nil),
		},
	})

	doc.Paths.Set("/api/v1/admin/sessions", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "List all sessions",
			Description: "May include sessions that are logically expired but not yet evicted.",
			OperationID: "list_sessions",
			Security:    sessionSecurity(),
			Responses:   newResponses("200", "Session snapshots", listSchema(sessionRef)),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Clear all sessions",
			OperationID: "clear_sessions",
			Security:    sessionSecurity(),
			Responses:   newResponses("200", "Count of removed sessions", nil),
		},
	})

	doc.Paths.Set("/api/v1/admin/origin", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Origin resolution diagnostics",
			Description: "Returns both the public-preferred and first-valid client IP resolutions for the request.",
			OperationID: "inspect_origin",
			Security:    sessionSecurity(),
			Responses: newResponses("200", "Both resolutions", &openapi3.SchemaRef{
				Value: &openapi3.Schema{
					Type: &openapi3.Types{"object"},
					Properties: openapi3.Schemas{
						"public":      stringSchema(),
						"first_valid": stringSchema(),
					},
				},
			}),
		},
	})

	return doc
}

// Handler serves the generated document as JSON. The document is built once.
func Handler() http.HandlerFunc {
	doc := Generate()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}
}

func accessKeySchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":       stringSchema(),
				"owner_id": stringSchema(),
				"status": &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type: &openapi3.Types{"string"},
					Enum: []interface{}{"active", "revoked"},
				}},
				"created_at": dateTimeSchema(),
				"expires_at": dateTimeSchema(),
			},
		},
	}
}

func adminSessionSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"token":      stringSchema(),
				"created_at": dateTimeSchema(),
				"ip":         stringSchema(),
				"user_agent": stringSchema(),
			},
		},
	}
}

func errorResponseSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    intSchema(),
							"message": stringSchema(),
						},
					},
				},
			},
		},
	}
}

func listSchema(itemRef *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"resource": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: itemRef,
					},
				},
				"meta": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"count": intSchema(),
						},
					},
				},
			},
		},
	}
}

func keyIDParam() openapi3.Parameters {
	return openapi3.Parameters{
		{Value: openapi3.NewPathParameter("keyID").
			WithDescription("Opaque key identifier; lookups are exact-match.").
			WithSchema(openapi3.NewStringSchema())},
	}
}

func jsonRequestBody(description string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func sessionSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{"sessionCookie": {}}}
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func intSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}
}

func dateTimeSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}}
}

// newResponses builds the standard response set: one success status plus
// the shared error envelope for 400/401/404.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	success := &openapi3.Response{Description: &successDesc}
	if schema != nil {
		success.Content = openapi3.NewContentWithJSONSchemaRef(schema)
	}
	responses.Set(statusCode, &openapi3.ResponseRef{Value: success})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for code, desc := range map[string]string{
		"400": "Bad request",
		"401": "Unauthorized",
		"404": "Not found",
	} {
		d := desc
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}
