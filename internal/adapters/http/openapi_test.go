package http_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	handler "github.com/meetpoint/meetpoint/internal/adapters/http"
)

// findOpenAPISpec locates the openapi.yaml file by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	dir, _ := os.Getwd()

	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI document.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	for _, schema := range []string{"Meetup", "Member", "MembershipResult", "PlacesResult", "Place", "Error"} {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	if spec.Info.Title != "MeetPoint API" {
		t.Errorf("expected title 'MeetPoint API', got %q", spec.Info.Title)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}

// TestOpenAPICoversRoutes checks that every registered REST route is documented.
func TestOpenAPICoversRoutes(t *testing.T) {
	spec := loadSpec(t)

	app := fiber.New()
	handler.SetupRoutes(app, &handler.Dependencies{})

	undocumented := map[string]bool{"/metrics": true, "/docs": true, "/docs/openapi.yaml": true, "/ws/meetups/:id": true}
	for _, r := range app.GetRoutes(true) {
		switch r.Method {
		case fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete:
		default:
			continue
		}
		if undocumented[r.Path] {
			continue
		}

		path := r.Path
		for _, p := range r.Params {
			path = strings.Replace(path, ":"+p, "{"+p+"}", 1)
		}
		item := spec.Paths.Find(path)
		if item == nil {
			t.Errorf("route %s %s is not documented", r.Method, r.Path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("route %s %s has no documented operation", r.Method, r.Path)
		}
	}
}
