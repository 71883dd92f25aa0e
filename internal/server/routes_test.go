package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bobmcallan/gqlbridge/internal/schema"
	"github.com/bobmcallan/gqlbridge/internal/tools"
)

// --- Helpers ---

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(Options{
		Host:     "localhost",
		Port:     0,
		Endpoint: "https://api.example.com/graphql",
		Logger:   logger,
		MCPHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		Specs: []*tools.ToolSpec{
			{
				Name:        "user",
				Description: "Query user on the upstream GraphQL API",
				FieldPath:   []string{"user"},
				Args: []*tools.ArgumentSpec{
					{
						Name:     "id",
						Required: true,
						TypeRef: &schema.TypeRef{
							Kind:   schema.KindNonNull,
							OfType: &schema.TypeRef{Kind: schema.KindScalar, Name: "ID"},
						},
					},
				},
				Operation: "query user($id: ID!) { user(id: $id) { id name } }",
			},
		},
	})
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// --- Routes ---

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if body["tools"] != float64(1) {
		t.Errorf("tools = %v, want 1", body["tools"])
	}
	if body["endpoint"] != "https://api.example.com/graphql" {
		t.Errorf("endpoint = %v", body["endpoint"])
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodPost, "/api/health")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", rec.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/version")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["version"] == "" {
		t.Error("version should not be empty")
	}
}

func TestToolsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/tools")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
		Tools []struct {
			Name      string `json:"name"`
			Operation string `json:"operation"`
			Arguments []struct {
				Name     string `json:"name"`
				Type     string `json:"type"`
				Required bool   `json:"required"`
			} `json:"arguments"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Count != 1 || len(body.Tools) != 1 {
		t.Fatalf("Unexpected payload: %+v", body)
	}
	tool := body.Tools[0]
	if tool.Name != "user" || tool.Operation == "" {
		t.Errorf("Unexpected tool: %+v", tool)
	}
	if len(tool.Arguments) != 1 || tool.Arguments[0].Type != "ID!" || !tool.Arguments[0].Required {
		t.Errorf("Unexpected arguments: %+v", tool.Arguments)
	}
}

func TestMCPEndpointMounted(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodPost, "/mcp")
	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200 from the mounted handler", rec.Code)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	rec := doRequest(t, newTestServer(t), http.MethodGet, "/api/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
