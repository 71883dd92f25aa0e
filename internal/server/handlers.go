package server

import (
	"encoding/json"
	"net/http"

	"github.com/bobmcallan/gqlbridge/internal/common"
)

// getOnly rejects everything but GET. The API surface here is read-only;
// tool invocation goes through /mcp.
func getOnly(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

// healthResponse is the /api/health payload.
type healthResponse struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
	Tools    int    `json:"tools"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Endpoint: s.endpoint,
		Tools:    len(s.specs),
	})
}

// versionResponse is the /api/version payload.
type versionResponse struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version:   common.GetVersion(),
		Build:     common.GetBuild(),
		GitCommit: common.GetGitCommit(),
	})
}

// toolInfo describes one derived tool for the inspection endpoint.
type toolInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Mutation    bool      `json:"mutation"`
	Arguments   []argInfo `json:"arguments"`
	Operation   string    `json:"operation"`
}

type argInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// handleTools lists every tool derived from the remote schema, with the
// GraphQL operation each one executes. Useful for checking what a schema
// actually produced without driving an MCP client.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	infos := make([]toolInfo, 0, len(s.specs))
	for _, spec := range s.specs {
		args := make([]argInfo, 0, len(spec.Args))
		for _, a := range spec.Args {
			args = append(args, argInfo{
				Name:        a.Name,
				Type:        a.TypeRef.String(),
				Required:    a.Required,
				Description: a.Description,
			})
		}
		infos = append(infos, toolInfo{
			Name:        spec.Name,
			Description: spec.Description,
			Mutation:    spec.IsMutation,
			Arguments:   args,
			Operation:   spec.Operation,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(infos),
		"tools": infos,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
