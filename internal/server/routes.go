package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (JSON-RPC over HTTP)
	if s.mcpHandler != nil {
		mux.Handle("/mcp", s.mcpHandler)
	}

	// Read-only API routes
	mux.HandleFunc("/api/health", getOnly(s.handleHealth))
	mux.HandleFunc("/api/version", getOnly(s.handleVersion))
	mux.HandleFunc("/api/tools", getOnly(s.handleTools))

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
