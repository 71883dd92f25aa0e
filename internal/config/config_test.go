package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Name != "gqlbridge" || cfg.Server.Port != 4280 {
		t.Errorf("Unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Tools.ExposeMutations {
		t.Error("Mutations must be opt-in")
	}
	if cfg.Endpoint.TimeoutSeconds != 30 {
		t.Errorf("Default timeout = %d, want 30", cfg.Endpoint.TimeoutSeconds)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gqlbridge.toml")
	content := `
[server]
port = 9090

[endpoint]
url = "https://api.example.com/graphql"
bearer_token = "abc"

[endpoint.headers]
X-Tenant = "acme"

[tools]
expose_mutations = true
selection_depth = 4

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Name != "gqlbridge" {
		t.Error("Unset fields should keep defaults")
	}
	if cfg.Endpoint.URL != "https://api.example.com/graphql" {
		t.Errorf("URL = %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.Headers["X-Tenant"] != "acme" {
		t.Errorf("Headers = %v", cfg.Endpoint.Headers)
	}
	if !cfg.Tools.ExposeMutations || cfg.Tools.SelectionDepth != 4 {
		t.Errorf("Tools = %+v", cfg.Tools)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Missing file should not be an error, got %v", err)
	}
	if cfg.Server.Port != 4280 {
		t.Errorf("Expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[[[nope"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GQLBRIDGE_ENDPOINT", "https://env.example.com/graphql")
	t.Setenv("GQLBRIDGE_PORT", "5000")
	t.Setenv("GQLBRIDGE_EXPOSE_MUTATIONS", "true")
	t.Setenv("GQLBRIDGE_LOG_LEVEL", "warn")

	cfg, err := LoadFromFile("")
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Endpoint.URL != "https://env.example.com/graphql" {
		t.Errorf("URL = %q", cfg.Endpoint.URL)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Server.Port)
	}
	if !cfg.Tools.ExposeMutations {
		t.Error("ExposeMutations should be overridden")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, "https://flag.example.com/graphql", 6000)

	if cfg.Endpoint.URL != "https://flag.example.com/graphql" || cfg.Server.Port != 6000 {
		t.Errorf("Flag overrides not applied: %+v", cfg)
	}

	ApplyFlagOverrides(cfg, "", 0)
	if cfg.Endpoint.URL == "" || cfg.Server.Port == 0 {
		t.Error("Empty flags must not clobber existing values")
	}
}

func TestEffectiveSelectionDepth(t *testing.T) {
	cfg := NewDefaultConfig()
	if got := cfg.EffectiveSelectionDepth(); got != DefaultRemoteSelectionDepth {
		t.Errorf("Remote default = %d, want %d", got, DefaultRemoteSelectionDepth)
	}

	cfg.Endpoint.SchemaFile = "schema.graphql"
	if got := cfg.EffectiveSelectionDepth(); got != DefaultLocalSelectionDepth {
		t.Errorf("Local default = %d, want %d", got, DefaultLocalSelectionDepth)
	}

	cfg.Tools.SelectionDepth = 7
	if got := cfg.EffectiveSelectionDepth(); got != 7 {
		t.Errorf("Explicit depth = %d, want 7", got)
	}
}
