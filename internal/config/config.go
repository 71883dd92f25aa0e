package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/gqlbridge/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig         `toml:"server"`
	Endpoint EndpointConfig       `toml:"endpoint"`
	Tools    ToolsConfig          `toml:"tools"`
	Logging  common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Name string `toml:"name"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// EndpointConfig contains settings for the upstream GraphQL endpoint.
// SchemaFile, when set, supplies the schema from a local SDL file instead of
// remote introspection; execution still goes to URL.
type EndpointConfig struct {
	URL                string            `toml:"url"`
	SchemaFile         string            `toml:"schema_file"`
	BearerToken        string            `toml:"bearer_token"`
	TokenCommand       string            `toml:"token_command"`
	Headers            map[string]string `toml:"headers"`
	TimeoutSeconds     int               `toml:"timeout_seconds"`
	InsecureSkipVerify bool              `toml:"insecure_skip_verify"`
}

// ToolsConfig controls how tools are derived from the schema.
type ToolsConfig struct {
	ExposeMutations bool `toml:"expose_mutations"`
	SelectionDepth  int  `toml:"selection_depth"`
	MaxToolDepth    int  `toml:"max_tool_depth"`
	SchemaRetries   int  `toml:"schema_retries"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// A missing file is not an error; defaults and env overrides still apply.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else {
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies GQLBRIDGE_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if url := os.Getenv("GQLBRIDGE_ENDPOINT"); url != "" {
		config.Endpoint.URL = url
	}
	if token := os.Getenv("GQLBRIDGE_BEARER_TOKEN"); token != "" {
		config.Endpoint.BearerToken = token
	}
	if cmd := os.Getenv("GQLBRIDGE_TOKEN_COMMAND"); cmd != "" {
		config.Endpoint.TokenCommand = cmd
	}
	if file := os.Getenv("GQLBRIDGE_SCHEMA_FILE"); file != "" {
		config.Endpoint.SchemaFile = file
	}
	if port := os.Getenv("GQLBRIDGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GQLBRIDGE_HOST"); host != "" {
		config.Server.Host = host
	}
	if level := os.Getenv("GQLBRIDGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if v := os.Getenv("GQLBRIDGE_EXPOSE_MUTATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Tools.ExposeMutations = b
		}
	}
	if v := os.Getenv("GQLBRIDGE_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Endpoint.InsecureSkipVerify = b
		}
	}
	if v := os.Getenv("GQLBRIDGE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Endpoint.TimeoutSeconds = n
		}
	}
}

// EffectiveSelectionDepth resolves the selection depth ceiling. Zero means
// auto: local SDL schemas are trusted deeper than introspected remote ones.
func (c *Config) EffectiveSelectionDepth() int {
	if c.Tools.SelectionDepth > 0 {
		return c.Tools.SelectionDepth
	}
	if c.Endpoint.SchemaFile != "" {
		return DefaultLocalSelectionDepth
	}
	return DefaultRemoteSelectionDepth
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, endpoint string, port int) {
	if endpoint != "" {
		config.Endpoint.URL = endpoint
	}
	if port > 0 {
		config.Server.Port = port
	}
}
