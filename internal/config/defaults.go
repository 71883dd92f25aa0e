package config

import "github.com/bobmcallan/gqlbridge/internal/common"

// Selection depth ceilings. Remote schemas get a lower ceiling because their
// shape and size are not under this process's control.
const (
	DefaultLocalSelectionDepth  = 5
	DefaultRemoteSelectionDepth = 2
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "gqlbridge",
			Host: "localhost",
			Port: 4280,
		},
		Endpoint: EndpointConfig{
			TimeoutSeconds: 30,
		},
		Tools: ToolsConfig{
			ExposeMutations: false,
			SelectionDepth:  0, // auto: resolved per schema source
			MaxToolDepth:    3,
			SchemaRetries:   3,
		},
		Logging: common.LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console", "file"},
			FilePath: "logs/gqlbridge.log",
		},
	}
}
