package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/gqlbridge/internal/common"
	"github.com/bobmcallan/gqlbridge/internal/config"
	"github.com/bobmcallan/gqlbridge/internal/remote"
	"github.com/bobmcallan/gqlbridge/internal/schema"
	"github.com/bobmcallan/gqlbridge/internal/server"
	"github.com/bobmcallan/gqlbridge/internal/tools"
)

var (
	stdio       = flag.Bool("stdio", false, "Use stdio transport (for MCP clients that spawn the process)")
	configFile  = flag.String("config", "gqlbridge.toml", "Path to config file")
	endpointURL = flag.String("endpoint", "", "GraphQL endpoint URL (overrides config)")
	schemaFile  = flag.String("schema", "", "Local SDL file to derive tools from (overrides config)")
	serverPort  = flag.Int("port", 0, "HTTP port (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion {
		fmt.Printf("gqlbridge version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	cfg, err := config.LoadFromFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	config.ApplyFlagOverrides(cfg, *endpointURL, *serverPort)
	if *schemaFile != "" {
		cfg.Endpoint.SchemaFile = *schemaFile
	}

	if cfg.Endpoint.URL == "" {
		fmt.Fprintln(os.Stderr, "no GraphQL endpoint configured: set endpoint.url, GQLBRIDGE_ENDPOINT, or --endpoint")
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	var refresh remote.RefreshFunc
	if cfg.Endpoint.TokenCommand != "" {
		refresh = tokenCommandRefresher(cfg.Endpoint.TokenCommand)
	}

	client := remote.NewClient(remote.Options{
		URL:                cfg.Endpoint.URL,
		Headers:            cfg.Endpoint.Headers,
		Timeout:            time.Duration(cfg.Endpoint.TimeoutSeconds) * time.Second,
		BearerToken:        cfg.Endpoint.BearerToken,
		RefreshToken:       refresh,
		InsecureSkipVerify: cfg.Endpoint.InsecureSkipVerify,
		Logger:             logger,
	})
	defer client.Close()

	// Token commands can mint the first token too.
	if cfg.Endpoint.BearerToken == "" && refresh != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		token, err := refresh(ctx)
		cancel()
		if err != nil {
			logger.Warn().Str("error", err.Error()).Msg("initial token command failed, continuing without credentials")
		} else {
			client.SetBearerToken(token)
		}
	}

	sch, err := loadSchema(cfg, client, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("could not load GraphQL schema")
		os.Exit(1)
	}

	specs := tools.Derive(sch, tools.DeriveOptions{
		ExposeMutations: cfg.Tools.ExposeMutations,
		SelectionDepth:  cfg.EffectiveSelectionDepth(),
		MaxToolDepth:    cfg.Tools.MaxToolDepth,
		Logger:          logger,
	})
	if len(specs) == 0 {
		logger.Error().Str("endpoint", cfg.Endpoint.URL).Msg("schema produced no tools")
		os.Exit(1)
	}

	mcpServer := mcpserver.NewMCPServer(
		cfg.Server.Name,
		common.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)
	registered := tools.Register(mcpServer, client, specs, logger)
	logger.Info().Int("tools", registered).Str("endpoint", cfg.Endpoint.URL).Msg("tools registered")

	if *stdio {
		// Stdio transport reads stdin and writes stdout; logs stay on stderr.
		if err := mcpserver.ServeStdio(mcpServer); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithStateLess(true),
	)

	srv := server.New(server.Options{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		MCPHandler: streamable,
		Specs:      specs,
		Endpoint:   cfg.Endpoint.URL,
		Logger:     setupSlog(cfg),
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Str("error", err.Error()).Msg("server failed to start")
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}
}

// loadSchema reads the schema from a local SDL file when one is configured,
// otherwise introspects the remote endpoint with a bounded retry.
func loadSchema(cfg *config.Config, client *remote.Client, logger *common.Logger) (*schema.Schema, error) {
	if cfg.Endpoint.SchemaFile != "" {
		data, err := os.ReadFile(cfg.Endpoint.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		logger.Info().Str("file", cfg.Endpoint.SchemaFile).Msg("loading schema from SDL file")
		return schema.LoadSDL(cfg.Endpoint.SchemaFile, string(data))
	}

	retries := cfg.Tools.SchemaRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sch, err := client.FetchSchema(ctx)
		cancel()
		if err == nil {
			logger.Info().Str("endpoint", cfg.Endpoint.URL).Int("types", len(sch.Types)).Msg("schema introspected")
			return sch, nil
		}
		lastErr = err
		logger.Warn().Int("attempt", attempt).Int("retries", retries).Str("error", err.Error()).Msg("schema introspection failed")
		if attempt < retries {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, lastErr
}

// setupSlog creates the structured logger for the HTTP layer.
func setupSlog(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
