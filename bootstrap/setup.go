package bootstrap

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/va6996/seatsaero-mcp/config"
	"github.com/va6996/seatsaero-mcp/log"
	"github.com/va6996/seatsaero-mcp/plugins/seatsaero"
	"github.com/va6996/seatsaero-mcp/server"
	"github.com/va6996/seatsaero-mcp/tools"
)

// App holds the initialized components of the application
type App struct {
	Genkit    *genkit.Genkit
	Registry  *tools.Registry
	SeatsAero *seatsaero.Client
	Server    *server.Server
}

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Genkit only hosts the tool definitions; no model plugin is needed
	gk := genkit.Init(ctx)

	// 2. Init Tools Registry
	registry := tools.NewRegistry()

	// Initializing the seats.aero client registers its tools automatically
	client, err := seatsaero.NewClient(seatsaero.Options{
		APIKey:            cfg.SeatsAero.APIKey,
		BaseURL:           cfg.SeatsAero.BaseURL,
		Timeout:           cfg.SeatsAero.TimeoutDuration(),
		MaxRetries:        cfg.SeatsAero.MaxRetries,
		RequestsPerSecond: cfg.SeatsAero.RequestsPerSecond,
		ResultLimit:       cfg.SeatsAero.ResultLimit,
	}, gk, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize seats.aero client: %w", err)
	}
	log.Infof(ctx, "Registered %d tools", len(registry.Definitions()))

	// 3. Protocol server
	srv := server.New(registry, cfg.Server.Name, cfg.Server.Version)

	return &App{
		Genkit:    gk,
		Registry:  registry,
		SeatsAero: client,
		Server:    srv,
	}, nil
}
