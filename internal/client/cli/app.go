// Package cli wires the client together and exposes it as a set of cobra
// commands. The bare binary opens the interactive research TUI; subcommands
// cover the same operations for scripting.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/auth"
	"github.com/ilmai/ilmcli/internal/client/chat"
	"github.com/ilmai/ilmcli/internal/client/config"
	"github.com/ilmai/ilmcli/internal/client/credential"
	"github.com/ilmai/ilmcli/internal/client/library"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/client/session"
	"github.com/ilmai/ilmcli/internal/client/usage"
	"github.com/ilmai/ilmcli/internal/logging"
)

// App holds the assembled client. Construction order matters: the transcript
// must exist before the registry, whose reset hook clears it, and the auth
// manager is the only component handed the token mutation surface.
type App struct {
	Config     *config.Config
	Log        logging.Logger
	Client     api.Client
	Auth       *auth.Manager
	Transcript *chat.Transcript
	Registry   *session.Registry
	Dispatcher *chat.Dispatcher
	Usage      *usage.Monitor
	Library    *library.Service

	reader *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	log, err := logging.NewFileLogger(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	client := api.NewHTTPClient(cfg.ServerBaseURL)

	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		tokenFile, err = credential.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	store := credential.NewFileStore(tokenFile)

	manager := auth.NewManager(client, store, log)
	transcript := chat.NewTranscript()
	registry := session.NewRegistry(client, log, transcript.Reset)
	dispatcher := chat.NewDispatcher(client, manager, registry, transcript, log)
	dispatcher.SetLanguage(cfg.Language)
	if cfg.Mode != "" {
		dispatcher.SetMode(models.ResearchMode(cfg.Mode))
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Client:     client,
		Auth:       manager,
		Transcript: transcript,
		Registry:   registry,
		Dispatcher: dispatcher,
		Usage:      usage.NewMonitor(client, log),
		Library:    library.NewService(client, log),
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

// Bootstrap resolves the stored credential and, when signed in, primes the
// session list and usage snapshot. Backend unavailability is not fatal here;
// each view reports it per operation.
func (a *App) Bootstrap(ctx context.Context) {
	a.Auth.Bootstrap(ctx)
	if a.Auth.Status() == auth.StatusAuthenticated {
		_ = a.Registry.List(ctx)
		_ = a.Usage.Poll(ctx)
	}
}

// Close flushes buffered log output. Call once on exit.
func (a *App) Close() {
	if s, ok := a.Log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
