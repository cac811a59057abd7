// Package app wires all components and owns startup/shutdown ordering.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/api"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/config"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/delivery"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/gateway"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/presence"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/rooms"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/store"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
)

// Application coordinates the store, the realtime core and the HTTP server.
// Initialization order: store -> registry/rooms/presence -> pipeline ->
// gateway -> API -> HTTP. Shutdown runs in reverse.
type Application struct {
	cfg        *config.Config
	store      *store.Store
	registry   *websocket.Registry
	set        *websocket.ConnectionSet
	rooms      *rooms.Index
	presence   *presence.Tracker
	pipeline   *delivery.Pipeline
	gateway    *gateway.Gateway
	apiServer  *api.Server
	httpServer *http.Server
}

// New builds a fully wired application from configuration.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	messageStore, err := store.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	registry := websocket.NewRegistry()
	set := websocket.NewConnectionSet()
	roomIndex := rooms.NewIndex()
	tracker := presence.NewTracker(set)
	pipeline := delivery.NewPipeline(messageStore, roomIndex, set, cfg.Store.OpTimeout)
	gw := gateway.New(cfg.WebSocket, registry, set, roomIndex, tracker, pipeline)
	apiServer := api.NewServer(cfg.Auth, messageStore, pipeline, tracker, set)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/ws", gw.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:        cfg,
		store:      messageStore,
		registry:   registry,
		set:        set,
		rooms:      roomIndex,
		presence:   tracker,
		pipeline:   pipeline,
		gateway:    gw,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// Start begins serving and returns once the listener is accepting.
func (a *Application) Start(ctx context.Context) error {
	log := logging.With("app")
	log.Info().Str("addr", a.httpServer.Addr).Msg("starting chat server")

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Info().Msg("chat server started")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down the HTTP server, then the store. Open WebSocket
// connections are dropped by the listener close; presence is in-memory and
// resets with the process.
func (a *Application) Stop(ctx context.Context) error {
	log := logging.With("app")
	log.Info().Msg("shutting down chat server")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown error")
	}
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("store shutdown error")
	}

	log.Info().Msg("shutdown complete")
	return nil
}

// Addr returns the configured listen address.
func (a *Application) Addr() string {
	return a.httpServer.Addr
}
