// Package server provides the intake HTTP server. It wires the record
// store, persistence writer, extractor, and provider registry into the
// request context and serves the extraction API plus the embedded frontend.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/intake/internal/api"
	"github.com/jackzampolin/intake/internal/callog"
	"github.com/jackzampolin/intake/internal/config"
	"github.com/jackzampolin/intake/internal/extractor"
	"github.com/jackzampolin/intake/internal/home"
	"github.com/jackzampolin/intake/internal/persist"
	"github.com/jackzampolin/intake/internal/prompts"
	"github.com/jackzampolin/intake/internal/prompts/extract"
	"github.com/jackzampolin/intake/internal/providers"
	"github.com/jackzampolin/intake/internal/server/endpoints"
	"github.com/jackzampolin/intake/internal/store"
	"github.com/jackzampolin/intake/internal/svcctx"
)

// Server is the main intake HTTP server.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	persister  *persist.Writer
	extractor  *extractor.Extractor
	registry   *providers.Registry
	callStore  *callog.Store
	prompts    *prompts.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DataFile overrides the patient data file location.
	// Defaults to the storage config, then to <home>/data/all_patients_data.json.
	DataFile string
	// Home is the intake home directory (default: ~/.intake)
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		homeDir, err := home.New("")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Home = homeDir
	}

	// Effective app config: the manager's view if provided, else defaults.
	appCfg := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(appCfg.ToProviderRegistryConfig())

	// Watch for config changes
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	// LLM call log and recorder
	callLogSize := appCfg.Storage.CallLogSize
	if callLogSize <= 0 {
		callLogSize = callog.DefaultStoreCapacity
	}
	callStore := callog.NewStore(callLogSize)
	recorder := callog.NewRecorder(callStore, cfg.Logger)

	// Prompt registry with the extraction prompts
	promptReg := prompts.NewRegistry(cfg.Logger)
	extract.RegisterPrompts(promptReg)

	// Record store and persistence
	recordStore := store.New()
	dataFile := cfg.DataFile
	if dataFile == "" {
		dataFile = appCfg.Storage.DataFile
	}
	if dataFile == "" {
		dataFile = cfg.Home.PatientsFilePath()
	}
	persister := persist.NewWriter(dataFile, cfg.Logger)

	ext := extractor.New(registry, extractor.Config{
		Provider:    appCfg.Extraction.Provider,
		Temperature: appCfg.Extraction.Temperature,
		MaxTokens:   appCfg.Extraction.MaxTokens,
		Timeout:     time.Duration(appCfg.Extraction.TimeoutSeconds) * time.Second,
		MaxAttempts: appCfg.Extraction.MaxAttempts,
		Logger:      cfg.Logger,
		Recorder:    recorder,
	})

	s := &Server{
		store:     recordStore,
		persister: persister,
		extractor: ext,
		registry:  registry,
		callStore: callStore,
		prompts:   promptReg,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Store:        recordStore,
		Persister:    persister,
		Extractor:    ext,
		Registry:     registry,
		ConfigMgr:    cfg.ConfigManager,
		Logger:       cfg.Logger,
		LLMCallStore: callStore,
		Prompts:      promptReg,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireLLM)

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: s.withServices(mux),
		// WriteTimeout must cover a full extraction including provider
		// retries, so it is much longer than the read timeout.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// DataFile returns the path the server persists patient records to.
func (s *Server) DataFile() string {
	return s.persister.Path()
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLLM is middleware that gates extraction behind a configured LLM
// provider. Returns 503 Service Unavailable when the extraction provider
// has no usable client, for example when no API key is set.
func (s *Server) requireLLM(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.registry.HasLLM(s.extractor.Provider()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"no LLM provider configured"}`))
			return
		}
		next(w, r)
	}
}
