// Command webcat runs the web search and content extraction service: an
// HTTP API plus an optional MCP stdio surface over the same orchestrator.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kode-rex/webcat/scrape"
	"github.com/kode-rex/webcat/search"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scraper := scrape.New(scrape.Config{
		Timeout:          cfg.requestTimeout(),
		MaxContentLength: cfg.MaxContentLength,
		Logger:           logger,
	})

	orch := search.New(search.Config{
		Providers: []search.Provider{
			search.NewSerper(search.SerperConfig{
				APIKey: cfg.SerperAPIKey,
				Retry: search.RetryPolicy{
					MaxAttempts: 2,
					Backoff:     search.ExponentialBackoff(500 * time.Millisecond),
				},
				Logger: logger,
			}),
			search.NewTavily(search.TavilyConfig{
				APIKey: cfg.TavilyAPIKey,
				Logger: logger,
			}),
			search.NewDuckDuckGo(search.DuckDuckGoConfig{Logger: logger}),
		},
		Scrape:      scraper.Scrape,
		MaxResults:  cfg.DefaultSearchResults,
		Concurrency: cfg.ScrapeConcurrency,
		Logger:      logger,
	})

	if cfg.SerperAPIKey == "" && cfg.TavilyAPIKey == "" {
		logger.Warn("no provider API keys configured, searches will use the free fallback only")
	}

	// MCP over stdio is exclusive: logs go to stderr, the protocol owns stdout.
	if cfg.MCPTransport == "stdio" {
		srv := mcp.NewServer(&mcp.Implementation{
			Name:    search.ServiceName,
			Version: search.Version,
		}, nil)
		orch.RegisterMCP(srv)

		logger.Info("MCP stdio server starting")
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			logger.Error("MCP server", "error", err)
			os.Exit(1)
		}
		return
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": search.ServiceName,
			"version": search.Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(cfg.ServiceAPIKey, logger))

		r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Query      string `json:"query"`
				MaxResults int    `json:"max_results"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if strings.TrimSpace(body.Query) == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
				return
			}
			writeJSON(w, http.StatusOK, orch.Search(req.Context(), body.Query, body.MaxResults))
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP server starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server", "error", err)
		os.Exit(1)
	}
}

// bearerAuth enforces a constant-time bearer token check. An empty expected
// token disables auth (local development).
func bearerAuth(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.Warn("rejected request with invalid bearer token", "path", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing bearer token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
