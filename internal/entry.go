// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/readitlater/internal/api"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/mcpserver"
	"github.com/starford/readitlater/internal/noteservice"
	"github.com/starford/readitlater/internal/prompt"
	"github.com/starford/readitlater/internal/settings"
	"github.com/starford/readitlater/internal/sse"
)

// ErrSomeFailed is returned by Ingest when at least one item failed.
var ErrSomeFailed = errors.New("some items could not be saved")

// Run starts the HTTP server and the settings watcher until ctx is cancelled
// or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	rt, err := newRuntime(app, app.stdout, logJSON)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger
	cfg := rt.settings.Current()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	announceSettings(rt.settings, broker)

	svc := rt.noteService(
		noteservice.WithNotifier(prompt.Multi{prompt.Log{Logger: logger}, broker}),
		noteservice.WithOpener(prompt.Exec{}),
	)
	apiRouter := api.NewRouter(svc, cfg.App.Auth.AuthEnabled(), cfg.App.Auth.Token, broker, rt.assetsRoot())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ok, err := rt.store.Exists("."); err != nil || !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"vault unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := rt.settings.Watch(gCtx); err != nil {
			logger.Warn("settings watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		cancel()

		logger.Info("Shutting down server...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// announceSettings pushes every settings change or reload to SSE clients.
func announceSettings(st *settings.Store, broker *sse.Broker) {
	st.OnChange(func(c *config.Config) {
		broker.PublishSettings(c.Notes.FileExistsStrategy)
	})
}

// Ingest saves content once, printing notices to stdout and asking on the
// terminal when a note already exists.
func Ingest(ctx context.Context, content string, opts ...Option) ([]noteservice.Result, error) {
	app := newApplication(opts)

	rt, err := newRuntime(app, app.stderr, logText)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	svc := rt.noteService(
		noteservice.WithPrompter(prompt.NewTerminal(app.stdin, app.stderr)),
		noteservice.WithNotifier(prompt.NewWriter(app.stdout)),
		noteservice.WithOpener(prompt.Exec{}),
	)

	results := svc.Process(ctx, content)
	for _, r := range results {
		if r.Status == noteservice.StatusFailed {
			return results, ErrSomeFailed
		}
	}
	return results, nil
}

// ServeMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they
// never mix with the protocol stream.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	rt, err := newRuntime(app, app.stderr, logText)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := rt.settings.Watch(ctx); err != nil {
			rt.logger.Warn("settings watcher stopped", slog.String("error", err.Error()))
		}
	}()

	svc := rt.noteService(noteservice.WithNotifier(prompt.Log{Logger: rt.logger}))
	srv := mcpserver.New(svc, rt.assets, rt.settings.Current().Vault.AssetsDir, rt.logger)

	rt.logger.Info("Starting MCP server on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
