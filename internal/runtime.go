package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/readitlater/internal/assets"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/extractor"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/linkindex"
	"github.com/starford/readitlater/internal/noteservice"
	"github.com/starford/readitlater/internal/settings"
	"github.com/starford/readitlater/internal/storage"
)

// runtime holds the components shared by every command.
type runtime struct {
	settings *settings.Store
	store    storage.Provider
	fetcher  *fetch.Client
	assets   *assets.Pipeline
	logger   *slog.Logger
	closers  []io.Closer
}

type logFormat int

const (
	logJSON logFormat = iota
	logText
)

func newLogger(w io.Writer, format logFormat, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == logText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newRuntime loads settings and builds storage, fetching and the asset
// pipeline from the loaded configuration.
func newRuntime(app *application, logOut io.Writer, format logFormat) (*runtime, error) {
	st, err := settings.Open(app.configPath, nil)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := st.Current()

	logger := newLogger(logOut, format, cfg.App.LogLevel)
	slog.SetDefault(logger)
	st.SetLogger(logger)

	logger.Info("Configuration loaded",
		slog.String("config", app.configPath),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("inbox_dir", cfg.Vault.InboxDir),
		slog.String("hash_index", cfg.Assets.HashIndexPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	rt := &runtime{settings: st, store: store, logger: logger}

	idx, err := rt.openIndex(cfg.Assets)
	if err != nil {
		return nil, err
	}

	rt.fetcher = fetch.NewClient(
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
	)
	rt.assets = assets.New(store, rt.fetcher,
		assets.WithIndex(idx),
		assets.WithLimits(cfg.Vault.Limits()),
		assets.WithMaxAttempts(cfg.Assets.MaxAttempts),
		assets.WithConcurrency(cfg.Assets.Concurrency),
		assets.WithLogger(logger),
	)
	return rt, nil
}

// openIndex opens the persistent link index when a path is configured and
// an in-memory one otherwise.
func (rt *runtime) openIndex(cfg config.AssetsConfig) (linkindex.Index, error) {
	if cfg.HashIndexPath == "" {
		return linkindex.NewMemory(cfg.HashCacheSize), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.HashIndexPath), 0o755); err != nil {
		return nil, fmt.Errorf("create hash index dir: %w", err)
	}
	idx, err := linkindex.Open(cfg.HashIndexPath, cfg.HashCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init hash index: %w", err)
	}
	rt.closers = append(rt.closers, idx)
	return idx, nil
}

func (rt *runtime) noteService(opts ...noteservice.Option) *noteservice.Service {
	deps := extractor.Deps{
		Fetcher: rt.fetcher,
		Assets:  rt.assets,
		Logger:  rt.logger,
	}
	opts = append([]noteservice.Option{noteservice.WithLogger(rt.logger)}, opts...)
	return noteservice.NewService(rt.store, rt.settings, deps, opts...)
}

// assetsRoot is the absolute assets directory inside the vault.
func (rt *runtime) assetsRoot() string {
	return filepath.Join(rt.store.Root(), filepath.FromSlash(rt.settings.Current().Vault.AssetsDir))
}

func (rt *runtime) Close() {
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}
