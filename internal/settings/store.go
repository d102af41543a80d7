// Package settings owns the live configuration: it loads the YAML config,
// overlays app-managed preferences, persists preference changes and
// reloads when either file changes on disk.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/readitlater/internal/config"
	pkgconfig "github.com/starford/readitlater/pkg/config"
)

const reloadDebounce = 200 * time.Millisecond

// Preferences are settings the application changes itself. They live in a
// separate file so the user-authored config is never rewritten.
type Preferences struct {
	FileExistsStrategy string `yaml:"file_exists_strategy,omitempty"`
}

// Validate validates the preferences.
func (p *Preferences) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.FileExistsStrategy, validation.In(config.StrategyAsk, config.StrategyNothing, config.StrategyAppend)),
	)
}

// Store holds the current configuration. Returned configs are shared and
// must be treated as read-only.
type Store struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string
	static     *config.Config
	logger     *slog.Logger
	listeners  []func(*config.Config)
}

// Open loads configPath (defaults only when the file does not exist) and
// applies stored preferences.
func Open(configPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{configPath: configPath, logger: logger}
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return s, nil
}

// NewStatic wraps an already loaded configuration. Reload re-applies
// preferences only.
func NewStatic(cfg *config.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, static: cfg, logger: logger}
}

// SetLogger replaces the logger. Call it before Watch.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Current returns the active configuration.
func (s *Store) Current() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// FileExistsStrategy returns the active default strategy.
func (s *Store) FileExistsStrategy() string {
	return s.Current().Notes.FileExistsStrategy
}

// SetFileExistsStrategy makes strategy the default and persists it to the
// preferences file.
func (s *Store) SetFileExistsStrategy(strategy string) error {
	prefs := Preferences{FileExistsStrategy: strategy}
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	s.mu.Lock()
	next := *s.cfg
	next.Notes.FileExistsStrategy = strategy
	s.cfg = &next
	path := next.Notes.PreferencesFile
	listeners := s.listeners
	s.mu.Unlock()

	if path != "" {
		if err := pkgconfig.Save(path, &prefs); err != nil {
			return fmt.Errorf("settings: save preferences: %w", err)
		}
	}
	s.logger.Info("settings: file-exists strategy changed", slog.String("strategy", strategy))
	for _, fn := range listeners {
		fn(&next)
	}
	return nil
}

// OnChange registers fn to run after every successful change or reload.
func (s *Store) OnChange(fn func(*config.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads the config and preferences files. On error the current
// configuration stays active.
func (s *Store) Reload() error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Info("settings: reloaded", slog.String("config", s.configPath))
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

func (s *Store) load() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.configPath != "":
		cfg = config.NewDefaultConfig()
		if err := pkgconfig.LoadOptional(s.configPath, cfg); err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
	case s.static != nil:
		cp := *s.static
		cfg = &cp
	default:
		cfg = config.NewDefaultConfig()
	}

	if path := cfg.Notes.PreferencesFile; path != "" {
		var prefs Preferences
		if err := pkgconfig.LoadOptional(path, &prefs); err != nil {
			return nil, fmt.Errorf("settings: preferences: %w", err)
		}
		if prefs.FileExistsStrategy != "" {
			cfg.Notes.FileExistsStrategy = prefs.FileExistsStrategy
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return cfg, nil
}

// watchedFiles returns the absolute config and preferences paths.
func (s *Store) watchedFiles() map[string]bool {
	files := make(map[string]bool, 2)
	for _, p := range []string{s.configPath, s.Current().Notes.PreferencesFile} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			files[abs] = true
		}
	}
	return files
}

// Watch reloads the configuration whenever the config or preferences file
// changes, until ctx is cancelled. Parent directories are watched so that
// editors replacing files by rename are seen.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	files := s.watchedFiles()
	dirs := make(map[string]bool)
	for f := range files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.logger.Debug("settings: skip missing dir", slog.String("dir", dir))
				continue
			}
			return err
		}
		dirs[dir] = true
	}

	s.logger.Info("settings: watching", slog.Int("files", len(files)))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("settings: watcher stopped")
			return nil

		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("settings: reload failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("settings: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
