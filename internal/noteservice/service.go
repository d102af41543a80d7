// Package noteservice turns ingested content into notes on disk: it picks
// an extractor, resolves the target path and applies the file-exists
// strategy when the path is taken.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/datefmt"
	"github.com/starford/readitlater/internal/extractor"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/fspath"
	"github.com/starford/readitlater/internal/models"
	"github.com/starford/readitlater/internal/settings"
	"github.com/starford/readitlater/internal/storage"
	"github.com/starford/readitlater/internal/tmpl"
)

// AppendSeparator goes between existing content and appended content.
const AppendSeparator = "\n\n---\n\n"

const untitled = "Untitled"

// Result statuses.
const (
	StatusCreated  = "created"
	StatusAppended = "appended"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Result reports the outcome of one note-creation request.
type Result struct {
	Input       string `json:"input"`
	Status      string `json:"status"`
	Extractor   string `json:"extractor,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Path        string `json:"path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Choice is the answer to a file-exists prompt.
type Choice struct {
	Strategy string
	Remember bool
}

// Prompter asks the user how to handle an existing note. Returning an
// error is treated as choosing "nothing".
type Prompter interface {
	AskFileExistsStrategy(ctx context.Context, conflicting []string) (Choice, error)
}

// Notifier shows a short, non-blocking message to the user.
type Notifier interface {
	Notify(msg string)
}

// Opener opens a newly written note with command.
type Opener interface {
	Open(ctx context.Context, command, path string) error
}

// Service coordinates extraction and persistence.
type Service struct {
	store    storage.Provider
	settings *settings.Store
	deps     extractor.Deps
	engine   *tmpl.Engine
	prompter Prompter
	notifier Notifier
	opener   Opener
	logger   *slog.Logger

	// askMu serialises prompts so concurrent batch items ask one at a time.
	askMu sync.Mutex

	chainMu  sync.Mutex
	chainCfg *config.Config
	chain    *extractor.Chain
}

// Option configures a Service.
type Option func(*Service)

// WithPrompter sets the file-exists prompt. Without one, "ask" behaves
// like "nothing".
func WithPrompter(p Prompter) Option {
	return func(s *Service) { s.prompter = p }
}

// WithNotifier sets where user notices go. Defaults to the logger.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithOpener sets how new notes are opened when notes.open_new_note is on.
func WithOpener(o Opener) Option {
	return func(s *Service) { s.opener = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a note service. deps are handed to every extractor
// chain built from the live configuration.
func NewService(store storage.Provider, st *settings.Store, deps extractor.Deps, opts ...Option) *Service {
	if deps.Engine == nil {
		deps.Engine = tmpl.New()
	}
	s := &Service{
		store:    store,
		settings: st,
		deps:     deps,
		engine:   deps.Engine,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deps.Logger == nil {
		s.deps.Logger = s.logger
	}
	if s.notifier == nil {
		s.notifier = logNotifier{logger: s.logger}
	}
	return s
}

// ProcessOption tweaks a single Process or Save call.
type ProcessOption func(*processOptions)

type processOptions struct {
	strategy string
}

// WithStrategy overrides the configured file-exists strategy.
func WithStrategy(strategy string) ProcessOption {
	return func(o *processOptions) { o.strategy = strategy }
}

// Process ingests content. A batch of URLs is fanned out, one request per
// URL; a failure in one never affects the others. Results keep the input
// order.
func (s *Service) Process(ctx context.Context, content string, opts ...ProcessOption) []Result {
	var po processOptions
	for _, opt := range opts {
		opt(&po)
	}

	segments, ok := SplitBatch(content, s.settings.Current().Notes.Batch)
	if !ok {
		return []Result{s.handle(ctx, content, po)}
	}

	s.logger.Info("noteservice: batch", slog.Int("items", len(segments)))
	results := make([]Result, len(segments))
	var g errgroup.Group
	for i, seg := range segments {
		g.Go(func() error {
			results[i] = s.handle(ctx, seg, po)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// SplitBatch splits content on the configured delimiter. It reports true
// only when batching is enabled and there are at least two segments, each
// a well-formed URL.
func SplitBatch(content string, batch config.BatchConfig) ([]string, bool) {
	if !batch.Enabled {
		return nil, false
	}
	var segments []string
	for _, part := range strings.Split(content, batch.Separator()) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !fetch.IsURL(part) {
			return nil, false
		}
		segments = append(segments, part)
	}
	if len(segments) < 2 {
		return nil, false
	}
	return segments, true
}

// handle runs one request end to end. Failures become notices.
func (s *Service) handle(ctx context.Context, input string, po processOptions) Result {
	res := Result{Input: input, Status: StatusFailed}

	ex, note, err := s.extract(ctx, input)
	if ex != nil {
		res.Extractor = ex.Name()
	}
	if err != nil {
		res.Error = err.Error()
		s.logger.Warn("noteservice: extraction failed",
			slog.String("extractor", res.Extractor),
			slog.String("input", input),
			slog.String("error", err.Error()))
		s.notifier.Notify(failureNotice(res.Extractor, err))
		return res
	}

	saved, err := s.save(ctx, note, po)
	if err != nil {
		res.Error = err.Error()
		s.logger.Error("noteservice: save failed",
			slog.String("input", input),
			slog.String("error", err.Error()))
		s.notifier.Notify("Failed to save note: " + err.Error())
		return res
	}
	saved.Input = input
	saved.Extractor = res.Extractor
	return saved
}

func failureNotice(name string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrNoHandler):
		return "No extractor can handle this content"
	case errors.Is(err, apperr.ErrFetch):
		return fmt.Sprintf("Could not fetch content (%s)", name)
	case errors.Is(err, apperr.ErrParse):
		return fmt.Sprintf("Could not read content (%s)", name)
	default:
		return fmt.Sprintf("Failed to create note (%s)", name)
	}
}

// extract selects an extractor and prepares the note.
func (s *Service) extract(ctx context.Context, input string) (extractor.Extractor, models.Note, error) {
	ex, ok := s.Chain().Select(ctx, input)
	if !ok {
		return nil, models.Note{}, fmt.Errorf("noteservice: %w", apperr.ErrNoHandler)
	}
	note, err := ex.PrepareNote(ctx, input)
	if err != nil {
		return ex, models.Note{}, err
	}
	return ex, note, nil
}

// Chain returns the extractor chain for the live configuration, rebuilding
// it after a reload.
func (s *Service) Chain() *extractor.Chain {
	cfg := s.settings.Current()
	s.chainMu.Lock()
	defer s.chainMu.Unlock()
	if s.chain == nil || s.chainCfg != cfg {
		s.chain = extractor.NewChain(cfg, s.deps)
		s.chainCfg = cfg
	}
	return s.chain
}

// Preview is an extracted note that has not been written.
type Preview struct {
	Extractor string      `json:"extractor"`
	Note      models.Note `json:"note"`
}

// Preview extracts input without writing anything. Batches are not split.
func (s *Service) Preview(ctx context.Context, input string) (Preview, error) {
	ex, note, err := s.extract(ctx, input)
	if err != nil {
		return Preview{}, err
	}
	dir := s.inboxDir(s.settings.Current(), note)
	name := s.fileName(s.settings.Current(), dir, note)
	return Preview{Extractor: ex.Name(), Note: note.WithFilePath(path.Join(dir, name))}, nil
}

// Save writes note, applying the file-exists strategy when its path is
// already taken.
func (s *Service) Save(ctx context.Context, note models.Note, opts ...ProcessOption) (Result, error) {
	var po processOptions
	for _, opt := range opts {
		opt(&po)
	}
	return s.save(ctx, note, po)
}

func (s *Service) save(ctx context.Context, note models.Note, po processOptions) (Result, error) {
	cfg := s.settings.Current()
	dir := s.inboxDir(cfg, note)
	rel := path.Join(dir, s.fileName(cfg, dir, note))
	note = note.WithFilePath(rel)
	res := Result{ContentType: note.ContentType, Path: rel}

	exists, err := s.store.Exists(rel)
	if err != nil {
		return res, fmt.Errorf("noteservice: exists: %w", err)
	}
	if !exists {
		if err := s.store.Write(rel, []byte(note.Content)); err != nil {
			return res, fmt.Errorf("noteservice: write: %w", err)
		}
		res.Status = StatusCreated
		s.logger.Info("noteservice: note created", slog.String("path", rel), slog.String("type", note.ContentType))
		s.notifier.Notify("Note created: " + rel)
		s.open(ctx, cfg, rel)
		return res, nil
	}

	switch s.resolveStrategy(ctx, note, po.strategy) {
	case config.StrategyAppend:
		if err := s.store.Append(rel, []byte(AppendSeparator+note.Content)); err != nil {
			return res, fmt.Errorf("noteservice: append: %w", err)
		}
		res.Status = StatusAppended
		s.logger.Info("noteservice: note appended", slog.String("path", rel))
		s.notifier.Notify("Appended to existing note: " + rel)
	default:
		res.Status = StatusSkipped
		s.logger.Info("noteservice: note exists, skipped", slog.String("path", rel))
		s.notifier.Notify("Note already exists: " + rel)
	}
	return res, nil
}

// resolveStrategy turns the configured or requested strategy into append or
// nothing, prompting when it is ask.
func (s *Service) resolveStrategy(ctx context.Context, note models.Note, override string) string {
	strategy := override
	if strategy == "" {
		strategy = s.settings.FileExistsStrategy()
	}
	if strategy != config.StrategyAsk {
		return strategy
	}

	s.askMu.Lock()
	defer s.askMu.Unlock()

	// An earlier prompt may have remembered a new default while we waited.
	if override == "" {
		if current := s.settings.FileExistsStrategy(); current != config.StrategyAsk {
			return current
		}
	}
	if s.prompter == nil {
		return config.StrategyNothing
	}

	choice, err := s.prompter.AskFileExistsStrategy(ctx, []string{note.FullName()})
	if err != nil {
		s.logger.Debug("noteservice: prompt closed", slog.String("error", err.Error()))
		return config.StrategyNothing
	}
	if choice.Strategy != config.StrategyAppend {
		choice.Strategy = config.StrategyNothing
	}
	if choice.Remember {
		if err := s.settings.SetFileExistsStrategy(choice.Strategy); err != nil {
			s.logger.Warn("noteservice: remember choice failed", slog.String("error", err.Error()))
		}
	}
	return choice.Strategy
}

// inboxDir renders the vault inbox directory template for note and keeps
// the result inside the vault.
func (s *Service) inboxDir(cfg *config.Config, note models.Note) string {
	rendered := s.engine.Render(cfg.Vault.InboxDir, tmpl.Context{
		"contentType": note.ContentType,
		"date":        datefmt.Format(note.CreatedAt, cfg.Notes.DateFolderFormat, datefmt.DefaultFolderFormat),
		"fileName":    note.FileName,
	})
	cleaned := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(rendered)), "/")
	if cleaned == "" {
		return "."
	}
	return cleaned
}

// fileName fits the note's name to the platform limits.
func (s *Service) fileName(cfg *config.Config, dir string, note models.Note) string {
	base := note.FileName
	if base == "" {
		base = untitled
	}
	ext := note.FileExtension
	if ext == "" {
		ext = models.DefaultExtension
	}
	absDir := filepath.Join(s.store.Root(), filepath.FromSlash(dir))
	return fspath.FitFileName(absDir, base, ext, cfg.Vault.Limits()) + "." + ext
}

func (s *Service) open(ctx context.Context, cfg *config.Config, rel string) {
	if !cfg.Notes.OpenNewNote || s.opener == nil {
		return
	}
	abs := filepath.Join(s.store.Root(), filepath.FromSlash(rel))
	if err := s.opener.Open(ctx, cfg.Notes.OpenCommand, abs); err != nil {
		s.logger.Warn("noteservice: open failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
}

type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(msg string) {
	n.logger.Info("notice", slog.String("message", msg))
}
