package prompt

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/starford/readitlater/internal/noteservice"
)

// Writer prints each notice on its own line.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter returns a notifier writing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, msg)
}

// Log sends notices to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(msg string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notice", slog.String("message", msg))
}

// Multi fans each notice out to every notifier.
type Multi []noteservice.Notifier

func (m Multi) Notify(msg string) {
	for _, n := range m {
		n.Notify(msg)
	}
}
