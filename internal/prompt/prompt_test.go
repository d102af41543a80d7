package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/noteservice"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		in       string
		strategy string
		remember bool
		ok       bool
	}{
		{"a\n", config.StrategyAppend, false, true},
		{"Append", config.StrategyAppend, false, true},
		{"a!", config.StrategyAppend, true, true},
		{" nothing ! ", config.StrategyNothing, true, true},
		{"n", config.StrategyNothing, false, true},
		{"maybe", "", false, false},
		{"", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAnswer(tt.in)
			if ok != tt.ok || got.Strategy != tt.strategy || got.Remember != tt.remember {
				t.Errorf("parseAnswer(%q) = %+v, %v", tt.in, got, ok)
			}
		})
	}
}

func TestTerminal_RetriesUntilValid(t *testing.T) {
	var out bytes.Buffer
	p := newTerminal(strings.NewReader("what\na!\n"), &out, true)

	choice, err := p.AskFileExistsStrategy(context.Background(), []string{"Note.md"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if choice != (noteservice.Choice{Strategy: config.StrategyAppend, Remember: true}) {
		t.Errorf("choice = %+v", choice)
	}
	if !strings.Contains(out.String(), "Note already exists: Note.md") || !strings.Contains(out.String(), `Unrecognised answer "what\n"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestTerminal_ClosedInput(t *testing.T) {
	p := newTerminal(strings.NewReader(""), io.Discard, true)
	if _, err := p.AskFileExistsStrategy(context.Background(), []string{"x.md"}); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want EOF", err)
	}
}

func TestTerminal_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := newTerminal(r, io.Discard, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.AskFileExistsStrategy(ctx, []string{"x.md"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want Canceled", err)
	}
}

func TestTerminal_NextQuestionAfterCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := newTerminal(r, io.Discard, true)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, err := p.AskFileExistsStrategy(ctx, []string{"x.md"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("first err = %v, want Canceled", err)
	}

	go func() { _, _ = io.WriteString(w, "a\n") }()

	choice, err := p.AskFileExistsStrategy(context.Background(), []string{"y.md"})
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}
	if choice.Strategy != config.StrategyAppend {
		t.Errorf("choice = %+v", choice)
	}
}

func TestTerminal_LastLineWithoutNewline(t *testing.T) {
	p := newTerminal(strings.NewReader("n"), io.Discard, true)
	choice, err := p.AskFileExistsStrategy(context.Background(), []string{"x.md"})
	if err != nil || choice.Strategy != config.StrategyNothing {
		t.Fatalf("choice = %+v, err = %v", choice, err)
	}
	if _, err := p.AskFileExistsStrategy(context.Background(), []string{"x.md"}); !errors.Is(err, io.EOF) {
		t.Errorf("err after input end = %v, want EOF", err)
	}
}

func TestTerminal_NotInteractive(t *testing.T) {
	p := newTerminal(strings.NewReader("a\n"), io.Discard, false)
	if _, err := p.AskFileExistsStrategy(context.Background(), nil); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("err = %v", err)
	}
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	Multi{NewWriter(&a), NewWriter(&b)}.Notify("Note created: x.md")
	if a.String() != "Note created: x.md\n" || a.String() != b.String() {
		t.Errorf("a = %q, b = %q", a.String(), b.String())
	}
}

func TestExec_EmptyCommand(t *testing.T) {
	if err := (Exec{}).Open(context.Background(), "  ", "/tmp/x.md"); err == nil {
		t.Error("expected error")
	}
}
