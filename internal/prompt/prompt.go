// Package prompt implements the interactive side of note creation: asking
// what to do with an existing note, showing notices and opening new notes.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/noteservice"
)

// ErrNotInteractive is returned when the input is not a terminal.
var ErrNotInteractive = errors.New("prompt: input is not a terminal")

// Terminal asks file-exists questions on a terminal. Answers are "a" or
// "append", "n" or "nothing"; a trailing "!" remembers the choice.
type Terminal struct {
	mu          sync.Mutex
	in          io.Reader
	out         io.Writer
	interactive bool

	readerOnce sync.Once
	lines      chan inputLine
}

type inputLine struct {
	text string
	err  error
}

// NewTerminal returns a prompter reading from in and writing to out.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return newTerminal(in, out, term.IsTerminal(int(in.Fd())))
}

func newTerminal(in io.Reader, out io.Writer, interactive bool) *Terminal {
	return &Terminal{in: in, out: out, interactive: interactive, lines: make(chan inputLine)}
}

// AskFileExistsStrategy implements noteservice.Prompter. Closing the input,
// cancelling ctx or a non-terminal input all count as an error.
func (t *Terminal) AskFileExistsStrategy(ctx context.Context, conflicting []string) (noteservice.Choice, error) {
	if !t.interactive {
		return noteservice.Choice{}, ErrNotInteractive
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "Note already exists: %s\n", strings.Join(conflicting, ", "))
	for {
		fmt.Fprint(t.out, "[a]ppend or do [n]othing? (add ! to remember) ")

		line, err := t.readLine(ctx)
		if err != nil {
			fmt.Fprintln(t.out)
			return noteservice.Choice{}, err
		}
		if choice, ok := parseAnswer(line); ok {
			return choice, nil
		}
		fmt.Fprintf(t.out, "Unrecognised answer %q\n", line)
	}
}

// readLine waits for the next input line. A cancelled wait leaves the line
// for the next question.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.readerOnce.Do(func() { go t.readInput() })
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// readInput is the only reader of t.in. It stops after the first read error.
func (t *Terminal) readInput() {
	r := bufio.NewReader(t.in)
	for {
		text, err := r.ReadString('\n')
		if text != "" {
			t.lines <- inputLine{text: text}
		}
		if err != nil {
			t.lines <- inputLine{err: err}
			close(t.lines)
			return
		}
	}
}

func parseAnswer(line string) (noteservice.Choice, bool) {
	answer := strings.ToLower(strings.TrimSpace(line))
	remember := strings.HasSuffix(answer, "!")
	answer = strings.TrimSpace(strings.TrimSuffix(answer, "!"))

	switch answer {
	case "a", "append":
		return noteservice.Choice{Strategy: config.StrategyAppend, Remember: remember}, true
	case "n", "nothing":
		return noteservice.Choice{Strategy: config.StrategyNothing, Remember: remember}, true
	}
	return noteservice.Choice{}, false
}
