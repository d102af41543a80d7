package prompt

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Exec opens notes by running a command with the note path as its last
// argument, e.g. "xdg-open" or "code --reuse-window".
type Exec struct{}

// Open starts command without waiting for it to exit.
func (Exec) Open(ctx context.Context, command, path string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return errors.New("prompt: empty open command")
	}
	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("prompt: open %s: %w", path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
