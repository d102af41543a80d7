package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	configPath string
	stdin      *os.File
	stdout     io.Writer
	stderr     io.Writer
}

func newApplication(opts []Option) *application {
	app := &application{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfigPath sets the YAML configuration file. A missing file means
// defaults.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithStdio replaces the terminal used for prompts, notices and logs.
func WithStdio(in *os.File, out, errOut io.Writer) Option {
	return func(a *application) {
		if in != nil {
			a.stdin = in
		}
		if out != nil {
			a.stdout = out
		}
		if errOut != nil {
			a.stderr = errOut
		}
	}
}
