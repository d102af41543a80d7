package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/readitlater/internal"
	"github.com/starford/readitlater/internal/noteservice"
)

func options(cmd *cli.Command) []internal.Option {
	return []internal.Option{
		internal.WithConfigPath(cmd.String("config")),
	}
}

// ingestContent joins the arguments, or reads stdin when there are none or
// the only one is "-".
func ingestContent(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func ingest(ctx context.Context, cmd *cli.Command) error {
	content, err := ingestContent(cmd.Args().Slice(), os.Stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("nothing to ingest")
	}

	results, err := internal.Ingest(ctx, content, options(cmd)...)
	for _, r := range results {
		if r.Status == noteservice.StatusFailed {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", r.Input, r.Error)
		}
	}
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	if err := internal.Run(ctx, options(cmd)...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	if err := internal.ServeMCP(ctx, options(cmd)...); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "readitlater",
		Usage: "Save web pages, videos, posts and text snippets as Markdown notes in a vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Save a URL, several URLs or a text snippet",
				ArgsUsage: "[text...] (reads stdin when empty or -)",
				Action:    ingest,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
