// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes readitlater tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/readitlater/internal/apperr"
	"github.com/starford/readitlater/internal/noteservice"
)

// TemplateReferenceURI is the resource holding TemplateReference.
const TemplateReferenceURI = "readitlater://template-reference"

// MediaSaver stores a remote media file in the vault and returns its
// vault-relative path.
type MediaSaver interface {
	Save(ctx context.Context, rawURL, alt, dir string) (string, error)
}

// Server wraps the MCP server with readitlater tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *noteservice.Service
	media     MediaSaver
	assetsDir string
	logger    *slog.Logger

	// lookupIP is replaced in tests.
	lookupIP func(host string) ([]net.IP, error)
}

// New creates a new MCP server with all tools registered. media may be nil,
// in which case download_media is not offered.
func New(svc *noteservice.Service, media MediaSaver, assetsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, media: media, assetsDir: assetsDir, logger: logger, lookupIP: net.LookupIP}

	s.mcp = server.NewMCPServer(
		"readitlater",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("save_content",
		mcp.WithDescription("Save a URL or text snippet as a Markdown note in the vault. "+
			"Several URLs separated by the configured delimiter become one note each. "+
			"An existing note is never overwritten; the ask strategy behaves like nothing here."),
		mcp.WithString("content", mcp.Required(), mcp.Description("URL, list of URLs or free text")),
		mcp.WithString("file_exists_strategy", mcp.Description("append or nothing; defaults to the configured strategy")),
	), s.saveContent)

	s.mcp.AddTool(mcp.NewTool("preview_content",
		mcp.WithDescription("Extract a URL or text snippet and return the Markdown note without writing it."),
		mcp.WithString("content", mcp.Required(), mcp.Description("URL or free text")),
	), s.previewContent)

	s.mcp.AddTool(mcp.NewTool("list_extractors",
		mcp.WithDescription("List the enabled content extractors in the order they are tried."),
	), s.listExtractors)

	if media != nil {
		s.mcp.AddTool(mcp.NewTool("download_media",
			mcp.WithDescription("Download an image or other media file into the vault assets directory. "+
				"Returns a markdownImage field ready to paste into a note."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http or https URL of the media file")),
			mcp.WithString("alt", mcp.Description("Alt text, also used as the file name")),
		), s.downloadMedia)
	}

	s.mcp.AddResource(
		mcp.NewResource(TemplateReferenceURI, "Template Reference",
			mcp.WithResourceDescription("Placeholders and filters available in note templates."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTemplateReference,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var opts []noteservice.ProcessOption
	switch strategy := optionalString(req, "file_exists_strategy"); strategy {
	case "":
	case "append", "nothing":
		opts = append(opts, noteservice.WithStrategy(strategy))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file_exists_strategy: %s (use append or nothing)", strategy)), nil
	}

	results := s.svc.Process(ctx, content, opts...)
	failed := 0
	for _, r := range results {
		if r.Status == noteservice.StatusFailed {
			failed++
		}
	}
	res, _ := jsonResult(map[string]any{"results": results})
	res.IsError = failed == len(results)
	return res, nil
}

func (s *Server) previewContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Preview(ctx, content)
	if err != nil {
		if errors.Is(err, apperr.ErrNoHandler) {
			return mcp.NewToolResultError("no extractor can handle this content"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{
		"extractor": p.Extractor,
		"path":      p.Note.FilePath,
		"content":   p.Note.Content,
	})
}

func (s *Server) listExtractors(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(strings.Join(s.svc.Chain().Names(), "\n")), nil
}

type downloadResult struct {
	SavedPath     string `json:"savedPath"`
	MarkdownImage string `json:"markdownImage"`
}

func (s *Server) downloadMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported URL: %s (only http/https)", rawURL)), nil
	}
	if err := s.checkBlockedHost(parsed.Hostname()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	alt := optionalString(req, "alt")
	rel, err := s.media.Save(ctx, rawURL, alt, s.assetsDir)
	if err != nil {
		s.logger.Warn("mcpserver: download failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return mcp.NewToolResultError(fmt.Sprintf("download failed: %v", err)), nil
	}
	if alt == "" {
		alt = path.Base(rel)
	}
	return jsonResult(downloadResult{
		SavedPath:     rel,
		MarkdownImage: fmt.Sprintf("![%s](%s)", alt, strings.ReplaceAll(rel, " ", "%20")),
	})
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func (s *Server) checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := s.lookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // the fetcher reports DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

func (s *Server) readTemplateReference(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TemplateReferenceURI,
			MIMEType: "text/markdown",
			Text:     TemplateReference,
		},
	}, nil
}
