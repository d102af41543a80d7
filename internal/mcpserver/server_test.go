package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/readitlater/internal/assets"
	"github.com/starford/readitlater/internal/extractor"
	"github.com/starford/readitlater/internal/noteservice"
	"github.com/starford/readitlater/internal/storage"
	"github.com/starford/readitlater/internal/testutil"
)

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, storage.Provider, *testutil.Fetcher) {
	t.Helper()

	vault, store := testutil.TestVault(t)
	cfg := testutil.TestConfig(t, vault)
	cfg.Vault.InboxDir = "Inbox"
	f := testutil.NewFetcher()

	svc := noteservice.NewService(store, testutil.TestSettings(cfg),
		extractor.Deps{Fetcher: f, Now: func() time.Time { return fixedNow }},
		noteservice.WithLogger(testutil.QuietLogger()))
	media := assets.New(store, f, assets.WithLogger(testutil.QuietLogger()))

	srv := New(svc, media, "assets", testutil.QuietLogger())
	srv.lookupIP = func(host string) ([]net.IP, error) {
		if host == "localhost.test" {
			return []net.IP{net.ParseIP("127.0.0.1")}, nil
		}
		return nil, errors.New("no such host")
	}
	return srv, store, f
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "save_content":
		result, err = srv.saveContent(ctx, req)
	case "preview_content":
		result, err = srv.previewContent(ctx, req)
	case "list_extractors":
		result, err = srv.listExtractors(ctx, req)
	case "download_media":
		result, err = srv.downloadMedia(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveContent(t *testing.T) {
	srv, store, _ := testServer(t)

	r := callTool(t, srv, "save_content", map[string]interface{}{"content": "an idea"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var out struct {
		Results []noteservice.Result `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 || out.Results[0].Status != noteservice.StatusCreated {
		t.Fatalf("results = %+v", out.Results)
	}
	data, err := store.Read(out.Results[0].Path)
	if err != nil || !strings.Contains(string(data), "an idea") {
		t.Errorf("note = %q, err = %v", data, err)
	}
}

func TestSaveContent_AppendStrategy(t *testing.T) {
	srv, _, _ := testServer(t)

	callTool(t, srv, "save_content", map[string]interface{}{"content": "one"})
	r := callTool(t, srv, "save_content", map[string]interface{}{"content": "two", "file_exists_strategy": "append"})
	if !strings.Contains(resultText(r), `"status": "appended"`) {
		t.Errorf("result = %s", resultText(r))
	}
}

func TestSaveContent_RejectsAsk(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "save_content", map[string]interface{}{"content": "x", "file_exists_strategy": "ask"})
	if !r.IsError {
		t.Error("expected error for ask")
	}
}

func TestSaveContent_AllFailed(t *testing.T) {
	srv, _, f := testServer(t)
	f.Fail("https://down.test", 500)

	r := callTool(t, srv, "save_content", map[string]interface{}{"content": "https://down.test/a"})
	if !r.IsError {
		t.Errorf("expected error result, got %s", resultText(r))
	}
}

func TestSaveContent_MissingContent(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "save_content", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing content")
	}
}

func TestPreviewContent(t *testing.T) {
	srv, store, _ := testServer(t)

	r := callTool(t, srv, "preview_content", map[string]interface{}{"content": "draft"})
	var out map[string]string
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if out["extractor"] != extractor.NameText || !strings.Contains(out["content"], "draft") {
		t.Errorf("preview = %v", out)
	}
	if ok, _ := store.Exists(out["path"]); ok {
		t.Error("preview wrote a note")
	}
}

func TestListExtractors(t *testing.T) {
	srv, _, _ := testServer(t)
	lines := strings.Split(resultText(callTool(t, srv, "list_extractors", nil)), "\n")
	if lines[0] != extractor.NameYouTube || lines[len(lines)-1] != extractor.NameText {
		t.Errorf("extractors = %v", lines)
	}
}

func TestDownloadMedia(t *testing.T) {
	srv, store, f := testServer(t)
	f.Handle("https://img.test/cat.png", "image/png", "png-bytes")

	r := callTool(t, srv, "download_media", map[string]interface{}{"url": "https://img.test/cat.png", "alt": "my cat"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var out downloadResult
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if out.SavedPath != "assets/my cat.png" || out.MarkdownImage != "![my cat](assets/my%20cat.png)" {
		t.Errorf("result = %+v", out)
	}
	if data, _ := store.Read(out.SavedPath); string(data) != "png-bytes" {
		t.Errorf("stored = %q", data)
	}
}

func TestDownloadMedia_Blocked(t *testing.T) {
	srv, _, f := testServer(t)

	for _, u := range []string{
		"http://127.0.0.1/x.png",
		"http://169.254.169.254/latest",
		"http://localhost.test/x.png",
		"file:///etc/passwd",
	} {
		r := callTool(t, srv, "download_media", map[string]interface{}{"url": u})
		if !r.IsError {
			t.Errorf("%s: expected blocked", u)
		}
	}
	if len(f.Calls()) != 0 {
		t.Errorf("blocked URLs were fetched: %v", f.Calls())
	}
}

func TestTemplateReferenceResource(t *testing.T) {
	srv, _, _ := testServer(t)
	contents, err := srv.readTemplateReference(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != TemplateReferenceURI || !strings.Contains(tc.Text, "blockquote") {
		t.Errorf("resource = %+v", contents[0])
	}
}
