package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/linkindex"
	"github.com/starford/readitlater/internal/storage"
)

func newTestPipeline(t *testing.T) (*Pipeline, *storage.FS) {
	t.Helper()
	s, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return New(s, fetch.NewClient(), WithConcurrency(2)), s
}

func mediaServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/a/cat.png", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("cat-bytes"))
	})
	mux.HandleFunc("/b/cat.png", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("other-cat-bytes"))
	})
	mux.HandleFunc("/mirror/cat.png", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("cat-bytes"))
	})
	mux.HandleFunc("/render", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg"))
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("??"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestLocalize_SameURLStoredOnce(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, s := newTestPipeline(t)

	md := "![](" + srv.URL + "/a/cat.png)\ntext\n![](" + srv.URL + "/a/cat.png)"
	got := p.Localize(context.Background(), md, "assets")

	want := "![](assets/cat.png)\ntext\n![](assets/cat.png)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if files := listFiles(t, filepath.Join(s.Root(), "assets")); len(files) != 1 {
		t.Errorf("files = %v, want one", files)
	}

	again := p.Localize(context.Background(), "![]("+srv.URL+"/a/cat.png)", "assets")
	if again != "![](assets/cat.png)" {
		t.Errorf("second run = %q", again)
	}
	if files := listFiles(t, filepath.Join(s.Root(), "assets")); len(files) != 1 {
		t.Errorf("files after second run = %v, want one", files)
	}
}

func TestLocalize_SameContentDifferentURL(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, s := newTestPipeline(t)

	md := "![](" + srv.URL + "/a/cat.png) ![](" + srv.URL + "/mirror/cat.png)"
	got := p.Localize(context.Background(), md, "assets")
	if got != "![](assets/cat.png) ![](assets/cat.png)" {
		t.Errorf("got %q", got)
	}
	if files := listFiles(t, filepath.Join(s.Root(), "assets")); len(files) != 1 {
		t.Errorf("files = %v, want one", files)
	}
}

func TestLocalize_CollidingNamesGetSuffix(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, s := newTestPipeline(t)

	first := p.Localize(context.Background(), "![]("+srv.URL+"/a/cat.png)", "assets")
	second := p.Localize(context.Background(), "![]("+srv.URL+"/b/cat.png)", "assets")

	if first != "![](assets/cat.png)" {
		t.Errorf("first = %q", first)
	}
	if second != "![](assets/cat-1.png)" {
		t.Errorf("second = %q", second)
	}
	data, err := s.Read("assets/cat-1.png")
	if err != nil || string(data) != "other-cat-bytes" {
		t.Errorf("cat-1.png = %q, %v", data, err)
	}
}

func TestLocalize_ReclaimedSlotIsNotReused(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, s := newTestPipeline(t)
	ctx := context.Background()

	if got := p.Localize(ctx, "![]("+srv.URL+"/a/cat.png)", "assets"); got != "![](assets/cat.png)" {
		t.Fatalf("first = %q", got)
	}
	if err := os.Remove(filepath.Join(s.Root(), "assets", "cat.png")); err != nil {
		t.Fatal(err)
	}
	if got := p.Localize(ctx, "![]("+srv.URL+"/b/cat.png)", "assets"); got != "![](assets/cat.png)" {
		t.Fatalf("other payload = %q", got)
	}

	got := p.Localize(ctx, "![]("+srv.URL+"/a/cat.png)", "assets")
	if got != "![](assets/cat-1.png)" {
		t.Errorf("relocalized = %q, want assets/cat-1.png", got)
	}
	if data, _ := s.Read("assets/cat.png"); string(data) != "other-cat-bytes" {
		t.Errorf("cat.png = %q, want the other payload untouched", data)
	}
	if data, _ := s.Read("assets/cat-1.png"); string(data) != "cat-bytes" {
		t.Errorf("cat-1.png = %q", data)
	}
}

func TestLocalize_EditedFileIsNotReused(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	s, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	dsn := filepath.Join(t.TempDir(), "links.db")
	ctx := context.Background()
	link := "![](" + srv.URL + "/a/cat.png)"

	idx, err := linkindex.Open(dsn, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := New(s, fetch.NewClient(), WithIndex(idx)).Localize(ctx, link, "assets"); got != "![](assets/cat.png)" {
		t.Fatalf("first = %q", got)
	}
	_ = idx.Close()

	if err := os.WriteFile(filepath.Join(s.Root(), "assets", "cat.png"), []byte("EDITED"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A reopened index still holds the entry for the original payload.
	idx, err = linkindex.Open(dsn, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	got := New(s, fetch.NewClient(), WithIndex(idx)).Localize(ctx, link, "assets")
	if got != "![](assets/cat-1.png)" {
		t.Errorf("after edit = %q, want assets/cat-1.png", got)
	}
	if data, _ := s.Read("assets/cat.png"); string(data) != "EDITED" {
		t.Errorf("cat.png = %q, want the edit kept", data)
	}
	if data, _ := s.Read("assets/cat-1.png"); string(data) != "cat-bytes" {
		t.Errorf("cat-1.png = %q", data)
	}
}

func TestLocalize_UnchangedFileReusedAfterRestart(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	s, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	dsn := filepath.Join(t.TempDir(), "links.db")
	link := "![](" + srv.URL + "/a/cat.png)"

	for i := 0; i < 2; i++ {
		idx, err := linkindex.Open(dsn, 0)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		got := New(s, fetch.NewClient(), WithIndex(idx)).Localize(context.Background(), link, "assets")
		_ = idx.Close()
		if got != "![](assets/cat.png)" {
			t.Errorf("run %d = %q", i, got)
		}
	}
	if files := listFiles(t, filepath.Join(s.Root(), "assets")); len(files) != 1 {
		t.Errorf("files = %v, want one", files)
	}
}

func TestLocalize_ParensInNameAreEncoded(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, s := newTestPipeline(t)

	got := p.Localize(context.Background(), "![x)y (2)]("+srv.URL+"/render)", "assets")
	want := "![x)y (2)](assets/x%29y%20%282%29.jpg)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if ok, _ := s.Exists("assets/x)y (2).jpg"); !ok {
		t.Error("stored file should keep the literal name")
	}
}

func TestLocalize_LeavesUnfetchableReferences(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, _ := newTestPipeline(t)

	md := strings.Join([]string{
		"![local](images/x.png)",
		"![blob](" + srv.URL + "/blob)",
		"![gone](" + srv.URL + "/missing.png)",
	}, "\n")
	if got := p.Localize(context.Background(), md, "assets"); got != md {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestLocalize_ExtensionFromMediaTypeAndAltName(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, _ := newTestPipeline(t)

	md := `![my photo](` + srv.URL + `/render "Title")`
	got := p.Localize(context.Background(), md, "assets")
	want := `![my photo](assets/my%20photo.jpg "Title")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLocalize_PreservesOrder(t *testing.T) {
	var hits atomic.Int32
	srv := mediaServer(t, &hits)
	p, _ := newTestPipeline(t)

	md := "1 ![](" + srv.URL + "/b/cat.png) 2 ![x](not-a-url) 3 ![](" + srv.URL + "/render) 4"
	got := p.Localize(context.Background(), md, "media")
	want := "1 ![](media/cat.png) 2 ![x](not-a-url) 3 ![](media/render.jpg) 4"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		url, mediaType, want string
	}{
		{"https://x.test/a.PNG", "", "png"},
		{"https://x.test/a.php?id=1", "image/webp", "webp"},
		{"https://x.test/a", "image/gif", "gif"},
		{"https://x.test/a", "text/html", ""},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.url, tt.mediaType); got != tt.want {
			t.Errorf("extensionFor(%q, %q) = %q, want %q", tt.url, tt.mediaType, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		alt, url, want string
	}{
		{"A: cat?", "https://x.test/y.png", "A cat"},
		{"", "https://x.test/dir/my%20pic.png", "my pic"},
		{"", "https://x.test/", "media"},
	}
	for _, tt := range tests {
		if got := baseName(tt.alt, tt.url); got != tt.want {
			t.Errorf("baseName(%q, %q) = %q, want %q", tt.alt, tt.url, got, tt.want)
		}
	}
}
