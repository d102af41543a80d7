package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/readitlater/internal/apperr"
)

func TestGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != DesktopUserAgent {
			t.Errorf("user agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>T</title></html>"))
	}))
	defer srv.Close()

	resp, err := NewClient().Get(context.Background(), srv.URL, WithDesktopUserAgent())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.MediaType() != "text/html" {
		t.Errorf("media type = %q", resp.MediaType())
	}
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().Get(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
	if !errors.Is(err, apperr.ErrFetch) {
		t.Error("status error should match ErrFetch")
	}
}

func TestGet_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	_, err := NewClient(WithMaxBodyBytes(10)).Get(context.Background(), srv.URL)
	if !errors.Is(err, apperr.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestGet_RejectsScheme(t *testing.T) {
	_, err := NewClient().Get(context.Background(), "ftp://example.com/x")
	if !errors.Is(err, apperr.ErrFetch) {
		t.Errorf("err = %v", err)
	}
}

func TestGetJSON_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{broken"))
	}))
	defer srv.Close()

	var v map[string]any
	err := GetJSON(context.Background(), NewClient(), srv.URL, &v)
	if !errors.Is(err, apperr.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Hello"></head></html>`))
	}))
	defer srv.Close()

	doc, _, err := GetDocument(context.Background(), NewClient(), srv.URL)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if v, _ := doc.Find(`meta[property="og:title"]`).Attr("content"); v != "Hello" {
		t.Errorf("og:title = %q", v)
	}
}

func TestIsURL(t *testing.T) {
	cases := map[string]bool{
		"https://a.com":            true,
		"http://a.com/x?y=1":       true,
		"  https://a.com  ":        true,
		"a.com":                    false,
		"not a url":                false,
		"https://a.com b":          false,
		"mailto:x@y.z":             false,
		"":                         false,
	}
	for in, want := range cases {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
