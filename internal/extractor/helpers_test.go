package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/readitlater/internal/config"
	"github.com/starford/readitlater/internal/fetch"
	"github.com/starford/readitlater/internal/testutil"
)

func newFakeFetcher() *testutil.Fetcher { return testutil.NewFetcher() }

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func testDeps(f fetch.Fetcher) Deps {
	return Deps{
		Fetcher: f,
		Now:     func() time.Time { return fixedNow },
	}
}

func testRenderer(t *testing.T, f fetch.Fetcher) *renderer {
	t.Helper()
	cfg := config.NewDefaultConfig()
	return newRenderer(cfg, testDeps(f).withDefaults())
}

func assertContains(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in:\n%s", w, got)
		}
	}
}
