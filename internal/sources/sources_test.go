package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, body string, status int) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server.URL
}

func TestResolveTitlePrefersOpenGraph(t *testing.T) {
	url := serve(t, `<html><head>
		<meta property="og:title" content="Artwork by Example">
		<title>example.com - viewer</title>
	</head></html>`, http.StatusOK)

	title, err := NewResolver("boorugram-test/1.0").ResolveTitle(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to resolve title: %v", err)
	}
	if title != "Artwork by Example" {
		t.Fatalf("unexpected title: %q", title)
	}
}

func TestResolveTitleFallsBackToTitleTag(t *testing.T) {
	url := serve(t, `<html><head><title>
		Some   spaced
		title
	</title></head></html>`, http.StatusOK)

	title, err := NewResolver("boorugram-test/1.0").ResolveTitle(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to resolve title: %v", err)
	}
	if title != "Some spaced title" {
		t.Fatalf("expected collapsed whitespace, got %q", title)
	}
}

func TestResolveTitleTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 500)
	url := serve(t, "<html><head><title>"+long+"</title></head></html>", http.StatusOK)

	title, err := NewResolver("boorugram-test/1.0").ResolveTitle(context.Background(), url)
	if err != nil {
		t.Fatalf("failed to resolve title: %v", err)
	}
	if len([]rune(title)) != maxTitleRunes+1 {
		t.Fatalf("expected truncation to %d runes plus ellipsis, got %d", maxTitleRunes, len([]rune(title)))
	}
}

func TestResolveTitleErrors(t *testing.T) {
	resolver := NewResolver("boorugram-test/1.0")

	if _, err := resolver.ResolveTitle(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty URL")
	}

	missing := serve(t, "gone", http.StatusNotFound)
	if _, err := resolver.ResolveTitle(context.Background(), missing); err == nil {
		t.Fatalf("expected error for non-200 response")
	}

	untitled := serve(t, "<html><head></head><body>hi</body></html>", http.StatusOK)
	if _, err := resolver.ResolveTitle(context.Background(), untitled); err == nil {
		t.Fatalf("expected error for missing title")
	}
}
