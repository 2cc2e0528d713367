package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	resolverTimeout = 15 * time.Second

	maxTitleRunes = 120
)

// Resolver fetches the page behind a post's source URL and extracts a
// human-readable title for labeled source links.
type Resolver struct {
	httpClient *http.Client
	userAgent  string
}

func NewResolver(userAgent string) *Resolver {
	return &Resolver{
		httpClient: &http.Client{Timeout: resolverTimeout},
		userAgent:  strings.TrimSpace(userAgent),
	}
}

// ResolveTitle returns the page title of sourceURL, preferring the
// OpenGraph title over <title>.
func (r *Resolver) ResolveTitle(ctx context.Context, sourceURL string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", errors.New("source URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("perform request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := normalizeTitle(og); title != "" {
			return title, nil
		}
	}

	title := normalizeTitle(doc.Find("title").First().Text())
	if title == "" {
		return "", errors.New("page has no title")
	}

	return title, nil
}

func normalizeTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")

	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes]) + "…"
	}

	return title
}
