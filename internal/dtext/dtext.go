package dtext

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"mvdan.cc/xurls/v2"
)

// Renderer converts the board's DText markup subset into sanitized
// HTML. Everything the renderer emits still passes through bluemonday,
// so markup bugs can never smuggle live HTML out of user content.
type Renderer struct {
	policy  *bluemonday.Policy
	baseURL string
}

var (
	boldRe   = regexp.MustCompile(`(?s)\[b\](.*?)\[/b\]`)
	italicRe = regexp.MustCompile(`(?s)\[i\](.*?)\[/i\]`)
	underRe  = regexp.MustCompile(`(?s)\[u\](.*?)\[/u\]`)
	strikeRe = regexp.MustCompile(`(?s)\[s\](.*?)\[/s\]`)
	codeRe   = regexp.MustCompile(`(?s)\[code\](.*?)\[/code\]`)
	quoteRe  = regexp.MustCompile(`(?s)\[quote\](.*?)\[/quote\]`)

	wikiLinkRe  = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
	tagSearchRe = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	postRefRe   = regexp.MustCompile(`\bpost #(\d+)`)
)

func NewRenderer(baseURL string) *Renderer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "i", "u", "s", "em", "strong", "code", "blockquote", "br")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowURLSchemes("https", "http")
	policy.RequireNoFollowOnLinks(true)

	return &Renderer{
		policy:  policy,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Render escapes src, expands the DText subset and sanitizes the result.
func (r *Renderer) Render(src string) string {
	out := html.EscapeString(strings.TrimSpace(src))

	out = boldRe.ReplaceAllString(out, "<b>$1</b>")
	out = italicRe.ReplaceAllString(out, "<i>$1</i>")
	out = underRe.ReplaceAllString(out, "<u>$1</u>")
	out = strikeRe.ReplaceAllString(out, "<s>$1</s>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	out = quoteRe.ReplaceAllString(out, "<blockquote>$1</blockquote>")

	out = wikiLinkRe.ReplaceAllStringFunc(out, r.expandWikiLink)
	out = tagSearchRe.ReplaceAllStringFunc(out, r.expandTagSearch)
	out = postRefRe.ReplaceAllString(
		out,
		fmt.Sprintf(`<a href="%s/posts/$1">post #$1</a>`, r.baseURL),
	)

	out = strings.ReplaceAll(out, "\n", "<br>")

	return r.policy.Sanitize(out)
}

func (r *Renderer) expandWikiLink(match string) string {
	parts := wikiLinkRe.FindStringSubmatch(match)
	if parts == nil {
		return match
	}

	title := strings.TrimSpace(parts[1])
	label := title
	if parts[2] != "" {
		label = strings.TrimSpace(parts[2])
	}

	slug := strings.ToLower(strings.ReplaceAll(title, " ", "_"))

	return fmt.Sprintf(
		`<a href="%s/wiki_pages/show_or_new?title=%s">%s</a>`,
		r.baseURL,
		url.QueryEscape(slug),
		label,
	)
}

func (r *Renderer) expandTagSearch(match string) string {
	parts := tagSearchRe.FindStringSubmatch(match)
	if parts == nil {
		return match
	}

	tags := strings.TrimSpace(parts[1])

	return fmt.Sprintf(
		`<a href="%s/posts?tags=%s">%s</a>`,
		r.baseURL,
		url.QueryEscape(tags),
		tags,
	)
}

var httpsURLRe = xurls.Strict()

// SourceLinks extracts the URLs mentioned in free-form description
// text, deduplicated in order of appearance.
func SourceLinks(description string) []string {
	matches := httpsURLRe.FindAllString(description, -1)

	var links []string
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		m = strings.TrimSpace(m)
		if _, ok := seen[m]; ok {
			continue
		}

		seen[m] = struct{}{}
		links = append(links, m)
	}

	return links
}
