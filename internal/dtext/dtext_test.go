package dtext

import (
	"strings"
	"testing"
)

const baseURL = "https://e926.net"

func TestRenderInlineMarkup(t *testing.T) {
	r := NewRenderer(baseURL)

	got := r.Render("[b]bold[/b] and [i]italic[/i] and [s]gone[/s]")

	for _, want := range []string{"<b>bold</b>", "<i>italic</i>", "<s>gone</s>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestRenderEscapesRawHTML(t *testing.T) {
	r := NewRenderer(baseURL)

	got := r.Render(`<script>alert(1)</script> [b]ok[/b]`)

	if strings.Contains(got, "<script") {
		t.Fatalf("raw HTML leaked: %q", got)
	}
	if !strings.Contains(got, "<b>ok</b>") {
		t.Fatalf("markup lost during sanitizing: %q", got)
	}
}

func TestRenderWikiLink(t *testing.T) {
	r := NewRenderer(baseURL)

	got := r.Render("see [[Snow Leopard|snep]] for details")

	if !strings.Contains(got, `title=snow_leopard`) {
		t.Fatalf("expected wiki slug in %q", got)
	}
	if !strings.Contains(got, ">snep</a>") {
		t.Fatalf("expected custom label in %q", got)
	}

	plain := r.Render("[[wolf]]")
	if !strings.Contains(plain, ">wolf</a>") {
		t.Fatalf("expected title as label in %q", plain)
	}
}

func TestRenderTagSearchAndPostRef(t *testing.T) {
	r := NewRenderer(baseURL)

	got := r.Render("try {{wolf solo}} or post #1234")

	if !strings.Contains(got, "/posts?tags=wolf+solo") {
		t.Fatalf("expected tag search link in %q", got)
	}
	if !strings.Contains(got, `href="https://e926.net/posts/1234"`) {
		t.Fatalf("expected post link in %q", got)
	}
}

func TestRenderQuoteAndNewlines(t *testing.T) {
	r := NewRenderer(baseURL)

	got := r.Render("[quote]said things[/quote]\nnext line")

	if !strings.Contains(got, "<blockquote>said things</blockquote>") {
		t.Fatalf("expected blockquote in %q", got)
	}
	if !strings.Contains(got, "<br") {
		t.Fatalf("expected line break in %q", got)
	}
}

func TestSourceLinksDeduplicated(t *testing.T) {
	links := SourceLinks(
		"art at https://example.com/a then https://example.com/b and again https://example.com/a",
	)

	if len(links) != 2 {
		t.Fatalf("expected 2 unique links, got %v", links)
	}
	if links[0] != "https://example.com/a" || links[1] != "https://example.com/b" {
		t.Fatalf("unexpected order: %v", links)
	}
}

func TestSourceLinksEmpty(t *testing.T) {
	if links := SourceLinks("no links here"); links != nil {
		t.Fatalf("expected nil, got %v", links)
	}
}
