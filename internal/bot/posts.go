package bot

import (
	"fmt"
	"strings"

	"boorugram/internal/dtext"
	"boorugram/internal/models"
)

const (
	postsPerMessage = 10
	maxInlineTags   = 6
)

var ratingLabels = map[string]string{
	"s": "safe",
	"q": "questionable",
	"e": "explicit",
}

// formatPostsAsMessages renders a post list into MarkdownV2 messages,
// chunked so a long digest never exceeds Telegram's message size.
func formatPostsAsMessages(header string, posts []models.Post, boardURL string) []string {
	var messages []string

	for start := 0; start < len(posts); start += postsPerMessage {
		end := min(start+postsPerMessage, len(posts))

		var sb strings.Builder
		if start == 0 {
			sb.WriteString(header)
		}

		for i := start; i < end; i++ {
			sb.WriteString(formatPostLine(i+1, &posts[i], boardURL))
		}

		messages = append(messages, sb.String())
	}

	return messages
}

func formatPostLine(ordinal int, post *models.Post, boardURL string) string {
	tags := post.AllTags()

	shown := tags
	extra := 0
	if len(shown) > maxInlineTags {
		shown = shown[:maxInlineTags]
		extra = len(tags) - maxInlineTags
	}

	line := fmt.Sprintf(
		"%d\\. [post \\#%d](%s/posts/%d) %s %s",
		ordinal,
		post.ID,
		boardURL,
		post.ID,
		formatScore(post),
		escapeMarkdownV2(strings.Join(shown, ", ")),
	)

	if extra > 0 {
		line += escapeMarkdownV2(fmt.Sprintf(" (+%d more)", extra))
	}

	return line + "\n"
}

func formatScore(post *models.Post) string {
	return escapeMarkdownV2(fmt.Sprintf(
		"[%s, score %d, ♥%d]",
		ratingLabel(post.Rating),
		post.Score.Total,
		post.FavCount,
	))
}

func ratingLabel(rating string) string {
	if label, ok := ratingLabels[strings.ToLower(rating)]; ok {
		return label
	}

	return rating
}

// collectSources merges the post's source list with URLs mentioned in
// its description text, deduplicated in order of appearance.
func collectSources(post *models.Post) []string {
	merged := make([]string, 0, len(post.Sources))
	merged = append(merged, post.Sources...)
	merged = append(merged, dtext.SourceLinks(post.Description)...)

	seen := make(map[string]struct{}, len(merged))

	var sourceURLs []string
	for _, src := range merged {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}

		seen[src] = struct{}{}
		sourceURLs = append(sourceURLs, src)
	}

	return sourceURLs
}

// formatPostDetail renders the full single-post view for /post.
func formatPostDetail(
	post *models.Post,
	boardURL string,
	favorite bool,
	sourceURLs []string,
	sourceTitles map[string]string,
) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*Post* [\\#%d](%s/posts/%d)\n", post.ID, boardURL, post.ID))
	sb.WriteString(formatScore(post))
	if favorite {
		sb.WriteString(" ⭐")
	}
	sb.WriteString("\n\n")

	writeTagGroup(&sb, "Artist", post.Tags.Artist)
	writeTagGroup(&sb, "Character", post.Tags.Character)
	writeTagGroup(&sb, "Species", post.Tags.Species)
	writeTagGroup(&sb, "General", post.Tags.General)

	if post.File.URL != "" {
		sb.WriteString(fmt.Sprintf(
			"\n*File:* [%s, %s](%s)\n",
			escapeMarkdownV2(strings.ToUpper(post.File.Ext)),
			escapeMarkdownV2(formatSize(post.File.Size)),
			post.File.URL,
		))
	}

	if post.Relationships.ParentID != nil {
		sb.WriteString(fmt.Sprintf(
			"*Parent:* [post \\#%d](%s/posts/%d)\n",
			*post.Relationships.ParentID,
			boardURL,
			*post.Relationships.ParentID,
		))
	}

	if len(post.Pools) != 0 {
		sb.WriteString(fmt.Sprintf("*Pools:* %s\n", escapeMarkdownV2(joinIDs(post.Pools))))
	}

	if len(sourceURLs) != 0 {
		sb.WriteString("\n*Sources:*\n")
		for _, src := range sourceURLs {
			label := sourceTitles[src]
			if label == "" {
				label = src
			}

			sb.WriteString(fmt.Sprintf("– [%s](%s)\n", escapeMarkdownV2(label), src))
		}
	}

	if desc := strings.TrimSpace(post.Description); desc != "" {
		sb.WriteString("\n")
		sb.WriteString(escapeMarkdownV2(desc))
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatPoolDetail(pool *models.Pool, boardURL string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"📚 *Pool* [%s](%s/pools/%d) \\(%s, %d posts\\)\n",
		escapeMarkdownV2(pool.Name),
		boardURL,
		pool.ID,
		escapeMarkdownV2(pool.Category),
		pool.PostCount,
	))

	if desc := strings.TrimSpace(pool.Description); desc != "" {
		sb.WriteString("\n")
		sb.WriteString(escapeMarkdownV2(desc))
		sb.WriteString("\n")
	}

	if len(pool.PostIDs) != 0 {
		shown := pool.PostIDs
		if len(shown) > postsPerMessage {
			shown = shown[:postsPerMessage]
		}

		sb.WriteString("\n")
		for i, postID := range shown {
			sb.WriteString(fmt.Sprintf(
				"%d\\. [post \\#%d](%s/posts/%d) \\(view: /post %d\\)\n",
				i+1,
				postID,
				boardURL,
				postID,
				postID,
			))
		}

		if len(pool.PostIDs) > len(shown) {
			sb.WriteString(escapeMarkdownV2(fmt.Sprintf(
				"... and %d more", len(pool.PostIDs)-len(shown),
			)))
		}
	}

	return sb.String()
}

func writeTagGroup(sb *strings.Builder, label string, tags []string) {
	if len(tags) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf(
		"*%s:* %s\n",
		label,
		escapeMarkdownV2(strings.Join(tags, ", ")),
	))
}

func formatSize(size int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)

	switch {
	case size >= mb:
		return fmt.Sprintf("%.1f MiB", float64(size)/mb)
	case size >= kb:
		return fmt.Sprintf("%.1f KiB", float64(size)/kb)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}

	return strings.Join(parts, ", ")
}
