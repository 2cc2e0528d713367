package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"boorugram/internal/models"
)

const maxTagsPerPage = 1000

// SearchTags matches tag names against a wildcard pattern, most-used
// first. Used both for direct lookups and to seed the suggestion index.
func (c *Client) SearchTags(ctx context.Context, match string, limit int) ([]models.Tag, error) {
	if limit <= 0 || limit > maxTagsPerPage {
		limit = maxTagsPerPage
	}

	match = strings.TrimSpace(match)

	query := url.Values{}
	if match != "" {
		query.Set("search[name_matches]", match)
	}
	query.Set("search[order]", "count")
	query.Set("limit", strconv.Itoa(limit))

	tags, err := getList[models.Tag](c, ctx, "/tags.json", query, "tags")
	if err != nil {
		return nil, fmt.Errorf("search tags (match = %q): %w", match, err)
	}

	return tags, nil
}

func (c *Client) TagAliases(ctx context.Context, match string, limit int) ([]models.TagAlias, error) {
	if limit <= 0 || limit > maxTagsPerPage {
		limit = maxTagsPerPage
	}

	query := url.Values{}
	query.Set("search[antecedent_name]", strings.TrimSpace(match))
	query.Set("limit", strconv.Itoa(limit))

	aliases, err := getList[models.TagAlias](c, ctx, "/tag_aliases.json", query, "tag_aliases")
	if err != nil {
		return nil, fmt.Errorf("search tag aliases (match = %q): %w", match, err)
	}

	return aliases, nil
}
