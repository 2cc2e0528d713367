package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"boorugram/internal/models"
)

func (c *Client) SearchPools(ctx context.Context, nameMatch string, limit int) ([]models.Pool, error) {
	if limit <= 0 {
		limit = 75
	}

	query := url.Values{}
	query.Set("search[name_matches]", strings.TrimSpace(nameMatch))
	query.Set("limit", strconv.Itoa(limit))

	pools, err := getList[models.Pool](c, ctx, "/pools.json", query, "pools")
	if err != nil {
		return nil, fmt.Errorf("search pools (match = %q): %w", nameMatch, err)
	}

	return pools, nil
}

func (c *Client) GetPool(ctx context.Context, id int64) (*models.Pool, error) {
	var pool models.Pool

	path := fmt.Sprintf("/pools/%d.json", id)
	if err := c.get(ctx, path, nil, &pool); err != nil {
		return nil, fmt.Errorf("get pool %d: %w", id, err)
	}

	return &pool, nil
}

func (c *Client) SearchPostSets(ctx context.Context, nameMatch string, limit int) ([]models.PostSet, error) {
	if limit <= 0 {
		limit = 75
	}

	query := url.Values{}
	query.Set("search[name]", strings.TrimSpace(nameMatch))
	query.Set("limit", strconv.Itoa(limit))

	sets, err := getList[models.PostSet](c, ctx, "/post_sets.json", query, "post_sets")
	if err != nil {
		return nil, fmt.Errorf("search post sets (match = %q): %w", nameMatch, err)
	}

	return sets, nil
}

func (c *Client) PostComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	query := url.Values{}
	query.Set("group_by", "comment")
	query.Set("search[post_id]", strconv.FormatInt(postID, 10))

	comments, err := getList[models.Comment](c, ctx, "/comments.json", query, "comments")
	if err != nil {
		return nil, fmt.Errorf("get comments for post %d: %w", postID, err)
	}

	return comments, nil
}

func (c *Client) GetUser(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("user name is empty")
	}

	var user models.User

	path := "/users/" + url.PathEscape(name) + ".json"
	if err := c.get(ctx, path, nil, &user); err != nil {
		return nil, fmt.Errorf("get user %q: %w", name, err)
	}

	return &user, nil
}

// GetWikiPage resolves a wiki page by its exact title. Titles use
// underscores like tags do.
func (c *Client) GetWikiPage(ctx context.Context, title string) (*models.WikiPage, error) {
	title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	if title == "" {
		return nil, fmt.Errorf("wiki title is empty")
	}

	query := url.Values{}
	query.Set("search[title]", title)
	query.Set("limit", "1")

	pages, err := getList[models.WikiPage](c, ctx, "/wiki_pages.json", query, "wiki_pages")
	if err != nil {
		return nil, fmt.Errorf("get wiki page %q: %w", title, err)
	}

	if len(pages) == 0 {
		return nil, nil
	}

	return &pages[0], nil
}

func (c *Client) PostNotes(ctx context.Context, postID int64) ([]models.Note, error) {
	query := url.Values{}
	query.Set("search[post_id]", strconv.FormatInt(postID, 10))

	notes, err := getList[models.Note](c, ctx, "/notes.json", query, "notes")
	if err != nil {
		return nil, fmt.Errorf("get notes for post %d: %w", postID, err)
	}

	return notes, nil
}
