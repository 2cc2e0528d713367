package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"boorugram/internal/models"
)

const (
	MaxPostsPerPage = 320

	voteUp   = 1
	voteDown = -1
)

var ErrAuthRequired = errors.New("account credentials are required")

// SearchPosts runs a tag search. tags uses the board's query syntax
// (space-separated terms, metatags like rating: and order: included).
func (c *Client) SearchPosts(
	ctx context.Context,
	tags string,
	limit int,
	page int,
) ([]models.Post, error) {
	if limit <= 0 || limit > MaxPostsPerPage {
		limit = MaxPostsPerPage
	}
	if page <= 0 {
		page = 1
	}

	query := url.Values{}
	query.Set("tags", strings.TrimSpace(tags))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(page))

	var payload struct {
		Posts []models.Post `json:"posts"`
	}

	if err := c.get(ctx, "/posts.json", query, &payload); err != nil {
		return nil, fmt.Errorf("search posts (tags = %q): %w", tags, err)
	}

	return payload.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var payload struct {
		Post models.Post `json:"post"`
	}

	path := fmt.Sprintf("/posts/%d.json", id)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}

	return &payload.Post, nil
}

func (c *Client) ListFavorites(ctx context.Context, limit int, page int) ([]models.Post, error) {
	if !c.Authenticated() {
		return nil, ErrAuthRequired
	}

	if limit <= 0 || limit > MaxPostsPerPage {
		limit = MaxPostsPerPage
	}
	if page <= 0 {
		page = 1
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(page))

	var payload struct {
		Posts []models.Post `json:"posts"`
	}

	if err := c.get(ctx, "/favorites.json", query, &payload); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return payload.Posts, nil
}

func (c *Client) AddFavorite(ctx context.Context, postID int64) error {
	if !c.Authenticated() {
		return ErrAuthRequired
	}

	query := url.Values{}
	query.Set("post_id", strconv.FormatInt(postID, 10))

	if err := c.send(ctx, http.MethodPost, "/favorites.json", query, nil); err != nil {
		return fmt.Errorf("add favorite %d: %w", postID, err)
	}

	return nil
}

func (c *Client) RemoveFavorite(ctx context.Context, postID int64) error {
	if !c.Authenticated() {
		return ErrAuthRequired
	}

	path := fmt.Sprintf("/favorites/%d.json", postID)
	if err := c.send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove favorite %d: %w", postID, err)
	}

	return nil
}

func (c *Client) VotePostUp(ctx context.Context, postID int64) error {
	return c.votePost(ctx, postID, voteUp)
}

func (c *Client) VotePostDown(ctx context.Context, postID int64) error {
	return c.votePost(ctx, postID, voteDown)
}

func (c *Client) votePost(ctx context.Context, postID int64, score int) error {
	if !c.Authenticated() {
		return ErrAuthRequired
	}

	query := url.Values{}
	query.Set("score", strconv.Itoa(score))

	path := fmt.Sprintf("/posts/%d/votes.json", postID)
	if err := c.send(ctx, http.MethodPost, path, query, nil); err != nil {
		return fmt.Errorf("vote post %d: %w", postID, err)
	}

	return nil
}
