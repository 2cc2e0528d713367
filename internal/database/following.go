package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"boorugram/internal/models"
)

func (d *Database) FollowTag(ctx context.Context, chatID int64, tag string) error {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return errors.New("tag is empty")
	}

	query := `insert into followed_tags (chat_id, tag) values (?, ?)
	on conflict (chat_id, tag) do nothing`

	_, err := d.db.ExecContext(ctx, query, chatID, tag)

	return err
}

func (d *Database) UnfollowTag(ctx context.Context, followedTagID int64) error {
	query := "delete from followed_tags where id = ?"

	_, err := d.db.ExecContext(ctx, query, followedTagID)

	return err
}

func (d *Database) ListFollowedTags(ctx context.Context, chatID int64) ([]models.FollowedTag, error) {
	query := `select id, chat_id, tag, unseen_count, last_checked_at
	from followed_tags
	where chat_id = ?
	order by tag`

	return d.scanFollowedTags(ctx, query, "ListFollowedTags", chatID)
}

func (d *Database) AllFollowedTags(ctx context.Context) ([]models.FollowedTag, error) {
	query := `select id, chat_id, tag, unseen_count, last_checked_at
	from followed_tags
	order by id`

	return d.scanFollowedTags(ctx, query, "AllFollowedTags")
}

func (d *Database) scanFollowedTags(
	ctx context.Context,
	query string,
	operation string,
	args ...any,
) ([]models.FollowedTag, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, operation)

	var tags []models.FollowedTag
	for rows.Next() {
		var (
			t       models.FollowedTag
			checked sql.NullTime
		)
		if err = rows.Scan(&t.ID, &t.ChatID, &t.Tag, &t.UnseenCount, &checked); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if checked.Valid {
			checkedAt := checked.Time
			t.LastCheckedAt = &checkedAt
		}

		tags = append(tags, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return tags, nil
}

// KnownFollowedPostIDs returns the cached post IDs already recorded for a
// followed tag, used to diff freshly fetched pages.
func (d *Database) KnownFollowedPostIDs(
	ctx context.Context,
	followedTagID int64,
) (map[int64]struct{}, error) {
	query := "select post_id from followed_posts where followed_tag_id = ?"

	rows, err := d.db.QueryContext(ctx, query, followedTagID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "KnownFollowedPostIDs")

	known := make(map[int64]struct{})
	for rows.Next() {
		var postID int64
		if err = rows.Scan(&postID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		known[postID] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return known, nil
}

func (d *Database) AddFollowedPosts(
	ctx context.Context,
	followedTagID int64,
	postIDs []int64,
) error {
	if len(postIDs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to rollback tx",
				"error", rollbackErr,
				"operation", "AddFollowedPosts")
		}
	}()

	query := `insert into followed_posts (followed_tag_id, post_id) values (?, ?)
	on conflict (followed_tag_id, post_id) do nothing`

	for _, postID := range postIDs {
		if _, err = tx.ExecContext(ctx, query, followedTagID, postID); err != nil {
			return fmt.Errorf("failed to insert followed post: %w", err)
		}
	}

	return tx.Commit()
}

// TouchFollowedTag stamps a refresh and adds newCount to the unseen counter.
func (d *Database) TouchFollowedTag(
	ctx context.Context,
	followedTagID int64,
	newCount int64,
) error {
	query := `update followed_tags
	set unseen_count = unseen_count + ?, last_checked_at = ?
	where id = ?`

	_, err := d.db.ExecContext(ctx, query, newCount, time.Now().UTC(), followedTagID)

	return err
}

func (d *Database) ResetUnseen(ctx context.Context, followedTagID int64) error {
	query := "update followed_tags set unseen_count = 0 where id = ?"

	_, err := d.db.ExecContext(ctx, query, followedTagID)

	return err
}
