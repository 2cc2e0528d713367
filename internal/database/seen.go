package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (d *Database) MarkSeen(ctx context.Context, postIDs ...int64) error {
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
				"operation", "MarkSeen")
		}
	}()

	query := `insert into seen_posts (post_id) values (?)
	on conflict (post_id) do nothing`

	for _, postID := range postIDs {
		if _, err = tx.ExecContext(ctx, query, postID); err != nil {
			return fmt.Errorf("failed to insert seen post: %w", err)
		}
	}

	return tx.Commit()
}

func (d *Database) IsSeen(ctx context.Context, postID int64) (bool, error) {
	query := "select 1 from seen_posts where post_id = ?"

	var one int
	err := d.db.QueryRowContext(ctx, query, postID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to execute query: %w", err)
	}

	return true, nil
}

func (d *Database) SeenCount(ctx context.Context) (int64, error) {
	query := "select count(*) from seen_posts"

	var count int64
	if err := d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return count, nil
}

// PruneSeen trims the seen table oldest-first down to maxRows rows so
// the cache stays bounded in a long-running process.
func (d *Database) PruneSeen(ctx context.Context, maxRows int64) error {
	if maxRows <= 0 {
		return nil
	}

	query := `delete from seen_posts where post_id not in (
		select post_id from seen_posts
		order by seen_at desc, post_id desc
		limit ?
	)`

	_, err := d.db.ExecContext(ctx, query, maxRows)

	return err
}
