package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boorugram/internal/models"
)

// The server is authoritative for favorites; this table is a local cache
// keyed by post ID used for offline listing and instant toggles.

func (d *Database) UpsertFavorite(ctx context.Context, postID int64) error {
	query := `insert into favorites (post_id) values (?)
	on conflict (post_id) do nothing`

	_, err := d.db.ExecContext(ctx, query, postID)

	return err
}

func (d *Database) RemoveFavorite(ctx context.Context, postID int64) error {
	query := "delete from favorites where post_id = ?"

	_, err := d.db.ExecContext(ctx, query, postID)

	return err
}

func (d *Database) IsFavorite(ctx context.Context, postID int64) (bool, error) {
	query := "select 1 from favorites where post_id = ?"

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

func (d *Database) ListFavorites(ctx context.Context, limit int64) ([]models.FavoriteRecord, error) {
	query := `select post_id, created_at from favorites
	order by created_at desc, post_id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "ListFavorites")

	var favorites []models.FavoriteRecord
	for rows.Next() {
		var f models.FavoriteRecord
		if err = rows.Scan(&f.PostID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		favorites = append(favorites, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return favorites, nil
}
