package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"boorugram/internal/models"
)

func (d *Database) EnqueueDownload(
	ctx context.Context,
	postID int64,
	fileURL string,
	fileName string,
) (int64, error) {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return 0, errors.New("file URL is empty")
	}

	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return 0, errors.New("file name is empty")
	}

	query := "insert into downloads (post_id, url, file_name) values (?, ?, ?)"

	res, err := d.db.ExecContext(ctx, query, postID, fileURL, fileName)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return res.LastInsertId()
}

// NextPendingDownload returns the oldest row without a recorded error,
// or nil when the queue is drained.
func (d *Database) NextPendingDownload(ctx context.Context) (*models.Download, error) {
	query := `select id, post_id, url, file_name, error, created_at
	from downloads
	where error = ''
	order by id asc
	limit 1`

	var dl models.Download
	err := d.db.QueryRowContext(ctx, query).Scan(
		&dl.ID,
		&dl.PostID,
		&dl.URL,
		&dl.FileName,
		&dl.Error,
		&dl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return &dl, nil
}

func (d *Database) CompleteDownload(ctx context.Context, id int64) error {
	query := "delete from downloads where id = ?"

	_, err := d.db.ExecContext(ctx, query, id)

	return err
}

func (d *Database) FailDownload(ctx context.Context, id int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("error message is empty")
	}

	query := "update downloads set error = ? where id = ?"

	_, err := d.db.ExecContext(ctx, query, message, id)

	return err
}

// RequeueDownload clears a failed row's error and moves it to the queue
// tail by reinserting it, so retried items never jump ahead of newer ones.
func (d *Database) RequeueDownload(ctx context.Context, id int64) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to rollback tx",
				"error", rollbackErr,
				"operation", "RequeueDownload")
		}
	}()

	query := `select post_id, url, file_name from downloads
	where id = ? and error != ''`

	var dl models.Download
	err = tx.QueryRowContext(ctx, query, id).Scan(&dl.PostID, &dl.URL, &dl.FileName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("no failed download with id %d", id)
		}
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "delete from downloads where id = ?", id); err != nil {
		return 0, fmt.Errorf("failed to delete row: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		"insert into downloads (post_id, url, file_name) values (?, ?, ?)",
		dl.PostID,
		dl.URL,
		dl.FileName,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert row: %w", err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch insert id: %w", err)
	}

	return newID, tx.Commit()
}

func (d *Database) ListDownloads(ctx context.Context) ([]models.Download, error) {
	query := `select id, post_id, url, file_name, error, created_at
	from downloads
	order by id asc`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "ListDownloads")

	var downloads []models.Download
	for rows.Next() {
		var dl models.Download
		if err = rows.Scan(
			&dl.ID,
			&dl.PostID,
			&dl.URL,
			&dl.FileName,
			&dl.Error,
			&dl.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		downloads = append(downloads, dl)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return downloads, nil
}
