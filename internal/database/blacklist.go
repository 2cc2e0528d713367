package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"boorugram/internal/models"
)

func (d *Database) AddBlacklistLine(ctx context.Context, chatID int64, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return errors.New("blacklist line is empty")
	}

	query := `insert into blacklist_lines (chat_id, line) values (?, ?)
	on conflict (chat_id, line) do nothing`

	_, err := d.db.ExecContext(ctx, query, chatID, line)

	return err
}

func (d *Database) RemoveBlacklistLine(ctx context.Context, lineID int64) error {
	query := "delete from blacklist_lines where id = ?"

	_, err := d.db.ExecContext(ctx, query, lineID)

	return err
}

func (d *Database) BlacklistLines(ctx context.Context, chatID int64) ([]models.BlacklistLine, error) {
	query := `select id, chat_id, line from blacklist_lines
	where chat_id = ?
	order by id`

	rows, err := d.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "BlacklistLines")

	var lines []models.BlacklistLine
	for rows.Next() {
		var l models.BlacklistLine
		if err = rows.Scan(&l.ID, &l.ChatID, &l.Line); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		lines = append(lines, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return lines, nil
}
