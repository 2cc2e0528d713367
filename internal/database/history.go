package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"boorugram/internal/models"
)

func (d *Database) RecordSearch(ctx context.Context, query string, resultCount int64) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("search query is empty")
	}

	stmt := "insert into search_history (query, result_count) values (?, ?)"

	_, err := d.db.ExecContext(ctx, stmt, query, resultCount)

	return err
}

func (d *Database) RecentSearches(ctx context.Context, limit int64) ([]models.SearchHistoryEntry, error) {
	stmt := `select id, query, result_count, searched_at
	from search_history
	order by id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "RecentSearches")

	var entries []models.SearchHistoryEntry
	for rows.Next() {
		var e models.SearchHistoryEntry
		if err = rows.Scan(&e.ID, &e.Query, &e.ResultCount, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return entries, nil
}

func (d *Database) ClearSearchHistory(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "delete from search_history")

	return err
}

func (d *Database) SaveSearch(ctx context.Context, name string, query string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("saved search name is empty")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("saved search query is empty")
	}

	stmt := `insert into saved_searches (name, query) values (?, ?)
	on conflict (name) do update set query = excluded.query`

	_, err := d.db.ExecContext(ctx, stmt, name, query)

	return err
}

func (d *Database) DeleteSavedSearch(ctx context.Context, name string) error {
	stmt := "delete from saved_searches where name = ?"

	_, err := d.db.ExecContext(ctx, stmt, strings.TrimSpace(name))

	return err
}

func (d *Database) SavedSearches(ctx context.Context) ([]models.SavedSearch, error) {
	stmt := `select id, name, query, created_at from saved_searches
	order by name`

	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer d.closeRows(ctx, rows, "SavedSearches")

	var searches []models.SavedSearch
	for rows.Next() {
		var s models.SavedSearch
		if err = rows.Scan(&s.ID, &s.Name, &s.Query, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		searches = append(searches, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return searches, nil
}
