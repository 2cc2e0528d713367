package bot

import (
	"context"
	"errors"
	"fmt"

	"boorugram/internal/blacklist"
	"boorugram/internal/models"
)

func (b *Bot) boardURL() string {
	return b.client.BaseURL()
}

// applyBlacklist drops posts matched by the chat's blacklist lines.
// Malformed lines are skipped; the error reports them without blocking
// the rest of the filter.
func (b *Bot) applyBlacklist(
	ctx context.Context,
	chatID int64,
	posts []models.Post,
) ([]models.Post, error) {
	lines, err := b.db.BlacklistLines(ctx, chatID)

	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("load blacklist lines: %w", err))
	}

	if len(lines) == 0 {
		return posts, errors.Join(errs...)
	}

	raw := make([]string, len(lines))
	for i, line := range lines {
		raw[i] = line.Line
	}

	filter, err := blacklist.NewFilter(raw)
	if err != nil {
		errs = append(errs, fmt.Errorf("parse blacklist lines: %w", err))
	}

	return filter.Apply(posts), errors.Join(errs...)
}

func validateBlacklistLine(line string) error {
	if _, err := blacklist.ParseLine(line); err != nil {
		return err
	}

	return nil
}
