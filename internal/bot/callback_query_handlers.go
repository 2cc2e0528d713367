package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	// Taps on keyboards older than 48h and inline-mode callbacks carry
	// no message, so there is no chat to act on.
	if callback.Message == nil {
		b.log.DebugContext(ctx, "Callback query without message",
			"userID", callback.From.ID,
			"data", callback.Data)

		return nil
	}

	return b.withSpinner(ctx, callback.Message.Chat.ID, func() error {
		chatID := callback.Message.Chat.ID
		data := strings.TrimSpace(callback.Data)

		switch data {
		case "menu":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleMenuCommand(chatID)
			})
		case "menu_favs":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleFavsCommand(ctx, chatID)
			})
		case "menu_queue":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleQueueCommand(ctx, chatID)
			})
		case "menu_following":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleFollowingCommand(ctx, chatID)
			})
		case "menu_history":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleHistoryCommand(ctx, chatID, "")
			})
		case "search_next":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleNextCommand(ctx, chatID)
			})
		}

		return nil
	})
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		errs = append(errs, b.errorCallbackAnswer(callback, fmt.Errorf("send request: %w", err)))
	}

	err := fn()
	if err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "❌ Failed.")); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send request: %w", sendErr))
	}
	return err
}
