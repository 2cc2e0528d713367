package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const sendSpinnerInterval = 3 * time.Second

func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	config := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.rateLimiter.Request(config); err != nil {
		b.log.ErrorContext(ctx, "Failed to send chat action",
			"error", err)
	}
}

func (b *Bot) withSpinner(ctx context.Context, chatID int64, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		b.sendTyping(ctx, chatID)

		t := time.NewTicker(sendSpinnerInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.sendTyping(ctx, chatID)
			}
		}
	}()

	return fn()
}

func (b *Bot) sendMessageWithKeyboard(
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	_, err := b.rateLimiter.Send(message)
	return err
}

// sendHTMLMessage is used for wiki bodies and descriptions that come
// pre-rendered and sanitized as HTML instead of MarkdownV2.
func (b *Bot) sendHTMLMessage(
	chatID int64,
	html string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	message := tgbotapi.NewMessage(chatID, strings.ToValidUTF8(html, "?"))
	message.ParseMode = tgbotapi.ModeHTML
	message.DisableWebPagePreview = true
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	_, err := b.rateLimiter.Send(message)
	return err
}

func (b *Bot) sendFailure(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
}

func getReturnKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("⬅️ Return to menu", "menu")},
	}
}

func getMenuKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("⭐ Favorites", "menu_favs"),
			tgbotapi.NewInlineKeyboardButtonData("📥 Queue", "menu_queue"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🔖 Following", "menu_following"),
			tgbotapi.NewInlineKeyboardButtonData("🕘 History", "menu_history"),
		},
	}
}

func getSearchKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("➡️ Next page", "search_next"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Return to menu", "menu"),
		},
	}
}
