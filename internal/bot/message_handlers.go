package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		text := strings.TrimSpace(message.Text)

		command, args, _ := strings.Cut(text, " ")
		args = strings.TrimSpace(args)

		// "/search@boorugram_bot wolf" works in group chats.
		command, _, _ = strings.Cut(command, "@")

		chatID := message.Chat.ID

		switch command {
		case "/start":
			return b.handleStartCommand(chatID)
		case "/menu":
			return b.handleMenuCommand(chatID)
		case "/search":
			return b.handleSearchCommand(ctx, chatID, args, 1)
		case "/next":
			return b.handleNextCommand(ctx, chatID)
		case "/post":
			return b.handlePostCommand(ctx, chatID, args)
		case "/fav":
			return b.handleFavCommand(ctx, chatID, args)
		case "/unfav":
			return b.handleUnfavCommand(ctx, chatID, args)
		case "/favs":
			return b.handleFavsCommand(ctx, chatID)
		case "/dl":
			return b.handleDownloadCommand(ctx, chatID, args)
		case "/queue":
			return b.handleQueueCommand(ctx, chatID)
		case "/retry":
			return b.handleRetryCommand(ctx, chatID, args)
		case "/follow":
			return b.handleFollowCommand(ctx, chatID, args)
		case "/unfollow":
			return b.handleUnfollowCommand(ctx, chatID, args)
		case "/following":
			return b.handleFollowingCommand(ctx, chatID)
		case "/refresh":
			return b.handleRefreshCommand(ctx, chatID)
		case "/blacklist":
			return b.handleBlacklistCommand(ctx, chatID, args)
		case "/history":
			return b.handleHistoryCommand(ctx, chatID, args)
		case "/save":
			return b.handleSaveCommand(ctx, chatID, args)
		case "/saved":
			return b.handleSavedCommand(ctx, chatID, args)
		case "/unsave":
			return b.handleUnsaveCommand(ctx, chatID, args)
		case "/suggest":
			return b.handleSuggestCommand(ctx, chatID, args)
		case "/wiki":
			return b.handleWikiCommand(ctx, chatID, args)
		case "/vote":
			return b.handleVoteCommand(ctx, chatID, args)
		case "/pool":
			return b.handlePoolCommand(ctx, chatID, args)
		case "/comments":
			return b.handleCommentsCommand(ctx, chatID, args)
		case "/user":
			return b.handleUserCommand(ctx, chatID, args)
		case "/notes":
			return b.handleNotesCommand(ctx, chatID, args)
		case "/sets":
			return b.handleSetsCommand(ctx, chatID, args)
		default:
			// Plain text is treated as a search query.
			return b.handleSearchCommand(ctx, chatID, text, 1)
		}
	})
}
