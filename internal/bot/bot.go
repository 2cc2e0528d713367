package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"boorugram/internal/api"
	"boorugram/internal/database"
	"boorugram/internal/downloader"
	"boorugram/internal/dtext"
	"boorugram/internal/following"
	"boorugram/internal/models"
	"boorugram/internal/ratelimiter"
	"boorugram/internal/sources"
	"boorugram/internal/suggest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxBackoffSeconds         = 60
	initialBackoffSeconds     = 3
	backoffGrowthFactor       = 2
	resetOffsetBackoffSeconds = 30
	updateProcessingTimeout   = 60 * time.Second

	BotUpdateTimeout = 60
)

type Bot struct {
	api         *tgbotapi.BotAPI
	rateLimiter *ratelimiter.RateLimiter
	db          *database.Database
	client      *api.Client
	downloads   *downloader.Service
	refresher   *following.Refresher
	suggester   *suggest.Index
	resolver    *sources.Resolver
	renderer    *dtext.Renderer

	allowedUsers []int64
	pageSize     int
	seenCap      int64

	returnKeyboard [][]tgbotapi.InlineKeyboardButton
	menuKeyboard   [][]tgbotapi.InlineKeyboardButton

	// Last search per chat, for /next and the pagination button.
	searchMu    sync.Mutex
	lastQueries map[int64]lastQuery

	log *slog.Logger
}

type lastQuery struct {
	tags string
	page int
}

type Deps struct {
	DB        *database.Database
	Client    *api.Client
	Downloads *downloader.Service
	Refresher *following.Refresher
	Suggester *suggest.Index
	Resolver  *sources.Resolver
}

func New(
	token string,
	deps Deps,
	allowedUsers []int64,
	pageSize int,
	seenCap int64,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:            botAPI,
		rateLimiter:    ratelimiter.New(botAPI, log),
		db:             deps.DB,
		client:         deps.Client,
		downloads:      deps.Downloads,
		refresher:      deps.Refresher,
		suggester:      deps.Suggester,
		resolver:       deps.Resolver,
		renderer:       dtext.NewRenderer(deps.Client.BaseURL()),
		allowedUsers:   allowedUsers,
		pageSize:       pageSize,
		seenCap:        seenCap,
		returnKeyboard: getReturnKeyboard(),
		menuKeyboard:   getMenuKeyboard(),
		lastQueries:    make(map[int64]lastQuery),
		log:            log,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout

	backoffSeconds := initialBackoffSeconds

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return
		default:
		}

		updates := b.api.GetUpdatesChan(updateConfig)
		updatesClosed := false

		for !updatesClosed {
			select {
			case <-ctx.Done():
				b.log.InfoContext(ctx, "Bot context is done",
					"error", ctx.Err())
				return

			case update, ok := <-updates:
				if !ok {
					updatesClosed = true
					continue
				}
				updateConfig.Offset = update.UpdateID + 1

				b.handleUpdate(ctx, &update)
			}
		}

		if ctx.Err() != nil {
			return
		}

		b.log.WarnContext(ctx, "Update channel is closed, reconnecting...",
			"offset", updateConfig.Offset,
			"backoffSeconds", backoffSeconds)

		time.Sleep(time.Duration(backoffSeconds) * time.Second)

		backoffSeconds = updateBackoffSeconds(backoffSeconds)

		if backoffSeconds >= resetOffsetBackoffSeconds {
			updateConfig.Offset = 0
		}
	}
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		chatID := update.Message.Chat.ID
		userID := update.Message.From.ID

		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", update.Message.From.UserName)

			return
		}

		if err := b.handleMessage(updateCtx, update.Message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", userID,
				"messageID", update.Message.MessageID)
		}

	case update.CallbackQuery != nil:
		if !b.userAllowed(update.CallbackQuery.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", update.CallbackQuery.From.ID,
				"data", update.CallbackQuery.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, update.CallbackQuery); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"userID", update.CallbackQuery.From.ID,
				"data", update.CallbackQuery.Data)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	if len(b.allowedUsers) == 0 {
		return true
	}

	for _, allowed := range b.allowedUsers {
		if allowed == userID {
			return true
		}
	}

	return false
}

// SendNewPosts pushes a followed-tag digest into a chat. Used by the
// scheduler after each refresh.
func (b *Bot) SendNewPosts(ctx context.Context, chatID int64, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	filtered, err := b.applyBlacklist(ctx, chatID, posts)

	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("apply blacklist: %w", err))
	}

	if len(filtered) == 0 {
		return errors.Join(errs...)
	}

	header := fmt.Sprintf("🔔 *%d new posts from followed tags:*\n\n", len(filtered))
	for _, message := range formatPostsAsMessages(header, filtered, b.boardURL()) {
		if sendErr := b.sendMessageWithKeyboard(chatID, message, b.returnKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send digest message: %w", sendErr))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) rememberSearch(chatID int64, tags string, page int) {
	b.searchMu.Lock()
	defer b.searchMu.Unlock()

	b.lastQueries[chatID] = lastQuery{tags: tags, page: page}
}

func (b *Bot) recallSearch(chatID int64) (lastQuery, bool) {
	b.searchMu.Lock()
	defer b.searchMu.Unlock()

	q, ok := b.lastQueries[chatID]

	return q, ok
}

func updateBackoffSeconds(backoffSeconds int) int {
	if backoffSeconds < maxBackoffSeconds {
		backoffSeconds *= backoffGrowthFactor
		if backoffSeconds > maxBackoffSeconds {
			backoffSeconds = maxBackoffSeconds
		}
	}
	return backoffSeconds
}
