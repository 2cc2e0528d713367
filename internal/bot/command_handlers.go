package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"boorugram/internal/models"
)

const resolveSourceTimeout = 10 * time.Second

// Source titles are resolved inline while the user waits, so only the
// first few links get a lookup.
const maxResolvedSources = 3

const welcomeText = `🤖 *Welcome to Boorugram\!*

I'm your image board assistant\. I can help you:

– Search posts with /search or by just sending me tags
– Page through results with /next
– View a post with /post, favorite it with /fav
– Queue file downloads with /dl, inspect them with /queue
– Follow tags with /follow and get new posts automatically
– Hide unwanted posts with /blacklist
– Revisit searches with /history, /save and /saved
– Complete tags with /suggest, read up with /wiki`

func (b *Bot) handleStartCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, welcomeText, b.menuKeyboard)
}

func (b *Bot) handleMenuCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, "❔ *Choose an option:*", b.menuKeyboard)
}

func (b *Bot) handleSearchCommand(
	ctx context.Context,
	chatID int64,
	tags string,
	page int,
) error {
	tags = strings.TrimSpace(tags)
	if tags == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send tags to search, e\\.g\\. `/search wolf rating:s`\\.",
			b.returnKeyboard,
		)
	}

	posts, err := b.client.SearchPosts(ctx, tags, b.pageSize, page)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("search posts: %w", err))
	}

	var errs []error

	if page == 1 {
		if histErr := b.db.RecordSearch(ctx, tags, int64(len(posts))); histErr != nil {
			errs = append(errs, fmt.Errorf("record search: %w", histErr))
		}

		b.suggester.RecordQuery(tags)
	}

	b.rememberSearch(chatID, tags, page)

	filtered, filterErr := b.applyBlacklist(ctx, chatID, posts)
	if filterErr != nil {
		errs = append(errs, fmt.Errorf("apply blacklist: %w", filterErr))
	}

	if len(filtered) == 0 {
		sendErr := b.sendMessageWithKeyboard(
			chatID,
			"✖️ Nothing found \\(or everything is blacklisted\\)\\.",
			b.returnKeyboard,
		)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if seenErr := b.markSeen(ctx, filtered); seenErr != nil {
		errs = append(errs, fmt.Errorf("mark seen: %w", seenErr))
	}

	header := fmt.Sprintf(
		"🔍 *Page %d for %s:*\n\n",
		page,
		escapeMarkdownV2(tags),
	)
	for _, message := range formatPostsAsMessages(header, filtered, b.boardURL()) {
		if sendErr := b.sendMessageWithKeyboard(chatID, message, getSearchKeyboard()); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) handleNextCommand(ctx context.Context, chatID int64) error {
	query, ok := b.recallSearch(chatID)
	if !ok {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ No previous search to page through\\.",
			b.returnKeyboard,
		)
	}

	return b.handleSearchCommand(ctx, chatID, query.tags, query.page+1)
}

func (b *Bot) handlePostCommand(ctx context.Context, chatID int64, args string) error {
	postID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	post, err := b.client.GetPost(ctx, postID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("get post: %w", err))
	}

	var errs []error

	favorite, favErr := b.db.IsFavorite(ctx, postID)
	if favErr != nil {
		errs = append(errs, fmt.Errorf("check favorite: %w", favErr))
	}

	if seenErr := b.markSeen(ctx, []models.Post{*post}); seenErr != nil {
		errs = append(errs, fmt.Errorf("mark seen: %w", seenErr))
	}

	sourceURLs := collectSources(post)
	titles := b.resolveSourceTitles(ctx, sourceURLs)

	detail := formatPostDetail(post, b.boardURL(), favorite, sourceURLs, titles)
	if sendErr := b.sendMessageWithKeyboard(chatID, detail, b.returnKeyboard); sendErr != nil {
		errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return errors.Join(errs...)
}

func (b *Bot) resolveSourceTitles(ctx context.Context, sourceURLs []string) map[string]string {
	if b.resolver == nil || len(sourceURLs) == 0 {
		return nil
	}

	titles := make(map[string]string)

	for i, src := range sourceURLs {
		if i == maxResolvedSources {
			break
		}

		resolveCtx, cancel := context.WithTimeout(ctx, resolveSourceTimeout)
		title, err := b.resolver.ResolveTitle(resolveCtx, src)
		cancel()

		if err != nil {
			b.log.DebugContext(ctx, "Failed to resolve source title",
				"error", err,
				"url", src)

			continue
		}

		titles[src] = title
	}

	return titles
}

func (b *Bot) handleFavCommand(ctx context.Context, chatID int64, args string) error {
	postID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	var errs []error

	if b.client.Authenticated() {
		if err = b.client.AddFavorite(ctx, postID); err != nil {
			errs = append(errs, fmt.Errorf("add remote favorite: %w", err))
		}
	}

	// Local cache keeps working offline and without credentials.
	if err = b.db.UpsertFavorite(ctx, postID); err != nil {
		errs = append(errs, fmt.Errorf("upsert favorite: %w", err))
	}

	if len(errs) > 0 {
		return b.replyFailure(chatID, errors.Join(errs...))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("⭐ Post \\#%d is favorited\\.", postID),
		b.returnKeyboard,
	)
}

func (b *Bot) handleUnfavCommand(ctx context.Context, chatID int64, args string) error {
	postID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	var errs []error

	if b.client.Authenticated() {
		if err = b.client.RemoveFavorite(ctx, postID); err != nil {
			errs = append(errs, fmt.Errorf("remove remote favorite: %w", err))
		}
	}

	if err = b.db.RemoveFavorite(ctx, postID); err != nil {
		errs = append(errs, fmt.Errorf("remove favorite: %w", err))
	}

	if len(errs) > 0 {
		return b.replyFailure(chatID, errors.Join(errs...))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("✅ Post \\#%d is unfavorited\\.", postID),
		b.returnKeyboard,
	)
}

func (b *Bot) handleFavsCommand(ctx context.Context, chatID int64) error {
	if b.client.Authenticated() {
		posts, err := b.client.ListFavorites(ctx, b.pageSize, 1)
		if err != nil {
			return b.replyFailure(chatID, fmt.Errorf("list remote favorites: %w", err))
		}

		if len(posts) == 0 {
			return b.sendMessageWithKeyboard(chatID, "✖️ No favorites yet\\.", b.returnKeyboard)
		}

		var errs []error

		header := fmt.Sprintf("⭐ *%d favorites:*\n\n", len(posts))
		for _, message := range formatPostsAsMessages(header, posts, b.boardURL()) {
			if sendErr := b.sendMessageWithKeyboard(chatID, message, b.returnKeyboard); sendErr != nil {
				errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
			}
		}

		return errors.Join(errs...)
	}

	records, err := b.db.ListFavorites(ctx, int64(b.pageSize))
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list favorites: %w", err))
	}

	if len(records) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No favorites yet\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("⭐ *%d favorites:*\n\n", len(records)))

	for i, record := range records {
		message.WriteString(fmt.Sprintf(
			"%d\\. [post \\#%d](%s/posts/%d)\n",
			i+1,
			record.PostID,
			b.boardURL(),
			record.PostID,
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleDownloadCommand(ctx context.Context, chatID int64, args string) error {
	postID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	post, err := b.client.GetPost(ctx, postID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("get post: %w", err))
	}

	if post.File.URL == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Post file is hidden, nothing to download\\.",
			b.returnKeyboard,
		)
	}

	downloadID, err := b.downloads.Enqueue(ctx, post)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("enqueue download: %w", err))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("📥 Download \\#%d is queued\\.", downloadID),
		b.returnKeyboard,
	)
}

func (b *Bot) handleQueueCommand(ctx context.Context, chatID int64) error {
	downloads, err := b.downloads.List(ctx)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list downloads: %w", err))
	}

	if len(downloads) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ Download queue is empty\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📥 *%d queued downloads:*\n\n", len(downloads)))

	for i, dl := range downloads {
		status := "⏳ pending"
		if !dl.Pending() {
			status = fmt.Sprintf("⚠️ %s \\(retry with /retry %d\\)", escapeMarkdownV2(dl.Error), dl.ID)
		}

		message.WriteString(fmt.Sprintf(
			"%d\\. \\#%d %s %s\n",
			i+1,
			dl.ID,
			escapeMarkdownV2(dl.FileName),
			status,
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleRetryCommand(ctx context.Context, chatID int64, args string) error {
	downloadID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse download ID: %w", err))
	}

	newID, err := b.downloads.Retry(ctx, downloadID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("retry download: %w", err))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("📥 Download is re\\-queued as \\#%d\\.", newID),
		b.returnKeyboard,
	)
}

func (b *Bot) handleFollowCommand(ctx context.Context, chatID int64, args string) error {
	tag := strings.ToLower(strings.TrimSpace(args))
	if tag == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a tag to follow, e\\.g\\. `/follow wolf`\\.",
			b.returnKeyboard,
		)
	}

	if err := b.db.FollowTag(ctx, chatID, tag); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("follow tag: %w", err))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("🔖 Following %s now\\.", escapeMarkdownV2(tag)),
		b.returnKeyboard,
	)
}

func (b *Bot) handleUnfollowCommand(ctx context.Context, chatID int64, args string) error {
	followedTagID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse followed tag ID: %w", err))
	}

	if err = b.db.UnfollowTag(ctx, followedTagID); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("unfollow tag: %w", err))
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Tag is unfollowed\\.", b.returnKeyboard)
}

func (b *Bot) handleFollowingCommand(ctx context.Context, chatID int64) error {
	tags, err := b.db.ListFollowedTags(ctx, chatID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list followed tags: %w", err))
	}

	if len(tags) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ You are not following any tags\\. Try /follow\\.",
			b.returnKeyboard,
		)
	}

	var errs []error

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🔖 *Following %d tags:*\n\n", len(tags)))

	for i, tag := range tags {
		unseen := ""
		if tag.UnseenCount > 0 {
			unseen = fmt.Sprintf(" \\(%d unseen\\)", tag.UnseenCount)
		}

		message.WriteString(fmt.Sprintf(
			"%d\\. [%s](%s/posts?tags=%s)%s \\[unfollow: /unfollow %d\\]\n",
			i+1,
			escapeMarkdownV2(tag.Tag),
			b.boardURL(),
			tag.Tag,
			unseen,
			tag.ID,
		))

		// Viewing the list clears the unseen badge.
		if tag.UnseenCount > 0 {
			if resetErr := b.db.ResetUnseen(ctx, tag.ID); resetErr != nil {
				errs = append(errs, fmt.Errorf("reset unseen: %w", resetErr))
			}
		}
	}

	if sendErr := b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard); sendErr != nil {
		errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
	}

	return errors.Join(errs...)
}

func (b *Bot) handleRefreshCommand(ctx context.Context, chatID int64) error {
	posts, err := b.refresher.RefreshChat(ctx, chatID)

	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("refresh chat: %w", err))
	}

	if len(posts) == 0 {
		sendErr := b.sendMessageWithKeyboard(
			chatID,
			"✖️ Nothing new from followed tags\\.",
			b.returnKeyboard,
		)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if sendErr := b.SendNewPosts(ctx, chatID, posts); sendErr != nil {
		errs = append(errs, fmt.Errorf("send new posts: %w", sendErr))
	}

	return errors.Join(errs...)
}

func (b *Bot) handleBlacklistCommand(ctx context.Context, chatID int64, args string) error {
	subcommand, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	rest = strings.TrimSpace(rest)

	switch subcommand {
	case "add":
		return b.handleBlacklistAdd(ctx, chatID, rest)
	case "rm":
		return b.handleBlacklistRemove(ctx, chatID, rest)
	case "":
		return b.handleBlacklistList(ctx, chatID)
	default:
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Usage: /blacklist, `/blacklist add <line>` or `/blacklist rm <id>`\\.",
			b.returnKeyboard,
		)
	}
}

func (b *Bot) handleBlacklistAdd(ctx context.Context, chatID int64, line string) error {
	if err := validateBlacklistLine(line); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("validate blacklist line: %w", err))
	}

	if err := b.db.AddBlacklistLine(ctx, chatID, line); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("add blacklist line: %w", err))
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Blacklist line is added\\.", b.returnKeyboard)
}

func (b *Bot) handleBlacklistRemove(ctx context.Context, chatID int64, args string) error {
	lineID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse blacklist line ID: %w", err))
	}

	if err = b.db.RemoveBlacklistLine(ctx, lineID); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("remove blacklist line: %w", err))
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Blacklist line is removed\\.", b.returnKeyboard)
}

func (b *Bot) handleBlacklistList(ctx context.Context, chatID int64) error {
	lines, err := b.db.BlacklistLines(ctx, chatID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list blacklist lines: %w", err))
	}

	if len(lines) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Blacklist is empty\\. Add lines with `/blacklist add <line>`\\.",
			b.returnKeyboard,
		)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🚫 *%d blacklist lines:*\n\n", len(lines)))

	for i, line := range lines {
		message.WriteString(fmt.Sprintf(
			"%d\\. %s \\[remove: /blacklist rm %d\\]\n",
			i+1,
			escapeMarkdownV2(line.Line),
			line.ID,
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64, args string) error {
	if strings.TrimSpace(args) == "clear" {
		if err := b.db.ClearSearchHistory(ctx); err != nil {
			return b.replyFailure(chatID, fmt.Errorf("clear search history: %w", err))
		}

		return b.sendMessageWithKeyboard(chatID, "✅ Search history is cleared\\.", b.returnKeyboard)
	}

	entries, err := b.db.RecentSearches(ctx, int64(b.pageSize))
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list recent searches: %w", err))
	}

	if len(entries) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ Search history is empty\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🕘 *Last %d searches:*\n\n", len(entries)))

	for i, entry := range entries {
		message.WriteString(fmt.Sprintf(
			"%d\\. %s \\(%d results\\)\n",
			i+1,
			escapeMarkdownV2(entry.Query),
			entry.ResultCount,
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleSaveCommand(ctx context.Context, chatID int64, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a name for the search, e\\.g\\. `/save wolves`\\.",
			b.returnKeyboard,
		)
	}

	query, ok := b.recallSearch(chatID)
	if !ok {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Run a search first, then save it\\.",
			b.returnKeyboard,
		)
	}

	if err := b.db.SaveSearch(ctx, name, query.tags); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("save search: %w", err))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("✅ Search is saved as %s\\.", escapeMarkdownV2(name)),
		b.returnKeyboard,
	)
}

func (b *Bot) handleSavedCommand(ctx context.Context, chatID int64, args string) error {
	saved, err := b.db.SavedSearches(ctx)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list saved searches: %w", err))
	}

	name := strings.TrimSpace(args)
	if name != "" {
		for _, search := range saved {
			if search.Name == name {
				return b.handleSearchCommand(ctx, chatID, search.Query, 1)
			}
		}

		return b.sendMessageWithKeyboard(
			chatID,
			fmt.Sprintf("✖️ No saved search named %s\\.", escapeMarkdownV2(name)),
			b.returnKeyboard,
		)
	}

	if len(saved) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ No saved searches yet\\. Save one with /save\\.",
			b.returnKeyboard,
		)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("💾 *%d saved searches:*\n\n", len(saved)))

	for i, search := range saved {
		message.WriteString(fmt.Sprintf(
			"%d\\. %s: %s \\[run: /saved %s\\]\n",
			i+1,
			escapeMarkdownV2(search.Name),
			escapeMarkdownV2(search.Query),
			escapeMarkdownV2(search.Name),
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleUnsaveCommand(ctx context.Context, chatID int64, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send the saved search name to delete\\.",
			b.returnKeyboard,
		)
	}

	if err := b.db.DeleteSavedSearch(ctx, name); err != nil {
		return b.replyFailure(chatID, fmt.Errorf("delete saved search: %w", err))
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Saved search is deleted\\.", b.returnKeyboard)
}

func (b *Bot) handleSuggestCommand(ctx context.Context, chatID int64, args string) error {
	input := strings.TrimSpace(args)
	if input == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a partial query, e\\.g\\. `/suggest wolf rati`\\.",
			b.returnKeyboard,
		)
	}

	suggestions := b.suggester.Suggest(input, b.pageSize)
	if len(suggestions) == 0 {
		return b.suggestFromAliases(ctx, chatID, input)
	}

	var message strings.Builder
	message.WriteString("💡 *Suggestions:*\n\n")

	for i, suggestion := range suggestions {
		detail := ""
		if suggestion.Detail != "" {
			detail = fmt.Sprintf(" \\(%s\\)", escapeMarkdownV2(suggestion.Detail))
		}

		message.WriteString(fmt.Sprintf(
			"%d\\. %s%s\n",
			i+1,
			escapeMarkdownV2(suggestion.Completed),
			detail,
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

// suggestFromAliases falls back to the board's alias table when the
// local index has no completion, so renamed tags still resolve.
func (b *Bot) suggestFromAliases(ctx context.Context, chatID int64, input string) error {
	fields := strings.Fields(input)
	term := strings.TrimPrefix(fields[len(fields)-1], "-")

	aliases, err := b.client.TagAliases(ctx, term+"*", b.pageSize)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("search tag aliases: %w", err))
	}

	if len(aliases) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No suggestions\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString("💡 *Alias matches:*\n\n")

	for i, alias := range aliases {
		message.WriteString(fmt.Sprintf(
			"%d\\. %s is an alias of %s\n",
			i+1,
			escapeMarkdownV2(alias.AntecedentName),
			escapeMarkdownV2(alias.ConsequentName),
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleWikiCommand(ctx context.Context, chatID int64, args string) error {
	title := strings.TrimSpace(args)
	if title == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a wiki page title, e\\.g\\. `/wiki wolf`\\.",
			b.returnKeyboard,
		)
	}

	page, err := b.client.GetWikiPage(ctx, title)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("get wiki page: %w", err))
	}

	if page == nil {
		return b.sendMessageWithKeyboard(
			chatID,
			fmt.Sprintf("✖️ No wiki page titled %s\\.", escapeMarkdownV2(title)),
			b.returnKeyboard,
		)
	}

	rendered := fmt.Sprintf(
		"<b>%s</b>\n\n%s",
		html.EscapeString(page.Title),
		b.renderer.Render(page.Body),
	)

	return b.sendHTMLMessage(chatID, rendered, b.returnKeyboard)
}

func (b *Bot) handleVoteCommand(ctx context.Context, chatID int64, args string) error {
	direction, rest, _ := strings.Cut(strings.TrimSpace(args), " ")

	postID, err := parsePostID(rest)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	switch direction {
	case "up":
		err = b.client.VotePostUp(ctx, postID)
	case "down":
		err = b.client.VotePostDown(ctx, postID)
	default:
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Usage: `/vote up <id>` or `/vote down <id>`\\.",
			b.returnKeyboard,
		)
	}

	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("vote %s: %w", direction, err))
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("✅ Voted %s on post \\#%d\\.", direction, postID),
		b.returnKeyboard,
	)
}

func (b *Bot) handlePoolCommand(ctx context.Context, chatID int64, args string) error {
	nameMatch := strings.TrimSpace(args)
	if nameMatch == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a pool name to search, e\\.g\\. `/pool comic`\\.",
			b.returnKeyboard,
		)
	}

	// "/pool 123" looks up the pool directly.
	if poolID, err := parsePostID(nameMatch); err == nil {
		pool, getErr := b.client.GetPool(ctx, poolID)
		if getErr != nil {
			return b.replyFailure(chatID, fmt.Errorf("get pool: %w", getErr))
		}

		return b.sendMessageWithKeyboard(chatID, formatPoolDetail(pool, b.boardURL()), b.returnKeyboard)
	}

	pools, err := b.client.SearchPools(ctx, nameMatch, b.pageSize)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("search pools: %w", err))
	}

	if len(pools) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No pools found\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📚 *%d pools:*\n\n", len(pools)))

	for i, pool := range pools {
		message.WriteString(fmt.Sprintf(
			"%d\\. [%s](%s/pools/%d) \\(%d posts, view: /pool %d\\)\n",
			i+1,
			escapeMarkdownV2(pool.Name),
			b.boardURL(),
			pool.ID,
			pool.PostCount,
			pool.ID,
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleCommentsCommand(ctx context.Context, chatID int64, args string) error {
	postID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	comments, err := b.client.PostComments(ctx, postID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list comments: %w", err))
	}

	if len(comments) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No comments\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("💬 *%d comments on post \\#%d:*\n\n", len(comments), postID))

	for _, comment := range comments {
		if comment.IsHidden {
			continue
		}

		message.WriteString(fmt.Sprintf(
			"*%s* \\(%s\\):\n%s\n\n",
			escapeMarkdownV2(comment.Creator),
			escapeMarkdownV2(fmt.Sprintf("%+d", comment.Score)),
			escapeMarkdownV2(strings.TrimSpace(comment.Body)),
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleUserCommand(ctx context.Context, chatID int64, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a user name, e\\.g\\. `/user somewolf`\\.",
			b.returnKeyboard,
		)
	}

	user, err := b.client.GetUser(ctx, name)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("get user: %w", err))
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf(
		"👤 *%s* \\(%s\\)\n",
		escapeMarkdownV2(user.Name),
		escapeMarkdownV2(user.LevelString),
	))
	message.WriteString(fmt.Sprintf(
		"Uploads: %d, post edits: %d, note edits: %d\n",
		user.PostUploadCount,
		user.PostUpdateCount,
		user.NoteUpdateCount,
	))
	message.WriteString(fmt.Sprintf(
		"Member since %s\n",
		escapeMarkdownV2(user.CreatedAt.Format("2006-01-02")),
	))
	if user.IsBanned {
		message.WriteString("🚫 Banned\n")
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleNotesCommand(ctx context.Context, chatID int64, args string) error {
	postID, err := parsePostID(args)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("parse post ID: %w", err))
	}

	notes, err := b.client.PostNotes(ctx, postID)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("list notes: %w", err))
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📝 *Notes on post \\#%d:*\n\n", postID))

	written := 0
	for _, note := range notes {
		if !note.IsActive {
			continue
		}

		written++
		message.WriteString(fmt.Sprintf(
			"%d\\. %s\n",
			written,
			escapeMarkdownV2(strings.TrimSpace(note.Body)),
		))
	}

	if written == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No notes on that post\\.", b.returnKeyboard)
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleSetsCommand(ctx context.Context, chatID int64, args string) error {
	nameMatch := strings.TrimSpace(args)
	if nameMatch == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Send a set name to search, e\\.g\\. `/sets comic`\\.",
			b.returnKeyboard,
		)
	}

	sets, err := b.client.SearchPostSets(ctx, nameMatch, b.pageSize)
	if err != nil {
		return b.replyFailure(chatID, fmt.Errorf("search post sets: %w", err))
	}

	if len(sets) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No sets found\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🗂 *%d sets:*\n\n", len(sets)))

	for i, set := range sets {
		message.WriteString(fmt.Sprintf(
			"%d\\. [%s](%s/post_sets/%d) \\(%d posts, search: /search set:%s\\)\n",
			i+1,
			escapeMarkdownV2(set.Name),
			b.boardURL(),
			set.ID,
			set.PostCount,
			escapeMarkdownV2(set.Shortname),
		))
	}

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) replyFailure(chatID int64, err error) error {
	errs := []error{err}

	if sendErr := b.sendFailure(chatID); sendErr != nil {
		errs = append(errs, fmt.Errorf("send failure message: %w", sendErr))
	}

	return errors.Join(errs...)
}

func (b *Bot) markSeen(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	if err := b.db.MarkSeen(ctx, ids...); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	if err := b.db.PruneSeen(ctx, b.seenCap); err != nil {
		return fmt.Errorf("prune seen: %w", err)
	}

	return nil
}

func parsePostID(args string) (int64, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(args), "#")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ID %q: %w", args, err)
	}

	if id <= 0 {
		return 0, fmt.Errorf("ID must be positive, got %d", id)
	}

	return id, nil
}
