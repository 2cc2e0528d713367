package database

import (
	"context"
	"log/slog"
	"testing"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), ":memory:", slog.Default())
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return db
}

func TestFavoritesRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.UpsertFavorite(ctx, 101); err != nil {
		t.Fatalf("failed to add favorite: %v", err)
	}

	// A duplicate insert must be a no-op, not an error.
	if err := db.UpsertFavorite(ctx, 101); err != nil {
		t.Fatalf("failed to re-add favorite: %v", err)
	}

	ok, err := db.IsFavorite(ctx, 101)
	if err != nil {
		t.Fatalf("failed to check favorite: %v", err)
	}
	if !ok {
		t.Fatalf("expected post 101 to be a favorite")
	}

	favorites, err := db.ListFavorites(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list favorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].PostID != 101 {
		t.Fatalf("unexpected favorites: %+v", favorites)
	}

	if err = db.RemoveFavorite(ctx, 101); err != nil {
		t.Fatalf("failed to remove favorite: %v", err)
	}

	ok, err = db.IsFavorite(ctx, 101)
	if err != nil {
		t.Fatalf("failed to check favorite: %v", err)
	}
	if ok {
		t.Fatalf("expected post 101 to no longer be a favorite")
	}
}

func TestDownloadQueueProcessesInInsertionOrder(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	first, err := db.EnqueueDownload(ctx, 1, "https://static.example/a.png", "a.png")
	if err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}

	second, err := db.EnqueueDownload(ctx, 2, "https://static.example/b.png", "b.png")
	if err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}

	next, err := db.NextPendingDownload(ctx)
	if err != nil {
		t.Fatalf("failed to claim pending download: %v", err)
	}
	if next == nil || next.ID != first {
		t.Fatalf("expected oldest row %d first, got %+v", first, next)
	}

	if err = db.CompleteDownload(ctx, next.ID); err != nil {
		t.Fatalf("failed to complete download: %v", err)
	}

	next, err = db.NextPendingDownload(ctx)
	if err != nil {
		t.Fatalf("failed to claim pending download: %v", err)
	}
	if next == nil || next.ID != second {
		t.Fatalf("expected row %d second, got %+v", second, next)
	}

	if err = db.CompleteDownload(ctx, next.ID); err != nil {
		t.Fatalf("failed to complete download: %v", err)
	}

	next, err = db.NextPendingDownload(ctx)
	if err != nil {
		t.Fatalf("failed to claim pending download: %v", err)
	}
	if next != nil {
		t.Fatalf("expected drained queue, got %+v", next)
	}
}

func TestFailedDownloadStaysUntilRequeued(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	failed, err := db.EnqueueDownload(ctx, 1, "https://static.example/a.png", "a.png")
	if err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}

	if err = db.FailDownload(ctx, failed, "connection reset"); err != nil {
		t.Fatalf("failed to record error: %v", err)
	}

	// A failed row must not be claimed again without a manual retry.
	next, err := db.NextPendingDownload(ctx)
	if err != nil {
		t.Fatalf("failed to claim pending download: %v", err)
	}
	if next != nil {
		t.Fatalf("expected failed row to stay out of the queue, got %+v", next)
	}

	later, err := db.EnqueueDownload(ctx, 2, "https://static.example/b.png", "b.png")
	if err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}

	requeued, err := db.RequeueDownload(ctx, failed)
	if err != nil {
		t.Fatalf("failed to requeue download: %v", err)
	}
	if requeued <= later {
		t.Fatalf("expected requeued row %d to land behind %d", requeued, later)
	}

	next, err = db.NextPendingDownload(ctx)
	if err != nil {
		t.Fatalf("failed to claim pending download: %v", err)
	}
	if next == nil || next.ID != later {
		t.Fatalf("expected newer row %d before the retried one, got %+v", later, next)
	}

	downloads, err := db.ListDownloads(ctx)
	if err != nil {
		t.Fatalf("failed to list downloads: %v", err)
	}
	if len(downloads) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(downloads))
	}
	for _, dl := range downloads {
		if !dl.Pending() {
			t.Fatalf("expected all rows pending after requeue, got %+v", dl)
		}
	}
}

func TestSeenPostsPruneOldestFirst(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.MarkSeen(ctx, 1, 2, 3, 4, 5); err != nil {
		t.Fatalf("failed to mark seen: %v", err)
	}

	if err := db.MarkSeen(ctx, 3); err != nil {
		t.Fatalf("failed to re-mark seen: %v", err)
	}

	if err := db.PruneSeen(ctx, 3); err != nil {
		t.Fatalf("failed to prune: %v", err)
	}

	count, err := db.SeenCount(ctx)
	if err != nil {
		t.Fatalf("failed to count seen posts: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 seen posts after prune, got %d", count)
	}

	seen, err := db.IsSeen(ctx, 5)
	if err != nil {
		t.Fatalf("failed to check seen: %v", err)
	}
	if !seen {
		t.Fatalf("expected newest post 5 to survive prune")
	}
}

func TestFollowedTagLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	const chatID = int64(42)

	if err := db.FollowTag(ctx, chatID, " Canine "); err != nil {
		t.Fatalf("failed to follow tag: %v", err)
	}
	if err := db.FollowTag(ctx, chatID, "canine"); err != nil {
		t.Fatalf("failed to re-follow tag: %v", err)
	}

	tags, err := db.ListFollowedTags(ctx, chatID)
	if err != nil {
		t.Fatalf("failed to list followed tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Tag != "canine" {
		t.Fatalf("unexpected followed tags: %+v", tags)
	}
	if tags[0].LastCheckedAt != nil {
		t.Fatalf("expected no refresh stamp yet")
	}

	followed := tags[0]

	if err = db.AddFollowedPosts(ctx, followed.ID, []int64{10, 11, 12}); err != nil {
		t.Fatalf("failed to add followed posts: %v", err)
	}
	if err = db.TouchFollowedTag(ctx, followed.ID, 3); err != nil {
		t.Fatalf("failed to touch followed tag: %v", err)
	}

	known, err := db.KnownFollowedPostIDs(ctx, followed.ID)
	if err != nil {
		t.Fatalf("failed to fetch known post IDs: %v", err)
	}
	if len(known) != 3 {
		t.Fatalf("expected 3 known posts, got %d", len(known))
	}

	tags, err = db.ListFollowedTags(ctx, chatID)
	if err != nil {
		t.Fatalf("failed to list followed tags: %v", err)
	}
	if tags[0].UnseenCount != 3 {
		t.Fatalf("expected unseen count 3, got %d", tags[0].UnseenCount)
	}
	if tags[0].LastCheckedAt == nil {
		t.Fatalf("expected refresh stamp after touch")
	}

	if err = db.ResetUnseen(ctx, followed.ID); err != nil {
		t.Fatalf("failed to reset unseen: %v", err)
	}

	if err = db.UnfollowTag(ctx, followed.ID); err != nil {
		t.Fatalf("failed to unfollow: %v", err)
	}

	// Cascade must clear the cached post IDs with the tag.
	known, err = db.KnownFollowedPostIDs(ctx, followed.ID)
	if err != nil {
		t.Fatalf("failed to fetch known post IDs: %v", err)
	}
	if len(known) != 0 {
		t.Fatalf("expected cascade to clear cached posts, got %d", len(known))
	}
}

func TestSavedSearchUpsertByName(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.SaveSearch(ctx, "wolves", "canine order:score"); err != nil {
		t.Fatalf("failed to save search: %v", err)
	}
	if err := db.SaveSearch(ctx, "wolves", "wolf order:favcount"); err != nil {
		t.Fatalf("failed to overwrite search: %v", err)
	}

	searches, err := db.SavedSearches(ctx)
	if err != nil {
		t.Fatalf("failed to list saved searches: %v", err)
	}
	if len(searches) != 1 {
		t.Fatalf("expected 1 saved search, got %d", len(searches))
	}
	if searches[0].Query != "wolf order:favcount" {
		t.Fatalf("expected last writer to win, got %q", searches[0].Query)
	}
}

func TestSearchHistoryRecentFirst(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for _, q := range []string{"canine", "feline", "avian"} {
		if err := db.RecordSearch(ctx, q, 5); err != nil {
			t.Fatalf("failed to record search %q: %v", q, err)
		}
	}

	entries, err := db.RecentSearches(ctx, 2)
	if err != nil {
		t.Fatalf("failed to fetch recent searches: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Query != "avian" || entries[1].Query != "feline" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	if err = db.ClearSearchHistory(ctx); err != nil {
		t.Fatalf("failed to clear history: %v", err)
	}

	entries, err = db.RecentSearches(ctx, 10)
	if err != nil {
		t.Fatalf("failed to fetch recent searches: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %+v", entries)
	}
}
