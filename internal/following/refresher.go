package following

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"boorugram/internal/database"
	"boorugram/internal/models"
)

const refreshMaxConcurrencyGrowthFactor = 4

// PostSearcher is the slice of the API client the refresher needs.
type PostSearcher interface {
	SearchPosts(ctx context.Context, tags string, limit int, page int) ([]models.Post, error)
}

// Refresher re-fetches every followed tag, diffs the newest page against
// the locally cached post IDs and records what is new.
type Refresher struct {
	db        *database.Database
	searcher  PostSearcher
	pageLimit int
	log       *slog.Logger
}

type chatPosts struct {
	chatID int64
	posts  []models.Post
}

func NewRefresher(
	db *database.Database,
	searcher PostSearcher,
	pageLimit int,
	log *slog.Logger,
) *Refresher {
	return &Refresher{
		db:        db,
		searcher:  searcher,
		pageLimit: pageLimit,
		log:       log,
	}
}

// RefreshAll updates every followed tag and returns the new posts per
// chat. Per-tag failures are joined, never fatal.
func (r *Refresher) RefreshAll(ctx context.Context) (map[int64][]models.Post, error) {
	tags, err := r.db.AllFollowedTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list followed tags: %w", err)
	}

	return r.refreshTags(ctx, tags)
}

// RefreshChat updates only one chat's followed tags.
func (r *Refresher) RefreshChat(ctx context.Context, chatID int64) ([]models.Post, error) {
	tags, err := r.db.ListFollowedTags(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list followed tags: %w", err)
	}

	byChat, err := r.refreshTags(ctx, tags)

	return byChat[chatID], err
}

func (r *Refresher) refreshTags(
	ctx context.Context,
	tags []models.FollowedTag,
) (map[int64][]models.Post, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	var writeWg sync.WaitGroup

	concurrency := min(runtime.NumCPU()*refreshMaxConcurrencyGrowthFactor, len(tags))
	semCh := make(chan struct{}, concurrency)

	// Both channels hold one slot per tag: the consumer only starts
	// after the spawn loop, so a smaller buffer would block producers
	// while they still hold a semaphore slot.
	postCh := make(chan chatPosts, len(tags))
	errCh := make(chan error, len(tags))

	for _, tag := range tags {
		writeWg.Add(1)
		semCh <- struct{}{}

		go func(followed models.FollowedTag) {
			defer writeWg.Done()

			newPosts, err := r.refreshTag(ctx, &followed)
			if err != nil {
				errCh <- fmt.Errorf("refresh tag %q: %w", followed.Tag, err)
			}

			if len(newPosts) != 0 {
				postCh <- chatPosts{chatID: followed.ChatID, posts: newPosts}
			}

			<-semCh
		}(tag)
	}

	go func() {
		writeWg.Wait()
		close(semCh)
		close(postCh)
		close(errCh)
	}()

	byChat := make(map[int64][]models.Post)
	for cp := range postCh {
		byChat[cp.chatID] = append(byChat[cp.chatID], cp.posts...)
	}

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	return byChat, errors.Join(errs...)
}

// refreshTag fetches the newest page for one followed tag and returns
// the posts not seen in any earlier refresh. The first refresh after a
// follow only primes the cache, so an old tag does not flood the chat
// with its entire history.
func (r *Refresher) refreshTag(
	ctx context.Context,
	followed *models.FollowedTag,
) ([]models.Post, error) {
	posts, err := r.searcher.SearchPosts(ctx, followed.Tag, r.pageLimit, 1)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	known, err := r.db.KnownFollowedPostIDs(ctx, followed.ID)
	if err != nil {
		return nil, fmt.Errorf("load known post IDs: %w", err)
	}

	var (
		newPosts []models.Post
		newIDs   []int64
	)

	for _, post := range posts {
		if _, ok := known[post.ID]; ok {
			continue
		}

		newPosts = append(newPosts, post)
		newIDs = append(newIDs, post.ID)
	}

	priming := followed.LastCheckedAt == nil

	if err = r.db.AddFollowedPosts(ctx, followed.ID, newIDs); err != nil {
		return nil, fmt.Errorf("store followed posts: %w", err)
	}

	unseenDelta := int64(len(newIDs))
	if priming {
		unseenDelta = 0
	}

	if err = r.db.TouchFollowedTag(ctx, followed.ID, unseenDelta); err != nil {
		return nil, fmt.Errorf("stamp followed tag: %w", err)
	}

	if priming {
		r.log.InfoContext(ctx, "Primed followed tag",
			"tag", followed.Tag,
			"chatID", followed.ChatID,
			"cachedPosts", len(newIDs))

		return nil, nil
	}

	return newPosts, nil
}
