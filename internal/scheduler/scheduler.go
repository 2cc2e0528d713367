package scheduler

import (
	"context"
	"log/slog"
	"time"

	"boorugram/internal/following"
	"boorugram/internal/models"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0

	refreshTimeout = 15 * time.Minute
)

// Notifier receives the new followed-tag posts found by a refresh.
type Notifier interface {
	SendNewPosts(ctx context.Context, chatID int64, posts []models.Post) error
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	notifier  Notifier
	refresher *following.Refresher
	spec      string
	log       *slog.Logger
}

func New(
	ctx context.Context,
	notifier Notifier,
	refresher *following.Refresher,
	spec string,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		notifier:  notifier,
		refresher: refresher,
		spec:      spec,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refreshFollowedTags); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshFollowedTags() {
	ctx, cancel := context.WithTimeout(s.ctx, refreshTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	byChat, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to refresh followed tags",
			"error", err,
			"chatsWithPosts", len(byChat))
	}

	if ctx.Err() != nil {
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	}

	for chatID, posts := range byChat {
		if err = s.notifier.SendNewPosts(ctx, chatID, posts); err != nil {
			s.log.ErrorContext(ctx, "Failed to push new posts",
				"error", err,
				"chatID", chatID,
				"postCount", len(posts))
		}
	}
}
