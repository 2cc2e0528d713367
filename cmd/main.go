package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boorugram/internal/api"
	"boorugram/internal/bot"
	"boorugram/internal/config"
	"boorugram/internal/database"
	"boorugram/internal/downloader"
	"boorugram/internal/following"
	"boorugram/internal/scheduler"
	"boorugram/internal/sources"
	"boorugram/internal/suggest"
)

const (
	// One page per followed tag per refresh keeps the scheduler well
	// under the board rate limit even with many followed tags.
	followRefreshPageLimit = 100

	suggestSeedTimeout = 2 * time.Minute
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	client := api.New(
		cfg.BoardURL,
		cfg.Username,
		cfg.APIKey,
		cfg.UserAgent,
		cfg.RequestsPerSecond,
		log,
	)
	log.InfoContext(ctx, "Board client is initialized",
		"boardURL", client.BaseURL(),
		"authenticated", client.Authenticated())

	downloads := downloader.New(db, cfg.DownloadDir, cfg.UserAgent, log)

	// Resume whatever was left pending in the queue before the last
	// shutdown.
	downloads.Start()
	log.InfoContext(ctx, "Download worker is armed",
		"downloadDir", cfg.DownloadDir)

	suggester := suggest.NewIndex(cfg.SuggestIndexSize)
	go seedSuggestIndex(ctx, client, suggester, cfg.SuggestIndexSize, log)

	refresher := following.NewRefresher(db, client, followRefreshPageLimit, log)
	resolver := sources.NewResolver(cfg.UserAgent)

	botInst, err := bot.New(
		cfg.Token,
		bot.Deps{
			DB:        db,
			Client:    client,
			Downloads: downloads,
			Refresher: refresher,
			Suggester: suggester,
			Resolver:  resolver,
		},
		cfg.AllowedUsers,
		cfg.SearchPageSize,
		int64(cfg.SeenPostsCap),
		log,
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, botInst, refresher, cfg.RefreshSpec, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.RefreshSpec)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.RefreshSpec,
		"timezone", scheduler.Timezone)

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())
}

// seedSuggestIndex fills the tag completion index from the board's
// most-used tags. Suggestions degrade to operators-only until it lands.
func seedSuggestIndex(
	ctx context.Context,
	client *api.Client,
	suggester *suggest.Index,
	size int,
	log *slog.Logger,
) {
	seedCtx, cancel := context.WithTimeout(ctx, suggestSeedTimeout)
	defer cancel()

	tags, err := client.SearchTags(seedCtx, "", size)
	if err != nil {
		log.ErrorContext(seedCtx, "Failed to seed suggestion index",
			"error", err,
			"size", size)

		return
	}

	suggester.Load(tags)
	log.InfoContext(seedCtx, "Suggestion index is seeded",
		"tagCount", suggester.Len())
}
