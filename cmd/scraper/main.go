package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"studyquest-server/internal/app"
	"studyquest-server/internal/config"
	"studyquest-server/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile    string
	postLimit  int
	subreddits []string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collect university subreddit posts and rebuild theme keywords",
		Long: "Fetches hot posts from university subreddits, classifies their sentiment with the\n" +
			"configured language model and writes theme_keywords.json and university_posts.json.",
		SilenceUsage: true,
		RunE:         runScrape,
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to an optional .env file")
	cmd.Flags().IntVar(&postLimit, "limit", 0, "hot posts per subreddit (default REDDIT_POST_LIMIT)")
	cmd.Flags().StringSliceVar(&subreddits, "subreddits", nil, "subreddits to scrape (default REDDIT_SUBREDDITS)")
	return cmd
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, Env: cfg.Env, Service: "studyquest-scraper"})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := app.SetupRedis(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := app.NewThemeStore(cfg, redisClient, zapLogger)
	if err != nil {
		return err
	}
	s, err := app.NewScraper(cfg, store, subreddits, postLimit, zapLogger)
	if err != nil {
		return err
	}

	res, err := s.Refresh(ctx)
	if err != nil {
		zapLogger.Error("Scrape failed", zap.Error(err))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message())
	for _, sub := range res.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "r/%s: failed, skipped\n", sub)
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
