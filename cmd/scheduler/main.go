package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/milewatcher/internal/agent/analyzer"
	"github.com/milewatcher/internal/agent/extractor"
	"github.com/milewatcher/internal/ai"
	"github.com/milewatcher/internal/config"
	"github.com/milewatcher/internal/fetcher"
	"github.com/milewatcher/internal/scraper"
	"github.com/milewatcher/internal/scraper/html"
	"github.com/milewatcher/internal/scraper/rss"
	"github.com/milewatcher/internal/storage"
	"github.com/milewatcher/internal/storage/sqlite"
	"github.com/milewatcher/pkg/logger"
	"github.com/milewatcher/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "milewatcher-scheduler",
		Short: "Background scheduler for the mileage promotion watcher",
		Long: `Runs the extraction and analysis phases on a cron cadence.
This daemon should be run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting MileWatcher Scheduler")

	// Initialize storage
	repo, err = sqlite.New(cfg.Database.DSN, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Start health check server
	go startHealthServer(cfg.Scheduler.HealthAddr)

	// Initialize rate limiter
	limiter := ratelimit.NewDefaultLimiter()

	// Initialize AI client and classifier
	aiClient := ai.NewClient(cfg.Anthropic, limiter, log)
	classifier := ai.NewClassifier(aiClient, cfg.Classifier.PromoDescription, log)

	// Build scrapers from configuration
	f := fetcher.New(cfg.Fetcher.TimeoutDuration(), cfg.Fetcher.UserAgent, limiter, log)
	registry := scraper.NewRegistry()
	for _, src := range cfg.Sources {
		switch src.Type {
		case "rss":
			content := html.NewContent(src.Selectors.ContentContainer, f, log.WithSource(src.Name))
			registry.Register(scraper.Combine(rss.New(src, log), content))
		case "html", "":
			sc, err := html.New(src, f, log)
			if err != nil {
				return err
			}
			registry.Register(sc)
		default:
			return fmt.Errorf("source %s: unknown type %q", src.Name, src.Type)
		}
	}

	// Create agents
	extractorAgent := extractor.NewAgent(registry, repo, log)
	analyzerAgent := analyzer.NewAgent(registry, classifier, repo, cfg.Analysis.Limit, log)

	// Create cron scheduler
	c := cron.New(cron.WithLogger(cronLogger{log}))

	// Schedule the watch job: extraction then analysis, strictly sequential
	_, err = c.AddFunc(cfg.Scheduler.WatchCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled watch")

		extractResult, err := extractorAgent.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled extraction failed")
			return
		}

		analyzeResult, err := analyzerAgent.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled analysis failed")
			return
		}

		log.Info().
			Int("posts_found", extractResult.PostsFound).
			Int("posts_inserted", extractResult.PostsInserted).
			Int("posts_analyzed", analyzeResult.PostsAnalyzed).
			Int("relevant", analyzeResult.Relevant).
			Msg("Scheduled watch completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule watch job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.WatchCron).Msg("Watch job scheduled")

	// Start scheduler
	c.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	return nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// startHealthServer starts a simple HTTP server for liveness checks
func startHealthServer(addr string) {
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("MileWatcher Scheduler"))
	})

	log.Info().Str("addr", addr).Msg("Health check server starting")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
