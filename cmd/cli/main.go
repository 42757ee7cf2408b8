package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milewatcher/internal/agent/analyzer"
	"github.com/milewatcher/internal/agent/extractor"
	"github.com/milewatcher/internal/ai"
	"github.com/milewatcher/internal/config"
	"github.com/milewatcher/internal/fetcher"
	"github.com/milewatcher/internal/models"
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
	limiter *ratelimit.MultiLimiter
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "milewatcher",
		Short: "Mileage promotion watcher powered by AI",
		Long: `Scrapes travel-deals blogs for new articles and uses Claude to decide
whether each one describes the watched mileage-transfer promotion.`,
		PersistentPreRunE: initializeApp,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if repo != nil {
				return repo.Close()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(postsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	// Initialize storage
	repo, err = sqlite.New(cfg.Database.DSN, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// One limiter instance shared by scrapers and the AI client
	limiter = ratelimit.NewDefaultLimiter()

	return nil
}

// buildRegistry creates scrapers for every configured source
func buildRegistry() (*scraper.Registry, error) {
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
				return nil, err
			}
			registry.Register(sc)
		default:
			return nil, fmt.Errorf("source %s: unknown type %q", src.Name, src.Type)
		}
	}

	return registry, nil
}

// buildAnalyzer wires the classifier and analysis agent
func buildAnalyzer(registry *scraper.Registry, limit int) *analyzer.Agent {
	aiClient := ai.NewClient(cfg.Anthropic, limiter, log)
	classifier := ai.NewClassifier(aiClient, cfg.Classifier.PromoDescription, log)
	return analyzer.NewAgent(registry, classifier, repo, limit, log)
}

func printExtractionResult(result *extractor.Result) {
	fmt.Printf("\n=== Extraction Results ===\n")
	fmt.Printf("Sources Processed: %d\n", result.SourcesProcessed)
	fmt.Printf("Posts Found:       %d\n", result.PostsFound)
	fmt.Printf("Posts Inserted:    %d\n", result.PostsInserted)
	fmt.Printf("Posts Skipped:     %d\n", result.PostsSkipped)
	fmt.Printf("Duration:          %s\n", result.Duration)
	printErrors(result.Errors)
}

func printAnalysisResult(result *analyzer.Result) {
	fmt.Printf("\n=== Analysis Results ===\n")
	fmt.Printf("Posts Analyzed: %d\n", result.PostsAnalyzed)
	fmt.Printf("Relevant:       %d\n", result.Relevant)
	fmt.Printf("Not Relevant:   %d\n", result.NotRelevant)
	fmt.Printf("Failed:         %d\n", result.Failed)
	fmt.Printf("Duration:       %s\n", result.Duration)
	printErrors(result.Errors)
}

func printErrors(errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Printf("\nErrors:\n")
	for _, e := range errs {
		fmt.Printf("  - %s\n", e)
	}
}

// ============ RUN COMMAND ============

func runCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extraction then analysis for all sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()

			registry, err := buildRegistry()
			if err != nil {
				return err
			}

			extractResult, err := extractor.NewAgent(registry, repo, log).Run(ctx)
			if err != nil {
				return err
			}
			printExtractionResult(extractResult)

			analyzeResult, err := buildAnalyzer(registry, limit).Run(ctx)
			if err != nil {
				return err
			}
			printAnalysisResult(analyzeResult)

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum posts to analyze per source (0 = unlimited)")
	return cmd
}

// ============ EXTRACT COMMAND ============

func extractCmd() *cobra.Command {
	var sourceName string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the post extraction phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			registry, err := buildRegistry()
			if err != nil {
				return err
			}

			agent := extractor.NewAgent(registry, repo, log)

			var result *extractor.Result
			if sourceName != "" {
				result, err = agent.RunForSource(ctx, sourceName)
			} else {
				result, err = agent.Run(ctx)
			}
			if err != nil {
				return err
			}

			printExtractionResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "Run extraction for specific source only")
	return cmd
}

// ============ ANALYZE COMMAND ============

func analyzeCmd() *cobra.Command {
	var sourceName string
	var limit int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the content analysis phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()

			registry, err := buildRegistry()
			if err != nil {
				return err
			}

			agent := buildAnalyzer(registry, limit)

			var result *analyzer.Result
			if sourceName != "" {
				result, err = agent.RunForSource(ctx, sourceName)
			} else {
				result, err = agent.Run(ctx)
			}
			if err != nil {
				return err
			}

			printAnalysisResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "Run analysis for specific source only")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum posts to analyze per source (0 = unlimited)")
	return cmd
}

// ============ SOURCES COMMAND ============

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List known sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			sources, err := repo.ListSources(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Sources (%d) ===\n\n", len(sources))
			for _, s := range sources {
				fmt.Printf("[%d] %s (added %s)\n", s.ID, s.Name, s.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}
}

// ============ POSTS COMMAND ============

func postsCmd() *cobra.Command {
	var state string
	var limit int

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List discovered posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.DefaultPostFilter()
			filter.Limit = limit

			if state != "" {
				s := models.PostState(state)
				if !s.Valid() {
					return fmt.Errorf("invalid state %q", state)
				}
				filter.State = &s
			}

			posts, err := repo.ListPosts(ctx, filter)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Posts (%d) ===\n\n", len(posts))
			for _, p := range posts {
				fmt.Printf("[%d] %s | %s\n", p.ID, p.State, p.Title)
				fmt.Printf("    Link: %s\n", p.Link)
				if p.Summary != "" {
					fmt.Printf("    Summary: %s\n", p.Summary)
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state (UNPROCESSED, RELEVANT, NOT_RELEVANT, ERROR)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum posts to show")
	return cmd
}
