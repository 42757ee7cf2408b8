package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/milewatcher/internal/scraper"
	"github.com/milewatcher/internal/storage"
	"github.com/milewatcher/pkg/logger"
)

// Agent runs the extraction phase: for each configured source, fetch the
// listing page and persist newly discovered posts
type Agent struct {
	registry   *scraper.Registry
	repository storage.Repository
	log        *logger.Logger
}

// NewAgent creates a new extraction agent
func NewAgent(registry *scraper.Registry, repository storage.Repository, log *logger.Logger) *Agent {
	return &Agent{
		registry:   registry,
		repository: repository,
		log:        log.WithComponent("extractor"),
	}
}

// Result contains the results of an extraction run
type Result struct {
	SourcesProcessed int
	PostsFound       int
	PostsInserted    int
	PostsSkipped     int
	Errors           []error
	Duration         time.Duration
}

// Run executes the extraction phase for every registered source. A failure
// on one source is recorded and the run continues with the next.
func (a *Agent) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	a.log.Info().Int("sources", len(a.registry.All())).Msg("Starting post extraction")

	for _, sc := range a.registry.All() {
		a.runForScraper(ctx, sc, result)
	}

	result.Duration = time.Since(startTime)

	a.log.Info().
		Int("sources_processed", result.SourcesProcessed).
		Int("posts_found", result.PostsFound).
		Int("posts_inserted", result.PostsInserted).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("Post extraction completed")

	return result, nil
}

// RunForSource executes extraction for a single named source
func (a *Agent) RunForSource(ctx context.Context, sourceName string) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	sc := a.registry.ByName(sourceName)
	if sc == nil {
		return nil, fmt.Errorf("source not found: %s", sourceName)
	}

	a.runForScraper(ctx, sc, result)
	result.Duration = time.Since(startTime)
	return result, nil
}

func (a *Agent) runForScraper(ctx context.Context, sc scraper.Scraper, result *Result) {
	log := a.log.WithSource(sc.Name())
	log.Info().Msg("Starting post extraction for source")

	// A storage failure here is fatal for this source's run only
	source, err := a.repository.GetOrCreateSource(ctx, sc.Name())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get or create source")
		result.Errors = append(result.Errors, fmt.Errorf("source %s: %w", sc.Name(), err))
		return
	}

	items, err := sc.ListPosts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list posts")
		result.Errors = append(result.Errors, fmt.Errorf("list posts for %s: %w", sc.Name(), err))
		return
	}

	result.SourcesProcessed++
	result.PostsFound += len(items)

	if len(items) == 0 {
		log.Warn().Msg("No posts found on listing page")
		return
	}

	inserted, err := a.repository.InsertPosts(ctx, source.ID, items)
	if err != nil {
		log.Error().Err(err).Msg("Failed to insert posts")
		result.Errors = append(result.Errors, fmt.Errorf("insert posts for %s: %w", sc.Name(), err))
		return
	}

	result.PostsInserted += inserted
	result.PostsSkipped += len(items) - inserted

	log.Info().
		Int("found", len(items)).
		Int("inserted", inserted).
		Msg("Finished post extraction for source")
}
