package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/milewatcher/internal/ai"
	"github.com/milewatcher/internal/models"
	"github.com/milewatcher/internal/scraper"
	"github.com/milewatcher/internal/storage"
	"github.com/milewatcher/pkg/logger"
)

// RelevanceClassifier decides whether article text describes the watched
// promotion. Satisfied by *ai.Classifier.
type RelevanceClassifier interface {
	Classify(ctx context.Context, text string) (*ai.Verdict, error)
}

// Agent runs the analysis phase: fetch each unprocessed post's content,
// classify it, and record the resulting lifecycle state
type Agent struct {
	registry   *scraper.Registry
	classifier RelevanceClassifier
	repository storage.Repository
	limit      int
	log        *logger.Logger
}

// NewAgent creates a new analysis agent. limit caps posts per source per
// run; 0 means unlimited.
func NewAgent(
	registry *scraper.Registry,
	classifier RelevanceClassifier,
	repository storage.Repository,
	limit int,
	log *logger.Logger,
) *Agent {
	return &Agent{
		registry:   registry,
		classifier: classifier,
		repository: repository,
		limit:      limit,
		log:        log.WithComponent("analyzer"),
	}
}

// Result contains the results of an analysis run
type Result struct {
	PostsAnalyzed int
	Relevant      int
	NotRelevant   int
	Failed        int
	Errors        []error
	Duration      time.Duration
}

// Run executes the analysis phase for every registered source
func (a *Agent) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	a.log.Info().Msg("Starting content analysis")

	for _, sc := range a.registry.All() {
		a.runForScraper(ctx, sc, result)
	}

	result.Duration = time.Since(startTime)

	a.log.Info().
		Int("analyzed", result.PostsAnalyzed).
		Int("relevant", result.Relevant).
		Int("not_relevant", result.NotRelevant).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Content analysis completed")

	return result, nil
}

// RunForSource executes analysis for a single named source
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
	log.Info().Msg("Starting content analysis for source")

	source, err := a.repository.GetOrCreateSource(ctx, sc.Name())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get or create source, skipping analysis")
		result.Errors = append(result.Errors, fmt.Errorf("source %s: %w", sc.Name(), err))
		return
	}

	pending, err := a.repository.PostsPendingAnalysis(ctx, storage.PendingFilter{
		SourceID: &source.ID,
		Limit:    a.limit,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve pending posts")
		result.Errors = append(result.Errors, fmt.Errorf("pending posts for %s: %w", sc.Name(), err))
		return
	}

	if len(pending) == 0 {
		log.Info().Msg("No posts require content analysis")
		return
	}

	log.Info().Int("pending", len(pending)).Msg("Found posts requiring content analysis")

	// Per-item isolation: one post's failure never aborts the batch
	for _, post := range pending {
		state, summary := a.analyzePost(ctx, sc, post, log.WithPostID(post.ID))

		if err := a.repository.SetPostState(ctx, post.ID, state, summary); err != nil {
			log.Error().Err(err).Uint("post_id", post.ID).Msg("Failed to persist post state")
			result.Errors = append(result.Errors, fmt.Errorf("post %d: %w", post.ID, err))
			continue
		}

		result.PostsAnalyzed++
		switch state {
		case models.PostStateRelevant:
			result.Relevant++
		case models.PostStateNotRelevant:
			result.NotRelevant++
		case models.PostStateError:
			result.Failed++
		}
	}

	log.Info().Msg("Finished content analysis for source")
}

// analyzePost fetches a post's content and classifies it, mapping failures
// to the ERROR state so they stay distinguishable from a confirmed negative
func (a *Agent) analyzePost(ctx context.Context, sc scraper.Scraper, post *models.Post, log *logger.Logger) (models.PostState, string) {
	content, err := sc.PostContent(ctx, post.Link)
	if err != nil {
		log.Error().Err(err).Str("link", post.Link).Msg("Failed to fetch post content")
		return models.PostStateError, fmt.Sprintf("content fetch failed: %v", err)
	}

	// Empty content is a valid outcome: nothing to classify
	if content == "" {
		log.Warn().Str("link", post.Link).Msg("No content extracted, marking not relevant")
		return models.PostStateNotRelevant, "N/A"
	}

	verdict, err := a.classifier.Classify(ctx, content)
	if err != nil {
		log.Error().Err(err).Msg("Classification failed")
		return models.PostStateError, fmt.Sprintf("classification failed: %v", err)
	}

	if verdict.Relevant {
		log.Info().Str("summary", verdict.Summary).Msg("Post describes the watched promotion")
		return models.PostStateRelevant, verdict.Summary
	}

	return models.PostStateNotRelevant, verdict.Summary
}
