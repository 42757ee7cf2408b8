package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milewatcher/internal/models"
	"github.com/milewatcher/internal/scraper"
	"github.com/milewatcher/internal/storage"
	"github.com/milewatcher/internal/storage/sqlite"
	"github.com/milewatcher/pkg/logger"
)

type fakeScraper struct {
	name    string
	items   []models.PostItem
	listErr error
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) ListPosts(ctx context.Context) ([]models.PostItem, error) {
	return f.items, f.listErr
}

func (f *fakeScraper) PostContent(ctx context.Context, url string) (string, error) {
	return "", nil
}

func newTestRepo(t *testing.T) storage.Repository {
	t.Helper()

	repo, err := sqlite.New(":memory:", logger.Default())
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())

	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRunInsertsNewPostsAndSkipsKnownLinks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// One link is already on record from an earlier run
	source, err := repo.GetOrCreateSource(ctx, "Passageiro de Primeira")
	require.NoError(t, err)
	_, err = repo.InsertPosts(ctx, source.ID, []models.PostItem{
		{Title: "Bônus antigo", Link: "https://example.com/promo-velha/"},
	})
	require.NoError(t, err)

	registry := scraper.NewRegistry()
	registry.Register(&fakeScraper{
		name: "Passageiro de Primeira",
		items: []models.PostItem{
			{Title: "Transferência com 40% de bônus", Link: "https://example.com/promo-um/"},
			{Title: "Bônus de 100% para Smiles", Link: "https://example.com/promo-dois/"},
			{Title: "Bônus antigo", Link: "https://example.com/promo-velha/"},
		},
	})

	agent := NewAgent(registry, repo, logger.Default())

	result, err := agent.Run(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Equal(t, 1, result.SourcesProcessed)
	require.Equal(t, 3, result.PostsFound)
	require.Equal(t, 2, result.PostsInserted)
	require.Equal(t, 1, result.PostsSkipped)

	// Every stored post awaits analysis
	pending, err := repo.PostsPendingAnalysis(ctx, storage.PendingFilter{})
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestRunEmptyListingIsNotAnError(t *testing.T) {
	repo := newTestRepo(t)

	registry := scraper.NewRegistry()
	registry.Register(&fakeScraper{name: "quiet-source"})

	agent := NewAgent(registry, repo, logger.Default())

	result, err := agent.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Equal(t, 1, result.SourcesProcessed)
	require.Zero(t, result.PostsFound)
	require.Zero(t, result.PostsInserted)
}

func TestRunContinuesAfterSourceFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	registry := scraper.NewRegistry()
	registry.Register(&fakeScraper{
		name:    "broken-source",
		listErr: errors.New("listing page unreachable"),
	})
	registry.Register(&fakeScraper{
		name: "healthy-source",
		items: []models.PostItem{
			{Title: "Promoção", Link: "https://example.com/promo/"},
		},
	})

	agent := NewAgent(registry, repo, logger.Default())

	result, err := agent.Run(ctx)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 1, result.SourcesProcessed)
	require.Equal(t, 1, result.PostsInserted)
}

func TestRunForSource(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	registry := scraper.NewRegistry()
	registry.Register(&fakeScraper{
		name: "first",
		items: []models.PostItem{
			{Title: "A", Link: "https://one.example.com/a"},
		},
	})
	registry.Register(&fakeScraper{
		name: "second",
		items: []models.PostItem{
			{Title: "B", Link: "https://two.example.com/b"},
		},
	})

	agent := NewAgent(registry, repo, logger.Default())

	result, err := agent.RunForSource(ctx, "second")
	require.NoError(t, err)
	require.Equal(t, 1, result.SourcesProcessed)
	require.Equal(t, 1, result.PostsInserted)

	sources, err := repo.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "second", sources[0].Name)
}

func TestRunForUnknownSource(t *testing.T) {
	repo := newTestRepo(t)
	agent := NewAgent(scraper.NewRegistry(), repo, logger.Default())

	_, err := agent.RunForSource(context.Background(), "nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), "source not found")
}
