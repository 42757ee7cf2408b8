package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/milewatcher/internal/config"
	"github.com/milewatcher/internal/models"
	"github.com/milewatcher/internal/scraper"
	"github.com/milewatcher/pkg/logger"
)

// Lister implements scraper.PostLister for sources that expose a feed.
// It pairs with an HTML content extractor for the article bodies.
type Lister struct {
	name    string
	feedURL string
	maxAge  time.Duration
	parser  *gofeed.Parser
	log     *logger.Logger
}

// New creates an RSS lister from source configuration
func New(cfg config.SourceConfig, log *logger.Logger) *Lister {
	return &Lister{
		name:    cfg.Name,
		feedURL: cfg.FeedURL,
		maxAge:  cfg.MaxAgeDuration(),
		parser:  gofeed.NewParser(),
		log:     log.WithSource(cfg.Name),
	}
}

// Name returns the source name
func (l *Lister) Name() string {
	return l.name
}

// ListPosts retrieves (title, link) pairs from the feed, skipping items
// older than the configured cutoff
func (l *Lister) ListPosts(ctx context.Context) ([]models.PostItem, error) {
	l.log.Debug().Str("url", l.feedURL).Msg("Fetching RSS feed")

	feed, err := l.parser.ParseURLWithContext(l.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", l.name, err)
	}

	items := make([]models.PostItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.PublishedParsed != nil && time.Since(*item.PublishedParsed) > l.maxAge {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" || item.Link == "" {
			continue
		}

		items = append(items, models.PostItem{
			Title: title,
			Link:  item.Link,
		})
	}

	l.log.Info().Int("count", len(items)).Msg("Fetched RSS items")
	return items, nil
}

// Ensure Lister implements scraper.PostLister
var _ scraper.PostLister = (*Lister)(nil)
