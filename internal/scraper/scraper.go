package scraper

import (
	"context"

	"github.com/milewatcher/internal/models"
)

// PostLister discovers (title, link) pairs from a source's listing surface
type PostLister interface {
	// Name returns the unique name of this source
	Name() string

	// ListPosts retrieves the posts currently visible on the source
	ListPosts(ctx context.Context) ([]models.PostItem, error)
}

// ContentExtractor pulls the full article text from a single post URL
type ContentExtractor interface {
	// PostContent returns the article body text, or "" when the expected
	// container is absent (a valid "nothing to classify" outcome)
	PostContent(ctx context.Context, url string) (string, error)
}

// Scraper combines both capabilities for one monitored source
type Scraper interface {
	PostLister
	ContentExtractor
}

// Combine builds a Scraper from independent listing and content parts,
// e.g. an RSS lister paired with an HTML content extractor.
func Combine(lister PostLister, content ContentExtractor) Scraper {
	return combined{PostLister: lister, ContentExtractor: content}
}

type combined struct {
	PostLister
	ContentExtractor
}

// Registry holds the scrapers built from configuration
type Registry struct {
	scrapers []Scraper
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		scrapers: make([]Scraper, 0),
	}
}

// Register adds a scraper to the registry
func (r *Registry) Register(s Scraper) {
	r.scrapers = append(r.scrapers, s)
}

// All returns the registered scrapers in registration order
func (r *Registry) All() []Scraper {
	return r.scrapers
}

// ByName returns the scraper with the given source name, or nil
func (r *Registry) ByName(name string) Scraper {
	for _, s := range r.scrapers {
		if s.Name() == name {
			return s
		}
	}
	return nil
}
