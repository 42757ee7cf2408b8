package html

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"

	"github.com/milewatcher/internal/config"
	"github.com/milewatcher/internal/fetcher"
	"github.com/milewatcher/internal/models"
	"github.com/milewatcher/internal/scraper"
	"github.com/milewatcher/pkg/logger"
)

// Content extracts article text from a fixed container on a post page
type Content struct {
	container string
	fetcher   *fetcher.Client
	log       *logger.Logger
}

// NewContent creates a content extractor for the given container selector
func NewContent(container string, f *fetcher.Client, log *logger.Logger) *Content {
	return &Content{
		container: container,
		fetcher:   f,
		log:       log,
	}
}

// PostContent fetches a post page and returns the text of the content
// container, block-level separators collapsed to newlines. A missing
// container is not an error: it returns "" and logs a warning.
func (c *Content) PostContent(ctx context.Context, postURL string) (string, error) {
	doc, err := c.fetcher.Document(ctx, postURL)
	if err != nil {
		return "", err
	}

	sel := doc.Find(c.container).First()
	if sel.Length() == 0 {
		c.log.Warn().
			Str("url", postURL).
			Str("selector", c.container).
			Msg("Content container not found on page")
		return "", nil
	}

	return blockText(sel), nil
}

// Scraper lists posts from a listing page and extracts article content,
// driven entirely by configured CSS selectors
type Scraper struct {
	*Content

	name          string
	listURL       string
	origin        string
	listContainer string
	titleSelector string
	fetcher       *fetcher.Client
	log           *logger.Logger
}

// New builds a selector-driven scraper from source configuration
func New(cfg config.SourceConfig, f *fetcher.Client, log *logger.Logger) (*Scraper, error) {
	origin, err := siteOrigin(cfg.ListURL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
	}

	srcLog := log.WithSource(cfg.Name)

	return &Scraper{
		Content:       NewContent(cfg.Selectors.ContentContainer, f, srcLog),
		name:          cfg.Name,
		listURL:       cfg.ListURL,
		origin:        origin,
		listContainer: cfg.Selectors.ListContainer,
		titleSelector: cfg.Selectors.Title,
		fetcher:       f,
		log:           srcLog,
	}, nil
}

// Name returns the source name
func (s *Scraper) Name() string {
	return s.name
}

// ListPosts fetches the listing page and extracts (title, link) pairs.
// An absent list container signals a page-structure mismatch: the result
// is an empty slice, logged at warning level, never a failure.
func (s *Scraper) ListPosts(ctx context.Context) ([]models.PostItem, error) {
	s.log.Debug().Str("url", s.listURL).Msg("Fetching listing page")

	doc, err := s.fetcher.Document(ctx, s.listURL)
	if err != nil {
		return nil, err
	}

	scope := doc.Find(s.listContainer).First()
	if scope.Length() == 0 {
		s.log.Warn().
			Str("selector", s.listContainer).
			Msg("Listing container not found, page structure may have changed")
		return []models.PostItem{}, nil
	}

	items := make([]models.PostItem, 0)
	scope.Find(s.titleSelector).Each(func(_ int, heading *goquery.Selection) {
		link := heading.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" || href == "" {
			return
		}

		items = append(items, models.PostItem{
			Title: title,
			Link:  s.absoluteURL(href),
		})
	})

	s.log.Info().Int("count", len(items)).Msg("Extracted posts from listing page")
	return items, nil
}

// absoluteURL resolves a relative href against the site origin
func (s *Scraper) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return s.origin + href
}

// siteOrigin derives "scheme://host" from the listing URL
func siteOrigin(listURL string) (string, error) {
	parsed, err := url.Parse(listURL)
	if err != nil {
		return "", fmt.Errorf("invalid list url %s: %w", listURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("list url %s must be absolute", listURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// blockText returns all text inside the selection, one trimmed text node
// per line, dropping whitespace-only nodes
func blockText(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, "\n")
}

func collectText(n *xhtml.Node, out *[]string) {
	if n.Type == xhtml.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*out = append(*out, text)
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, out)
	}
}

// Ensure Scraper implements scraper.Scraper
var _ scraper.Scraper = (*Scraper)(nil)
var _ scraper.ContentExtractor = (*Content)(nil)
