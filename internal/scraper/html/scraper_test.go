package html

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milewatcher/internal/config"
	"github.com/milewatcher/internal/fetcher"
	"github.com/milewatcher/pkg/logger"
	"github.com/milewatcher/pkg/ratelimit"
)

const listingPage = `
<html><body>
  <div data-term="promocoes">
    <h1 class="article--title"><a href="/promo-um/">Transferência com 40% de bônus</a></h1>
    <h1 class="article--title"><a href="https://other.example.com/promo-dois/">Bônus de 100% para Smiles</a></h1>
    <h1 class="article--title"><a href="/promo-vazio/">   </a></h1>
    <h1 class="article--title"><span>no link here</span></h1>
  </div>
  <h1 class="article--title"><a href="/fora-da-secao/">Outside the container</a></h1>
</body></html>`

const articlePage = `
<html><body>
  <article class="single-content">
    <p>Primeiro parágrafo da promoção.</p>
    <p>Bônus de <strong>40%</strong> até 12/06.</p>
  </article>
</body></html>`

func testConfig(listURL string) config.SourceConfig {
	return config.SourceConfig{
		Name:    "Passageiro de Primeira",
		Type:    "html",
		ListURL: listURL,
		Selectors: config.SelectorsConfig{
			ListContainer:    `div[data-term="promocoes"]`,
			Title:            "h1.article--title",
			ContentContainer: "article.single-content",
		},
	}
}

func newTestScraper(t *testing.T, handler http.Handler) (*Scraper, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.Default()
	f := fetcher.New(5*time.Second, "milewatcher-test", ratelimit.NewDefaultLimiter(), log)

	sc, err := New(testConfig(server.URL+"/categorias/promocoes/"), f, log)
	require.NoError(t, err)
	return sc, server
}

func TestListPosts(t *testing.T) {
	sc, server := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))

	items, err := sc.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Relative links are resolved against the site origin
	require.Equal(t, "Transferência com 40% de bônus", items[0].Title)
	require.Equal(t, server.URL+"/promo-um/", items[0].Link)

	// Absolute links pass through untouched
	require.Equal(t, "https://other.example.com/promo-dois/", items[1].Link)
}

func TestListPostsMissingContainerReturnsEmpty(t *testing.T) {
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>layout changed</p></body></html>`))
	}))

	items, err := sc.ListPosts(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestListPostsHTTPErrorIsFailure(t *testing.T) {
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := sc.ListPosts(context.Background())
	require.Error(t, err)
}

func TestPostContent(t *testing.T) {
	sc, server := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/promo-um/" {
			_, _ = w.Write([]byte(articlePage))
			return
		}
		_, _ = w.Write([]byte(listingPage))
	}))

	content, err := sc.PostContent(context.Background(), server.URL+"/promo-um/")
	require.NoError(t, err)
	require.Equal(t, "Primeiro parágrafo da promoção.\nBônus de\n40%\naté 12/06.", content)
}

func TestPostContentMissingContainerReturnsEmpty(t *testing.T) {
	sc, server := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="other">nope</div></body></html>`))
	}))

	content, err := sc.PostContent(context.Background(), server.URL+"/promo-um/")
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestNewRejectsRelativeListURL(t *testing.T) {
	log := logger.Default()
	f := fetcher.New(time.Second, "milewatcher-test", ratelimit.NewDefaultLimiter(), log)

	_, err := New(testConfig("/categorias/promocoes/"), f, log)
	require.Error(t, err)
}
