package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milewatcher/internal/config"
	"github.com/milewatcher/pkg/logger"
)

func TestListPosts(t *testing.T) {
	fresh := time.Now().Add(-2 * time.Hour).Format(time.RFC1123Z)
	stale := time.Now().Add(-30 * 24 * time.Hour).Format(time.RFC1123Z)

	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Promoções</title>
    <item>
      <title>  Bônus de 40%% para Latam Pass  </title>
      <link>https://example.com/promo-um/</link>
      <pubDate>%s</pubDate>
    </item>
    <item>
      <title>Promoção antiga</title>
      <link>https://example.com/promo-velha/</link>
      <pubDate>%s</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://example.com/sem-titulo/</link>
      <pubDate>%s</pubDate>
    </item>
  </channel>
</rss>`, fresh, stale, fresh)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer server.Close()

	lister := New(config.SourceConfig{
		Name:    "feed-source",
		Type:    "rss",
		FeedURL: server.URL,
		MaxAge:  "168h",
	}, logger.Default())

	items, err := lister.ListPosts(context.Background())
	require.NoError(t, err)

	// Stale and untitled items are dropped, titles are trimmed
	require.Len(t, items, 1)
	require.Equal(t, "Bônus de 40% para Latam Pass", items[0].Title)
	require.Equal(t, "https://example.com/promo-um/", items[0].Link)
}

func TestListPostsUnreachableFeedIsError(t *testing.T) {
	lister := New(config.SourceConfig{
		Name:    "feed-source",
		FeedURL: "http://127.0.0.1:1/feed.xml",
	}, logger.Default())

	_, err := lister.ListPosts(context.Background())
	require.Error(t, err)
}
