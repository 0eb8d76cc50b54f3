package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const techFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Tech</title>
  <link>https://tech.example.com</link>
  <item>
    <title>Older story</title>
    <link>/stories/older</link>
    <description>&lt;p&gt;Old &lt;b&gt;news&lt;/b&gt;&lt;/p&gt;</description>
    <pubDate>Mon, 12 Oct 2026 08:00:00 GMT</pubDate>
    <category>Hardware</category>
  </item>
  <item>
    <title>Newest story</title>
    <link>https://tech.example.com/stories/newest</link>
    <description>Fresh</description>
    <pubDate>Sun, 18 Oct 2026 08:00:00 GMT</pubDate>
    <author>jane@example.com (Jane)</author>
    <media:thumbnail url="https://img.example.com/newest.png"/>
  </item>
  <item>
    <title>Beyond the per feed cap</title>
    <link>https://tech.example.com/stories/capped</link>
    <pubDate>Sat, 17 Oct 2026 08:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

const scienceFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Science</title>
  <item>
    <title>Middle story</title>
    <link>https://science.example.com/middle</link>
    <pubDate>Wed, 14 Oct 2026 08:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

const sitelessFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Siteless</title>
  <item>
    <title>Relative story</title>
    <link>/posts/relative</link>
    <pubDate>Thu, 15 Oct 2026 08:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/tech.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(techFeed))
	})
	mux.HandleFunc("/science.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scienceFeed))
	})
	mux.HandleFunc("/feeds/siteless.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sitelessFeed))
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(config *Config) *Fetcher {
	logger := zerolog.Nop()
	client := lib.NewHTTPClient(&lib.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test"}, &logger)
	return NewFetcher(config, client, &logger)
}

func TestFetcher_MergesFeedsNewestFirst(t *testing.T) {
	server := newTestServer(t)

	fetcher := newTestFetcher(&Config{
		Feeds: []Feed{
			{Name: "Tech", URL: server.URL + "/tech.xml", Category: "Technology"},
			{Name: "Broken", URL: server.URL + "/broken.xml", Category: "Technology"},
			{Name: "Science", URL: server.URL + "/science.xml", Category: "Science"},
		},
		PerFeed:     2,
		MaxArticles: 20,
	})

	result := fetcher.Fetch(context.Background())
	require.True(t, result.OK(), result.Reason())

	doc := result.Document().(*Document)
	require.Len(t, doc.Articles, 3)

	assert.Equal(t, "Newest story", doc.Articles[0].Title)
	assert.Equal(t, "Middle story", doc.Articles[1].Title)
	assert.Equal(t, "Older story", doc.Articles[2].Title)

	newest := doc.Articles[0]
	assert.Equal(t, "2026-10-18T08:00:00Z", newest.PublishedAt)
	assert.Equal(t, "https://img.example.com/newest.png", newest.ImageURL)
	assert.Equal(t, ArticleSource{Name: "Tech", Category: "Technology"}, newest.Source)

	older := doc.Articles[2]
	assert.Equal(t, "https://tech.example.com/stories/older", older.URL)
	assert.Equal(t, "Old news", older.Description)
	assert.Equal(t, []string{"Hardware"}, older.Tags)
	assert.Equal(t, unknownAuthor, older.Author)

	assert.Equal(t, []string{"Tech", "Broken", "Science"}, doc.Sources)
	assert.Equal(t, []string{"Technology", "Science"}, doc.Categories)
	assert.NotEmpty(t, doc.LastUpdated)
}

func TestFetcher_CapsArticles(t *testing.T) {
	server := newTestServer(t)

	fetcher := newTestFetcher(&Config{
		Feeds: []Feed{
			{Name: "Tech", URL: server.URL + "/tech.xml"},
			{Name: "Science", URL: server.URL + "/science.xml"},
		},
		PerFeed:     5,
		MaxArticles: 2,
	})

	result := fetcher.Fetch(context.Background())
	require.True(t, result.OK(), result.Reason())

	doc := result.Document().(*Document)
	require.Len(t, doc.Articles, 2)
	assert.Equal(t, "Newest story", doc.Articles[0].Title)
	assert.Equal(t, "Beyond the per feed cap", doc.Articles[1].Title)
}

func TestFetcher_RelativeLinkWithoutChannelLink(t *testing.T) {
	server := newTestServer(t)

	fetcher := newTestFetcher(&Config{
		Feeds:       []Feed{{Name: "Siteless", URL: server.URL + "/feeds/siteless.xml"}},
		PerFeed:     5,
		MaxArticles: 20,
	})

	result := fetcher.Fetch(context.Background())
	require.True(t, result.OK(), result.Reason())

	doc := result.Document().(*Document)
	require.Len(t, doc.Articles, 1)
	assert.Equal(t, server.URL+"/posts/relative", doc.Articles[0].URL)
}

func TestFetcher_AllFeedsFailed(t *testing.T) {
	server := newTestServer(t)

	fetcher := newTestFetcher(&Config{
		Feeds: []Feed{
			{Name: "Broken", URL: server.URL + "/broken.xml"},
			{Name: "Missing", URL: server.URL + "/missing.xml"},
		},
		PerFeed:     5,
		MaxArticles: 20,
	})

	result := fetcher.Fetch(context.Background())
	assert.False(t, result.OK())
	assert.Contains(t, result.Reason(), "all 2 feeds failed")
}

func TestFetcher_NoFeeds(t *testing.T) {
	result := newTestFetcher(&Config{PerFeed: 5, MaxArticles: 20}).Fetch(context.Background())
	assert.False(t, result.OK())
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		link    string
		feedURL string
		want    string
	}{
		{link: "https://a.example.com/x", feedURL: "https://b.example.com/feed", want: "https://a.example.com/x"},
		{link: "/x", feedURL: "https://b.example.com/feed/rss.xml", want: "https://b.example.com/x"},
		{link: "x", feedURL: "https://b.example.com/feed/rss.xml", want: "https://b.example.com/feed/x"},
		{link: "", feedURL: "https://b.example.com/feed", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveLink(tt.link, tt.feedURL))
		})
	}
}
