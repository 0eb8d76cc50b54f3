package sources

import (
	"fmt"
	"net/http"
	"time"

	"github.com/defeedco/prefetch/pkg/sources/providers/crypto"
	"github.com/defeedco/prefetch/pkg/sources/providers/github"
	"github.com/defeedco/prefetch/pkg/sources/providers/hackernews"
	"github.com/defeedco/prefetch/pkg/sources/providers/news"
	"github.com/defeedco/prefetch/pkg/sources/providers/quotes"
	"github.com/defeedco/prefetch/pkg/sources/providers/weather"
	"github.com/defeedco/prefetch/pkg/sources/providers/wikipedia"
	"github.com/defeedco/prefetch/pkg/sources/providers/worldtime"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
)

// Slots the site reads each source from.
const (
	SlotGitHub     = "github-profile"
	SlotNews       = "tech-news"
	SlotWeather    = "weather"
	SlotCrypto     = "crypto"
	SlotQuotes     = "quotes"
	SlotWikipedia  = "wikipedia"
	SlotTime       = "worldtime"
	SlotHackerNews = "hackernews"
)

// NewDefaultRegistry registers every built-in source, configured from catalog.
// All sources share client, so its rate limit spans the whole run.
func NewDefaultRegistry(catalog *Catalog, client *http.Client, logger *zerolog.Logger) (*Registry, error) {
	providerLogger := func(name string) *zerolog.Logger {
		l := logger.With().Str("source", name).Logger()
		return &l
	}

	githubFetcher, err := github.NewFetcher(&catalog.GitHub.Params, client, providerLogger("github"))
	if err != nil {
		return nil, fmt.Errorf("create github fetcher: %w", err)
	}

	hackerNewsFetcher, err := hackernews.NewFetcher(&catalog.HackerNews.Params, client, providerLogger("hackernews"))
	if err != nil {
		return nil, fmt.Errorf("create hackernews fetcher: %w", err)
	}

	descriptors := []Descriptor{
		newDescriptor("github", SlotGitHub, catalog.GitHub.Enabled, catalog.GitHub.CacheLifetime,
			githubFetcher),
		newDescriptor("news", SlotNews, catalog.News.Enabled, catalog.News.CacheLifetime,
			news.NewFetcher(&catalog.News.Params, client, providerLogger("news"))),
		newDescriptor("weather", SlotWeather, catalog.Weather.Enabled, catalog.Weather.CacheLifetime,
			weather.NewFetcher(&catalog.Weather.Params, client, providerLogger("weather"))),
		newDescriptor("crypto", SlotCrypto, catalog.Crypto.Enabled, catalog.Crypto.CacheLifetime,
			crypto.NewFetcher(&catalog.Crypto.Params, client, providerLogger("crypto"))),
		newDescriptor("quotes", SlotQuotes, catalog.Quotes.Enabled, catalog.Quotes.CacheLifetime,
			quotes.NewFetcher(&catalog.Quotes.Params, client, providerLogger("quotes"))),
		newDescriptor("wikipedia", SlotWikipedia, catalog.Wikipedia.Enabled, catalog.Wikipedia.CacheLifetime,
			wikipedia.NewFetcher(&catalog.Wikipedia.Params, client, providerLogger("wikipedia"))),
		newDescriptor("time", SlotTime, catalog.Time.Enabled, catalog.Time.CacheLifetime,
			worldtime.NewFetcher(&catalog.Time.Params, client, providerLogger("time"))),
		newDescriptor("hackernews", SlotHackerNews, catalog.HackerNews.Enabled, catalog.HackerNews.CacheLifetime,
			hackerNewsFetcher),
	}

	registry := NewRegistry()
	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return nil, fmt.Errorf("register source: %w", err)
		}
	}

	return registry, nil
}

func newDescriptor(name, slot string, enabled bool, lifetime time.Duration, fetcher types.Fetcher) Descriptor {
	return Descriptor{
		Name:          name,
		Enabled:       enabled,
		CacheLifetime: lifetime,
		Snapshot:      slot,
		Fetcher:       fetcher,
	}
}
