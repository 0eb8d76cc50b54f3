package crypto

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
)

const disclaimer = "Data from CoinGecko API for educational purposes"

type Document struct {
	// Prices is the CoinGecko simple price map: coin id -> field -> value.
	Prices      json.RawMessage   `json:"prices"`
	Trending    []json.RawMessage `json:"trending"`
	LastUpdated string            `json:"last_updated"`
	Disclaimer  string            `json:"disclaimer"`
}

// Fetcher reads spot prices and the trending list from CoinGecko.
type Fetcher struct {
	config *Config
	client lib.RequestDoer
	logger *zerolog.Logger
}

func NewFetcher(config *Config, client lib.RequestDoer, logger *zerolog.Logger) *Fetcher {
	return &Fetcher{
		config: config,
		client: client,
		logger: logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context) types.Result {
	baseURL := strings.TrimSuffix(f.config.BaseURL, "/")

	priceURL, err := lib.URLWithQuery(baseURL+"/simple/price", url.Values{
		"ids":                 {strings.Join(f.config.Coins, ",")},
		"vs_currencies":       {strings.Join(f.config.Currencies, ",")},
		"include_24hr_change": {"true"},
		"include_market_cap":  {"true"},
		"include_24hr_vol":    {"true"},
	})
	if err != nil {
		return types.FailureFrom("build price url", err)
	}

	prices, err := lib.FetchGJSON(ctx, f.client, priceURL)
	if err != nil {
		return types.FailureFrom("fetch prices", err)
	}
	if !prices.IsObject() {
		return types.Failure("price response is not an object")
	}

	trending, err := lib.FetchGJSON(ctx, f.client, baseURL+"/search/trending")
	if err != nil {
		return types.FailureFrom("fetch trending coins", err)
	}

	coins := trending.Get("coins").Array()
	if len(coins) > f.config.Trending {
		coins = coins[:f.config.Trending]
	}

	doc := &Document{
		Prices:      json.RawMessage(prices.Raw),
		Trending:    make([]json.RawMessage, 0, len(coins)),
		LastUpdated: lib.FormatTime(time.Now()),
		Disclaimer:  disclaimer,
	}
	for _, coin := range coins {
		doc.Trending = append(doc.Trending, json.RawMessage(coin.Raw))
	}

	return types.Success(doc)
}
