package quotes

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var errEmptyQuote = errors.New("quote has no content")

type Document struct {
	Quotes       []Quote  `json:"quotes"`
	Categories   []string `json:"categories"`
	TotalFetched int      `json:"total_fetched"`
}

type Quote struct {
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
	Length  int      `json:"length"`
}

// Fetcher collects a handful of random quotes from Quotable.
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
	randomURL := strings.TrimSuffix(f.config.BaseURL, "/") + "/random"

	quotes := make([]Quote, 0, f.config.Count)
	var lastErr error

	for i := 0; i < f.config.Count; i++ {
		quote, err := lib.DecodeJSON[Quote](ctx, f.client, randomURL)
		if err == nil && quote.Content == "" {
			err = errEmptyQuote
		}
		if err != nil {
			lastErr = err
			f.logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to fetch quote")
			continue
		}
		if quote.Tags == nil {
			quote.Tags = []string{}
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return types.FailureFrom("fetch quotes", lastErr)
	}

	categories := lo.Uniq(lo.FlatMap(quotes, func(q Quote, _ int) []string {
		return q.Tags
	}))
	sort.Strings(categories)

	return types.Success(&Document{
		Quotes:       quotes,
		Categories:   categories,
		TotalFetched: len(quotes),
	})
}
