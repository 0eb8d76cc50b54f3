package wikipedia

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

type Document struct {
	Articles []Article `json:"articles"`
}

type Article struct {
	Title       string  `json:"title"`
	Extract     string  `json:"extract"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Thumbnail   *string `json:"thumbnail"`
	Lang        string  `json:"lang"`
	Topic       string  `json:"topic"`
}

// Fetcher reads the page summary of every configured topic.
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
	doc := &Document{
		Articles: make([]Article, 0, len(f.config.Topics)),
	}

	for _, topic := range f.config.Topics {
		article, err := f.fetchSummary(ctx, topic)
		if err != nil {
			f.logger.Warn().Err(err).Str("topic", topic).Msg("Failed to fetch article summary")
			continue
		}
		doc.Articles = append(doc.Articles, article)
	}

	if len(doc.Articles) == 0 {
		return types.Failuref("no summary could be fetched for any of %d topics", len(f.config.Topics))
	}

	return types.Success(doc)
}

func (f *Fetcher) fetchSummary(ctx context.Context, topic string) (Article, error) {
	summaryURL := strings.TrimSuffix(f.config.BaseURL, "/") + "/page/summary/" + url.PathEscape(topic)

	summary, err := lib.FetchGJSON(ctx, f.client, summaryURL)
	if err != nil {
		return Article{}, err
	}

	title := summary.Get("title")
	if !title.Exists() {
		return Article{}, fmt.Errorf("summary has no title")
	}

	return Article{
		Title:       title.String(),
		Extract:     summary.Get("extract").String(),
		Description: optionalString(summary.Get("description")),
		URL:         optionalString(summary.Get("content_urls.desktop.page")),
		Thumbnail:   optionalString(summary.Get("thumbnail.source")),
		Lang:        summary.Get("lang").String(),
		Topic:       topic,
	}, nil
}

func optionalString(value gjson.Result) *string {
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}
	s := value.String()
	return &s
}
