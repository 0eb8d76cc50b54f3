package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/mmcdole/gofeed"
	gofeedext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	maxDescriptionLength = 500
	unknownAuthor        = "Unknown"
)

type Document struct {
	Articles    []Article `json:"articles"`
	Sources     []string  `json:"sources"`
	Categories  []string  `json:"categories"`
	LastUpdated string    `json:"last_updated"`
}

type Article struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt string        `json:"published_at"`
	Source      ArticleSource `json:"source"`
	Tags        []string      `json:"tags"`
	Author      string        `json:"author"`
	ImageURL    string        `json:"image_url,omitempty"`

	published time.Time
}

type ArticleSource struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Fetcher collects the newest entries of every configured feed into one list.
type Fetcher struct {
	config *Config
	parser *gofeed.Parser
	logger *zerolog.Logger
}

func NewFetcher(config *Config, client *http.Client, logger *zerolog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = client

	return &Fetcher{
		config: config,
		parser: parser,
		logger: logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context) types.Result {
	if len(f.config.Feeds) == 0 {
		return types.Failure("no feeds configured")
	}

	var articles []Article
	var failed int

	for _, feed := range f.config.Feeds {
		feedArticles, err := f.fetchFeed(ctx, feed)
		if err != nil {
			failed++
			f.logger.Warn().
				Err(err).
				Str("feed", feed.Name).
				Str("url", feed.URL).
				Msg("Failed to fetch feed")
			continue
		}
		articles = append(articles, feedArticles...)
	}

	if failed == len(f.config.Feeds) {
		return types.Failuref("all %d feeds failed", failed)
	}

	// Newest first; undated entries go last.
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].published.After(articles[j].published)
	})
	if len(articles) > f.config.MaxArticles {
		articles = articles[:f.config.MaxArticles]
	}

	return types.Success(&Document{
		Articles: articles,
		Sources: lo.Map(f.config.Feeds, func(feed Feed, _ int) string {
			return feed.Name
		}),
		Categories: lo.Uniq(lo.FilterMap(f.config.Feeds, func(feed Feed, _ int) (string, bool) {
			return feed.Category, feed.Category != ""
		})),
		LastUpdated: lib.FormatTime(time.Now()),
	})
}

func (f *Fetcher) fetchFeed(ctx context.Context, feed Feed) ([]Article, error) {
	parsed, err := f.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("feed is nil")
	}

	items := parsed.Items
	if len(items) > f.config.PerFeed {
		items = items[:f.config.PerFeed]
	}

	// Item links are relative to the site, which is not always where the feed is hosted.
	base := lo.Ternary(parsed.Link != "", parsed.Link, feed.URL)

	out := make([]Article, 0, len(items))
	for _, item := range items {
		out = append(out, newArticle(item, feed, base))
	}

	return out, nil
}

func newArticle(item *gofeed.Item, feed Feed, base string) Article {
	article := Article{
		Title:       strings.TrimSpace(item.Title),
		Description: describe(item),
		URL:         resolveLink(item.Link, base),
		PublishedAt: item.Published,
		Source: ArticleSource{
			Name:     feed.Name,
			Category: feed.Category,
		},
		Tags:     lo.Compact(item.Categories),
		Author:   unknownAuthor,
		ImageURL: findImage(item),
	}

	if item.PublishedParsed != nil {
		article.published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		article.published = *item.UpdatedParsed
	}
	if !article.published.IsZero() {
		article.PublishedAt = lib.FormatTime(article.published)
	}

	if item.Author != nil && item.Author.Name != "" {
		article.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		article.Author = item.Authors[0].Name
	}

	return article
}

func describe(item *gofeed.Item) string {
	description := item.Description
	if description == "" {
		description = item.Content
	}

	// Some feeds embed whole articles in the description.
	description, _ = lib.LimitStringLength(description, 10*maxDescriptionLength)
	text, err := lib.HTMLToText(description)
	if err != nil {
		return ""
	}

	return lib.Ellipsize(text, maxDescriptionLength)
}

func resolveLink(link, baseURL string) string {
	if link == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}

	return base.ResolveReference(ref).String()
}

func findImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image") {
			return enclosure.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		if u := findImageInExtensions(media); u != "" {
			return u
		}
	}
	if u := lib.FirstImageSrc(item.Content); u != "" {
		return u
	}
	return lib.FirstImageSrc(item.Description)
}

func findImageInExtensions(extensions map[string][]gofeedext.Extension) string {
	for _, exts := range extensions {
		for _, ext := range exts {
			if isImageExtension(ext) && ext.Attrs["url"] != "" {
				return ext.Attrs["url"]
			}

			if ext.Children != nil {
				if childURL := findImageInExtensions(ext.Children); childURL != "" {
					return childURL
				}
			}
		}
	}

	return ""
}

func isImageExtension(ext gofeedext.Extension) bool {
	switch ext.Name {
	case "thumbnail":
		return true
	case "content":
		return strings.HasPrefix(ext.Attrs["type"], "image") || ext.Attrs["medium"] == "image"
	default:
		return false
	}
}
