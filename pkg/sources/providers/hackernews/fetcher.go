package hackernews

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexferrari88/gohn/pkg/gohn"
	"github.com/alitto/pond/v2"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const sourceLabel = "Hacker News API"

type Document struct {
	Stories      []Story `json:"stories"`
	TotalFetched int     `json:"total_fetched"`
	Source       string  `json:"source"`
}

type Story struct {
	ID          *int    `json:"id"`
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Score       *int    `json:"score"`
	By          *string `json:"by"`
	Time        *int    `json:"time"`
	Descendants *int    `json:"descendants"`
	Type        *string `json:"type"`
}

// Fetcher reads the current front page stories.
type Fetcher struct {
	config *Config
	client *gohn.Client
	logger *zerolog.Logger
}

func NewFetcher(config *Config, client *http.Client, logger *zerolog.Logger) (*Fetcher, error) {
	hnClient, err := gohn.NewClient(client)
	if err != nil {
		return nil, fmt.Errorf("init client: %w", err)
	}

	return &Fetcher{
		config: config,
		client: hnClient,
		logger: logger,
	}, nil
}

func (f *Fetcher) Fetch(ctx context.Context) types.Result {
	storyIDs, err := f.client.Stories.GetTopIDs(ctx)
	if err != nil {
		return types.FailureFrom("fetch top story ids", err)
	}

	ids := lo.FilterMap(storyIDs, func(id *int, _ int) (int, bool) {
		if id == nil {
			return 0, false
		}
		return *id, true
	})
	if len(ids) == 0 {
		return types.Failure("no stories found")
	}
	if len(ids) > f.config.Stories {
		ids = ids[:f.config.Stories]
	}

	// Each task owns one slot, which keeps the front page order.
	fetched := make([]*Story, len(ids))

	pool := pond.NewPool(f.config.Concurrency, pond.WithContext(ctx))
	for i, id := range ids {
		pool.Submit(func() {
			storyLogger := f.logger.With().
				Int("story_id", id).
				Int("stories_count", len(ids)).
				Logger()

			item, err := f.client.Items.Get(ctx, id)
			if err != nil {
				storyLogger.Warn().Err(err).Msg("Failed to fetch story")
				return
			}
			if item == nil || item.ID == nil {
				storyLogger.Warn().Msg("Fetched story is empty")
				return
			}

			fetched[i] = &Story{
				ID:          item.ID,
				Title:       item.Title,
				URL:         item.URL,
				Score:       item.Score,
				By:          item.By,
				Time:        item.Time,
				Descendants: item.Descendants,
				Type:        item.Type,
			}
		})
	}
	pool.StopAndWait()

	stories := lo.FilterMap(fetched, func(story *Story, _ int) (Story, bool) {
		if story == nil {
			return Story{}, false
		}
		return *story, true
	})
	if len(stories) == 0 {
		return types.Failuref("all %d stories failed", len(ids))
	}

	return types.Success(&Document{
		Stories:      stories,
		TotalFetched: len(stories),
		Source:       sourceLabel,
	})
}
