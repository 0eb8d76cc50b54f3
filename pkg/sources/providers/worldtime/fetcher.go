package worldtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
)

type Document struct {
	Timezones []Clock `json:"timezones"`
}

type Clock struct {
	Timezone     string `json:"timezone"`
	Datetime     string `json:"datetime"`
	UTCOffset    string `json:"utc_offset"`
	Abbreviation string `json:"abbreviation"`
	DayOfWeek    int    `json:"day_of_week"`
	DayOfYear    int    `json:"day_of_year"`
	WeekNumber   int    `json:"week_number"`
}

// Fetcher reads the current local time of every configured timezone from WorldTimeAPI.
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
		Timezones: make([]Clock, 0, len(f.config.Timezones)),
	}

	for _, tz := range f.config.Timezones {
		clock, err := f.fetchClock(ctx, tz)
		if err != nil {
			f.logger.Warn().Err(err).Str("timezone", tz).Msg("Failed to fetch time")
			continue
		}
		doc.Timezones = append(doc.Timezones, clock)
	}

	if len(doc.Timezones) == 0 {
		return types.Failuref("no time could be fetched for any of %d timezones", len(f.config.Timezones))
	}

	return types.Success(doc)
}

func (f *Fetcher) fetchClock(ctx context.Context, tz string) (Clock, error) {
	clock, err := lib.DecodeJSON[Clock](ctx, f.client, strings.TrimSuffix(f.config.BaseURL, "/")+"/timezone/"+tz)
	if err != nil {
		return Clock{}, err
	}
	if clock.Datetime == "" {
		return Clock{}, fmt.Errorf("response has no datetime")
	}

	// The requested name wins over whatever alias the API resolved it to.
	clock.Timezone = tz

	return clock, nil
}
