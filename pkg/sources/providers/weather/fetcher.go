package weather

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	hourlyVariables = "temperature_2m,relative_humidity_2m,weather_code"
	dailyVariables  = "weather_code,temperature_2m_max,temperature_2m_min"
)

type Document struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
	Forecast Forecast `json:"forecast"`
	Units    Units    `json:"units"`
}

type Location struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

type Current struct {
	Temperature        float64 `json:"temperature"`
	WeatherCode        int     `json:"weather_code"`
	WeatherDescription string  `json:"weather_description"`
	WindSpeed          float64 `json:"wind_speed"`
	WindDirection      float64 `json:"wind_direction"`
	Time               string  `json:"time"`
}

// Forecast keeps the Open-Meteo series untouched: parallel arrays keyed by variable.
type Forecast struct {
	Daily  json.RawMessage `json:"daily"`
	Hourly json.RawMessage `json:"hourly"`
}

type Units struct {
	Current json.RawMessage `json:"current"`
	Daily   json.RawMessage `json:"daily"`
	Hourly  json.RawMessage `json:"hourly"`
}

// Fetcher reads the current conditions and a week of forecast from Open-Meteo.
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
	requestURL, err := lib.URLWithQuery(strings.TrimSuffix(f.config.BaseURL, "/")+"/forecast", url.Values{
		"latitude":        {strconv.FormatFloat(f.config.Latitude, 'f', -1, 64)},
		"longitude":       {strconv.FormatFloat(f.config.Longitude, 'f', -1, 64)},
		"current_weather": {"true"},
		"hourly":          {hourlyVariables},
		"daily":           {dailyVariables},
		"timezone":        {f.config.Timezone},
		"forecast_days":   {strconv.Itoa(f.config.ForecastDays)},
	})
	if err != nil {
		return types.FailureFrom("build forecast url", err)
	}

	raw, err := lib.FetchGJSON(ctx, f.client, requestURL)
	if err != nil {
		return types.FailureFrom("fetch forecast", err)
	}

	current := raw.Get("current_weather")
	if !current.IsObject() {
		return types.Failure("forecast response has no current_weather")
	}
	if !current.Get("temperature").Exists() || !current.Get("weathercode").Exists() {
		return types.Failure("current_weather is missing temperature or weathercode")
	}

	code := int(current.Get("weathercode").Int())

	return types.Success(&Document{
		Location: Location{
			City:      f.config.City,
			Country:   f.config.Country,
			Latitude:  f.config.Latitude,
			Longitude: f.config.Longitude,
			Timezone:  f.config.Timezone,
		},
		Current: Current{
			Temperature:        current.Get("temperature").Float(),
			WeatherCode:        code,
			WeatherDescription: Describe(code),
			WindSpeed:          current.Get("windspeed").Float(),
			WindDirection:      current.Get("winddirection").Float(),
			Time:               current.Get("time").String(),
		},
		Forecast: Forecast{
			Daily:  rawObject(raw.Get("daily")),
			Hourly: rawObject(raw.Get("hourly")),
		},
		Units: Units{
			Current: rawObject(raw.Get("current_weather_units")),
			Daily:   rawObject(raw.Get("daily_units")),
			Hourly:  rawObject(raw.Get("hourly_units")),
		},
	})
}

func rawObject(value gjson.Result) json.RawMessage {
	if !value.IsObject() {
		return json.RawMessage("{}")
	}
	return json.RawMessage(value.Raw)
}
