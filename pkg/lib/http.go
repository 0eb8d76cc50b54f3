package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/motemen/go-loghttp"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 8 << 20

type HTTPConfig struct {
	Timeout   time.Duration `env:"HTTP_TIMEOUT,default=30s" validate:"gt=0"`
	UserAgent string        `env:"HTTP_USER_AGENT,default=prefetch/2.0 (+https://github.com/defeedco/prefetch)" validate:"required"`
	// RequestInterval is the minimum spacing between two outbound requests.
	// Zero disables throttling.
	RequestInterval time.Duration `env:"HTTP_REQUEST_INTERVAL,default=200ms" validate:"gte=0"`
	RequestBurst    int           `env:"HTTP_REQUEST_BURST,default=1" validate:"gte=1"`
}

type RequestDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns the client shared by every source.
// Requests are throttled by the configured rate policy, tagged with the
// user agent and traced at trace level.
func NewHTTPClient(cfg *HTTPConfig, logger *zerolog.Logger) *http.Client {
	return NewHTTPClientWithPolicy(cfg, NewRatePolicy(cfg.RequestInterval, cfg.RequestBurst), logger)
}

func NewHTTPClientWithPolicy(cfg *HTTPConfig, policy RatePolicy, logger *zerolog.Logger) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 10

	traced := &loghttp.Transport{
		Transport: base,
		LogRequest: func(req *http.Request) {
			logger.Trace().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Msg("HTTP request")
		},
		LogResponse: func(resp *http.Response) {
			logger.Trace().
				Str("method", resp.Request.Method).
				Str("url", resp.Request.URL.String()).
				Int("status_code", resp.StatusCode).
				Msg("HTTP response")
		},
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: NewRateLimitedTransport(&headerTransport{
			headers: map[string]string{"User-Agent": cfg.UserAgent},
			base:    traced,
		}, policy, logger),
	}
}

// URLWithQuery appends params to base, keeping any query already present.
func URLWithQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// FetchBody performs a GET and returns the body of a 2xx response.
func FetchBody(ctx context.Context, client RequestDoer, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		truncatedBody, _ := LimitStringLength(string(body), 256)

		return nil, fmt.Errorf(
			"unexpected status code %d from %s, response: %s",
			response.StatusCode,
			request.URL,
			truncatedBody,
		)
	}

	return body, nil
}

func DecodeJSON[T any](ctx context.Context, client RequestDoer, url string) (T, error) {
	var result T

	body, err := FetchBody(ctx, client, url)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("decode json from %s: %w", url, err)
	}

	return result, nil
}

// FetchGJSON is DecodeJSON for responses whose shape is only partially known.
func FetchGJSON(ctx context.Context, client RequestDoer, url string) (gjson.Result, error) {
	body, err := FetchBody(ctx, client, url)
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid json from %s", url)
	}

	return gjson.ParseBytes(body), nil
}
