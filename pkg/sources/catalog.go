package sources

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/defeedco/prefetch/pkg/sources/providers/crypto"
	"github.com/defeedco/prefetch/pkg/sources/providers/github"
	"github.com/defeedco/prefetch/pkg/sources/providers/hackernews"
	"github.com/defeedco/prefetch/pkg/sources/providers/news"
	"github.com/defeedco/prefetch/pkg/sources/providers/quotes"
	"github.com/defeedco/prefetch/pkg/sources/providers/weather"
	"github.com/defeedco/prefetch/pkg/sources/providers/wikipedia"
	"github.com/defeedco/prefetch/pkg/sources/providers/worldtime"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogRaw []byte

// Entry holds the run settings shared by every source next to its own parameters.
type Entry[T any] struct {
	Enabled       bool          `yaml:"enabled"`
	CacheLifetime time.Duration `yaml:"cache_lifetime" validate:"gte=0"`
	Params        T             `yaml:",inline"`
}

// Catalog configures every built-in source.
type Catalog struct {
	GitHub     Entry[github.Config]     `yaml:"github"`
	News       Entry[news.Config]       `yaml:"news"`
	Weather    Entry[weather.Config]    `yaml:"weather"`
	Crypto     Entry[crypto.Config]     `yaml:"crypto"`
	Quotes     Entry[quotes.Config]     `yaml:"quotes"`
	Wikipedia  Entry[wikipedia.Config]  `yaml:"wikipedia"`
	Time       Entry[worldtime.Config]  `yaml:"time"`
	HackerNews Entry[hackernews.Config] `yaml:"hackernews"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	var catalog Catalog
	if err := decodeCatalog(bytes.NewReader(defaultCatalogRaw), &catalog); err != nil {
		return nil, fmt.Errorf("decode embedded catalog: %w", err)
	}
	return &catalog, nil
}

// LoadCatalog returns the embedded catalog with the file at path decoded on top.
// Keys missing from the file keep their defaults; lists are replaced as a whole.
// An empty path yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sources file: %w", err)
		}
		defer f.Close()

		if err := decodeCatalog(f, catalog); err != nil {
			return nil, fmt.Errorf("decode sources file %s: %w", path, err)
		}
	}

	if err := catalog.loadFeedsOPML(); err != nil {
		return nil, err
	}

	if err := lib.ValidateStruct(catalog); err != nil {
		return nil, fmt.Errorf("validate sources: %w", err)
	}

	return catalog, nil
}

func decodeCatalog(r io.Reader, catalog *Catalog) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(catalog); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Catalog) loadFeedsOPML() error {
	path := c.News.Params.FeedsOPML
	if path == "" {
		return nil
	}

	opml, err := lib.ParseOPMLFile(path)
	if err != nil {
		return fmt.Errorf("load news feeds: %w", err)
	}

	for _, feed := range opml.Feeds() {
		c.News.Params.Feeds = append(c.News.Params.Feeds, news.Feed{
			Name:     lo.Ternary(feed.Title != "", feed.Title, feed.URL),
			URL:      feed.URL,
			Category: feed.Category,
		})
	}

	return nil
}
