package news

type Feed struct {
	Name     string `yaml:"name" validate:"required"`
	URL      string `yaml:"url" validate:"required,url"`
	Category string `yaml:"category"`
}

type Config struct {
	Feeds []Feed `yaml:"feeds" validate:"dive"`
	// FeedsOPML optionally points to an OPML file whose rss outlines are added to Feeds.
	FeedsOPML   string `yaml:"feeds_opml"`
	PerFeed     int    `yaml:"per_feed" validate:"gte=1"`
	MaxArticles int    `yaml:"max_articles" validate:"gte=1"`
}
