package crypto

type Config struct {
	Coins      []string `yaml:"coins" validate:"min=1,dive,required"`
	Currencies []string `yaml:"currencies" validate:"min=1,dive,required"`
	// Trending caps how many trending coins are kept.
	Trending int    `yaml:"trending" validate:"gte=0"`
	BaseURL  string `yaml:"base_url" validate:"required,url"`
}
