package quotes

type Config struct {
	Count   int    `yaml:"count" validate:"gte=1,lte=50"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
}
