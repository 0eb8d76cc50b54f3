package wikipedia

type Config struct {
	Topics  []string `yaml:"topics" validate:"min=1,dive,required"`
	BaseURL string   `yaml:"base_url" validate:"required,url"`
}
