package worldtime

type Config struct {
	Timezones []string `yaml:"timezones" validate:"min=1,dive,required"`
	BaseURL   string   `yaml:"base_url" validate:"required,url"`
}
