package weather

type Config struct {
	City         string  `yaml:"city" validate:"required"`
	Country      string  `yaml:"country"`
	Latitude     float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
	Timezone     string  `yaml:"timezone" validate:"required"`
	ForecastDays int     `yaml:"forecast_days" validate:"gte=1,lte=16"`
	BaseURL      string  `yaml:"base_url" validate:"required,url"`
}
