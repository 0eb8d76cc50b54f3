package hackernews

type Config struct {
	// Stories is how many of the top stories are fetched.
	Stories int `yaml:"stories" validate:"gte=1,lte=500"`
	// Concurrency bounds the story fetches running at once.
	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=20"`
}
