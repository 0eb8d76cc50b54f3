package github

type Config struct {
	Username string `yaml:"username" validate:"required"`
	// BaseURL overrides the public API root, for GitHub Enterprise or tests.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	// RepositoriesPage is how many recently updated repositories are listed.
	RepositoriesPage int `yaml:"repositories_page" validate:"gte=1,lte=100"`
	// Repositories is how many of them are described in detail.
	Repositories int `yaml:"repositories" validate:"gte=0"`
	Events       int `yaml:"events" validate:"gte=0,lte=100"`
}
