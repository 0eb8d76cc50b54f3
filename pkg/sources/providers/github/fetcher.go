package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/google/go-github/v72/github"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

type Document struct {
	Profile        Profile                `json:"profile"`
	Repositories   []Repository           `json:"repositories"`
	RecentActivity []*github.Event        `json:"recent_activity"`
	Organizations  []*github.Organization `json:"organizations"`
	Statistics     Statistics             `json:"statistics"`
}

type Profile struct {
	Login           string            `json:"login"`
	Name            *string           `json:"name"`
	Bio             *string           `json:"bio"`
	AvatarURL       string            `json:"avatar_url"`
	HTMLURL         string            `json:"html_url"`
	Blog            *string           `json:"blog"`
	Location        *string           `json:"location"`
	Email           *string           `json:"email"`
	TwitterUsername *string           `json:"twitter_username"`
	Company         *string           `json:"company"`
	PublicRepos     int               `json:"public_repos"`
	PublicGists     int               `json:"public_gists"`
	Followers       int               `json:"followers"`
	Following       int               `json:"following"`
	CreatedAt       *github.Timestamp `json:"created_at"`
	UpdatedAt       *github.Timestamp `json:"updated_at"`
}

type Repository struct {
	Name            string            `json:"name"`
	FullName        string            `json:"full_name"`
	Description     *string           `json:"description"`
	HTMLURL         string            `json:"html_url"`
	Language        *string           `json:"language"`
	StargazersCount int               `json:"stargazers_count"`
	ForksCount      int               `json:"forks_count"`
	OpenIssuesCount int               `json:"open_issues_count"`
	CreatedAt       *github.Timestamp `json:"created_at"`
	UpdatedAt       *github.Timestamp `json:"updated_at"`
	PushedAt        *github.Timestamp `json:"pushed_at"`
	Size            int               `json:"size"`
	Topics          []string          `json:"topics"`
	License         *string           `json:"license"`
	DefaultBranch   string            `json:"default_branch"`
	Archived        bool              `json:"archived"`
	Disabled        bool              `json:"disabled"`
	Fork            bool              `json:"fork"`
	ReadmeAvailable bool              `json:"readme_available"`
	ReadmeSize      *int              `json:"readme_size,omitempty"`
}

type Statistics struct {
	TotalRepositories int                `json:"total_repositories"`
	Languages         []string           `json:"languages"`
	TotalStars        int                `json:"total_stars"`
	TotalForks        int                `json:"total_forks"`
	MostStarredRepo   *github.Repository `json:"most_starred_repo"`
	MostRecentRepo    *github.Repository `json:"most_recent_repo"`
}

// Fetcher builds a profile page document for one GitHub user.
type Fetcher struct {
	config *Config
	client *github.Client
	logger *zerolog.Logger
}

func NewFetcher(config *Config, client *http.Client, logger *zerolog.Logger) (*Fetcher, error) {
	ghClient := github.NewClient(client)

	if config.BaseURL != "" {
		baseURL, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		ghClient.BaseURL = baseURL
	}

	return &Fetcher{
		config: config,
		client: ghClient,
		logger: logger,
	}, nil
}

func (f *Fetcher) Fetch(ctx context.Context) types.Result {
	username := f.config.Username

	user, _, err := f.client.Users.Get(ctx, username)
	if err != nil {
		return types.FailureFrom("get user", err)
	}

	repos, _, err := f.client.Repositories.ListByUser(ctx, username, &github.RepositoryListByUserOptions{
		Sort: "updated",
		ListOptions: github.ListOptions{
			PerPage: f.config.RepositoriesPage,
		},
	})
	if err != nil {
		return types.FailureFrom("list repositories", err)
	}

	events, _, err := f.client.Activity.ListEventsPerformedByUser(ctx, username, true, &github.ListOptions{
		PerPage: f.config.Events,
	})
	if err != nil {
		return types.FailureFrom("list public events", err)
	}
	if len(events) > f.config.Events {
		events = events[:f.config.Events]
	}

	orgs, _, err := f.client.Organizations.List(ctx, username, nil)
	if err != nil {
		return types.FailureFrom("list organizations", err)
	}

	detailed := repos
	if len(detailed) > f.config.Repositories {
		detailed = detailed[:f.config.Repositories]
	}
	repositories := make([]Repository, 0, len(detailed))
	for _, repo := range detailed {
		repositories = append(repositories, f.describeRepository(ctx, repo))
	}

	return types.Success(&Document{
		Profile:        newProfile(user),
		Repositories:   repositories,
		RecentActivity: lo.Ternary(events == nil, []*github.Event{}, events),
		Organizations:  lo.Ternary(orgs == nil, []*github.Organization{}, orgs),
		Statistics:     newStatistics(repos),
	})
}

func (f *Fetcher) describeRepository(ctx context.Context, repo *github.Repository) Repository {
	out := Repository{
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		Description:     repo.Description,
		HTMLURL:         repo.GetHTMLURL(),
		Language:        repo.Language,
		StargazersCount: repo.GetStargazersCount(),
		ForksCount:      repo.GetForksCount(),
		OpenIssuesCount: repo.GetOpenIssuesCount(),
		CreatedAt:       repo.CreatedAt,
		UpdatedAt:       repo.UpdatedAt,
		PushedAt:        repo.PushedAt,
		Size:            repo.GetSize(),
		Topics:          lo.Ternary(repo.Topics == nil, []string{}, repo.Topics),
		DefaultBranch:   repo.GetDefaultBranch(),
		Archived:        repo.GetArchived(),
		Disabled:        repo.GetDisabled(),
		Fork:            repo.GetFork(),
	}
	if repo.License != nil {
		out.License = repo.License.Name
	}

	// A missing readme only clears the flag.
	readme, _, err := f.client.Repositories.GetReadme(ctx, repo.GetOwner().GetLogin(), repo.GetName(), nil)
	if err != nil {
		f.logger.Debug().
			Err(err).
			Str("repository", repo.GetFullName()).
			Msg("Readme not available")
		return out
	}

	out.ReadmeAvailable = true
	out.ReadmeSize = lo.ToPtr(readme.GetSize())

	return out
}

func newProfile(user *github.User) Profile {
	return Profile{
		Login:           user.GetLogin(),
		Name:            user.Name,
		Bio:             user.Bio,
		AvatarURL:       user.GetAvatarURL(),
		HTMLURL:         user.GetHTMLURL(),
		Blog:            user.Blog,
		Location:        user.Location,
		Email:           user.Email,
		TwitterUsername: user.TwitterUsername,
		Company:         user.Company,
		PublicRepos:     user.GetPublicRepos(),
		PublicGists:     user.GetPublicGists(),
		Followers:       user.GetFollowers(),
		Following:       user.GetFollowing(),
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

func newStatistics(repos []*github.Repository) Statistics {
	stats := Statistics{
		TotalRepositories: len(repos),
		Languages: lo.Uniq(lo.FilterMap(repos, func(repo *github.Repository, _ int) (string, bool) {
			return repo.GetLanguage(), repo.GetLanguage() != ""
		})),
		TotalStars: lo.SumBy(repos, func(repo *github.Repository) int {
			return repo.GetStargazersCount()
		}),
		TotalForks: lo.SumBy(repos, func(repo *github.Repository) int {
			return repo.GetForksCount()
		}),
	}

	if len(repos) > 0 {
		stats.MostStarredRepo = lo.MaxBy(repos, func(a, b *github.Repository) bool {
			return a.GetStargazersCount() > b.GetStargazersCount()
		})
		stats.MostRecentRepo = lo.MaxBy(repos, func(a, b *github.Repository) bool {
			return a.GetUpdatedAt().After(b.GetUpdatedAt().Time)
		})
	}

	return stats
}
