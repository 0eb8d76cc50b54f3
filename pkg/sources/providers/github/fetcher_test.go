package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/defeedco/prefetch/pkg/lib"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userJSON = `{
		"login": "octocat",
		"name": "The Octocat",
		"bio": null,
		"avatar_url": "https://avatars.example.com/octocat",
		"html_url": "https://github.com/octocat",
		"location": "Nairobi",
		"public_repos": 2,
		"public_gists": 1,
		"followers": 10,
		"following": 3,
		"created_at": "2011-01-25T18:44:36Z",
		"updated_at": "2026-10-01T10:00:00Z"
	}`
	reposJSON = `[
		{
			"name": "hello",
			"full_name": "octocat/hello",
			"owner": {"login": "octocat"},
			"description": "Hello world",
			"html_url": "https://github.com/octocat/hello",
			"language": "Go",
			"stargazers_count": 5,
			"forks_count": 2,
			"updated_at": "2026-10-10T10:00:00Z",
			"topics": ["demo"],
			"license": {"name": "MIT License"},
			"default_branch": "main"
		},
		{
			"name": "old",
			"full_name": "octocat/old",
			"owner": {"login": "octocat"},
			"language": "Go",
			"stargazers_count": 9,
			"forks_count": 1,
			"updated_at": "2020-01-01T00:00:00Z",
			"default_branch": "master"
		},
		{
			"name": "notes",
			"full_name": "octocat/notes",
			"owner": {"login": "octocat"},
			"language": null,
			"stargazers_count": 0,
			"forks_count": 0,
			"updated_at": "2024-01-01T00:00:00Z"
		}
	]`
)

func newTestServer(t *testing.T, userStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(userStatus)
		_, _ = w.Write([]byte(userJSON))
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(reposJSON))
	})
	mux.HandleFunc("/users/octocat/events/public", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "1", "type": "PushEvent"}, {"id": "2", "type": "WatchEvent"}]`))
	})
	mux.HandleFunc("/users/octocat/orgs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"login": "octo-org"}]`))
	})
	mux.HandleFunc("/repos/octocat/hello/readme", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "README.md", "size": 1234}`))
	})
	mux.HandleFunc("/repos/octocat/old/readme", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()

	logger := zerolog.Nop()
	client := lib.NewHTTPClient(&lib.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test"}, &logger)

	fetcher, err := NewFetcher(&Config{
		Username:         "octocat",
		BaseURL:          baseURL,
		RepositoriesPage: 20,
		Repositories:     2,
		Events:           1,
	}, client, &logger)
	require.NoError(t, err)

	return fetcher
}

func TestFetcher_Profile(t *testing.T) {
	server := newTestServer(t, http.StatusOK)

	result := newTestFetcher(t, server.URL).Fetch(context.Background())
	require.True(t, result.OK(), result.Reason())

	doc := result.Document().(*Document)

	assert.Equal(t, "octocat", doc.Profile.Login)
	assert.Equal(t, "The Octocat", *doc.Profile.Name)
	assert.Nil(t, doc.Profile.Bio)
	assert.Equal(t, 10, doc.Profile.Followers)

	require.Len(t, doc.Repositories, 2)
	hello := doc.Repositories[0]
	assert.Equal(t, "octocat/hello", hello.FullName)
	assert.Equal(t, "MIT License", *hello.License)
	assert.Equal(t, []string{"demo"}, hello.Topics)
	assert.True(t, hello.ReadmeAvailable)
	assert.Equal(t, 1234, *hello.ReadmeSize)

	old := doc.Repositories[1]
	assert.False(t, old.ReadmeAvailable)
	assert.Nil(t, old.ReadmeSize)
	assert.Nil(t, old.License)
	assert.Equal(t, []string{}, old.Topics)

	require.Len(t, doc.RecentActivity, 1)
	assert.Equal(t, "PushEvent", doc.RecentActivity[0].GetType())
	require.Len(t, doc.Organizations, 1)
	assert.Equal(t, "octo-org", doc.Organizations[0].GetLogin())

	stats := doc.Statistics
	assert.Equal(t, 3, stats.TotalRepositories)
	assert.Equal(t, []string{"Go"}, stats.Languages)
	assert.Equal(t, 14, stats.TotalStars)
	assert.Equal(t, 3, stats.TotalForks)
	assert.Equal(t, "old", stats.MostStarredRepo.GetName())
	assert.Equal(t, "hello", stats.MostRecentRepo.GetName())
}

func TestFetcher_UserLookupFails(t *testing.T) {
	server := newTestServer(t, http.StatusNotFound)

	result := newTestFetcher(t, server.URL).Fetch(context.Background())
	assert.False(t, result.OK())
	assert.Contains(t, result.Reason(), "get user")
}

func TestNewStatistics_Empty(t *testing.T) {
	stats := newStatistics(nil)

	assert.Equal(t, 0, stats.TotalRepositories)
	assert.Empty(t, stats.Languages)
	assert.Nil(t, stats.MostStarredRepo)
	assert.Nil(t, stats.MostRecentRepo)
}
