package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v60/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualboard/relnotes/internal/config"
)

func testPublisher(t *testing.T, mux *http.ServeMux) *Publisher {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return newPublisher(client, logrus.New())
}

func TestParseRepo(t *testing.T) {
	owner, name, err := ParseRepo("virtualboard/relnotes")
	require.NoError(t, err)
	assert.Equal(t, "virtualboard", owner)
	assert.Equal(t, "relnotes", name)

	for _, bad := range []string{"", "relnotes", "/relnotes", "virtualboard/", "a/b/c"} {
		_, _, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}

func TestPublishUpdatesExistingRelease(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/virtualboard/relnotes/releases/tags/v1.2.0", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"id": 42, "tag_name": "v1.2.0"}`)
	})
	var body string
	mux.HandleFunc("/repos/virtualboard/relnotes/releases/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var payload github.RepositoryRelease
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		body = payload.GetBody()
		fmt.Fprint(w, `{"id": 42, "tag_name": "v1.2.0", "html_url": "https://github.com/virtualboard/relnotes/releases/tag/v1.2.0"}`)
	})

	pub := testPublisher(t, mux)
	res, err := pub.Publish(context.Background(), Target{Owner: "virtualboard", Repo: "relnotes", Tag: "v1.2.0"}, "## 1.2.0\n- notes")
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.ID)
	assert.False(t, res.Created)
	assert.Equal(t, "https://github.com/virtualboard/relnotes/releases/tag/v1.2.0", res.URL)
	assert.Equal(t, "## 1.2.0\n- notes", body)
}

func TestPublishCreatesMissingRelease(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/virtualboard/relnotes/releases/tags/v2.0.0", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/repos/virtualboard/relnotes/releases", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var payload github.RepositoryRelease
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "v2.0.0", payload.GetTagName())
		assert.Equal(t, "notes", payload.GetBody())
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 7, "tag_name": "v2.0.0"}`)
	})

	pub := testPublisher(t, mux)
	target := Target{Owner: "virtualboard", Repo: "relnotes", Tag: "v2.0.0"}

	_, err := pub.Publish(context.Background(), target, "notes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get release v2.0.0")

	target.Create = true
	res, err := pub.Publish(context.Background(), target, "notes")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, int64(7), res.ID)
}

func TestPublishSurfacesAPIErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/virtualboard/relnotes/releases/tags/v1.0.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1}`)
	})
	mux.HandleFunc("/repos/virtualboard/relnotes/releases/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Bad credentials"}`, http.StatusUnauthorized)
	})

	pub := testPublisher(t, mux)
	_, err := pub.Publish(context.Background(), Target{Owner: "virtualboard", Repo: "relnotes", Tag: "v1.0.0", Create: true}, "notes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update release v1.0.0")
}

func TestNewPublisherToken(t *testing.T) {
	t.Setenv("RELNOTES_TEST_TOKEN", "")
	_, err := NewPublisher(config.GitHubSettings{TokenEnv: "RELNOTES_TEST_TOKEN"}, logrus.New())
	require.ErrorIs(t, err, ErrMissingToken)
	assert.Contains(t, err.Error(), "RELNOTES_TEST_TOKEN")

	t.Setenv("RELNOTES_TEST_TOKEN", "secret")
	pub, err := NewPublisher(config.GitHubSettings{
		TokenEnv: "RELNOTES_TEST_TOKEN",
		APIURL:   "https://github.example.com/api/v3/",
	}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "https://github.example.com/api/v3/", pub.client.BaseURL.String())
}
