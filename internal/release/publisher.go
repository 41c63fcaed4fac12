package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/sirupsen/logrus"

	"github.com/virtualboard/relnotes/internal/config"
)

// ErrMissingToken indicates the configured token environment variable is empty.
var ErrMissingToken = errors.New("github token not set")

// Target identifies the release whose body is replaced.
type Target struct {
	Owner string
	Repo  string
	Tag   string
	// Create makes a new release when none exists for Tag.
	Create bool
}

// Published reports the outcome of a publish.
type Published struct {
	ID      int64  `json:"id"`
	Tag     string `json:"tag"`
	URL     string `json:"url"`
	Created bool   `json:"created"`
}

// Publisher writes release notes into GitHub releases.
type Publisher struct {
	client *github.Client
	log    *logrus.Entry
}

// ParseRepo splits "owner/name".
func ParseRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	return owner, name, nil
}

// NewPublisher builds a publisher from settings. The token is read from the
// environment variable named by settings.TokenEnv.
func NewPublisher(settings config.GitHubSettings, logger *logrus.Logger) (*Publisher, error) {
	envName := settings.TokenEnv
	if envName == "" {
		envName = "GITHUB_TOKEN"
	}
	token := os.Getenv(envName)
	if token == "" {
		return nil, fmt.Errorf("%w: export %s", ErrMissingToken, envName)
	}

	client := github.NewClient(nil).WithAuthToken(token)
	if settings.APIURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(settings.APIURL, settings.APIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
	}
	return newPublisher(client, logger), nil
}

func newPublisher(client *github.Client, logger *logrus.Logger) *Publisher {
	return &Publisher{
		client: client,
		log:    logger.WithField("component", "publisher"),
	}
}

// Publish replaces the body of the release tagged target.Tag with notes.
func (p *Publisher) Publish(ctx context.Context, target Target, notes string) (*Published, error) {
	log := p.log.WithFields(logrus.Fields{"owner": target.Owner, "repo": target.Repo, "tag": target.Tag})

	rel, _, err := p.client.Repositories.GetReleaseByTag(ctx, target.Owner, target.Repo, target.Tag)
	if err != nil {
		if !isNotFound(err) || !target.Create {
			return nil, fmt.Errorf("failed to get release %s: %w", target.Tag, err)
		}
		log.Info("Release not found, creating it")
		created, _, err := p.client.Repositories.CreateRelease(ctx, target.Owner, target.Repo, &github.RepositoryRelease{
			TagName: github.String(target.Tag),
			Name:    github.String(target.Tag),
			Body:    github.String(notes),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create release %s: %w", target.Tag, err)
		}
		return &Published{ID: created.GetID(), Tag: target.Tag, URL: created.GetHTMLURL(), Created: true}, nil
	}

	log.WithField("release_id", rel.GetID()).Info("Updating release notes")
	updated, _, err := p.client.Repositories.EditRelease(ctx, target.Owner, target.Repo, rel.GetID(), &github.RepositoryRelease{
		Body: github.String(notes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update release %s: %w", target.Tag, err)
	}
	return &Published{ID: updated.GetID(), Tag: target.Tag, URL: updated.GetHTMLURL()}, nil
}

func isNotFound(err error) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound
}
