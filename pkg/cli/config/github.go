package config

import (
	"github.com/google/go-github/v75/github"
	githubinfra "github.com/m-mizutani/herald/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub webhook and API configuration
type GitHub struct {
	WebhookSecret  string `masq:"secret"`
	Branch         string
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
}

// Flags returns CLI flags for GitHub webhook configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret; push webhooks are rejected without it",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("HERALD_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.StringFlag{
			Name:        "github-branch",
			Usage:       "Only queue pushes to this branch",
			Destination: &c.Branch,
			Sources:     cli.EnvVars("HERALD_GITHUB_BRANCH"),
		},
	}
}

// APIFlags returns CLI flags authenticating the GitHub change source
func (c *GitHub) APIFlags() []cli.Flag {
	category := "GitHub API"
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token for the github change source",
			Category:    category,
			Destination: &c.Token,
			Sources:     cli.EnvVars("HERALD_GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, used instead of a token when set",
			Category:    category,
			Destination: &c.AppID,
			Sources:     cli.EnvVars("HERALD_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App installation ID",
			Category:    category,
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("HERALD_GITHUB_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App private key (PEM)",
			Category:    category,
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("HERALD_GITHUB_APP_PRIVATE_KEY"),
		},
	}
}

// Client builds the API client. App credentials win over a token.
func (c *GitHub) Client() (*github.Client, error) {
	if c.AppID != 0 {
		return githubinfra.NewAppClient(c.AppID, c.InstallationID, []byte(c.PrivateKey))
	}
	return githubinfra.NewTokenClient(c.Token), nil
}
