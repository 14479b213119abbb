package github

import (
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// NewAppClient creates a GitHub client authenticated as an App installation
func NewAppClient(appID, installationID int64, privateKey []byte) (*github.Client, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.T(types.ErrTagConfig),
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}
	return github.NewClient(&http.Client{Transport: itr}), nil
}

// NewTokenClient creates a GitHub client authenticated with a token. An
// empty token gives an anonymous client.
func NewTokenClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}
