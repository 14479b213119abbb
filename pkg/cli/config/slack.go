package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack delivery configuration
type Slack struct {
	Token          string `masq:"secret"`
	Channel        string
	DirectMessages bool
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	category := "Slack"
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-token",
			Usage:       "Slack bot token",
			Category:    category,
			Destination: &c.Token,
			Sources:     cli.EnvVars("HERALD_SLACK_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel receiving every notification",
			Category:    category,
			Destination: &c.Channel,
			Sources:     cli.EnvVars("HERALD_SLACK_CHANNEL"),
		},
		&cli.BoolFlag{
			Name:        "slack-dm",
			Usage:       "Also send a direct message to each recipient found by email",
			Category:    category,
			Destination: &c.DirectMessages,
			Sources:     cli.EnvVars("HERALD_SLACK_DM"),
		},
	}
}

// Enabled reports whether a Slack token is configured
func (c *Slack) Enabled() bool {
	return c.Token != ""
}

// Gateway builds the Slack gateway
func (c *Slack) Gateway() (*slack.Gateway, error) {
	if c.Token == "" {
		return nil, goerr.New("slack-token is required", goerr.T(types.ErrTagConfig))
	}
	return slack.New(c.Token,
		slack.WithChannel(c.Channel),
		slack.WithDirectMessages(c.DirectMessages),
	)
}
