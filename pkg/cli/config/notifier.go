package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Notifier selects the delivery gateway from the SMTP and Slack settings
type Notifier struct {
	SMTP  SMTP
	Slack Slack
}

// Flags returns CLI flags of every gateway
func (c *Notifier) Flags() []cli.Flag {
	return append(c.SMTP.Flags(), c.Slack.Flags()...)
}

// Gateway builds the configured gateway. Slack wins when both are set.
func (c *Notifier) Gateway() (interfaces.Gateway, error) {
	switch {
	case c.Slack.Enabled():
		gw, err := c.Slack.Gateway()
		if err != nil {
			return nil, err
		}
		return gw, nil
	case c.SMTP.Enabled():
		gw, err := c.SMTP.Gateway()
		if err != nil {
			return nil, err
		}
		return gw, nil
	default:
		return nil, goerr.New("no notification gateway configured, set smtp-host or slack-token",
			goerr.T(types.ErrTagConfig))
	}
}
