package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/infra/smtp"
	"github.com/urfave/cli/v3"
)

// SMTP holds mail server configuration
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string `masq:"secret"`
	SSL      bool
	Insecure bool
	Timeout  time.Duration
	From     string
}

// Flags returns CLI flags for SMTP configuration
func (c *SMTP) Flags() []cli.Flag {
	category := "SMTP"
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "smtp-host",
			Usage:       "SMTP server host",
			Category:    category,
			Destination: &c.Host,
			Sources:     cli.EnvVars("HERALD_SMTP_HOST"),
		},
		&cli.IntFlag{
			Name:        "smtp-port",
			Usage:       "SMTP server port (0 selects the default for the TLS mode)",
			Category:    category,
			Destination: &c.Port,
			Sources:     cli.EnvVars("HERALD_SMTP_PORT"),
		},
		&cli.StringFlag{
			Name:        "smtp-user",
			Usage:       "SMTP user name; enables PLAIN authentication",
			Category:    category,
			Destination: &c.Username,
			Sources:     cli.EnvVars("HERALD_SMTP_USER"),
		},
		&cli.StringFlag{
			Name:        "smtp-password",
			Usage:       "SMTP password",
			Category:    category,
			Destination: &c.Password,
			Sources:     cli.EnvVars("HERALD_SMTP_PASSWORD"),
		},
		&cli.BoolFlag{
			Name:        "smtp-ssl",
			Usage:       "Use implicit TLS",
			Category:    category,
			Destination: &c.SSL,
			Sources:     cli.EnvVars("HERALD_SMTP_SSL"),
		},
		&cli.BoolFlag{
			Name:        "smtp-insecure",
			Usage:       "Do not attempt STARTTLS",
			Category:    category,
			Destination: &c.Insecure,
			Sources:     cli.EnvVars("HERALD_SMTP_INSECURE"),
		},
		&cli.DurationFlag{
			Name:        "smtp-timeout",
			Usage:       "SMTP dial and send timeout",
			Category:    category,
			Value:       30 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("HERALD_SMTP_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "smtp-from",
			Usage:       "Sender address used when the project sets none",
			Category:    category,
			Destination: &c.From,
			Sources:     cli.EnvVars("HERALD_SMTP_FROM"),
		},
	}
}

// Enabled reports whether a mail server is configured
func (c *SMTP) Enabled() bool {
	return c.Host != ""
}

// Validate checks the configuration
func (c *SMTP) Validate() error {
	if c.Host == "" {
		return goerr.New("smtp-host is required", goerr.T(types.ErrTagConfig))
	}
	if c.Port < 0 || c.Port > 65535 {
		return goerr.New("smtp-port is out of range", goerr.T(types.ErrTagConfig), goerr.V("port", c.Port))
	}
	if c.Password != "" && c.Username == "" {
		return goerr.New("smtp-password is set without smtp-user", goerr.T(types.ErrTagConfig))
	}
	return nil
}

// Gateway builds the SMTP gateway
func (c *SMTP) Gateway() (*smtp.Gateway, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return smtp.New(smtp.Config{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		SSL:      c.SSL,
		Insecure: c.Insecure,
		Timeout:  c.Timeout,
		From:     c.From,
	})
}
