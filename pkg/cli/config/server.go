package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr      string
	APISecret string `masq:"secret"`
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("HERALD_ADDR"),
		},
		&cli.StringFlag{
			Name:        "api-secret",
			Usage:       "Shared secret signing /api/v1 requests; publishing over HTTP is disabled without it",
			Destination: &c.APISecret,
			Sources:     cli.EnvVars("HERALD_API_SECRET"),
		},
	}
}
