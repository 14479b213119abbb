package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/herald/pkg/cli/config"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdPreview() *cli.Command {
	var (
		projectCfg config.Project
		input      string
		asJSON     bool
	)

	flags := append(projectCfg.Flags(),
		inputFlag(&input),
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the envelope as JSON",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:      "preview",
		Usage:     "Show the notification a build result would produce without sending it",
		UsageText: "herald preview -p herald.toml -i result.json",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := buildRuntime(&projectCfg, nil, nil)
			if err != nil {
				return err
			}

			result, err := readResult(c, rt, input)
			if err != nil {
				return err
			}

			envelope := rt.Publisher().Compose(ctx, result)
			if asJSON {
				return writeJSON(c, envelope)
			}

			w := c.Root().Writer
			if envelope == nil {
				fmt.Fprintln(w, "Build outcome is unknown, nothing would be published")
				return nil
			}

			bold := color.New(color.Bold).SprintFunc()
			to := strings.Join(envelope.To, ", ")
			if to == "" {
				to = color.YellowString("(nobody, notification would be skipped)")
			}
			fmt.Fprintf(w, "%s %s\n", bold("From:"), envelope.From)
			fmt.Fprintf(w, "%s %s\n", bold("To:"), to)
			if envelope.ReplyTo != "" {
				fmt.Fprintf(w, "%s %s\n", bold("Reply-To:"), envelope.ReplyTo)
			}
			fmt.Fprintf(w, "%s %s\n", bold("Subject:"), envelope.Subject)
			for _, a := range envelope.Attachments {
				fmt.Fprintf(w, "%s %s\n", bold("Attachment:"), a)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, envelope.Body)
			return nil
		},
	}
}

// readResult decodes a build result and fills in the project name
func readResult(c *cli.Command, rt *usecase.Runtime, input string) (*model.IntegrationResult, error) {
	var result model.IntegrationResult
	if err := readJSON(c, input, &result); err != nil {
		return nil, err
	}
	if result.ProjectName == "" {
		result.ProjectName = rt.Project().Name
	}
	if result.ProjectURL == "" {
		result.ProjectURL = rt.Project().URL
	}
	if result.WorkingDirectory == "" {
		result.WorkingDirectory = rt.Project().WorkingDirectory
	}
	return &result, nil
}
