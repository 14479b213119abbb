package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/herald/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdPublish() *cli.Command {
	var (
		projectCfg  config.Project
		notifierCfg config.Notifier
		input       string
	)

	flags := append(projectCfg.Flags(), inputFlag(&input))
	flags = append(flags, notifierCfg.Flags()...)

	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish the notification for a build result",
		UsageText: "herald publish -p herald.toml --smtp-host mail.example.com -i result.json",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			gateway, err := notifierCfg.Gateway()
			if err != nil {
				return err
			}

			rt, err := buildRuntime(&projectCfg, gateway, nil)
			if err != nil {
				return err
			}

			result, err := readResult(c, rt, input)
			if err != nil {
				return err
			}

			executed, err := rt.Publisher().Execute(ctx, result)
			if err != nil {
				return err
			}

			if !executed {
				fmt.Fprintln(c.Root().Writer, "Build outcome is unknown, nothing published")
				return nil
			}
			fmt.Fprintf(c.Root().Writer, "Published %s result of %s\n", result.Condition(), result.ProjectName)
			return nil
		},
	}
}
