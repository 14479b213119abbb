package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/cli/config"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var projectCfg config.Project

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check the project file and report every problem found",
		Flags:   projectCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			project, err := projectCfg.Load()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			issues := project.Validate()
			for _, issue := range issues {
				label := color.YellowString("warning")
				if issue.Severity == model.SeverityError {
					label = color.RedString("error  ")
				}
				fmt.Fprintf(w, "%s %s: %s\n", label, issue.Field, issue.Message)
			}

			if issues.HasErrors() {
				return goerr.New("project file has errors",
					goerr.T(types.ErrTagConfig),
					goerr.V("path", projectCfg.Path),
					goerr.V("issues", len(issues)),
				)
			}

			fmt.Fprintf(w, "%s %s is valid\n", color.GreenString("ok"), projectCfg.Path)
			return nil
		},
	}
}
