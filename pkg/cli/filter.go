package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/herald/pkg/cli/config"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdFilter() *cli.Command {
	var (
		projectCfg config.Project
		input      string
		asJSON     bool
	)

	flags := append(projectCfg.Flags(),
		inputFlag(&input),
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the accepted modifications as JSON",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:      "filter",
		Aliases:   []string{"f"},
		Usage:     "Run a change set through the project's filter chain",
		UsageText: "herald filter -p herald.toml -i modifications.json",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := buildRuntime(&projectCfg, nil, nil)
			if err != nil {
				return err
			}

			var mods []*model.Modification
			if err := readJSON(c, input, &mods); err != nil {
				return err
			}

			accepted, err := rt.FilterChain().Filter(ctx, mods)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(c, accepted)
			}

			kept := make(map[*model.Modification]struct{}, len(accepted))
			for _, mod := range accepted {
				kept[mod] = struct{}{}
			}

			w := c.Root().Writer
			accept := color.New(color.FgGreen).SprintFunc()
			reject := color.New(color.FgYellow).SprintFunc()
			for _, mod := range mods {
				if mod == nil {
					continue
				}
				mark := reject("skip  ")
				if _, ok := kept[mod]; ok {
					mark = accept("accept")
				}
				fmt.Fprintf(w, "%s %s (%s, %s)\n", mark, mod.Path(), mod.UserName, mod.Type)
			}
			fmt.Fprintf(w, "%d of %d modifications accepted\n", len(accepted), len(mods))
			return nil
		},
	}
}
