package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/cli/config"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/infra/git"
	"github.com/m-mizutani/herald/pkg/usecase"
	"github.com/urfave/cli/v3"
)

type sourceOptions struct {
	project config.Project
	github  config.GitHub
	params  []string
}

func (o *sourceOptions) flags() []cli.Flag {
	flags := append(o.project.Flags(), o.github.APIFlags()...)
	return append(flags, &cli.StringSliceFlag{
		Name:        "param",
		Usage:       "Provider parameter as key=value, e.g. branch=release",
		Destination: &o.params,
	})
}

// open builds the filtered source and applies parameters to it
func (o *sourceOptions) open() (*usecase.Runtime, *usecase.FilteredSource, error) {
	rt, err := buildRuntime(&o.project, nil, &o.github)
	if err != nil {
		return nil, nil, err
	}
	src := rt.Source()
	if src == nil {
		return nil, nil, goerr.New("project has no change source", goerr.T(types.ErrTagConfig))
	}

	params := make(map[string]string, len(o.params))
	for _, p := range o.params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, nil, goerr.New("parameter must be key=value", goerr.T(types.ErrTagConfig), goerr.V("param", p))
		}
		params[key] = value
	}
	src.ApplyParameters(params, []model.ParameterDefinition{
		{
			Name:        git.ParamBranch,
			Default:     rt.Project().Source.Branch,
			Description: "Branch whose history is read",
		},
	})
	return rt, src, nil
}

func (o *sourceOptions) projectInfo(rt *usecase.Runtime) *model.ProjectInfo {
	p := rt.Project()
	return &model.ProjectInfo{
		Name:             p.Name,
		WorkingDirectory: p.WorkingDirectory,
	}
}

func parseTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "time must be RFC3339", goerr.T(types.ErrTagConfig), goerr.V(name, value))
	}
	return t, nil
}

func cmdSource() *cli.Command {
	return &cli.Command{
		Name:  "source",
		Usage: "Drive the project's change source through the filter chain",
		Commands: []*cli.Command{
			cmdSourceModifications(),
			cmdSourceLabel(),
			cmdSourceUpdate(),
			cmdSourceInit(),
			cmdSourcePurge(),
		},
	}
}

func cmdSourceModifications() *cli.Command {
	var (
		opts     sourceOptions
		from, to string
	)

	flags := append(opts.flags(),
		&cli.StringFlag{
			Name:        "from",
			Usage:       "Start time of the previous build (RFC3339)",
			Destination: &from,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "Start time of the current build (RFC3339), defaults to now",
			Destination: &to,
		},
	)

	return &cli.Command{
		Name:    "modifications",
		Aliases: []string{"mods"},
		Usage:   "Print the filtered modifications between two builds as JSON",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			fromTime, err := parseTime("from", from)
			if err != nil {
				return err
			}
			toTime, err := parseTime("to", to)
			if err != nil {
				return err
			}
			if toTime.IsZero() {
				toTime = time.Now()
			}

			_, src, err := opts.open()
			if err != nil {
				return err
			}

			mods, err := src.GetModifications(ctx,
				&model.IntegrationResult{StartTime: fromTime},
				&model.IntegrationResult{StartTime: toTime},
			)
			if err != nil {
				return err
			}
			return writeJSON(c, mods)
		},
	}
}

func cmdSourceLabel() *cli.Command {
	var (
		opts   sourceOptions
		label  string
		status string
	)

	flags := append(opts.flags(),
		&cli.StringFlag{
			Name:        "label",
			Usage:       "Build label",
			Required:    true,
			Destination: &label,
		},
		&cli.StringFlag{
			Name:        "status",
			Usage:       "Build status",
			Value:       string(model.StatusSuccess),
			Destination: &status,
		},
	)

	return &cli.Command{
		Name:  "label",
		Usage: "Label the source revision of a build",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, src, err := opts.open()
			if err != nil {
				return err
			}
			return src.LabelSourceControl(ctx, &model.IntegrationResult{
				ProjectName: rt.Project().Name,
				Label:       label,
				Status:      model.IntegrationStatus(status),
			})
		},
	}
}

func cmdSourceUpdate() *cli.Command {
	var opts sourceOptions

	return &cli.Command{
		Name:  "update",
		Usage: "Bring the working copy up to date",
		Flags: opts.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, src, err := opts.open()
			if err != nil {
				return err
			}
			return src.GetSource(ctx, &model.IntegrationResult{
				ProjectName:      rt.Project().Name,
				WorkingDirectory: rt.Project().WorkingDirectory,
			})
		},
	}
}

func cmdSourceInit() *cli.Command {
	var opts sourceOptions

	return &cli.Command{
		Name:  "init",
		Usage: "Create the working copy",
		Flags: opts.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, src, err := opts.open()
			if err != nil {
				return err
			}
			if err := src.Initialize(ctx, opts.projectInfo(rt)); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Initialized source of %s\n", rt.Project().Name)
			return nil
		},
	}
}

func cmdSourcePurge() *cli.Command {
	var opts sourceOptions

	return &cli.Command{
		Name:  "purge",
		Usage: "Remove the working copy",
		Flags: opts.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, src, err := opts.open()
			if err != nil {
				return err
			}
			if err := src.Purge(ctx, opts.projectInfo(rt)); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Purged source of %s\n", rt.Project().Name)
			return nil
		},
	}
}
