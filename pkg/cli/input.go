package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/cli/config"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func inputFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "input",
		Aliases:     []string{"i"},
		Usage:       "JSON input file, \"-\" reads stdin",
		Value:       "-",
		Destination: dst,
	}
}

// readJSON decodes the input file, or stdin for "-"
func readJSON(c *cli.Command, path string, v any) error {
	var r io.Reader = c.Root().Reader
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return goerr.Wrap(err, "failed to open input", goerr.V("path", path))
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		r = os.Stdin
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode input", goerr.V("path", path))
	}
	return nil
}

func writeJSON(c *cli.Command, v any) error {
	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	return nil
}

// buildRuntime loads the project file once for a one-shot command
func buildRuntime(projectCfg *config.Project, gateway interfaces.Gateway, githubCfg *config.GitHub) (*usecase.Runtime, error) {
	rt, err := config.NewRuntimeBuilder(projectCfg, gateway).WithGitHub(githubCfg).Build()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load project", goerr.V("path", projectCfg.Path))
	}
	return rt, nil
}
