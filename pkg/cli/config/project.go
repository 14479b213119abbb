package config

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/infra/git"
	githubinfra "github.com/m-mizutani/herald/pkg/infra/github"
	"github.com/m-mizutani/herald/pkg/infra/pushsource"
	"github.com/m-mizutani/herald/pkg/usecase"
	"github.com/m-mizutani/herald/pkg/utils/metrics"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Project points at the project file
type Project struct {
	Path     string
	Watch    bool
	Debounce time.Duration
}

// Flags returns CLI flags for the project file
func (c *Project) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Project file (TOML)",
			Value:       "herald.toml",
			Destination: &c.Path,
			Sources:     cli.EnvVars("HERALD_PROJECT"),
		},
	}
}

// WatchFlags returns flags controlling hot reload of the project file
func (c *Project) WatchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "watch",
			Usage:       "Reload the project file when it changes",
			Destination: &c.Watch,
			Sources:     cli.EnvVars("HERALD_WATCH"),
		},
		&cli.DurationFlag{
			Name:        "watch-debounce",
			Usage:       "Quiet period before a changed project file is reloaded",
			Value:       time.Second,
			Destination: &c.Debounce,
			Sources:     cli.EnvVars("HERALD_WATCH_DEBOUNCE"),
		},
	}
}

// Load reads and decodes the project file. Unknown keys are rejected so
// that typos do not silently disable a filter.
func (c *Project) Load() (*model.Project, error) {
	if c.Path == "" {
		return nil, goerr.New("project file is required", goerr.T(types.ErrTagConfig))
	}

	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read project file",
			goerr.T(types.ErrTagConfig), goerr.V("path", c.Path))
	}

	return ParseProject(raw)
}

// ParseProject decodes a TOML project definition
func ParseProject(raw []byte) (*model.Project, error) {
	var project model.Project
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&project); err != nil {
		return nil, goerr.Wrap(err, "failed to decode project file", goerr.T(types.ErrTagConfig))
	}
	return &project, nil
}

// RuntimeBuilder turns the project file into runtimes. The push queue is
// shared by every runtime it builds so that queued pushes survive a reload.
type RuntimeBuilder struct {
	cfg     *Project
	gateway interfaces.Gateway
	github  *GitHub

	mu   sync.Mutex
	push *pushsource.Source
}

// NewRuntimeBuilder creates a RuntimeBuilder. gateway may be nil for
// commands that never send.
func NewRuntimeBuilder(cfg *Project, gateway interfaces.Gateway) *RuntimeBuilder {
	return &RuntimeBuilder{cfg: cfg, gateway: gateway}
}

// WithGitHub sets the credentials of the github change source
func (b *RuntimeBuilder) WithGitHub(cfg *GitHub) *RuntimeBuilder {
	b.github = cfg
	return b
}

// PushSource returns the shared push queue
func (b *RuntimeBuilder) PushSource() *pushsource.Source {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.push == nil {
		b.push = pushsource.New()
	}
	return b.push
}

// Build loads the project file and builds a runtime from it
func (b *RuntimeBuilder) Build() (*usecase.Runtime, error) {
	project, err := b.cfg.Load()
	if err != nil {
		return nil, err
	}
	src, err := b.Source(project)
	if err != nil {
		return nil, err
	}
	return usecase.NewRuntime(project, src, b.gateway)
}

// Source builds the change-source provider the project asks for
func (b *RuntimeBuilder) Source(project *model.Project) (interfaces.SourceControl, error) {
	src := project.Source
	switch src.Type {
	case model.SourceTypeGit:
		opts := []git.Option{
			git.WithURL(src.URL),
			git.WithBranch(src.Branch),
		}
		if project.URL != "" {
			opts = append(opts, git.WithCommitURL(strings.TrimSuffix(project.URL, "/")+"/commit"))
		}
		return git.New(src.Path, opts...), nil
	case model.SourceTypeGitHub:
		cfg := b.github
		if cfg == nil {
			cfg = &GitHub{}
		}
		client, err := cfg.Client()
		if err != nil {
			return nil, err
		}
		gh, err := githubinfra.New(client, src.Repository, src.Branch)
		if err != nil {
			return nil, err
		}
		return gh, nil
	default:
		return b.PushSource(), nil
	}
}

// Reload rebuilds the runtime and swaps it into holder. A broken project
// file keeps the previous runtime active.
func (b *RuntimeBuilder) Reload(ctx context.Context, holder *usecase.RuntimeHolder) error {
	logger := ctxlog.From(ctx)

	rt, err := b.Build()
	if err != nil {
		metrics.ObserveConfigReload(false)
		return goerr.Wrap(err, "failed to reload project, keeping previous configuration",
			goerr.V("path", b.cfg.Path))
	}

	holder.Swap(rt)
	metrics.ObserveConfigReload(true)
	logger.Info("Project reloaded", "path", b.cfg.Path, "project", rt.Project().Name)
	return nil
}
