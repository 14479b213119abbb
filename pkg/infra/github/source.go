package github

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// ParamBranch selects the branch whose history is read
const ParamBranch = "branch"

// Source reads modifications from the GitHub commits API. There is no
// working copy, so source retrieval and purge do nothing.
type Source struct {
	client *github.Client
	owner  string
	repo   string

	mu     sync.Mutex
	branch string
}

var (
	_ interfaces.SourceControl    = (*Source)(nil)
	_ interfaces.ParameterApplier = (*Source)(nil)
)

// New creates a Source for "owner/repo"
func New(client *github.Client, repository, branch string) (*Source, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, goerr.New("repository must be owner/repo",
			goerr.T(types.ErrTagConfig), goerr.V("repository", repository))
	}
	if client == nil {
		client = NewTokenClient("")
	}
	return &Source{
		client: client,
		owner:  owner,
		repo:   repo,
		branch: branch,
	}, nil
}

// Branch returns the branch currently read, empty for the default branch
func (s *Source) Branch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branch
}

// GetModifications lists the files of commits made after the start of the
// previous build and up to the start of the current one, newest first
func (s *Source) GetModifications(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error) {
	logger := ctxlog.From(ctx)

	opts := &github.CommitsListOptions{
		SHA:         s.Branch(),
		ListOptions: github.ListOptions{PerPage: 100},
	}
	if from != nil && !from.StartTime.IsZero() {
		opts.Since = from.StartTime
	}
	if to != nil && !to.StartTime.IsZero() {
		opts.Until = to.StartTime
	}

	var mods []*model.Modification
	for {
		commits, resp, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list commits",
				goerr.T(types.ErrTagSource),
				goerr.V("repository", s.owner+"/"+s.repo),
			)
		}

		for _, c := range commits {
			// the list endpoint omits files
			full, _, err := s.client.Repositories.GetCommit(ctx, s.owner, s.repo, c.GetSHA(), nil)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to get commit",
					goerr.T(types.ErrTagSource),
					goerr.V("repository", s.owner+"/"+s.repo),
					goerr.V("commit", c.GetSHA()),
				)
			}
			mods = append(mods, toModifications(full)...)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logger.Debug("Read modifications from GitHub",
		"repository", s.owner+"/"+s.repo,
		"count", len(mods),
	)
	return mods, nil
}

func toModifications(c *github.RepositoryCommit) []*model.Modification {
	commit := c.GetCommit()
	author := commit.GetAuthor()

	user := c.GetAuthor().GetLogin()
	if user == "" {
		user = author.GetName()
	}

	mods := make([]*model.Modification, 0, len(c.Files))
	for _, f := range c.Files {
		kind := model.ModificationModified
		switch f.GetStatus() {
		case "added":
			kind = model.ModificationAdded
		case "removed":
			kind = model.ModificationDeleted
		case "renamed":
			kind = model.ModificationRenamed
		}

		folder, file := path.Split(f.GetFilename())
		mods = append(mods, &model.Modification{
			Type:         kind,
			FileName:     file,
			FolderName:   strings.TrimSuffix(folder, "/"),
			UserName:     user,
			EmailAddress: author.GetEmail(),
			Comment:      strings.TrimSpace(commit.GetMessage()),
			ChangeNumber: c.GetSHA(),
			ModifiedTime: author.GetDate().Time,
			URL:          c.GetHTMLURL(),
		})
	}
	return mods
}

// LabelSourceControl does nothing. Builds are labelled by the CI system
// pushing tags, not through the API.
func (s *Source) LabelSourceControl(ctx context.Context, result *model.IntegrationResult) error {
	ctxlog.From(ctx).Debug("GitHub source does not label builds", "label", result.Label)
	return nil
}

// GetSource does nothing, there is no working copy
func (s *Source) GetSource(ctx context.Context, result *model.IntegrationResult) error {
	return nil
}

// Initialize checks that the repository is reachable with the configured
// credentials
func (s *Source) Initialize(ctx context.Context, project *model.ProjectInfo) error {
	repo, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		return goerr.Wrap(err, "failed to access repository",
			goerr.T(types.ErrTagSource),
			goerr.V("repository", s.owner+"/"+s.repo),
		)
	}
	ctxlog.From(ctx).Info("GitHub repository reachable",
		"project", project.Name,
		"repository", repo.GetFullName(),
		"default_branch", repo.GetDefaultBranch(),
	)
	return nil
}

// Purge does nothing, there is no working copy
func (s *Source) Purge(ctx context.Context, project *model.ProjectInfo) error {
	return nil
}

// ApplyParameters switches the branch. A missing value falls back to the
// definition default.
func (s *Source) ApplyParameters(params map[string]string, definitions []model.ParameterDefinition) {
	branch, ok := params[ParamBranch]
	if !ok {
		for _, def := range definitions {
			if def.Name == ParamBranch && def.Default != "" {
				branch, ok = def.Default, true
			}
		}
	}
	if !ok {
		return
	}

	s.mu.Lock()
	s.branch = branch
	s.mu.Unlock()
}
