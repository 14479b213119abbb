// Package git is a change-source provider reading a local git working copy
// through go-git.
package git

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// ParamBranch is the dynamic parameter selecting the branch to follow
const ParamBranch = "branch"

// Source reads modifications from the commit history of a working copy
type Source struct {
	path      string
	url       string
	tagPrefix string
	webURL    string

	mu     sync.Mutex
	branch string
}

var (
	_ interfaces.SourceControl    = (*Source)(nil)
	_ interfaces.ParameterApplier = (*Source)(nil)
)

// Option configures a Source
type Option func(*Source)

// WithURL sets the remote cloned by Initialize
func WithURL(url string) Option {
	return func(s *Source) {
		s.url = url
	}
}

// WithBranch sets the branch checked out and pulled
func WithBranch(branch string) Option {
	return func(s *Source) {
		s.branch = branch
	}
}

// WithTagPrefix sets the prefix of tags created by LabelSourceControl.
// Defaults to "build-".
func WithTagPrefix(prefix string) Option {
	return func(s *Source) {
		s.tagPrefix = prefix
	}
}

// WithCommitURL sets a base URL; modifications link to base + "/" + hash
func WithCommitURL(base string) Option {
	return func(s *Source) {
		s.webURL = strings.TrimSuffix(base, "/")
	}
}

// New creates a Source for the working copy at path
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:      path,
		tagPrefix: "build-",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Branch returns the branch currently followed
func (s *Source) Branch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branch
}

// GetModifications lists the files touched by commits made after the start
// of the previous build and up to the start of the current one
func (s *Source) GetModifications(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error) {
	logger := ctxlog.From(ctx)

	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	start, err := s.startHash(repo)
	if err != nil {
		return nil, err
	}

	opts := &git.LogOptions{From: start, Order: git.LogOrderCommitterTime}
	var since time.Time
	if from != nil && !from.StartTime.IsZero() {
		since = from.StartTime
		opts.Since = &since
	}
	if to != nil && !to.StartTime.IsZero() {
		until := to.StartTime
		opts.Until = &until
	}

	iter, err := repo.Log(opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read commit log", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
	}
	defer iter.Close()

	var mods []*model.Modification
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Since is inclusive; a commit at the previous start belongs to the previous window
		if !since.IsZero() && !c.Committer.When.After(since) {
			return nil
		}
		changes, err := commitChanges(ctx, c)
		if err != nil {
			return goerr.Wrap(err, "failed to diff commit", goerr.V("commit", c.Hash.String()))
		}
		for _, ch := range changes {
			mod, err := s.toModification(c, ch)
			if err != nil {
				return err
			}
			mods = append(mods, mod)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk commit log", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
	}

	logger.Debug("Read modifications from git", "path", s.path, "count", len(mods))
	return mods, nil
}

// startHash resolves the followed branch, local first and then the origin
// remote. Without a branch the log starts at HEAD.
func (s *Source) startHash(repo *git.Repository) (plumbing.Hash, error) {
	branch := s.Branch()
	if branch == "" {
		head, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, goerr.Wrap(err, "failed to resolve HEAD", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
		}
		return head.Hash(), nil
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName("origin", branch),
	} {
		ref, err := repo.Reference(name, true)
		if err == nil {
			return ref.Hash(), nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, goerr.Wrap(err, "failed to resolve branch",
				goerr.T(types.ErrTagSource), goerr.V("ref", name.String()))
		}
	}
	return plumbing.ZeroHash, goerr.New("branch not found",
		goerr.T(types.ErrTagSource), goerr.V("branch", branch), goerr.V("path", s.path))
}

// commitChanges diffs the commit against its first parent, or against an
// empty tree for the root commit. Renames are detected.
func commitChanges(ctx context.Context, c *object.Commit) (object.Changes, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	return object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
}

func (s *Source) toModification(c *object.Commit, ch *object.Change) (*model.Modification, error) {
	action, err := ch.Action()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify change", goerr.V("commit", c.Hash.String()))
	}

	name := ch.To.Name
	kind := model.ModificationModified
	switch action {
	case merkletrie.Insert:
		kind = model.ModificationAdded
	case merkletrie.Delete:
		kind = model.ModificationDeleted
		name = ch.From.Name
	case merkletrie.Modify:
		if ch.From.Name != ch.To.Name {
			kind = model.ModificationRenamed
		}
	}

	folder, file := path.Split(name)
	mod := &model.Modification{
		Type:         kind,
		FileName:     file,
		FolderName:   strings.TrimSuffix(folder, "/"),
		UserName:     c.Author.Name,
		EmailAddress: c.Author.Email,
		Comment:      strings.TrimSpace(c.Message),
		ChangeNumber: c.Hash.String(),
		ModifiedTime: c.Author.When,
	}
	if s.webURL != "" {
		mod.URL = s.webURL + "/" + c.Hash.String()
	}
	return mod, nil
}

// LabelSourceControl tags HEAD with the build label when the build passed
func (s *Source) LabelSourceControl(ctx context.Context, result *model.IntegrationResult) error {
	if !result.Succeeded() || result.Label == "" {
		return nil
	}

	repo, err := s.open()
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return goerr.Wrap(err, "failed to resolve HEAD", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
	}

	name := s.tagPrefix + result.Label
	if _, err := repo.CreateTag(name, head.Hash(), nil); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			ctxlog.From(ctx).Warn("Tag already exists, leaving it untouched", "tag", name)
			return nil
		}
		return goerr.Wrap(err, "failed to create tag", goerr.T(types.ErrTagSource), goerr.V("tag", name))
	}

	ctxlog.From(ctx).Info("Labelled source", "tag", name, "commit", head.Hash().String())
	return nil
}

// GetSource pulls the followed branch into the working copy
func (s *Source) GetSource(ctx context.Context, result *model.IntegrationResult) error {
	repo, err := s.open()
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return goerr.Wrap(err, "failed to get worktree", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
	}

	opts := &git.PullOptions{RemoteName: "origin"}
	if branch := s.Branch(); branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	err = wt.PullContext(ctx, opts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		ctxlog.From(ctx).Debug("Working copy already up to date", "path", s.path)
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to pull working copy", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
	}

	ctxlog.From(ctx).Info("Updated working copy", "path", s.path)
	return nil
}

// Initialize clones the remote when the working copy does not exist yet
func (s *Source) Initialize(ctx context.Context, project *model.ProjectInfo) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if s.url == "" {
		return goerr.New("working copy is missing and no remote is configured",
			goerr.T(types.ErrTagSource), goerr.V("path", s.path), goerr.V("project", project.Name))
	}

	opts := &git.CloneOptions{URL: s.url}
	if branch := s.Branch(); branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	start := time.Now()
	if _, err := git.PlainCloneContext(ctx, s.path, false, opts); err != nil {
		return goerr.Wrap(err, "failed to clone repository",
			goerr.T(types.ErrTagSource), goerr.V("url", s.url), goerr.V("path", s.path))
	}

	ctxlog.From(ctx).Info("Cloned repository",
		"project", project.Name,
		"url", s.url,
		"path", s.path,
		"duration", time.Since(start),
	)
	return nil
}

// Purge removes the working copy
func (s *Source) Purge(ctx context.Context, project *model.ProjectInfo) error {
	if err := os.RemoveAll(s.path); err != nil {
		return goerr.Wrap(err, "failed to remove working copy", goerr.V("path", s.path))
	}
	ctxlog.From(ctx).Info("Purged working copy", "project", project.Name, "path", s.path)
	return nil
}

// ApplyParameters switches the followed branch. A missing value falls back
// to the definition default.
func (s *Source) ApplyParameters(params map[string]string, definitions []model.ParameterDefinition) {
	branch, ok := params[ParamBranch]
	if !ok {
		for _, def := range definitions {
			if def.Name == ParamBranch {
				branch, ok = def.Default, def.Default != ""
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

func (s *Source) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open repository", goerr.T(types.ErrTagSource), goerr.V("path", s.path))
	}
	return repo, nil
}
