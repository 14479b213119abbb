package github

import (
	"context"
	"path"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
)

// EventProcessor converts GitHub push events into modifications
type EventProcessor struct {
	sink   interfaces.ModificationSink
	branch string
}

var _ interfaces.EventProcessor = (*EventProcessor)(nil)

// Option configures an EventProcessor
type Option func(*EventProcessor)

// WithBranch ignores pushes to any other branch
func WithBranch(branch string) Option {
	return func(p *EventProcessor) {
		p.branch = branch
	}
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(sink interfaces.ModificationSink, opts ...Option) *EventProcessor {
	p := &EventProcessor{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessEvent processes a GitHub webhook payload
func (p *EventProcessor) ProcessEvent(ctx context.Context, eventType string, payload []byte) error {
	logger := ctxlog.From(ctx)

	switch eventType {
	case string(model.EventTypePush):
		event, err := github.ParseWebHook(eventType, payload)
		if err != nil {
			return goerr.Wrap(err, "failed to parse push event")
		}
		pushEvent, ok := event.(*github.PushEvent)
		if !ok {
			logger.Warn("Invalid push event payload")
			return nil
		}
		return p.processPushEvent(ctx, pushEvent)
	default:
		logger.Info("Ignoring unsupported event type", "event_type", eventType)
		return nil
	}
}

func (p *EventProcessor) processPushEvent(ctx context.Context, event *github.PushEvent) error {
	logger := ctxlog.From(ctx).With(
		"repository", event.GetRepo().GetFullName(),
		"ref", event.GetRef(),
	)

	if event.GetDeleted() {
		logger.Info("Ignoring push deleting a ref")
		return nil
	}

	if p.branch != "" && event.GetRef() != "refs/heads/"+p.branch {
		logger.Info("Ignoring push to untracked branch", "branch", p.branch)
		return nil
	}

	mods := ExtractModifications(event)
	p.sink.Add(mods...)

	logger.Info("Queued modifications from push",
		"commits", len(event.GetCommits()),
		"modifications", len(mods),
	)
	return nil
}

// ExtractModifications returns one modification per file touched by the
// commits of the push, in commit order
func ExtractModifications(event *github.PushEvent) []*model.Modification {
	var mods []*model.Modification
	for _, commit := range event.GetCommits() {
		if commit == nil {
			continue
		}

		author := commit.GetAuthor()
		user := author.GetLogin()
		if user == "" {
			user = author.GetName()
		}

		base := model.Modification{
			UserName:     user,
			EmailAddress: author.GetEmail(),
			Comment:      strings.TrimSpace(commit.GetMessage()),
			ChangeNumber: commit.GetID(),
			ModifiedTime: commit.GetTimestamp().Time,
			URL:          commit.GetURL(),
		}

		for _, files := range []struct {
			kind  string
			names []string
		}{
			{model.ModificationAdded, commit.Added},
			{model.ModificationModified, commit.Modified},
			{model.ModificationDeleted, commit.Removed},
		} {
			for _, name := range files.names {
				mod := base
				mod.Type = files.kind
				folder, file := path.Split(name)
				mod.FolderName = strings.TrimSuffix(folder, "/")
				mod.FileName = file
				mods = append(mods, &mod)
			}
		}
	}
	return mods
}
