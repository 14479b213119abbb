// Package pushsource is a change-source provider fed by push webhooks. The
// webhook handler adds modifications as they arrive and the next build
// drains them.
package pushsource

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
)

// Source queues modifications reported by push events
type Source struct {
	mu    sync.Mutex
	queue []*model.Modification
}

var _ interfaces.SourceControl = (*Source)(nil)

// New creates an empty Source
func New() *Source {
	return &Source{}
}

// Add queues modifications
func (s *Source) Add(mods ...*model.Modification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mod := range mods {
		if mod != nil {
			s.queue = append(s.queue, mod)
		}
	}
}

// Pending returns the number of queued modifications
func (s *Source) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// GetModifications removes and returns the queued modifications made no
// later than the start of the current build. Records older than the
// previous build are discarded; newer ones stay queued.
func (s *Source) GetModifications(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		taken []*model.Modification
		keep  []*model.Modification
		stale int
	)
	for _, mod := range s.queue {
		switch {
		case to != nil && !to.StartTime.IsZero() && mod.ModifiedTime.After(to.StartTime):
			keep = append(keep, mod)
		case from != nil && !from.StartTime.IsZero() && !mod.ModifiedTime.After(from.StartTime):
			stale++
		default:
			taken = append(taken, mod)
		}
	}
	s.queue = keep

	slices.SortStableFunc(taken, func(a, b *model.Modification) int {
		return a.ModifiedTime.Compare(b.ModifiedTime)
	})

	ctxlog.From(ctx).Debug("Drained push modifications",
		"taken", len(taken),
		"stale", stale,
		"pending", len(keep),
	)
	return taken, nil
}

// LabelSourceControl does nothing; pushed changes cannot be labelled
func (s *Source) LabelSourceControl(ctx context.Context, result *model.IntegrationResult) error {
	return nil
}

// GetSource does nothing; the build fetches its own checkout
func (s *Source) GetSource(ctx context.Context, result *model.IntegrationResult) error {
	return nil
}

// Initialize does nothing
func (s *Source) Initialize(ctx context.Context, project *model.ProjectInfo) error {
	return nil
}

// Purge drops everything queued
func (s *Source) Purge(ctx context.Context, project *model.ProjectInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	return nil
}
