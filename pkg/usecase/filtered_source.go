package usecase

import (
	"context"
	"maps"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// FilteredSource wraps a change-source provider and filters the
// modifications it reports. Every other operation is forwarded unchanged.
type FilteredSource struct {
	source interfaces.SourceControl
	chain  *FilterChain

	paramsMu sync.RWMutex
	params   map[string]string
}

var (
	_ interfaces.SourceControl    = (*FilteredSource)(nil)
	_ interfaces.ParameterApplier = (*FilteredSource)(nil)
)

// NewFilteredSource creates a FilteredSource owning the given provider
func NewFilteredSource(source interfaces.SourceControl, chain *FilterChain) *FilteredSource {
	if chain == nil {
		chain = NewFilterChain(nil, nil)
	}
	return &FilteredSource{
		source: source,
		chain:  chain,
	}
}

// GetModifications returns the provider's modifications that survive the
// filter chain
func (s *FilteredSource) GetModifications(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error) {
	logger := ctxlog.From(ctx)

	mods, err := s.source.GetModifications(ctx, from, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get modifications from source", goerr.T(types.ErrTagSource))
	}

	filtered, err := s.chain.Filter(ctx, mods)
	if err != nil {
		return nil, err
	}

	logger.Info("Filtered modifications",
		"total", len(mods),
		"accepted", len(filtered),
		"params", s.Parameters(),
	)

	return filtered, nil
}

// LabelSourceControl forwards to the wrapped provider
func (s *FilteredSource) LabelSourceControl(ctx context.Context, result *model.IntegrationResult) error {
	return s.source.LabelSourceControl(ctx, result)
}

// GetSource forwards to the wrapped provider
func (s *FilteredSource) GetSource(ctx context.Context, result *model.IntegrationResult) error {
	return s.source.GetSource(ctx, result)
}

// Initialize forwards to the wrapped provider
func (s *FilteredSource) Initialize(ctx context.Context, project *model.ProjectInfo) error {
	return s.source.Initialize(ctx, project)
}

// Purge forwards to the wrapped provider
func (s *FilteredSource) Purge(ctx context.Context, project *model.ProjectInfo) error {
	return s.source.Purge(ctx, project)
}

// ApplyParameters keeps the parameters and passes them on when the wrapped
// provider accepts dynamic parameters
func (s *FilteredSource) ApplyParameters(params map[string]string, definitions []model.ParameterDefinition) {
	s.paramsMu.Lock()
	s.params = maps.Clone(params)
	s.paramsMu.Unlock()

	if applier, ok := s.source.(interfaces.ParameterApplier); ok {
		applier.ApplyParameters(params, definitions)
	}
}

// Parameters returns the parameters most recently applied
func (s *FilteredSource) Parameters() map[string]string {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	return maps.Clone(s.params)
}
