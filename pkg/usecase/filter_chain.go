package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/utils/metrics"
)

// FilterChain reduces a change set with ordered inclusion and exclusion
// filters. The filter slices are copied on construction and never modified.
type FilterChain struct {
	inclusions []interfaces.ModificationFilter
	exclusions []interfaces.ModificationFilter
}

// NewFilterChain creates a FilterChain
func NewFilterChain(inclusions, exclusions []interfaces.ModificationFilter) *FilterChain {
	return &FilterChain{
		inclusions: append([]interfaces.ModificationFilter(nil), inclusions...),
		exclusions: append([]interfaces.ModificationFilter(nil), exclusions...),
	}
}

// Filter returns the modifications that are included and not excluded, in
// input order. Any filter error aborts the whole call.
func (c *FilterChain) Filter(ctx context.Context, mods []*model.Modification) ([]*model.Modification, error) {
	logger := ctxlog.From(ctx)

	accepted := make([]*model.Modification, 0, len(mods))
	for _, mod := range mods {
		included, err := c.isIncluded(mod)
		if err != nil {
			return nil, err
		}
		if !included {
			logger.Debug("Modification not included", "path", mod.Path(), "user", mod.UserName)
			metrics.ObserveFilterDecision(metrics.DecisionNotIncluded)
			continue
		}

		excluded, err := c.isExcluded(mod)
		if err != nil {
			return nil, err
		}
		if excluded {
			logger.Debug("Modification excluded", "path", mod.Path(), "user", mod.UserName)
			metrics.ObserveFilterDecision(metrics.DecisionExcluded)
			continue
		}

		logger.Debug("Modification accepted", "path", mod.Path(), "user", mod.UserName)
		metrics.ObserveFilterDecision(metrics.DecisionAccepted)
		accepted = append(accepted, mod)
	}

	return accepted, nil
}

// isIncluded accepts everything when no inclusion filter is configured
func (c *FilterChain) isIncluded(mod *model.Modification) (bool, error) {
	if len(c.inclusions) == 0 {
		return true, nil
	}
	return anyAccepts(c.inclusions, mod, "inclusion")
}

// isExcluded excludes nothing when no exclusion filter is configured
func (c *FilterChain) isExcluded(mod *model.Modification) (bool, error) {
	if len(c.exclusions) == 0 {
		return false, nil
	}
	return anyAccepts(c.exclusions, mod, "exclusion")
}

func anyAccepts(filters []interfaces.ModificationFilter, mod *model.Modification, set string) (bool, error) {
	for i, f := range filters {
		ok, err := f.Accept(mod)
		if err != nil {
			return false, goerr.Wrap(err, "modification filter failed",
				goerr.T(types.ErrTagFilter),
				goerr.V("set", set),
				goerr.V("index", i),
				goerr.V("filter", fmt.Sprintf("%T", f)),
				goerr.V("path", mod.Path()),
			)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
