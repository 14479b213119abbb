// Package filter provides the modification filters that can be configured
// for inclusion and exclusion in a filtered source.
package filter

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// New builds a filter from its declarative configuration
func New(cfg model.FilterConfig) (interfaces.ModificationFilter, error) {
	switch cfg.Type {
	case model.FilterTypePath:
		return NewPath(cfg.Pattern, cfg.CaseSensitive)
	case model.FilterTypeUser:
		return NewUser(cfg.Names...), nil
	case model.FilterTypeAction:
		return NewAction(cfg.Actions...), nil
	case model.FilterTypeComment:
		return NewComment(cfg.Pattern)
	case model.FilterTypeExtension:
		return NewExtension(cfg.Extensions...), nil
	default:
		return nil, goerr.New("unknown filter type", goerr.T(types.ErrTagConfig), goerr.V("type", cfg.Type))
	}
}

// NewAll builds filters in configuration order
func NewAll(cfgs []model.FilterConfig) ([]interfaces.ModificationFilter, error) {
	filters := make([]interfaces.ModificationFilter, 0, len(cfgs))
	for i, cfg := range cfgs {
		f, err := New(cfg)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build filter", goerr.V("index", i))
		}
		filters = append(filters, f)
	}
	return filters, nil
}

var errNilModification = goerr.New("nil modification", goerr.T(types.ErrTagFilter))
