package filter

import (
	"strings"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// Action matches the modification type, case-insensitively
type Action struct {
	actions []string
}

func NewAction(actions ...string) *Action {
	return &Action{actions: actions}
}

func (f *Action) Accept(mod *model.Modification) (bool, error) {
	if mod == nil {
		return false, errNilModification
	}
	for _, a := range f.actions {
		if strings.EqualFold(a, mod.Type) {
			return true, nil
		}
	}
	return false, nil
}
