package filter

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// Comment matches the commit comment against a regular expression
type Comment struct {
	re *regexp.Regexp
}

func NewComment(pattern string) (*Comment, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid comment pattern", goerr.T(types.ErrTagConfig), goerr.V("pattern", pattern))
	}
	return &Comment{re: re}, nil
}

func (f *Comment) Accept(mod *model.Modification) (bool, error) {
	if mod == nil {
		return false, errNilModification
	}
	return f.re.MatchString(mod.Comment), nil
}
