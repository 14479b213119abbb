package filter

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// Path matches the location of the changed file against a glob pattern.
// "*" and "?" stay within one path segment, "**" spans segments. Leading
// slashes are ignored on both sides.
type Path struct {
	pattern       string
	glob          string
	caseSensitive bool
}

// NewPath validates the glob pattern
func NewPath(pattern string, caseSensitive bool) (*Path, error) {
	if pattern == "" {
		return nil, goerr.New("path filter requires a pattern", goerr.T(types.ErrTagConfig))
	}

	glob := strings.TrimLeft(strings.ReplaceAll(pattern, "\\", "/"), "/")
	if !caseSensitive {
		glob = strings.ToLower(glob)
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, goerr.New("invalid path pattern", goerr.T(types.ErrTagConfig), goerr.V("pattern", pattern))
	}

	return &Path{pattern: pattern, glob: glob, caseSensitive: caseSensitive}, nil
}

func (f *Path) Accept(mod *model.Modification) (bool, error) {
	if mod == nil {
		return false, errNilModification
	}

	name := strings.TrimLeft(mod.Path(), "/")
	if !f.caseSensitive {
		name = strings.ToLower(name)
	}
	ok, err := doublestar.Match(f.glob, name)
	if err != nil {
		return false, goerr.Wrap(err, "failed to match path pattern",
			goerr.T(types.ErrTagFilter), goerr.V("pattern", f.pattern))
	}
	return ok, nil
}

func (f *Path) String() string {
	return "path(" + f.pattern + ")"
}
