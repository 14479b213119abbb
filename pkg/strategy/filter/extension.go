package filter

import (
	"path"
	"strings"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// Extension matches the file extension. Extensions may be given with or
// without the leading dot.
type Extension struct {
	exts map[string]struct{}
}

func NewExtension(exts ...string) *Extension {
	f := &Extension{exts: make(map[string]struct{}, len(exts))}
	for _, e := range exts {
		f.exts[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return f
}

func (f *Extension) Accept(mod *model.Modification) (bool, error) {
	if mod == nil {
		return false, errNilModification
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(mod.FileName), "."))
	if ext == "" {
		return false, nil
	}
	_, ok := f.exts[ext]
	return ok, nil
}
