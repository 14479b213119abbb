package filter

import (
	"strings"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// User matches modifications made by any of the listed usernames
type User struct {
	names map[string]struct{}
}

func NewUser(names ...string) *User {
	f := &User{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.names[n] = struct{}{}
	}
	return f
}

func (f *User) Accept(mod *model.Modification) (bool, error) {
	if mod == nil {
		return false, errNilModification
	}
	_, ok := f.names[mod.UserName]
	return ok, nil
}

func (f *User) String() string {
	names := make([]string, 0, len(f.names))
	for n := range f.names {
		names = append(names, n)
	}
	return "user(" + strings.Join(names, ",") + ")"
}
