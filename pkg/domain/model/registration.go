package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

// User is a registered recipient
type User struct {
	Name    string   `toml:"name" json:"name"`
	Address string   `toml:"address" json:"address"`
	Groups  []string `toml:"groups" json:"groups,omitempty"`
}

// Group is a named set of users sharing a notification policy
type Group struct {
	Name          string   `toml:"name" json:"name"`
	Notifications []string `toml:"notifications" json:"notifications,omitempty"`
}

// Registry indexes users and groups by name. It is built once per
// configuration snapshot and never modified afterwards.
type Registry struct {
	users  map[string]*User
	order  []string
	groups map[string][]NotificationType
}

// NewRegistry validates name uniqueness and notification types
func NewRegistry(users []User, groups []Group) (*Registry, error) {
	reg := &Registry{
		users:  make(map[string]*User, len(users)),
		groups: make(map[string][]NotificationType, len(groups)),
	}

	for _, g := range groups {
		if _, ok := reg.groups[g.Name]; ok {
			return nil, goerr.New("duplicate group name", goerr.V("group", g.Name))
		}
		types := make([]NotificationType, 0, len(g.Notifications))
		for _, n := range g.Notifications {
			t, err := ParseNotificationType(n)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid group notification", goerr.V("group", g.Name))
			}
			types = append(types, t)
		}
		if len(types) == 0 {
			types = []NotificationType{NotifyAlways}
		}
		reg.groups[g.Name] = types
	}

	for i := range users {
		u := users[i]
		if _, ok := reg.users[u.Name]; ok {
			return nil, goerr.New("duplicate user name", goerr.V("user", u.Name))
		}
		reg.users[u.Name] = &u
		reg.order = append(reg.order, u.Name)
	}

	return reg, nil
}

// User looks up a registered user by name
func (r *Registry) User(name string) (*User, bool) {
	u, ok := r.users[name]
	return u, ok
}

// Users returns registered users in configuration order
func (r *Registry) Users() []*User {
	out := make([]*User, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.users[name])
	}
	return out
}

// GroupNotifies reports whether the group is subscribed to any of the types.
// Unknown groups never match.
func (r *Registry) GroupNotifies(group string, types []NotificationType) bool {
	subscribed, ok := r.groups[group]
	if !ok {
		return false
	}
	for _, t := range subscribed {
		if slices.Contains(types, t) {
			return true
		}
	}
	return false
}
