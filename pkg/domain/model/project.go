package model

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/template"
)

// Filter types understood by the filter factory
const (
	FilterTypePath      = "path"
	FilterTypeUser      = "user"
	FilterTypeAction    = "action"
	FilterTypeComment   = "comment"
	FilterTypeExtension = "extension"
)

// Converter types understood by the converter factory
const (
	ConverterTypeDomain = "domain"
	ConverterTypeRegex  = "regex"
)

// Source types understood by the CLI wiring
const (
	SourceTypeGit    = "git"
	SourceTypeGitHub = "github"
	SourceTypePush   = "push"
)

// Project is the declarative configuration of one CI project, loaded from
// the project file
type Project struct {
	Name             string          `toml:"name"`
	URL              string          `toml:"url"`
	WorkingDirectory string          `toml:"working_directory"`
	Source           SourceConfig    `toml:"source"`
	Publisher        PublisherConfig `toml:"publisher"`
}

// SourceConfig describes the wrapped change-source provider and its filters
type SourceConfig struct {
	Type       string         `toml:"type"`
	Path       string         `toml:"path"`
	URL        string         `toml:"url"`
	Repository string         `toml:"repository"`
	Branch     string         `toml:"branch"`
	Include    []FilterConfig `toml:"include"`
	Exclude    []FilterConfig `toml:"exclude"`
}

// FilterConfig is the declarative form of a modification filter
type FilterConfig struct {
	Type          string   `toml:"type"`
	Pattern       string   `toml:"pattern"`
	CaseSensitive bool     `toml:"case_sensitive"`
	Names         []string `toml:"names"`
	Actions       []string `toml:"actions"`
	Extensions    []string `toml:"extensions"`
}

// ConverterConfig is the declarative form of an address converter
type ConverterConfig struct {
	Type    string `toml:"type"`
	Domain  string `toml:"domain"`
	Find    string `toml:"find"`
	Replace string `toml:"replace"`
}

// PublisherConfig holds everything the notification publisher needs besides
// the transport
type PublisherConfig struct {
	From                      string            `toml:"from"`
	ReplyTo                   string            `toml:"reply_to"`
	SubjectPrefix             string            `toml:"subject_prefix"`
	Subjects                  map[string]string `toml:"subjects"`
	IncludeDetails            bool              `toml:"include_details"`
	Users                     []User            `toml:"users"`
	Groups                    []Group           `toml:"groups"`
	Converters                []ConverterConfig `toml:"converters"`
	Attachments               []string          `toml:"attachments"`
	Transforms                []string          `toml:"transforms"`
	ModifierNotificationTypes []string          `toml:"modifier_notification_types"`
}

// Severity of a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one finding of configuration validation
type ValidationIssue struct {
	Severity Severity
	Field    string
	Message  string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Field, v.Message)
}

// ValidationIssues is the result of Validate
type ValidationIssues []ValidationIssue

// HasErrors reports whether any issue is an error
func (v ValidationIssues) HasErrors() bool {
	return slices.ContainsFunc(v, func(i ValidationIssue) bool {
		return i.Severity == SeverityError
	})
}

// Validate checks the project configuration. It never stops at the first
// problem so that all findings can be reported at once.
func (p *Project) Validate() ValidationIssues {
	var issues ValidationIssues
	errorf := func(field, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(field, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: SeverityWarning, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if p.Name == "" {
		errorf("name", "project name is required")
	}

	switch p.Source.Type {
	case SourceTypeGit:
		if p.Source.Path == "" {
			errorf("source.path", "git source requires a working copy path")
		}
	case SourceTypeGitHub:
		if owner, repo, ok := strings.Cut(p.Source.Repository, "/"); !ok || owner == "" || repo == "" {
			errorf("source.repository", "github source requires a repository in owner/repo form")
		}
	case SourceTypePush, "":
	default:
		errorf("source.type", "unknown source type %q", p.Source.Type)
	}

	for i, f := range p.Source.Include {
		validateFilter(fmt.Sprintf("source.include[%d]", i), f, errorf)
	}
	for i, f := range p.Source.Exclude {
		validateFilter(fmt.Sprintf("source.exclude[%d]", i), f, errorf)
	}

	pub := &p.Publisher
	if pub.From == "" {
		warnf("publisher.from", "sender address is empty")
	}

	groups := make(map[string]struct{}, len(pub.Groups))
	for i, g := range pub.Groups {
		field := fmt.Sprintf("publisher.groups[%d]", i)
		if g.Name == "" {
			errorf(field, "group name is required")
		}
		if _, ok := groups[g.Name]; ok {
			errorf(field, "duplicate group name %q", g.Name)
		}
		groups[g.Name] = struct{}{}
		for _, n := range g.Notifications {
			if _, err := ParseNotificationType(n); err != nil {
				errorf(field, "unknown notification type %q", n)
			}
		}
	}

	users := make(map[string]struct{}, len(pub.Users))
	for i, u := range pub.Users {
		field := fmt.Sprintf("publisher.users[%d]", i)
		if u.Name == "" {
			errorf(field, "user name is required")
		}
		if _, ok := users[u.Name]; ok {
			errorf(field, "duplicate user name %q", u.Name)
		}
		users[u.Name] = struct{}{}
		if u.Address == "" {
			warnf(field, "user %q has no address", u.Name)
		}
		for _, g := range u.Groups {
			if _, ok := groups[g]; !ok {
				errorf(field, "user %q references unknown group %q", u.Name, g)
			}
		}
	}

	if len(pub.Users) == 0 && len(pub.Converters) == 0 {
		warnf("publisher.users", "no users or converters registered, notifications will never be sent")
	}

	for i, c := range pub.Converters {
		field := fmt.Sprintf("publisher.converters[%d]", i)
		switch c.Type {
		case ConverterTypeDomain:
			if c.Domain == "" {
				errorf(field, "domain converter requires a domain")
			}
		case ConverterTypeRegex:
			if _, err := regexp.Compile(c.Find); err != nil {
				errorf(field, "invalid find pattern: %v", err)
			}
		default:
			errorf(field, "unknown converter type %q", c.Type)
		}
	}

	for _, n := range pub.ModifierNotificationTypes {
		if _, err := ParseNotificationType(n); err != nil {
			errorf("publisher.modifier_notification_types", "unknown notification type %q", n)
		}
	}

	for key, tmpl := range pub.Subjects {
		field := "publisher.subjects." + key
		if !slices.Contains(AllBuildConditions, BuildCondition(key)) {
			errorf(field, "unknown build condition %q", key)
			continue
		}
		if _, err := template.New(key).Parse(tmpl); err != nil {
			errorf(field, "invalid subject template: %v", err)
		}
	}

	return issues
}

func validateFilter(field string, f FilterConfig, errorf func(field, format string, args ...any)) {
	switch f.Type {
	case FilterTypePath:
		if f.Pattern == "" {
			errorf(field, "path filter requires a pattern")
		}
	case FilterTypeUser:
		if len(f.Names) == 0 {
			errorf(field, "user filter requires at least one name")
		}
	case FilterTypeAction:
		if len(f.Actions) == 0 {
			errorf(field, "action filter requires at least one action")
		}
	case FilterTypeComment:
		if _, err := regexp.Compile(f.Pattern); err != nil {
			errorf(field, "invalid comment pattern: %v", err)
		}
	case FilterTypeExtension:
		if len(f.Extensions) == 0 {
			errorf(field, "extension filter requires at least one extension")
		}
	default:
		errorf(field, "unknown filter type %q", f.Type)
	}
}
