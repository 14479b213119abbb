// Package converter turns contributor usernames into deliverable addresses
package converter

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
)

// New builds a converter from its declarative configuration
func New(cfg model.ConverterConfig) (interfaces.AddressConverter, error) {
	switch cfg.Type {
	case model.ConverterTypeDomain:
		return NewDomain(cfg.Domain)
	case model.ConverterTypeRegex:
		return NewRegex(cfg.Find, cfg.Replace)
	default:
		return nil, goerr.New("unknown converter type", goerr.T(types.ErrTagConfig), goerr.V("type", cfg.Type))
	}
}

// NewAll builds converters in configuration order
func NewAll(cfgs []model.ConverterConfig) ([]interfaces.AddressConverter, error) {
	converters := make([]interfaces.AddressConverter, 0, len(cfgs))
	for i, cfg := range cfgs {
		c, err := New(cfg)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build converter", goerr.V("index", i))
		}
		converters = append(converters, c)
	}
	return converters, nil
}

// Domain appends a mail domain to the username
type Domain struct {
	domain string
}

func NewDomain(domain string) (*Domain, error) {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		return nil, goerr.New("domain converter requires a domain", goerr.T(types.ErrTagConfig))
	}
	return &Domain{domain: domain}, nil
}

func (c *Domain) Convert(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}
	if strings.Contains(username, "@") {
		return username
	}
	return username + "@" + c.domain
}

// Regex rewrites usernames matching find with the replace template, which
// may reference capture groups as $1 or ${name}. Usernames that do not
// match produce no address.
type Regex struct {
	find    *regexp.Regexp
	replace string
}

func NewRegex(find, replace string) (*Regex, error) {
	re, err := regexp.Compile(find)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid converter pattern", goerr.T(types.ErrTagConfig), goerr.V("find", find))
	}
	return &Regex{find: re, replace: replace}, nil
}

func (c *Regex) Convert(username string) string {
	if !c.find.MatchString(username) {
		return ""
	}
	return c.find.ReplaceAllString(username, c.replace)
}
