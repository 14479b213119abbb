// Package message renders integration results into notification bodies
package message

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/model"
)

var linkTemplate = template.Must(template.New("link").Parse(
	`<p>Build results for project <b>{{.ProjectName}}</b>: {{.Status}}` +
		`{{if .ProjectURL}} (<a href="{{.ProjectURL}}">web page</a>){{end}}</p>`))

// Link renders a short body pointing at the build report
type Link struct {
	html bool
}

// NewLink creates a Link builder producing HTML or plain text
func NewLink(html bool) *Link {
	return &Link{html: html}
}

func (b *Link) IsHTML() bool {
	return b.html
}

func (b *Link) BuildMessage(_ context.Context, result *model.IntegrationResult) (string, error) {
	if result == nil {
		return "", goerr.New("integration result is nil")
	}

	if !b.html {
		msg := fmt.Sprintf("Build results for project %s: %s", result.ProjectName, result.Status)
		if result.ProjectURL != "" {
			msg += "\nSee " + result.ProjectURL
		}
		return msg, nil
	}

	var buf bytes.Buffer
	if err := linkTemplate.Execute(&buf, result); err != nil {
		return "", goerr.Wrap(err, "failed to render link message")
	}
	return buf.String(), nil
}
