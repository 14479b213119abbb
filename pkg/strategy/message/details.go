package message

import (
	"bytes"
	"context"
	_ "embed"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/yuin/goldmark"
)

//go:embed templates/details.html
var detailsHTML string

var detailsTemplate = htmltemplate.Must(htmltemplate.New("details").Funcs(htmltemplate.FuncMap{
	"condition": func(r *model.IntegrationResult) model.BuildCondition { return r.Condition() },
}).Parse(detailsHTML))

// Details renders a full HTML report of the result. Transform files are
// appended after the built-in report: each file is executed as a
// text/template against the result, and files with a .md extension are
// converted to HTML afterwards. Relative transform paths are resolved
// against the working directory of the build.
type Details struct {
	transforms []string
}

var (
	_ interfaces.MessageBuilder = (*Details)(nil)
	_ interfaces.TransformAware = (*Details)(nil)
)

func NewDetails() *Details {
	return &Details{}
}

func (b *Details) IsHTML() bool {
	return true
}

// SetTransforms sets the transform files applied in order
func (b *Details) SetTransforms(files []string) {
	b.transforms = append([]string(nil), files...)
}

func (b *Details) BuildMessage(ctx context.Context, result *model.IntegrationResult) (string, error) {
	if result == nil {
		return "", goerr.New("integration result is nil")
	}

	var sb strings.Builder
	if err := detailsTemplate.Execute(&sb, result); err != nil {
		return "", goerr.Wrap(err, "failed to render details message")
	}

	for _, file := range b.transforms {
		if !filepath.IsAbs(file) {
			file = filepath.Join(result.WorkingDirectory, file)
		}
		out, err := applyTransform(file, result)
		if err != nil {
			return "", err
		}
		ctxlog.From(ctx).Debug("Applied transform", "file", file, "size", len(out))
		sb.WriteString(out)
	}
	return sb.String(), nil
}

func applyTransform(file string, result *model.IntegrationResult) (string, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read transform file", goerr.V("file", file))
	}

	tmpl, err := template.New(filepath.Base(file)).Parse(string(raw))
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse transform file", goerr.V("file", file))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, result); err != nil {
		return "", goerr.Wrap(err, "failed to execute transform file", goerr.V("file", file))
	}

	if !strings.EqualFold(filepath.Ext(file), ".md") {
		return buf.String(), nil
	}

	var html bytes.Buffer
	if err := goldmark.Convert(buf.Bytes(), &html); err != nil {
		return "", goerr.Wrap(err, "failed to convert markdown transform", goerr.V("file", file))
	}
	return html.String(), nil
}
