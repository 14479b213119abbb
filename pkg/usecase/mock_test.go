package usecase_test

import (
	"context"
	"errors"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// funcFilter adapts a function into a ModificationFilter and counts calls
type funcFilter struct {
	accept func(mod *model.Modification) (bool, error)
	calls  int
}

func (f *funcFilter) Accept(mod *model.Modification) (bool, error) {
	f.calls++
	return f.accept(mod)
}

func pathPrefix(prefix string) *funcFilter {
	return &funcFilter{accept: func(mod *model.Modification) (bool, error) {
		return len(mod.Path()) >= len(prefix) && mod.Path()[:len(prefix)] == prefix, nil
	}}
}

func author(name string) *funcFilter {
	return &funcFilter{accept: func(mod *model.Modification) (bool, error) {
		return mod.UserName == name, nil
	}}
}

func failing(msg string) *funcFilter {
	return &funcFilter{accept: func(mod *model.Modification) (bool, error) {
		return false, errors.New(msg)
	}}
}

// MockSourceControl is a mock implementation of SourceControl
type MockSourceControl struct {
	getModificationsFunc func(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error)
	calls                []string
}

func (m *MockSourceControl) GetModifications(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error) {
	m.calls = append(m.calls, "GetModifications")
	if m.getModificationsFunc != nil {
		return m.getModificationsFunc(ctx, from, to)
	}
	return nil, errors.New("mock not configured")
}

func (m *MockSourceControl) LabelSourceControl(ctx context.Context, result *model.IntegrationResult) error {
	m.calls = append(m.calls, "LabelSourceControl:"+result.Label)
	return nil
}

func (m *MockSourceControl) GetSource(ctx context.Context, result *model.IntegrationResult) error {
	m.calls = append(m.calls, "GetSource:"+result.Label)
	return nil
}

func (m *MockSourceControl) Initialize(ctx context.Context, project *model.ProjectInfo) error {
	m.calls = append(m.calls, "Initialize:"+project.Name)
	return nil
}

func (m *MockSourceControl) Purge(ctx context.Context, project *model.ProjectInfo) error {
	m.calls = append(m.calls, "Purge:"+project.Name)
	return errors.New("purge failed")
}

// MockParameterizedSource also accepts dynamic parameters
type MockParameterizedSource struct {
	MockSourceControl
	params      map[string]string
	definitions []model.ParameterDefinition
}

func (m *MockParameterizedSource) ApplyParameters(params map[string]string, definitions []model.ParameterDefinition) {
	m.params = params
	m.definitions = definitions
}

// MockMessageBuilder is a mock implementation of MessageBuilder
type MockMessageBuilder struct {
	buildFunc  func(ctx context.Context, result *model.IntegrationResult) (string, error)
	html       bool
	transforms []string
	calls      int
}

func (m *MockMessageBuilder) BuildMessage(ctx context.Context, result *model.IntegrationResult) (string, error) {
	m.calls++
	if m.buildFunc != nil {
		return m.buildFunc(ctx, result)
	}
	return "body of " + result.ProjectName, nil
}

func (m *MockMessageBuilder) IsHTML() bool {
	return m.html
}

func (m *MockMessageBuilder) SetTransforms(files []string) {
	m.transforms = files
}

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	sendFunc  func(ctx context.Context, envelope *model.Envelope) error
	envelopes []*model.Envelope
}

func (m *MockGateway) Send(ctx context.Context, envelope *model.Envelope) error {
	m.envelopes = append(m.envelopes, envelope)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, envelope)
	}
	return nil
}

// mapConverter resolves usernames from a fixed table
type mapConverter map[string]string

func (c mapConverter) Convert(username string) string {
	return c[username]
}
