package interfaces

import (
	"context"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// SourceControl is a version-control backend that reports modifications
// between two integrations
type SourceControl interface {
	// GetModifications returns the changes made after from and up to to
	GetModifications(ctx context.Context, from, to *model.IntegrationResult) ([]*model.Modification, error)

	// LabelSourceControl tags the repository with the label of the result
	LabelSourceControl(ctx context.Context, result *model.IntegrationResult) error

	// GetSource updates the working copy for the integration
	GetSource(ctx context.Context, result *model.IntegrationResult) error

	// Initialize prepares the provider for the project
	Initialize(ctx context.Context, project *model.ProjectInfo) error

	// Purge removes everything the provider created for the project
	Purge(ctx context.Context, project *model.ProjectInfo) error
}

// ParameterApplier is implemented by providers that accept dynamic
// parameters at integration time
type ParameterApplier interface {
	ApplyParameters(params map[string]string, definitions []model.ParameterDefinition)
}

// ModificationSink accepts modifications reported from outside a build,
// such as push webhooks
type ModificationSink interface {
	Add(mods ...*model.Modification)
}
