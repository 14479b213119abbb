package interfaces

import (
	"context"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// PublishUseCase publishes build results
type PublishUseCase interface {
	// Execute notifies interested parties of the result. executed is false
	// when there was nothing to report yet.
	Execute(ctx context.Context, result *model.IntegrationResult) (executed bool, err error)

	// CreateMessage renders the body without sending it
	CreateMessage(ctx context.Context, result *model.IntegrationResult) string

	// Compose returns the envelope Execute would send, or nil when there is
	// nothing to report
	Compose(ctx context.Context, result *model.IntegrationResult) *model.Envelope
}

// FilterUseCase applies the configured filter chain to a change set
type FilterUseCase interface {
	Filter(ctx context.Context, mods []*model.Modification) ([]*model.Modification, error)
}

// RuntimeProvider hands out the use cases of the active project snapshot.
// Callers fetch once per operation.
type RuntimeProvider interface {
	ProjectName() string
	Filter() FilterUseCase
	Publisher() PublishUseCase
	// Source returns the filtered change source, or nil when none is configured
	Source() SourceControl
}

// EventProcessor turns a raw webhook payload into domain actions
type EventProcessor interface {
	ProcessEvent(ctx context.Context, eventType string, payload []byte) error
}
