package interfaces

import (
	"context"

	"github.com/m-mizutani/herald/pkg/domain/model"
)

// ModificationFilter decides whether a modification matches a rule. An
// error means the filter itself is misconfigured.
type ModificationFilter interface {
	Accept(mod *model.Modification) (bool, error)
}

// MessageBuilder renders an integration result into a notification body
type MessageBuilder interface {
	BuildMessage(ctx context.Context, result *model.IntegrationResult) (string, error)

	// IsHTML reports whether BuildMessage produces HTML
	IsHTML() bool
}

// TransformAware is implemented by builders that accept extra rendering
// inputs
type TransformAware interface {
	SetTransforms(files []string)
}

// AddressConverter turns a contributor username into a deliverable
// address. An empty return means no result.
type AddressConverter interface {
	Convert(username string) string
}

// Gateway delivers a resolved envelope
type Gateway interface {
	Send(ctx context.Context, envelope *model.Envelope) error
}
