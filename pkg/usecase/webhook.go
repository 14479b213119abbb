package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/utils/async"
)

type webhookUseCase struct {
	processor interfaces.EventProcessor
	dispatch  func(ctx context.Context, handler func(ctx context.Context) error)
}

// WebhookOption configures the webhook use case
type WebhookOption func(*webhookUseCase)

// WithEventProcessor sets the processor that supported events are handed to
func WithEventProcessor(p interfaces.EventProcessor) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.processor = p
	}
}

// WithDispatcher replaces async.Dispatch
func WithDispatcher(dispatch func(ctx context.Context, handler func(ctx context.Context) error)) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.dispatch = dispatch
	}
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(opts ...WebhookOption) *webhookUseCase {
	uc := &webhookUseCase{dispatch: async.Dispatch}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent logs the event and hands supported ones to the processor in
// the background. The caller gets an answer before processing finishes.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx).With(
		"id", event.ID,
		"type", event.Type,
		"repository", event.Repository,
	)

	logger.Info("Processing webhook event",
		"ref", event.Ref,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		if event.Type != model.EventTypePing {
			logger.Warn("Unsupported event received")
		}
		return nil
	}

	if uc.processor == nil {
		logger.Debug("No event processor configured, dropping event")
		return nil
	}

	eventType := string(event.Type)
	payload := event.RawPayload
	uc.dispatch(ctxlog.With(ctx, logger), func(ctx context.Context) error {
		return uc.processor.ProcessEvent(ctx, eventType, payload)
	})

	return nil
}
