package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/utils/errutil"
	"github.com/m-mizutani/herald/pkg/utils/metrics"
)

// PublisherConfig holds envelope settings of a Publisher
type PublisherConfig struct {
	From        string
	ReplyTo     string
	Attachments []string
	Transforms  []string
}

// Publisher composes build notifications and hands them to a gateway
type Publisher struct {
	cfg      PublisherConfig
	resolver *RecipientResolver
	builder  interfaces.MessageBuilder
	gateway  interfaces.Gateway
}

var _ interfaces.PublishUseCase = (*Publisher)(nil)

// NewPublisher creates a Publisher. Transform files are passed to the
// builder when it accepts them.
func NewPublisher(cfg PublisherConfig, resolver *RecipientResolver, builder interfaces.MessageBuilder, gateway interfaces.Gateway) *Publisher {
	if ta, ok := builder.(interfaces.TransformAware); ok && len(cfg.Transforms) > 0 {
		ta.SetTransforms(cfg.Transforms)
	}
	return &Publisher{
		cfg:      cfg,
		resolver: resolver,
		builder:  builder,
		gateway:  gateway,
	}
}

// Execute publishes the result. It returns executed=false when the build
// has no outcome yet, and an error only when the gateway fails.
func (p *Publisher) Execute(ctx context.Context, result *model.IntegrationResult) (bool, error) {
	logger := ctxlog.From(ctx).With("project", result.ProjectName, "label", result.Label)
	ctx = ctxlog.With(ctx, logger)

	envelope := p.Compose(ctx, result)
	if envelope == nil {
		logger.Debug("Build outcome unknown, nothing to publish")
		metrics.ObservePublish(string(model.PublishSkipped))
		return false, nil
	}

	if len(envelope.To) == 0 {
		logger.Info("No recipients for build result, skipping notification",
			"condition", result.Condition(),
		)
		metrics.ObservePublish(string(model.PublishSkipped))
		return true, nil
	}

	if err := p.SendMessage(ctx, envelope); err != nil {
		return true, err
	}
	return true, nil
}

// Compose resolves recipients and renders the message without sending
// anything. It returns nil when the build has no outcome yet; an envelope
// without recipients means nobody would be notified.
func (p *Publisher) Compose(ctx context.Context, result *model.IntegrationResult) *model.Envelope {
	if result.Status == model.StatusUnknown || result.Status == "" {
		return nil
	}

	recipients := p.resolver.Resolve(ctx, result)
	body := p.CreateMessage(ctx, result)

	envelope := &model.Envelope{
		ID:      uuid.NewString(),
		From:    p.cfg.From,
		ReplyTo: p.cfg.ReplyTo,
		Subject: recipients.Subject,
		Body:    body,
		HTML:    p.builder.IsHTML(),
	}
	if recipients.Empty() {
		return envelope
	}

	envelope.To = recipients.Addresses
	envelope.Attachments = p.resolveAttachments(ctx, result.WorkingDirectory)
	return envelope
}

// CreateMessage renders the body of the notification. A builder failure is
// turned into a diagnostic body instead of an error.
func (p *Publisher) CreateMessage(ctx context.Context, result *model.IntegrationResult) string {
	body, err := p.builder.BuildMessage(ctx, result)
	if err != nil {
		err = goerr.Wrap(err, "failed to build notification message",
			goerr.T(types.ErrTagRender),
			goerr.V("project", result.ProjectName),
		)
		errutil.Handle(ctx, "Message builder failed", err)
		metrics.ObserveRenderFailure()
		return "Unable to build notification message: " + err.Error()
	}
	return body
}

// SendMessage hands a resolved envelope to the gateway
func (p *Publisher) SendMessage(ctx context.Context, envelope *model.Envelope) error {
	logger := ctxlog.From(ctx)

	logger.Info("Sending notification",
		"id", envelope.ID,
		"to", envelope.To,
		"subject", envelope.Subject,
		"attachments", len(envelope.Attachments),
	)

	if err := p.gateway.Send(ctx, envelope); err != nil {
		err = goerr.Wrap(err, "failed to send notification",
			goerr.T(types.ErrTagDelivery),
			goerr.V("id", envelope.ID),
			goerr.V("to", envelope.To),
		)
		errutil.Handle(ctx, "Notification delivery failed", err)
		metrics.ObservePublish(string(model.PublishSendFailed))
		return err
	}

	logger.Info("Notification sent", "id", envelope.ID)
	metrics.ObservePublish(string(model.PublishSent))
	return nil
}

// resolveAttachments joins relative paths with the working directory and
// drops files that do not exist
func (p *Publisher) resolveAttachments(ctx context.Context, workDir string) []string {
	logger := ctxlog.From(ctx)

	var files []string
	for _, name := range p.cfg.Attachments {
		if strings.TrimSpace(name) == "" {
			continue
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			logger.Debug("Attachment not found, skipping", "path", path)
			continue
		}
		files = append(files, path)
	}
	return files
}
