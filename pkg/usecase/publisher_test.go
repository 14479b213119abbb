package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/usecase"
)

func newResolver(t *testing.T) *usecase.RecipientResolver {
	t.Helper()
	resolver, err := usecase.NewRecipientResolver(newRegistry(t), nil)
	gt.NoError(t, err)
	return resolver
}

func failedBuild() *model.IntegrationResult {
	return &model.IntegrationResult{
		ProjectName: "web",
		Label:       "12",
		Status:      model.StatusFailure,
		LastStatus:  model.StatusSuccess,
	}
}

func TestPublisher_Execute(t *testing.T) {
	ctx := context.Background()
	builder := &MockMessageBuilder{}
	gateway := &MockGateway{}
	pub := usecase.NewPublisher(usecase.PublisherConfig{
		From:    "ci@example.com",
		ReplyTo: "noreply@example.com",
	}, newResolver(t), builder, gateway)

	executed, err := pub.Execute(ctx, failedBuild())
	gt.NoError(t, err)
	gt.True(t, executed)

	gt.Equal(t, len(gateway.envelopes), 1)
	env := gateway.envelopes[0]
	gt.Equal(t, env.From, "ci@example.com")
	gt.Equal(t, env.ReplyTo, "noreply@example.com")
	gt.Value(t, env.To).Equal([]string{"alice@example.com", "carol@example.com"})
	gt.Equal(t, env.Subject, "web Build Failed")
	gt.Equal(t, env.Body, "body of web")
	gt.Equal(t, env.HTML, false)
	gt.Value(t, env.ID).NotEqual("")
}

func TestPublisher_UnknownStatus(t *testing.T) {
	for _, status := range []model.IntegrationStatus{model.StatusUnknown, ""} {
		builder := &MockMessageBuilder{}
		gateway := &MockGateway{}
		pub := usecase.NewPublisher(usecase.PublisherConfig{}, newResolver(t), builder, gateway)

		executed, err := pub.Execute(context.Background(), &model.IntegrationResult{ProjectName: "web", Status: status})
		gt.NoError(t, err)
		gt.Equal(t, executed, false)
		gt.Equal(t, builder.calls, 0)
		gt.Equal(t, len(gateway.envelopes), 0)
	}
}

func TestPublisher_NoRecipients(t *testing.T) {
	resolver, err := usecase.NewRecipientResolver(nil, nil)
	gt.NoError(t, err)
	gateway := &MockGateway{}
	pub := usecase.NewPublisher(usecase.PublisherConfig{}, resolver, &MockMessageBuilder{}, gateway)

	executed, err := pub.Execute(context.Background(), failedBuild())
	gt.NoError(t, err)
	gt.True(t, executed)
	gt.Equal(t, len(gateway.envelopes), 0)
}

func TestPublisher_BuilderFailure(t *testing.T) {
	builder := &MockMessageBuilder{
		buildFunc: func(ctx context.Context, result *model.IntegrationResult) (string, error) {
			return "", errors.New("template exploded")
		},
	}
	gateway := &MockGateway{}
	pub := usecase.NewPublisher(usecase.PublisherConfig{}, newResolver(t), builder, gateway)

	executed, err := pub.Execute(context.Background(), failedBuild())
	gt.NoError(t, err)
	gt.True(t, executed)
	gt.Equal(t, len(gateway.envelopes), 1)
	gt.String(t, gateway.envelopes[0].Body).Contains("Unable to build notification message")
	gt.String(t, gateway.envelopes[0].Body).Contains("template exploded")
}

func TestPublisher_GatewayFailure(t *testing.T) {
	gateway := &MockGateway{
		sendFunc: func(ctx context.Context, envelope *model.Envelope) error {
			return errors.New("connection refused")
		},
	}
	pub := usecase.NewPublisher(usecase.PublisherConfig{}, newResolver(t), &MockMessageBuilder{}, gateway)

	executed, err := pub.Execute(context.Background(), failedBuild())
	gt.Error(t, err)
	gt.True(t, executed)
	gt.True(t, goerr.HasTag(err, types.ErrTagDelivery))
	gt.String(t, err.Error()).Contains("failed to send notification")
	gt.String(t, err.Error()).Contains("connection refused")
}

func TestPublisher_CreateMessage(t *testing.T) {
	builder := &MockMessageBuilder{}
	pub := usecase.NewPublisher(usecase.PublisherConfig{}, newResolver(t), builder, &MockGateway{})

	gt.Equal(t, pub.CreateMessage(context.Background(), failedBuild()), "body of web")
}

func TestPublisher_Transforms(t *testing.T) {
	t.Run("transform-aware builder receives files", func(t *testing.T) {
		builder := &MockMessageBuilder{}
		usecase.NewPublisher(usecase.PublisherConfig{Transforms: []string{"report.md"}}, newResolver(t), builder, &MockGateway{})
		gt.Value(t, builder.transforms).Equal([]string{"report.md"})
	})

	t.Run("no transforms leaves builder untouched", func(t *testing.T) {
		builder := &MockMessageBuilder{}
		usecase.NewPublisher(usecase.PublisherConfig{}, newResolver(t), builder, &MockGateway{})
		gt.Equal(t, len(builder.transforms), 0)
	})
}

func TestPublisher_Attachments(t *testing.T) {
	workDir := t.TempDir()
	otherDir := t.TempDir()

	relative := filepath.Join(workDir, "build.log")
	gt.NoError(t, os.WriteFile(relative, []byte("log"), 0o600))
	absolute := filepath.Join(otherDir, "coverage.txt")
	gt.NoError(t, os.WriteFile(absolute, []byte("cov"), 0o600))
	gt.NoError(t, os.Mkdir(filepath.Join(workDir, "reports"), 0o700))

	gateway := &MockGateway{}
	pub := usecase.NewPublisher(usecase.PublisherConfig{
		Attachments: []string{"build.log", absolute, "missing.txt", "reports", " "},
	}, newResolver(t), &MockMessageBuilder{html: true}, gateway)

	result := failedBuild()
	result.WorkingDirectory = workDir

	_, err := pub.Execute(context.Background(), result)
	gt.NoError(t, err)
	gt.Equal(t, len(gateway.envelopes), 1)
	gt.Value(t, gateway.envelopes[0].Attachments).Equal([]string{relative, absolute})
	gt.True(t, gateway.envelopes[0].HTML)
}

func TestPublisher_Compose(t *testing.T) {
	ctx := context.Background()
	gateway := &MockGateway{}
	pub := usecase.NewPublisher(usecase.PublisherConfig{From: "ci@example.com"}, newResolver(t), &MockMessageBuilder{}, gateway)

	env := pub.Compose(ctx, failedBuild())
	gt.Value(t, env).NotNil()
	gt.Value(t, env.To).Equal([]string{"alice@example.com", "carol@example.com"})
	gt.Equal(t, env.Subject, "web Build Failed")
	gt.Equal(t, len(gateway.envelopes), 0)

	gt.Value(t, pub.Compose(ctx, &model.IntegrationResult{ProjectName: "web"})).Nil()
}
