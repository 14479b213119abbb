// Package smtp delivers notification envelopes as e-mail.
package smtp

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/wneessen/go-mail"
)

// Sender is the part of the go-mail client used by Gateway
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Config holds the SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	// Insecure disables STARTTLS
	Insecure bool
	Timeout  time.Duration
	// From is used when an envelope has no sender
	From string
}

// Gateway sends envelopes through an SMTP server
type Gateway struct {
	sender Sender
	from   string
}

var _ interfaces.Gateway = (*Gateway)(nil)

// Option configures a Gateway
type Option func(*Gateway)

// WithSender replaces the go-mail client
func WithSender(s Sender) Option {
	return func(g *Gateway) {
		g.sender = s
	}
}

// New creates a Gateway for the configured server
func New(cfg Config, opts ...Option) (*Gateway, error) {
	g := &Gateway{from: cfg.From}
	for _, opt := range opts {
		opt(g)
	}
	if g.sender != nil {
		return g, nil
	}

	if cfg.Host == "" {
		return nil, goerr.New("SMTP host is required", goerr.T(types.ErrTagConfig))
	}

	clientOpts := []mail.Option{}
	if cfg.Port > 0 {
		clientOpts = append(clientOpts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(cfg.Timeout))
	}
	switch {
	case cfg.SSL:
		clientOpts = append(clientOpts, mail.WithSSL())
	case cfg.Insecure:
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create SMTP client",
			goerr.T(types.ErrTagConfig),
			goerr.V("host", cfg.Host),
			goerr.V("port", cfg.Port),
		)
	}
	g.sender = client
	return g, nil
}

// Send delivers the envelope as one message to all recipients
func (g *Gateway) Send(ctx context.Context, env *model.Envelope) error {
	msg, err := g.Message(env)
	if err != nil {
		return err
	}

	if err := g.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return goerr.Wrap(err, "failed to send mail",
			goerr.T(types.ErrTagDelivery),
			goerr.V("id", env.ID),
		)
	}

	ctxlog.From(ctx).Debug("Mail delivered", "id", env.ID, "recipients", len(env.To))
	return nil
}

// Message converts the envelope into a go-mail message
func (g *Gateway) Message(env *model.Envelope) (*mail.Msg, error) {
	msg := mail.NewMsg()

	from := env.From
	if from == "" {
		from = g.from
	}
	if err := msg.From(from); err != nil {
		return nil, goerr.Wrap(err, "invalid sender address", goerr.T(types.ErrTagDelivery), goerr.V("from", from))
	}
	if err := msg.To(env.To...); err != nil {
		return nil, goerr.Wrap(err, "invalid recipient address", goerr.T(types.ErrTagDelivery), goerr.V("to", env.To))
	}
	if env.ReplyTo != "" {
		if err := msg.ReplyTo(env.ReplyTo); err != nil {
			return nil, goerr.Wrap(err, "invalid reply-to address", goerr.T(types.ErrTagDelivery), goerr.V("reply_to", env.ReplyTo))
		}
	}
	if env.ID != "" {
		msg.SetMessageIDWithValue(env.ID + "@herald")
	}

	msg.Subject(env.Subject)
	if env.HTML {
		msg.SetBodyString(mail.TypeTextHTML, env.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, env.Body)
	}
	for _, file := range env.Attachments {
		msg.AttachFile(file)
	}

	return msg, nil
}
