// Package slack posts notification envelopes to Slack.
package slack

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/herald/pkg/domain/interfaces"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Slack rejects section text longer than 3000 characters
const maxSectionText = 2900

var (
	tagPattern   = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>|<[^>]+>`)
	blankPattern = regexp.MustCompile(`\n{3,}`)
)

// Gateway posts envelopes to a channel and optionally to each recipient
type Gateway struct {
	client  *slack.Client
	channel string
	direct  bool
}

var _ interfaces.Gateway = (*Gateway)(nil)

// Option configures a Gateway
type Option func(*gatewayOptions)

type gatewayOptions struct {
	channel string
	direct  bool
	apiURL  string
}

// WithChannel sets the channel every notification is posted to
func WithChannel(channel string) Option {
	return func(o *gatewayOptions) {
		o.channel = channel
	}
}

// WithDirectMessages also sends each recipient a direct message, looking
// the user up by e-mail address
func WithDirectMessages(enabled bool) Option {
	return func(o *gatewayOptions) {
		o.direct = enabled
	}
}

// WithAPIURL overrides the Slack API endpoint
func WithAPIURL(url string) Option {
	return func(o *gatewayOptions) {
		o.apiURL = url
	}
}

// New creates a Gateway authenticated with a bot token
func New(token string, opts ...Option) (*Gateway, error) {
	var o gatewayOptions
	for _, opt := range opts {
		opt(&o)
	}

	if token == "" {
		return nil, goerr.New("slack token is required", goerr.T(types.ErrTagConfig))
	}
	if o.channel == "" && !o.direct {
		return nil, goerr.New("slack channel is required unless direct messages are enabled", goerr.T(types.ErrTagConfig))
	}

	var clientOpts []slack.Option
	if o.apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(o.apiURL))
	}

	return &Gateway{
		client:  slack.New(token, clientOpts...),
		channel: o.channel,
		direct:  o.direct,
	}, nil
}

// Send posts the envelope. A failed channel post is an error; failed direct
// messages are logged and skipped.
func (g *Gateway) Send(ctx context.Context, env *model.Envelope) error {
	logger := ctxlog.From(ctx)
	blocks := buildBlocks(env)
	fallback := env.Subject

	if g.channel != "" {
		_, ts, err := g.client.PostMessageContext(ctx, g.channel,
			slack.MsgOptionText(fallback, false),
			slack.MsgOptionBlocks(blocks...),
		)
		if err != nil {
			return goerr.Wrap(err, "failed to post slack message",
				goerr.T(types.ErrTagDelivery),
				goerr.V("channel", g.channel),
				goerr.V("id", env.ID),
			)
		}
		logger.Debug("Posted slack message", "channel", g.channel, "ts", ts)
	}

	if !g.direct {
		return nil
	}

	var delivered int
	for _, addr := range env.To {
		user, err := g.client.GetUserByEmailContext(ctx, addr)
		if err != nil {
			logger.Warn("Slack user not found for address", "address", addr, "error", err)
			continue
		}
		if _, _, err := g.client.PostMessageContext(ctx, user.ID,
			slack.MsgOptionText(fallback, false),
			slack.MsgOptionBlocks(blocks...),
		); err != nil {
			logger.Warn("Failed to send slack direct message", "address", addr, "error", err)
			continue
		}
		delivered++
	}

	if g.channel == "" && delivered == 0 && len(env.To) > 0 {
		return goerr.New("no slack direct message could be delivered",
			goerr.T(types.ErrTagDelivery),
			goerr.V("id", env.ID),
			goerr.V("to", env.To),
		)
	}
	return nil
}

func buildBlocks(env *model.Envelope) []slack.Block {
	body := env.Body
	if env.HTML {
		body = htmlToText(body)
	}
	body = truncate(strings.TrimSpace(body), maxSectionText)

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(env.Subject, 150), false, false)),
	}
	if body != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil,
		))
	}
	return blocks
}

// htmlToText keeps the readable text of a rendered report
func htmlToText(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "</p>", "\n", "</tr>", "\n", "</li>", "\n").Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return blankPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
