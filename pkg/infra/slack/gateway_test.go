package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/domain/types"
	"github.com/m-mizutani/herald/pkg/infra/slack"
)

type post struct {
	channel string
	text    string
	blocks  string
}

// fakeSlack serves the two Slack API methods the gateway calls
type fakeSlack struct {
	mu    sync.Mutex
	posts []post
	users map[string]string
	fail  bool
}

func (f *fakeSlack) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if f.fail {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
			return
		}
		f.mu.Lock()
		f.posts = append(f.posts, post{
			channel: r.FormValue("channel"),
			text:    r.FormValue("text"),
			blocks:  r.FormValue("blocks"),
		})
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.FormValue("channel"), "ts": "1700000000.000100"})
	})
	mux.HandleFunc("/users.lookupByEmail", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		id, ok := f.users[r.FormValue("email")]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "users_not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "user": map[string]any{"id": id}})
	})
	return mux
}

func newServer(t *testing.T, f *fakeSlack) string {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestGateway_Send(t *testing.T) {
	fake := &fakeSlack{}
	gw, err := slack.New("xoxb-test", slack.WithChannel("#builds"), slack.WithAPIURL(newServer(t, fake)))
	gt.NoError(t, err)

	err = gw.Send(context.Background(), &model.Envelope{
		ID:      "1",
		To:      []string{"alice@example.com"},
		Subject: "web Build Failed",
		Body:    "<h1>web</h1><p>Build <b>12</b> failed &amp; needs attention</p><style>p{}</style>",
		HTML:    true,
	})
	gt.NoError(t, err)
	gt.Equal(t, len(fake.posts), 1)
	gt.Equal(t, fake.posts[0].channel, "#builds")
	gt.Equal(t, fake.posts[0].text, "web Build Failed")
	gt.String(t, fake.posts[0].blocks).Contains("Build 12 failed \\u0026 needs attention")
	gt.String(t, fake.posts[0].blocks).NotContains("<b>")
	gt.String(t, fake.posts[0].blocks).NotContains("p{}")
}

func TestGateway_DirectMessages(t *testing.T) {
	fake := &fakeSlack{users: map[string]string{"alice@example.com": "U1"}}
	gw, err := slack.New("xoxb-test", slack.WithDirectMessages(true), slack.WithAPIURL(newServer(t, fake)))
	gt.NoError(t, err)

	err = gw.Send(context.Background(), &model.Envelope{
		To:      []string{"alice@example.com", "ghost@example.com"},
		Subject: "web Build Fixed",
		Body:    "all green",
	})
	gt.NoError(t, err)
	gt.Equal(t, len(fake.posts), 1)
	gt.Equal(t, fake.posts[0].channel, "U1")

	err = gw.Send(context.Background(), &model.Envelope{
		To:      []string{"ghost@example.com"},
		Subject: "web Build Fixed",
	})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagDelivery))
}

func TestGateway_ChannelFailure(t *testing.T) {
	fake := &fakeSlack{fail: true}
	gw, err := slack.New("xoxb-test", slack.WithChannel("#missing"), slack.WithAPIURL(newServer(t, fake)))
	gt.NoError(t, err)

	err = gw.Send(context.Background(), &model.Envelope{Subject: "x", Body: strings.Repeat("a", 5000)})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagDelivery))
	gt.String(t, err.Error()).Contains("channel_not_found")
}

func TestNew(t *testing.T) {
	_, err := slack.New("")
	gt.Error(t, err)

	_, err = slack.New("xoxb-test")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}
