package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/herald/pkg/controller/http"
	"github.com/m-mizutani/herald/pkg/domain/model"
	"github.com/m-mizutani/herald/pkg/usecase"
)

// MockWebhookUseCase records the events handed over by the handler
type MockWebhookUseCase struct {
	events []*model.WebhookEvent
}

func (m *MockWebhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	m.events = append(m.events, event)
	return nil
}

func pushPayload() map[string]any {
	return map[string]any{
		"ref": "refs/heads/main",
		"commits": []any{
			map[string]any{
				"id":       "c1",
				"message":  "Fix build",
				"added":    []string{"src/a.go"},
				"author":   map[string]any{"name": "Alice", "email": "alice@example.com", "username": "alice"},
				"modified": []string{},
			},
		},
		"repository": map[string]any{"full_name": "test/repo"},
		"sender":     map[string]any{"login": "testuser"},
	}
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	secret := "test-secret"
	uc := usecase.NewWebhook()
	handler := controller.NewWebhookHandler(secret, uc)

	tests := []struct {
		name           string
		payload        string
		signature      string
		wantStatusCode int
	}{
		{
			name:           "Valid signature",
			payload:        `{"ref":"refs/heads/main","repository":{"full_name":"test/repo"},"sender":{"login":"testuser"}}`,
			signature:      "", // Will be generated
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "Invalid signature",
			payload:        `{"ref":"refs/heads/main"}`,
			signature:      "sha256=invalid",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "Missing signature",
			payload:        `{"ref":"refs/heads/main"}`,
			signature:      "",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(tt.payload)
			signature := tt.signature
			if signature == "" && tt.wantStatusCode == http.StatusOK {
				signature = controller.Sign(secret, payload)
			}

			req := httptest.NewRequest(http.MethodPost, "/hooks/github/app", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", "push")
			req.Header.Set("X-GitHub-Delivery", "test-delivery")
			req.Header.Set("X-Hub-Signature-256", signature)

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			gt.Equal(t, w.Code, tt.wantStatusCode)
		})
	}
}

func TestWebhookHandler_EventParsing(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name           string
		eventType      string
		payload        any
		wantStatusCode int
		wantType       model.WebhookEventType
		wantRef        string
	}{
		{
			name:           "Push event",
			eventType:      "push",
			payload:        pushPayload(),
			wantStatusCode: http.StatusOK,
			wantType:       model.EventTypePush,
			wantRef:        "refs/heads/main",
		},
		{
			name:      "Ping event",
			eventType: "ping",
			payload: map[string]any{
				"zen":        "Design for failure.",
				"repository": map[string]any{"full_name": "test/repo"},
			},
			wantStatusCode: http.StatusOK,
			wantType:       model.EventTypePing,
		},
		{
			name:      "Other known event is unknown to us",
			eventType: "release",
			payload: map[string]any{
				"action":     "released",
				"repository": map[string]any{"full_name": "test/repo"},
			},
			wantStatusCode: http.StatusOK,
			wantType:       model.EventTypeUnknown,
		},
		{
			name:           "Event go-github does not know",
			eventType:      "brand_new_event",
			payload:        map[string]any{},
			wantStatusCode: http.StatusOK,
			wantType:       model.EventTypeUnknown,
		},
		{
			name:           "Malformed push payload",
			eventType:      "push",
			payload:        "not an object",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &MockWebhookUseCase{}
			handler := controller.NewWebhookHandler(secret, uc)

			payloadBytes, err := json.Marshal(tt.payload)
			gt.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/hooks/github/app", bytes.NewReader(payloadBytes))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", tt.eventType)
			req.Header.Set("X-GitHub-Delivery", "test-delivery")
			req.Header.Set("X-Hub-Signature-256", controller.Sign(secret, payloadBytes))

			w := httptest.NewRecorder()
			handler.Handle(w, req)
			gt.Equal(t, w.Code, tt.wantStatusCode)

			if tt.wantStatusCode != http.StatusOK {
				gt.Equal(t, len(uc.events), 0)
				return
			}

			var response map[string]string
			gt.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			gt.Equal(t, response["status"], "success")

			gt.Equal(t, len(uc.events), 1)
			gt.Equal(t, uc.events[0].Type, tt.wantType)
			gt.Equal(t, uc.events[0].Ref, tt.wantRef)
			gt.Equal(t, uc.events[0].ID, "test-delivery")
			gt.Value(t, uc.events[0].RawPayload).Equal(payloadBytes)
		})
	}
}

// processorFunc adapts a function into an EventProcessor
type processorFunc func(ctx context.Context, eventType string, payload []byte) error

func (f processorFunc) ProcessEvent(ctx context.Context, eventType string, payload []byte) error {
	return f(ctx, eventType, payload)
}

func TestWebhookHandler_Integration(t *testing.T) {
	ctx := context.Background()
	secret := "integration-test-secret"

	received := make(chan string, 1)
	uc := usecase.NewWebhook(usecase.WithEventProcessor(processorFunc(
		func(ctx context.Context, eventType string, payload []byte) error {
			received <- eventType
			return nil
		},
	)))

	server, err := controller.NewServer(
		ctx,
		newRuntime(t, &MockGateway{}),
		uc,
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret(secret),
	)
	gt.NoError(t, err)

	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	payloadBytes, err := json.Marshal(pushPayload())
	gt.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/hooks/github/app", bytes.NewReader(payloadBytes))
	gt.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", "integration-test")
	req.Header.Set("X-Hub-Signature-256", controller.Sign(secret, payloadBytes))

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	defer func() {
		_ = resp.Body.Close() // Error ignored in test
	}()

	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.Equal(t, <-received, "push")
}
