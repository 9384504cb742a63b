package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	domainAutomation "github.com/wadesk/wadesk/domains/automation"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubClient(t *testing.T, status int, body string, capture *[]byte) *Client {
	t.Helper()
	c := NewClient("https://automation.test/webhook")
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if capture != nil {
				raw, _ := io.ReadAll(req.Body)
				*capture = raw
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewReader([]byte(body))),
				Header:     make(http.Header),
			}, nil
		}),
	}
	return c
}

func TestTriggerParsesObjectReply(t *testing.T) {
	var sent []byte
	c := stubClient(t, http.StatusOK, `{"text":"Claro, te ayudo","mediaUrl":"/statics/media/a.jpg","mediaType":"image"}`, &sent)

	reply, err := c.Trigger(context.Background(), domainAutomation.Payload{
		Phone:             "+573001112222",
		Message:           "Hola",
		ConversationState: "ai_active",
	})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if reply.Text != "Claro, te ayudo" || reply.MediaURL != "/statics/media/a.jpg" || reply.MediaType != "image" {
		t.Fatalf("unexpected reply: %#v", reply)
	}

	var payload map[string]any
	if err := json.Unmarshal(sent, &payload); err != nil {
		t.Fatalf("failed to unmarshal sent payload: %v", err)
	}
	if payload["phone"] != "+573001112222" || payload["conversation_state"] != "ai_active" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestTriggerParsesMessageFieldFallback(t *testing.T) {
	c := stubClient(t, http.StatusOK, `{"message":"Respuesta"}`, nil)

	reply, err := c.Trigger(context.Background(), domainAutomation.Payload{Phone: "+573001112222"})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if reply.Text != "Respuesta" {
		t.Fatalf("expected message field fallback, got %q", reply.Text)
	}
}

func TestTriggerParsesPlainStringReply(t *testing.T) {
	c := stubClient(t, http.StatusOK, `"Solo texto"`, nil)

	reply, err := c.Trigger(context.Background(), domainAutomation.Payload{Phone: "+573001112222"})
	if err != nil {
		t.Fatalf("Trigger() unexpected error: %v", err)
	}
	if reply.Text != "Solo texto" {
		t.Fatalf("unexpected reply text %q", reply.Text)
	}
}

func TestTriggerPropagatesUpstreamFailure(t *testing.T) {
	c := stubClient(t, http.StatusBadGateway, `{"error":"workflow down"}`, nil)

	if _, err := c.Trigger(context.Background(), domainAutomation.Payload{Phone: "+573001112222"}); err == nil {
		t.Fatal("expected error on non-2xx automation response")
	}
}

func TestNotifySwallowsFailure(t *testing.T) {
	c := stubClient(t, http.StatusInternalServerError, `{}`, nil)
	// Must not panic or block; failures are logged only.
	c.Notify(context.Background(), domainAutomation.Payload{Phone: "+573001112222"})
}
