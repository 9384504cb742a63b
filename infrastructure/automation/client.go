package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	domainAutomation "github.com/wadesk/wadesk/domains/automation"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

const httpTimeout = 60 * time.Second

// Client posts messages to the external automation webhook. There is no
// queueing and no retry: Trigger surfaces the failure to the caller so
// the ingestion pipeline can skip the automated reply, Notify only logs.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		// Generation can take a while; this is the one outbound call with a
		// generous timeout.
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

func (c *Client) Trigger(ctx context.Context, payload domainAutomation.Payload) (*domainAutomation.Reply, error) {
	if c.webhookURL == "" {
		return nil, pkgError.WebhookError("automation webhook URL not configured")
	}

	body, err := c.post(ctx, payload)
	if err != nil {
		return nil, err
	}
	return parseReply(body), nil
}

func (c *Client) Notify(ctx context.Context, payload domainAutomation.Payload) {
	if c.webhookURL == "" {
		return
	}
	if _, err := c.post(ctx, payload); err != nil {
		logrus.WithError(err).Warnf("[AUTOMATION] Notify failed for %s", payload.Phone)
	}
}

func (c *Client) post(ctx context.Context, payload domainAutomation.Payload) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgError.WebhookError(fmt.Sprintf("automation call failed: %v", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgError.WebhookError(
			fmt.Sprintf("automation returned status %d: %s", resp.StatusCode, string(body)))
	}
	return body, nil
}

// parseReply accepts either a JSON object carrying text/message plus
// optional media fields, or a bare string body.
func parseReply(body []byte) *domainAutomation.Reply {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return &domainAutomation.Reply{}
	}

	var obj struct {
		Text      string `json:"text"`
		Message   string `json:"message"`
		MediaURL  string `json:"mediaUrl"`
		MediaType string `json:"mediaType"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		text := obj.Text
		if text == "" {
			text = obj.Message
		}
		return &domainAutomation.Reply{
			Text:      strings.TrimSpace(text),
			MediaURL:  strings.TrimSpace(obj.MediaURL),
			MediaType: strings.TrimSpace(obj.MediaType),
		}
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		return &domainAutomation.Reply{Text: strings.TrimSpace(plain)}
	}

	return &domainAutomation.Reply{Text: trimmed}
}

var _ domainAutomation.IAutomationClient = (*Client)(nil)
