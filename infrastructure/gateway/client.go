package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	domainGateway "github.com/wadesk/wadesk/domains/gateway"
	pkgError "github.com/wadesk/wadesk/pkg/error"
)

const httpTimeout = 15 * time.Second

// Client talks to the WhatsApp gateway's HTTP API. Send endpoints accept
// different body shapes depending on gateway version and configuration,
// so each operation walks an ordered list of builders and returns on the
// first HTTP-OK response. This is a compatibility shim, not a retry
// mechanism: every shape is attempted at most once.
type Client struct {
	baseURL    string
	instance   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, instance, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		instance:   instance,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// bodyStrategy builds one candidate request body for a send endpoint.
type bodyStrategy struct {
	name  string
	build func() map[string]any
}

func (c *Client) SendText(ctx context.Context, number, text string) (domainGateway.SendResponse, error) {
	strategies := []bodyStrategy{
		{"flat", func() map[string]any {
			return map[string]any{"number": number, "text": text}
		}},
		{"textMessage", func() map[string]any {
			return map[string]any{"number": number, "textMessage": map[string]any{"text": text}}
		}},
		{"textMessage+options", func() map[string]any {
			return map[string]any{
				"number":      number,
				"options":     map[string]any{"delay": 0, "presence": "composing"},
				"textMessage": map[string]any{"text": text},
			}
		}},
	}
	return c.trySend(ctx, fmt.Sprintf("%s/message/sendText/%s", c.baseURL, c.instance), strategies)
}

func (c *Client) SendMedia(ctx context.Context, req domainGateway.SendMediaRequest) (domainGateway.SendResponse, error) {
	strategies := []bodyStrategy{
		{"flat", func() map[string]any {
			return map[string]any{
				"number":    req.Number,
				"mediatype": req.MediaType,
				"media":     req.MediaURL,
				"caption":   req.Caption,
				"fileName":  req.FileName,
			}
		}},
		{"mediaMessage", func() map[string]any {
			return map[string]any{
				"number": req.Number,
				"mediaMessage": map[string]any{
					"mediatype": req.MediaType,
					"media":     req.MediaURL,
					"caption":   req.Caption,
					"fileName":  req.FileName,
				},
			}
		}},
	}
	return c.trySend(ctx, fmt.Sprintf("%s/message/sendMedia/%s", c.baseURL, c.instance), strategies)
}

func (c *Client) trySend(ctx context.Context, endpoint string, strategies []bodyStrategy) (domainGateway.SendResponse, error) {
	var lastBody string
	var lastErr error

	for _, strategy := range strategies {
		raw, body, err := c.post(ctx, endpoint, strategy.build())
		if err == nil {
			return domainGateway.SendResponse{MessageID: extractMessageID(raw), Raw: raw}, nil
		}
		lastErr = err
		lastBody = body
		logrus.Debugf("[GATEWAY] Body shape %q rejected by %s: %v", strategy.name, endpoint, err)
	}

	return domainGateway.SendResponse{}, pkgError.WebhookError(
		fmt.Sprintf("all request shapes failed for %s: %v (last response: %s)", endpoint, lastErr, lastBody))
}

func (c *Client) ConnectionState(ctx context.Context) (domainGateway.ConnectionState, error) {
	var state domainGateway.ConnectionState
	raw, _, err := c.get(ctx, fmt.Sprintf("%s/instance/connectionState/%s", c.baseURL, c.instance))
	if err != nil {
		return state, err
	}
	if inst, ok := raw["instance"].(map[string]any); ok {
		state.Instance, _ = inst["instanceName"].(string)
		state.State, _ = inst["state"].(string)
	} else {
		state.State, _ = raw["state"].(string)
	}
	return state, nil
}

// FetchGroupInfo walks the known endpoint path variants the same way the
// send operations walk body shapes.
func (c *Client) FetchGroupInfo(ctx context.Context, groupJID string) (domainGateway.GroupInfo, error) {
	paths := []string{
		"/group/findGroupInfos/%s?groupJid=%s",
		"/group/fetchGroupInfo/%s?groupJid=%s",
		"/group/groupMetadata/%s?groupJid=%s",
	}

	var lastErr error
	for _, p := range paths {
		endpoint := c.baseURL + fmt.Sprintf(p, c.instance, url.QueryEscape(groupJID))
		raw, _, err := c.get(ctx, endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		info := domainGateway.GroupInfo{}
		info.JID, _ = raw["id"].(string)
		info.Subject, _ = raw["subject"].(string)
		if size, ok := raw["size"].(float64); ok {
			info.Size = int(size)
		}
		if info.Subject != "" {
			return info, nil
		}
		lastErr = fmt.Errorf("no subject in response from %s", endpoint)
	}

	return domainGateway.GroupInfo{}, pkgError.WebhookError(
		fmt.Sprintf("failed to fetch group info for %s: %v", groupJID, lastErr))
}

func (c *Client) FetchBase64(ctx context.Context, messageID string) (domainGateway.Base64Media, error) {
	endpoint := fmt.Sprintf("%s/chat/getBase64FromMediaMessage/%s", c.baseURL, c.instance)
	raw, body, err := c.post(ctx, endpoint, map[string]any{
		"message":      map[string]any{"key": map[string]any{"id": messageID}},
		"convertToMp4": false,
	})
	if err != nil {
		return domainGateway.Base64Media{}, pkgError.WebhookError(
			fmt.Sprintf("failed to fetch base64 media for %s: %v (%s)", messageID, err, body))
	}

	media := domainGateway.Base64Media{}
	media.Base64, _ = raw["base64"].(string)
	media.MimeType, _ = raw["mimetype"].(string)
	if media.Base64 == "" {
		return media, pkgError.WebhookError("gateway returned no base64 content for " + messageID)
	}
	return media, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	return c.do(req)
}

func (c *Client) get(ctx context.Context, endpoint string) (map[string]any, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("apikey", c.apiKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]any, string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, string(body), fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	raw := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			// Some gateway builds answer 200 with a non-JSON body; the send
			// still succeeded.
			return map[string]any{}, string(body), nil
		}
	}
	return raw, string(body), nil
}

func extractMessageID(raw map[string]any) string {
	if key, ok := raw["key"].(map[string]any); ok {
		if id, ok := key["id"].(string); ok {
			return id
		}
	}
	if id, ok := raw["messageId"].(string); ok {
		return id
	}
	return ""
}

var _ domainGateway.IGatewayClient = (*Client)(nil)
