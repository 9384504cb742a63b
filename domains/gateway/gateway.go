package gateway

import "context"

// IGatewayClient wraps the WhatsApp gateway's HTTP API. Send operations
// try a short ordered list of request-body shapes so one build works
// against different gateway versions; the first HTTP-OK response wins.
type IGatewayClient interface {
	SendText(ctx context.Context, number, text string) (SendResponse, error)
	SendMedia(ctx context.Context, req SendMediaRequest) (SendResponse, error)
	ConnectionState(ctx context.Context) (ConnectionState, error)
	FetchGroupInfo(ctx context.Context, groupJID string) (GroupInfo, error)
	FetchBase64(ctx context.Context, messageID string) (Base64Media, error)
}

type SendMediaRequest struct {
	Number    string
	MediaType string
	MediaURL  string
	Caption   string
	FileName  string
}

type SendResponse struct {
	MessageID string
	Raw       map[string]any
}

type ConnectionState struct {
	Instance string `json:"instance"`
	State    string `json:"state"`
}

type GroupInfo struct {
	JID     string `json:"id"`
	Subject string `json:"subject"`
	Size    int    `json:"size"`
}

type Base64Media struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimetype"`
}
