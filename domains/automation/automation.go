package automation

import "context"

// IAutomationClient forwards messages to the external automation
// workflow. Trigger blocks on the workflow response because the reply it
// generates is sent back to the customer inline; Notify is fire-and-forget.
type IAutomationClient interface {
	Trigger(ctx context.Context, payload Payload) (*Reply, error)
	Notify(ctx context.Context, payload Payload)
}

// Payload is the webhook body posted to the automation service.
type Payload struct {
	Phone             string `json:"phone"`
	Name              string `json:"name"`
	Message           string `json:"message"`
	TempID            string `json:"temp_id"`
	ConversationState string `json:"conversation_state"`
	Timestamp         string `json:"timestamp"`
	MediaType         string `json:"media_type,omitempty"`
	MediaURL          string `json:"media_url,omitempty"`
	FileName          string `json:"file_name,omitempty"`
}

// Reply is the parsed automation response. The body may be a JSON object
// with text/message plus optional media fields, or a bare string.
type Reply struct {
	Text      string
	MediaURL  string
	MediaType string
}
