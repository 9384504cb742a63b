package inbound

import "context"

// EventMessagesUpsert is the only gateway event type that carries chat
// messages; every other event is acknowledged and dropped.
const EventMessagesUpsert = "messages.upsert"

// EventEnvelope is the body the gateway posts to our webhook.
type EventEnvelope struct {
	Event    string    `json:"event"`
	Instance string    `json:"instance"`
	Data     EventData `json:"data"`
}

type EventData struct {
	Key       MessageKey      `json:"key"`
	PushName  string          `json:"pushName"`
	Message   *MessagePayload `json:"message"`
	Timestamp int64           `json:"messageTimestamp"`
}

type MessageKey struct {
	RemoteJID   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	ID          string `json:"id"`
	Participant string `json:"participant"`
}

type MessagePayload struct {
	Conversation        string        `json:"conversation"`
	ExtendedTextMessage *ExtendedText `json:"extendedTextMessage"`
	ImageMessage        *MediaPayload `json:"imageMessage"`
	VideoMessage        *MediaPayload `json:"videoMessage"`
	AudioMessage        *MediaPayload `json:"audioMessage"`
	DocumentMessage     *MediaPayload `json:"documentMessage"`
	Base64              string        `json:"base64"`
}

type ExtendedText struct {
	Text string `json:"text"`
}

type MediaPayload struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	MimeType string `json:"mimetype"`
	Base64   string `json:"base64"`
	FileName string `json:"fileName"`
}

// IInboundUsecase processes one webhook event after the HTTP response has
// already been written. Implementations must swallow and log failures.
type IInboundUsecase interface {
	Process(ctx context.Context, envelope EventEnvelope)
}
