package realtime

// Event codes pushed over the websocket channel.
const (
	CodeNewMessage          = "NEW_MESSAGE"
	CodeConversationUpdated = "CONVERSATION_UPDATED"
	CodeStateChanged        = "STATE_CHANGED"
)

// IEmitter fans an event out to every session subscribed to a
// conversation's channel plus the global conversation-list channel.
// Phone selects the per-conversation channel; an empty phone means the
// event is only relevant to the global list.
type IEmitter interface {
	Emit(code, phone string, payload any)
}
