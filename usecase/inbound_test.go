package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAutomation "github.com/wadesk/wadesk/domains/automation"
	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	domainGateway "github.com/wadesk/wadesk/domains/gateway"
	domainInbound "github.com/wadesk/wadesk/domains/inbound"
	"github.com/wadesk/wadesk/pkg/echodedup"
)

// fakeRepo keeps everything in memory so the full ingestion path can run
// without a database.
type fakeRepo struct {
	mu            sync.Mutex
	conversations map[string]*domainChatStorage.Conversation
	messages      []*domainChatStorage.Message
	knowledge     map[string]*domainChatStorage.AIKnowledge
	unread        map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[string]*domainChatStorage.Conversation),
		knowledge:     make(map[string]*domainChatStorage.AIKnowledge),
		unread:        make(map[string]int),
	}
}

func (f *fakeRepo) InitializeSchema() error { return nil }

func (f *fakeRepo) GetConversation(_ context.Context, phone string) (*domainChatStorage.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations[phone], nil
}

func (f *fakeRepo) ListConversations(context.Context, string, int, int) ([]domainChatStorage.Conversation, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) UpsertConversation(_ context.Context, up domainChatStorage.ConversationUpsert) (*domainChatStorage.Conversation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conv, ok := f.conversations[up.Phone]; ok {
		conv.LastMessage = up.LastMessage
		ts := up.Timestamp
		conv.LastMessageAt = &ts
		if conv.Name == "" && up.Name != "" {
			conv.Name = up.Name
		}
		return conv, false, nil
	}

	enabled := true
	if up.AIEnabled != nil {
		enabled = *up.AIEnabled
	}
	state := domainChatStorage.StateAIActive
	if !enabled {
		state = domainChatStorage.StateAgentActive
	}
	ts := up.Timestamp
	conv := &domainChatStorage.Conversation{
		Phone:         up.Phone,
		Name:          up.Name,
		LastMessage:   up.LastMessage,
		LastMessageAt: &ts,
		Status:        domainChatStorage.StatusActive,
		AIEnabled:     enabled,
		State:         state,
	}
	f.conversations[up.Phone] = conv
	return conv, true, nil
}

func (f *fakeRepo) UpdateConversationName(_ context.Context, phone, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.conversations[phone]; ok {
		conv.Name = name
	}
	return nil
}

func (f *fakeRepo) UpdateLastMessage(_ context.Context, phone, preview string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.conversations[phone]; ok {
		conv.LastMessage = preview
		conv.LastMessageAt = &at
	}
	return nil
}

func (f *fakeRepo) IncrementUnread(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unread[phone]++
	return nil
}

func (f *fakeRepo) MarkRead(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unread[phone] = 0
	return nil
}

func (f *fakeRepo) SetAIEnabled(_ context.Context, phone string, enabled bool) (*domainChatStorage.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[phone]
	if !ok {
		return nil, errors.New("not found")
	}
	conv.AIEnabled = enabled
	if enabled {
		conv.State = domainChatStorage.StateAIActive
	} else {
		conv.State = domainChatStorage.StateAgentActive
	}
	return conv, nil
}

func (f *fakeRepo) AssignAgent(context.Context, string, *uint) error { return nil }

func (f *fakeRepo) ArchiveConversation(context.Context, string) error { return nil }

func (f *fakeRepo) MessageExists(_ context.Context, externalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages {
		if msg.ExternalID != nil && *msg.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) InsertMessage(_ context.Context, msg *domainChatStorage.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = uint(len(f.messages) + 1)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeRepo) UpdateMessageStatus(_ context.Context, id uint, status string, externalID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages {
		if msg.ID == id {
			msg.Status = status
			if externalID != nil {
				msg.ExternalID = externalID
			}
		}
	}
	return nil
}

func (f *fakeRepo) ListMessages(context.Context, string, int, int) ([]domainChatStorage.Message, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) CreateTag(context.Context, *domainChatStorage.Tag) error { return nil }
func (f *fakeRepo) ListTags(context.Context) ([]domainChatStorage.Tag, error) {
	return nil, nil
}
func (f *fakeRepo) DeleteTag(context.Context, uint) error         { return nil }
func (f *fakeRepo) AssignTag(context.Context, string, uint) error { return nil }
func (f *fakeRepo) RemoveTag(context.Context, string, uint) error { return nil }

func (f *fakeRepo) CreateQuickReply(context.Context, *domainChatStorage.QuickReply) error { return nil }
func (f *fakeRepo) ListQuickReplies(context.Context) ([]domainChatStorage.QuickReply, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateQuickReply(context.Context, *domainChatStorage.QuickReply) error { return nil }
func (f *fakeRepo) DeleteQuickReply(context.Context, uint) error                          { return nil }

func (f *fakeRepo) CreateKnowledge(context.Context, *domainChatStorage.AIKnowledge) error { return nil }

func (f *fakeRepo) GetKnowledge(_ context.Context, id string) (*domainChatStorage.AIKnowledge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.knowledge[id], nil
}

func (f *fakeRepo) ListKnowledge(context.Context) ([]domainChatStorage.AIKnowledge, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateKnowledge(context.Context, *domainChatStorage.AIKnowledge) error { return nil }
func (f *fakeRepo) DeleteKnowledge(context.Context, string) error                         { return nil }

var _ domainChatStorage.IChatStorageRepository = (*fakeRepo)(nil)

type fakeGateway struct {
	mu          sync.Mutex
	textSends   []string
	mediaSends  []domainGateway.SendMediaRequest
	mediaErr    error
	fetchResult domainGateway.Base64Media
	fetchErr    error
	groupInfo   domainGateway.GroupInfo
	groupErr    error
}

func (f *fakeGateway) SendText(_ context.Context, number, text string) (domainGateway.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textSends = append(f.textSends, number+"|"+text)
	return domainGateway.SendResponse{MessageID: "sent-" + number}, nil
}

func (f *fakeGateway) SendMedia(_ context.Context, request domainGateway.SendMediaRequest) (domainGateway.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaSends = append(f.mediaSends, request)
	if f.mediaErr != nil {
		return domainGateway.SendResponse{}, f.mediaErr
	}
	return domainGateway.SendResponse{MessageID: "sent-media"}, nil
}

func (f *fakeGateway) ConnectionState(context.Context) (domainGateway.ConnectionState, error) {
	return domainGateway.ConnectionState{State: "open"}, nil
}

func (f *fakeGateway) FetchGroupInfo(context.Context, string) (domainGateway.GroupInfo, error) {
	if f.groupErr != nil {
		return domainGateway.GroupInfo{}, f.groupErr
	}
	return f.groupInfo, nil
}

func (f *fakeGateway) FetchBase64(context.Context, string) (domainGateway.Base64Media, error) {
	if f.fetchErr != nil {
		return domainGateway.Base64Media{}, f.fetchErr
	}
	return f.fetchResult, nil
}

var _ domainGateway.IGatewayClient = (*fakeGateway)(nil)

type fakeAutomation struct {
	mu       sync.Mutex
	payloads []domainAutomation.Payload
	reply    *domainAutomation.Reply
	err      error
}

func (f *fakeAutomation) Trigger(_ context.Context, payload domainAutomation.Payload) (*domainAutomation.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeAutomation) Notify(context.Context, domainAutomation.Payload) {}

var _ domainAutomation.IAutomationClient = (*fakeAutomation)(nil)

type emittedEvent struct {
	code    string
	phone   string
	payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakeEmitter) Emit(code, phone string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{code: code, phone: phone, payload: payload})
}

type stubSettings struct{ aiDefault bool }

func (s stubSettings) AIEnabledDefault(context.Context) bool { return s.aiDefault }

type inboundFixture struct {
	repo       *fakeRepo
	gateway    *fakeGateway
	automation *fakeAutomation
	emitter    *fakeEmitter
	dedup      *echodedup.Cache
	service    *serviceInbound
}

func newInboundFixture(t *testing.T) *inboundFixture {
	t.Helper()
	repo := newFakeRepo()
	gw := &fakeGateway{}
	auto := &fakeAutomation{reply: &domainAutomation.Reply{Text: "hola"}}
	emitter := &fakeEmitter{}
	dedup := echodedup.New(30 * time.Second)

	svc := NewInboundService(repo, gw, auto, dedup, emitter, stubSettings{aiDefault: true}).(*serviceInbound)
	svc.saveBase64 = func(data, mimeType, kind string) (string, error) {
		return "/statics/media/stored-" + kind + ".bin", nil
	}

	return &inboundFixture{repo: repo, gateway: gw, automation: auto, emitter: emitter, dedup: dedup, service: svc}
}

func customerTextEvent(remoteJID, id, text string) domainInbound.EventEnvelope {
	return domainInbound.EventEnvelope{
		Event: domainInbound.EventMessagesUpsert,
		Data: domainInbound.EventData{
			Key:       domainInbound.MessageKey{RemoteJID: remoteJID, ID: id},
			PushName:  "Maria",
			Message:   &domainInbound.MessagePayload{Conversation: text},
			Timestamp: time.Now().Unix(),
		},
	}
}

func TestProcess_NewConversationFromCustomerText(t *testing.T) {
	fx := newInboundFixture(t)
	// No automation reply here, so the customer text stays the preview.
	fx.automation.reply = &domainAutomation.Reply{}

	fx.service.Process(context.Background(), customerTextEvent("573001112222@s.whatsapp.net", "wamid-1", "hola, necesito ayuda"))

	conv := fx.repo.conversations["+573001112222"]
	require.NotNil(t, conv)
	assert.Equal(t, "Maria", conv.Name)
	assert.Equal(t, "hola, necesito ayuda", conv.LastMessage)
	assert.True(t, conv.AIEnabled)
	assert.Equal(t, 1, fx.repo.unread["+573001112222"])

	require.Len(t, fx.repo.messages, 1)
	first := fx.repo.messages[0]
	assert.Equal(t, domainChatStorage.SenderCustomer, first.Sender)
	require.NotNil(t, first.ExternalID)
	assert.Equal(t, "wamid-1", *first.ExternalID)

	require.NotEmpty(t, fx.emitter.events)
	assert.Equal(t, "NEW_MESSAGE", fx.emitter.events[0].code)
	payload := fx.emitter.events[0].payload.(map[string]any)
	assert.Equal(t, true, payload["isNew"])

	// Customer message on an AI-active conversation reaches the workflow.
	require.Len(t, fx.automation.payloads, 1)
	assert.Equal(t, "+573001112222", fx.automation.payloads[0].Phone)
	assert.Equal(t, domainChatStorage.StateAIActive, fx.automation.payloads[0].ConversationState)
	assert.NotEmpty(t, fx.automation.payloads[0].TempID)
}

func TestProcess_AutomationReplyBecomesPreview(t *testing.T) {
	fx := newInboundFixture(t)

	fx.service.Process(context.Background(), customerTextEvent("573001112222@s.whatsapp.net", "wamid-2", "hola, necesito ayuda"))

	conv := fx.repo.conversations["+573001112222"]
	require.NotNil(t, conv)
	assert.Equal(t, "hola", conv.LastMessage)

	require.Len(t, fx.repo.messages, 2)
	assert.Equal(t, domainChatStorage.SenderAI, fx.repo.messages[1].Sender)
}

func TestProcess_DuplicateExternalIDIsSkipped(t *testing.T) {
	fx := newInboundFixture(t)
	event := customerTextEvent("573001112222@s.whatsapp.net", "wamid-dup", "hola")

	fx.service.Process(context.Background(), event)
	fx.service.Process(context.Background(), event)

	assert.Len(t, fx.repo.messages, 2) // customer message + one AI reply
	count := 0
	for _, msg := range fx.repo.messages {
		if msg.Sender == domainChatStorage.SenderCustomer {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestProcess_OwnEchoIsDropped(t *testing.T) {
	fx := newInboundFixture(t)
	fx.dedup.Register(echodedup.Fingerprint("+573001112222", "", "hola"))

	event := customerTextEvent("573001112222@s.whatsapp.net", "wamid-echo", "hola")
	event.Data.Key.FromMe = true
	fx.service.Process(context.Background(), event)

	assert.Empty(t, fx.repo.messages)
	assert.Empty(t, fx.automation.payloads)
}

func TestProcess_ForeignFromMeBecomesAgentMessage(t *testing.T) {
	fx := newInboundFixture(t)

	event := customerTextEvent("573001112222@s.whatsapp.net", "wamid-phone", "respondido desde el teléfono")
	event.Data.Key.FromMe = true
	fx.service.Process(context.Background(), event)

	require.Len(t, fx.repo.messages, 1)
	assert.Equal(t, domainChatStorage.SenderAgent, fx.repo.messages[0].Sender)
	assert.Equal(t, 0, fx.repo.unread["+573001112222"])
	// Agent activity never triggers the workflow.
	assert.Empty(t, fx.automation.payloads)
}

func TestProcess_InlineBase64Image(t *testing.T) {
	fx := newInboundFixture(t)

	event := domainInbound.EventEnvelope{
		Event: domainInbound.EventMessagesUpsert,
		Data: domainInbound.EventData{
			Key:      domainInbound.MessageKey{RemoteJID: "573001112222@s.whatsapp.net", ID: "wamid-img"},
			PushName: "Maria",
			Message: &domainInbound.MessagePayload{
				ImageMessage: &domainInbound.MediaPayload{
					Caption:  "mira esto",
					MimeType: "image/jpeg",
					Base64:   "base64,AAAA",
				},
			},
		},
	}
	fx.service.Process(context.Background(), event)

	require.Len(t, fx.repo.messages, 2)
	msg := fx.repo.messages[0]
	require.NotNil(t, msg.MediaURL)
	assert.Equal(t, "/statics/media/stored-image.bin", *msg.MediaURL)
	require.NotNil(t, msg.MediaType)
	assert.Equal(t, "image", *msg.MediaType)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "mira esto", *msg.Text)
}

func TestProcess_MediaFetchedFromGatewayWhenNoInline(t *testing.T) {
	fx := newInboundFixture(t)
	fx.gateway.fetchResult = domainGateway.Base64Media{Base64: "fetched", MimeType: "image/png"}

	event := domainInbound.EventEnvelope{
		Event: domainInbound.EventMessagesUpsert,
		Data: domainInbound.EventData{
			Key:     domainInbound.MessageKey{RemoteJID: "573001112222@s.whatsapp.net", ID: "wamid-fetch"},
			Message: &domainInbound.MessagePayload{ImageMessage: &domainInbound.MediaPayload{URL: "https://mmg.whatsapp.net/enc"}},
		},
	}
	fx.service.Process(context.Background(), event)

	require.Len(t, fx.repo.messages, 2)
	require.NotNil(t, fx.repo.messages[0].MediaURL)
	assert.Equal(t, "/statics/media/stored-image.bin", *fx.repo.messages[0].MediaURL)
}

func TestProcess_UnresolvableMediaDegradesToText(t *testing.T) {
	fx := newInboundFixture(t)
	fx.gateway.fetchErr = errors.New("gateway down")

	event := domainInbound.EventEnvelope{
		Event: domainInbound.EventMessagesUpsert,
		Data: domainInbound.EventData{
			Key: domainInbound.MessageKey{RemoteJID: "573001112222@s.whatsapp.net", ID: "wamid-broken"},
			Message: &domainInbound.MessagePayload{
				ImageMessage: &domainInbound.MediaPayload{URL: "https://mmg.whatsapp.net/enc", Caption: "factura"},
			},
		},
	}
	fx.service.Process(context.Background(), event)

	require.NotEmpty(t, fx.repo.messages)
	msg := fx.repo.messages[0]
	assert.Nil(t, msg.MediaURL)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "factura", *msg.Text)
}

func TestProcess_KnowledgeTokenResolvedToMedia(t *testing.T) {
	fx := newInboundFixture(t)
	mediaURL := "/statics/uploads/catalogo.pdf"
	fx.repo.knowledge["550e8400-e29b-41d4-a716-446655440000"] = &domainChatStorage.AIKnowledge{
		ID:       "550e8400-e29b-41d4-a716-446655440000",
		Type:     "document",
		MediaURL: &mediaURL,
	}
	fx.automation.reply = &domainAutomation.Reply{Text: "aquí está el catálogo [ID: 550e8400-e29b-41d4-a716-446655440000]"}

	fx.service.Process(context.Background(), customerTextEvent("573001112222@s.whatsapp.net", "wamid-kb", "precio?"))

	require.Len(t, fx.gateway.mediaSends, 1)
	sent := fx.gateway.mediaSends[0]
	assert.Equal(t, "document", sent.MediaType)
	assert.True(t, strings.HasSuffix(sent.MediaURL, "/statics/uploads/catalogo.pdf"))
	assert.Equal(t, "aquí está el catálogo", sent.Caption)

	// AI reply persisted with what was actually delivered.
	require.Len(t, fx.repo.messages, 2)
	aiMsg := fx.repo.messages[1]
	assert.Equal(t, domainChatStorage.SenderAI, aiMsg.Sender)
	require.NotNil(t, aiMsg.MediaURL)

	// Echo of exactly this content must now be recognized.
	assert.True(t, fx.dedup.Seen(echodedup.Fingerprint("+573001112222", "document", "aquí está el catálogo")))
}

func TestProcess_MediaSendFallsBackToText(t *testing.T) {
	fx := newInboundFixture(t)
	mediaURL := "/statics/uploads/promo.jpg"
	fx.repo.knowledge["650e8400-e29b-41d4-a716-446655440000"] = &domainChatStorage.AIKnowledge{
		ID:       "650e8400-e29b-41d4-a716-446655440000",
		Type:     "image",
		MediaURL: &mediaURL,
	}
	fx.automation.reply = &domainAutomation.Reply{Text: "promo [ID: 650e8400-e29b-41d4-a716-446655440000]"}
	fx.gateway.mediaErr = errors.New("unsupported media")

	fx.service.Process(context.Background(), customerTextEvent("573001112222@s.whatsapp.net", "wamid-fb", "promos?"))

	require.Len(t, fx.gateway.textSends, 1)
	assert.Contains(t, fx.gateway.textSends[0], "promo\n")
	assert.Contains(t, fx.gateway.textSends[0], "/statics/uploads/promo.jpg")

	// The fallback text, not the failed media, is what gets persisted.
	require.Len(t, fx.repo.messages, 2)
	aiMsg := fx.repo.messages[1]
	assert.Nil(t, aiMsg.MediaURL)
	require.NotNil(t, aiMsg.Text)
	assert.Contains(t, *aiMsg.Text, "/statics/uploads/promo.jpg")
}

func TestProcess_AIDisabledSkipsAutomation(t *testing.T) {
	fx := newInboundFixture(t)

	fx.service.Process(context.Background(), customerTextEvent("573001112222@s.whatsapp.net", "wamid-on", "hola"))
	require.Len(t, fx.automation.payloads, 1)

	_, err := fx.repo.SetAIEnabled(context.Background(), "+573001112222", false)
	require.NoError(t, err)

	fx.service.Process(context.Background(), customerTextEvent("573001112222@s.whatsapp.net", "wamid-off", "sigues ahí?"))
	assert.Len(t, fx.automation.payloads, 1)
}

func TestProcess_GroupMessageIsPrefixedAndSkipsAutomation(t *testing.T) {
	fx := newInboundFixture(t)
	fx.gateway.groupInfo = domainGateway.GroupInfo{JID: "12036304@g.us", Subject: "Soporte VIP"}

	event := domainInbound.EventEnvelope{
		Event: domainInbound.EventMessagesUpsert,
		Data: domainInbound.EventData{
			Key: domainInbound.MessageKey{
				RemoteJID:   "12036304@g.us",
				ID:          "wamid-group",
				Participant: "573001112222@s.whatsapp.net",
			},
			PushName: "Maria",
			Message:  &domainInbound.MessagePayload{Conversation: "buenos días"},
		},
	}
	fx.service.Process(context.Background(), event)

	conv := fx.repo.conversations["12036304@g.us"]
	require.NotNil(t, conv)
	assert.Equal(t, "Soporte VIP", conv.Name)

	require.Len(t, fx.repo.messages, 1)
	require.NotNil(t, fx.repo.messages[0].Text)
	assert.Equal(t, "Maria: buenos días", *fx.repo.messages[0].Text)

	assert.Empty(t, fx.automation.payloads)
}

func TestProcess_IgnoresOtherEventTypes(t *testing.T) {
	fx := newInboundFixture(t)

	fx.service.Process(context.Background(), domainInbound.EventEnvelope{
		Event: "connection.update",
		Data: domainInbound.EventData{
			Key:     domainInbound.MessageKey{RemoteJID: "573001112222@s.whatsapp.net"},
			Message: &domainInbound.MessagePayload{Conversation: "ignored"},
		},
	})

	assert.Empty(t, fx.repo.messages)
	assert.Empty(t, fx.repo.conversations)
}
