package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domainAutomation "github.com/wadesk/wadesk/domains/automation"
	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	domainGateway "github.com/wadesk/wadesk/domains/gateway"
	domainInbound "github.com/wadesk/wadesk/domains/inbound"
	domainRealtime "github.com/wadesk/wadesk/domains/realtime"
	"github.com/wadesk/wadesk/pkg/echodedup"
	"github.com/wadesk/wadesk/pkg/jid"
	"github.com/wadesk/wadesk/pkg/media"
)

// knowledgeTokenRe matches the inline resource reference the automation
// workflow embeds in its replies, e.g. "[ID: 550e8400-e29b-...]".
var knowledgeTokenRe = regexp.MustCompile(`\[ID:\s*([0-9a-fA-F-]+)\]`)

type aiDefaultProvider interface {
	AIEnabledDefault(ctx context.Context) bool
}

type serviceInbound struct {
	repo       domainChatStorage.IChatStorageRepository
	gateway    domainGateway.IGatewayClient
	automation domainAutomation.IAutomationClient
	dedup      *echodedup.Cache
	emitter    domainRealtime.IEmitter
	settings   aiDefaultProvider

	// test seam for media persistence
	saveBase64 func(data, mimeType, kind string) (string, error)
}

func NewInboundService(
	repo domainChatStorage.IChatStorageRepository,
	gatewayClient domainGateway.IGatewayClient,
	automationClient domainAutomation.IAutomationClient,
	dedup *echodedup.Cache,
	emitter domainRealtime.IEmitter,
	settings aiDefaultProvider,
) domainInbound.IInboundUsecase {
	return &serviceInbound{
		repo:       repo,
		gateway:    gatewayClient,
		automation: automationClient,
		dedup:      dedup,
		emitter:    emitter,
		settings:   settings,
		saveBase64: media.SaveBase64,
	}
}

// inboundContent is what could be extracted from the event payload.
type inboundContent struct {
	text      string
	mediaKind string
	mediaURL  string // public URL after resolution, empty when dropped
}

// Process handles one webhook event. The HTTP response was already
// written by the route handler, so every failure here is terminal for the
// event: logged, never retried, never surfaced to the gateway.
func (service *serviceInbound) Process(ctx context.Context, envelope domainInbound.EventEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[INBOUND] Panic while processing event: %v", r)
		}
	}()

	if envelope.Event != domainInbound.EventMessagesUpsert {
		logrus.Debugf("[INBOUND] Ignoring event type %q", envelope.Event)
		return
	}

	data := envelope.Data
	if data.Message == nil || data.Key.RemoteJID == "" {
		return
	}

	rawJID := data.Key.RemoteJID
	isGroup := jid.IsGroup(rawJID)
	phone := jid.Normalize(rawJID)

	content := service.extractContent(ctx, data)
	if content.text == "" && content.mediaURL == "" {
		logrus.Debugf("[INBOUND] Event %s carries no usable content, skipping", data.Key.ID)
		return
	}

	sender := domainChatStorage.SenderCustomer
	if data.Key.FromMe {
		fp := echodedup.Fingerprint(phone, content.mediaKind, content.text)
		if service.dedup.Seen(fp) {
			logrus.Debugf("[INBOUND] Dropping own echo for %s", phone)
			return
		}
		sender = domainChatStorage.SenderAgent
	}

	// Idempotent replay protection on the gateway's message id.
	if data.Key.ID != "" {
		exists, err := service.repo.MessageExists(ctx, data.Key.ID)
		if err != nil {
			logrus.WithError(err).Error("[INBOUND] Dedup lookup failed")
			return
		}
		if exists {
			logrus.Debugf("[INBOUND] Duplicate delivery of %s, skipping", data.Key.ID)
			return
		}
	}

	displayName := strings.TrimSpace(data.PushName)
	if isGroup {
		content.text = service.prefixGroupMember(data, content.text)
		displayName = ""
	}

	timestamp := time.Unix(data.Timestamp, 0).UTC()
	if data.Timestamp == 0 {
		timestamp = time.Now().UTC()
	}

	aiDefault := service.settings.AIEnabledDefault(ctx)
	conv, isNew, err := service.repo.UpsertConversation(ctx, domainChatStorage.ConversationUpsert{
		Phone:       phone,
		Name:        displayName,
		LastMessage: preview(content),
		Timestamp:   timestamp,
		AIEnabled:   &aiDefault,
	})
	if err != nil {
		logrus.WithError(err).Errorf("[INBOUND] Conversation upsert failed for %s", phone)
		return
	}

	if isGroup {
		service.ensureGroupName(ctx, conv, rawJID)
	}

	msg := &domainChatStorage.Message{
		Phone:     phone,
		Sender:    sender,
		Status:    "delivered",
		CreatedAt: timestamp,
	}
	if content.text != "" {
		text := content.text
		msg.Text = &text
	}
	if content.mediaURL != "" {
		msg.MediaType = &content.mediaKind
		msg.MediaURL = &content.mediaURL
	}
	if data.Key.ID != "" {
		externalID := data.Key.ID
		msg.ExternalID = &externalID
	}

	if err := service.repo.InsertMessage(ctx, msg); err != nil {
		logrus.WithError(err).Errorf("[INBOUND] Message insert failed for %s", phone)
		return
	}

	if sender == domainChatStorage.SenderCustomer {
		if err := service.repo.IncrementUnread(ctx, phone); err != nil {
			logrus.WithError(err).Warn("[INBOUND] Unread increment failed")
		}
	} else {
		if err := service.repo.MarkRead(ctx, phone); err != nil {
			logrus.WithError(err).Warn("[INBOUND] Mark read failed")
		}
	}

	service.emitter.Emit(domainRealtime.CodeNewMessage, phone, map[string]any{
		"phone":        phone,
		"message":      msg,
		"name":         conv.Name,
		"last_message": preview(content),
		"isNew":        isNew,
	})

	if conv.AIEnabled && conv.State == domainChatStorage.StateAIActive &&
		!isGroup && sender == domainChatStorage.SenderCustomer {
		service.triggerAutomation(ctx, conv, content, timestamp)
	}
}

// extractContent pulls text and media out of the nested payload and
// resolves media to a stored public URL. Resolution order: inline base64
// in any known location, then an explicit fetch through the gateway, then
// give up and degrade to text-only rather than exposing a reference the
// frontend cannot display.
func (service *serviceInbound) extractContent(ctx context.Context, data domainInbound.EventData) inboundContent {
	msg := data.Message
	content := inboundContent{}

	switch {
	case msg.Conversation != "":
		content.text = strings.TrimSpace(msg.Conversation)
	case msg.ExtendedTextMessage != nil:
		content.text = strings.TrimSpace(msg.ExtendedTextMessage.Text)
	}

	kind, payload := pickMedia(msg)
	if payload == nil {
		return content
	}
	content.mediaKind = kind
	if content.text == "" {
		content.text = strings.TrimSpace(payload.Caption)
	}

	inline := payload.Base64
	if inline == "" {
		inline = msg.Base64
	}
	if inline != "" {
		url, err := service.saveBase64(inline, payload.MimeType, kind)
		if err == nil {
			content.mediaURL = url
			return content
		}
		logrus.WithError(err).Warnf("[INBOUND] Failed to store inline %s media", kind)
	}

	if data.Key.ID != "" {
		fetched, err := service.gateway.FetchBase64(ctx, data.Key.ID)
		if err == nil {
			url, saveErr := service.saveBase64(fetched.Base64, fetched.MimeType, kind)
			if saveErr == nil {
				content.mediaURL = url
				return content
			}
			logrus.WithError(saveErr).Warnf("[INBOUND] Failed to store fetched %s media", kind)
		} else {
			logrus.WithError(err).Warnf("[INBOUND] Media fetch failed for %s", data.Key.ID)
		}
	}

	// Only an internal gateway reference remains; dropping it beats showing
	// a broken attachment.
	content.mediaKind = ""
	return content
}

func pickMedia(msg *domainInbound.MessagePayload) (string, *domainInbound.MediaPayload) {
	switch {
	case msg.ImageMessage != nil:
		return "image", msg.ImageMessage
	case msg.VideoMessage != nil:
		return "video", msg.VideoMessage
	case msg.AudioMessage != nil:
		return "audio", msg.AudioMessage
	case msg.DocumentMessage != nil:
		return "document", msg.DocumentMessage
	default:
		return "", nil
	}
}

// prefixGroupMember prepends the sending member's display name so a group
// thread reads like a chat log.
func (service *serviceInbound) prefixGroupMember(data domainInbound.EventData, text string) string {
	member := strings.TrimSpace(data.PushName)
	if member == "" && data.Key.Participant != "" {
		member = jid.Normalize(data.Key.Participant)
	}
	if member == "" || text == "" {
		return text
	}
	return member + ": " + text
}

// ensureGroupName replaces placeholder-looking names with the real group
// subject from the gateway. Failures keep the current name.
func (service *serviceInbound) ensureGroupName(ctx context.Context, conv *domainChatStorage.Conversation, groupJID string) {
	name := strings.TrimSpace(conv.Name)
	if name != "" && name != conv.Phone && !strings.HasPrefix(name, "Grupo") {
		return
	}

	info, err := service.gateway.FetchGroupInfo(ctx, groupJID)
	if err != nil {
		logrus.WithError(err).Debugf("[INBOUND] Group name lookup failed for %s", groupJID)
		return
	}
	if info.Subject == "" {
		return
	}
	if err := service.repo.UpdateConversationName(ctx, conv.Phone, info.Subject); err != nil {
		logrus.WithError(err).Warn("[INBOUND] Failed to store group name")
		return
	}
	conv.Name = info.Subject
}

// triggerAutomation forwards the customer message to the automation
// workflow, resolves any knowledge resource reference in the reply and
// sends it back through the gateway. What actually got delivered (after
// the media-to-text fallback) is what gets persisted and broadcast.
func (service *serviceInbound) triggerAutomation(ctx context.Context, conv *domainChatStorage.Conversation, content inboundContent, timestamp time.Time) {
	payload := domainAutomation.Payload{
		Phone:             conv.Phone,
		Name:              conv.Name,
		Message:           content.text,
		TempID:            uuid.NewString(),
		ConversationState: conv.State,
		Timestamp:         timestamp.Format(time.RFC3339),
	}
	if content.mediaURL != "" {
		payload.MediaType = content.mediaKind
		payload.MediaURL = media.PublicURL(content.mediaURL)
	}

	reply, err := service.automation.Trigger(ctx, payload)
	if err != nil {
		logrus.WithError(err).Warnf("[AUTOMATION] Trigger failed for %s", conv.Phone)
		return
	}

	text, mediaURL, mediaKind := service.resolveReply(ctx, reply)
	if text == "" && mediaURL == "" {
		logrus.Debugf("[AUTOMATION] Empty reply for %s, nothing to send", conv.Phone)
		return
	}

	sentText, sentKind, sentURL, ok := service.deliverReply(ctx, conv.Phone, text, mediaKind, mediaURL)
	if !ok {
		return
	}

	// The webhook echo of this exact content arrives shortly; remember it.
	service.dedup.Register(echodedup.Fingerprint(conv.Phone, sentKind, sentText))

	now := time.Now().UTC()
	msg := &domainChatStorage.Message{
		Phone:     conv.Phone,
		Sender:    domainChatStorage.SenderAI,
		Status:    "delivered",
		CreatedAt: now,
	}
	if sentText != "" {
		t := sentText
		msg.Text = &t
	}
	if sentURL != "" {
		msg.MediaType = &sentKind
		msg.MediaURL = &sentURL
	}

	if err := service.repo.InsertMessage(ctx, msg); err != nil {
		logrus.WithError(err).Errorf("[AUTOMATION] Failed to persist AI reply for %s", conv.Phone)
		return
	}
	if err := service.repo.UpdateLastMessage(ctx, conv.Phone, previewText(sentText, sentKind), now); err != nil {
		logrus.WithError(err).Warn("[AUTOMATION] Failed to update conversation preview")
	}

	service.emitter.Emit(domainRealtime.CodeNewMessage, conv.Phone, map[string]any{
		"phone":        conv.Phone,
		"message":      msg,
		"name":         conv.Name,
		"last_message": previewText(sentText, sentKind),
		"isNew":        false,
	})
}

// resolveReply expands a "[ID: <uuid>]" token against the knowledge table
// and strips it from the outgoing text.
func (service *serviceInbound) resolveReply(ctx context.Context, reply *domainAutomation.Reply) (text, mediaURL, mediaKind string) {
	text = strings.TrimSpace(reply.Text)
	mediaURL = reply.MediaURL
	mediaKind = reply.MediaType

	match := knowledgeTokenRe.FindStringSubmatch(text)
	if match != nil {
		text = strings.TrimSpace(knowledgeTokenRe.ReplaceAllString(text, ""))

		resource, err := service.repo.GetKnowledge(ctx, match[1])
		if err != nil {
			logrus.WithError(err).Warnf("[AUTOMATION] Knowledge lookup failed for %s", match[1])
		} else if resource == nil {
			logrus.Warnf("[AUTOMATION] Unknown knowledge resource %s referenced in reply", match[1])
		} else if resource.MediaURL != nil && *resource.MediaURL != "" {
			mediaURL = *resource.MediaURL
			mediaKind = resource.Type
		}
	}

	if mediaURL != "" {
		mediaURL = media.PublicURL(mediaURL)
		// "text" typed resources still point at a concrete file; infer the
		// displayable kind from the URL when the stored type is ambiguous.
		if mediaKind == "" || mediaKind == "text" {
			if inferred := media.KindFromURL(mediaURL); inferred != "" {
				mediaKind = inferred
			}
		}
	}
	return text, mediaURL, mediaKind
}

// deliverReply attempts media+caption first, then falls back to plain
// text with the URL appended. The returned values describe what was
// actually delivered; ok is false when nothing went out.
func (service *serviceInbound) deliverReply(ctx context.Context, phone, text, mediaKind, mediaURL string) (sentText, sentKind, sentURL string, ok bool) {
	if mediaURL != "" {
		_, err := service.gateway.SendMedia(ctx, domainGateway.SendMediaRequest{
			Number:    phone,
			MediaType: mediaKind,
			MediaURL:  mediaURL,
			Caption:   text,
		})
		if err == nil {
			return text, mediaKind, mediaURL, true
		}
		logrus.WithError(err).Warnf("[AUTOMATION] Media send failed for %s, falling back to text", phone)

		fallback := strings.TrimSpace(text + "\n" + mediaURL)
		if _, err := service.gateway.SendText(ctx, phone, fallback); err != nil {
			logrus.WithError(err).Errorf("[AUTOMATION] Text fallback also failed for %s", phone)
			return "", "", "", false
		}
		return fallback, "", "", true
	}

	if _, err := service.gateway.SendText(ctx, phone, text); err != nil {
		logrus.WithError(err).Errorf("[AUTOMATION] Text send failed for %s", phone)
		return "", "", "", false
	}
	return text, "", "", true
}

func preview(content inboundContent) string {
	return previewText(content.text, content.mediaKind)
}

func previewText(text, mediaKind string) string {
	if text != "" {
		return text
	}
	switch mediaKind {
	case "image":
		return "📷 Imagen"
	case "video":
		return "🎥 Video"
	case "audio":
		return "🎵 Audio"
	case "document":
		return "📄 Documento"
	default:
		return ""
	}
}
