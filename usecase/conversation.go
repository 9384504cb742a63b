package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domainAutomation "github.com/wadesk/wadesk/domains/automation"
	domainChatStorage "github.com/wadesk/wadesk/domains/chatstorage"
	domainConversation "github.com/wadesk/wadesk/domains/conversation"
	domainGateway "github.com/wadesk/wadesk/domains/gateway"
	domainRealtime "github.com/wadesk/wadesk/domains/realtime"
	"github.com/wadesk/wadesk/pkg/echodedup"
	pkgError "github.com/wadesk/wadesk/pkg/error"
	"github.com/wadesk/wadesk/pkg/jid"
	"github.com/wadesk/wadesk/pkg/media"
	"github.com/wadesk/wadesk/validations"
)

type serviceConversation struct {
	repo       domainChatStorage.IChatStorageRepository
	gateway    domainGateway.IGatewayClient
	automation domainAutomation.IAutomationClient
	dedup      *echodedup.Cache
	emitter    domainRealtime.IEmitter
}

func NewConversationService(
	repo domainChatStorage.IChatStorageRepository,
	gatewayClient domainGateway.IGatewayClient,
	automationClient domainAutomation.IAutomationClient,
	dedup *echodedup.Cache,
	emitter domainRealtime.IEmitter,
) domainConversation.IConversationUsecase {
	return &serviceConversation{
		repo:       repo,
		gateway:    gatewayClient,
		automation: automationClient,
		dedup:      dedup,
		emitter:    emitter,
	}
}

func (service *serviceConversation) List(ctx context.Context, request domainConversation.ListRequest) (domainConversation.ListResponse, error) {
	convs, total, err := service.repo.ListConversations(ctx, request.Status, request.Limit, request.Offset)
	if err != nil {
		return domainConversation.ListResponse{}, err
	}
	return domainConversation.ListResponse{
		Data: convs,
		Pagination: domainConversation.PaginationResponse{
			Limit:  request.Limit,
			Offset: request.Offset,
			Total:  total,
		},
	}, nil
}

func (service *serviceConversation) Get(ctx context.Context, phone string) (*domainChatStorage.Conversation, error) {
	conv, err := service.repo.GetConversation(ctx, phone)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, pkgError.NotFoundError("conversation not found: " + phone)
	}
	return conv, nil
}

// Create opens an agent-initiated chat before any inbound message exists.
func (service *serviceConversation) Create(ctx context.Context, request domainConversation.CreateRequest) (*domainChatStorage.Conversation, error) {
	if err := validations.ValidateCreateConversation(ctx, &request); err != nil {
		return nil, err
	}

	phone := jid.Normalize(request.Phone)
	conv, _, err := service.repo.UpsertConversation(ctx, domainChatStorage.ConversationUpsert{
		Phone: phone,
		Name:  strings.TrimSpace(request.Name),
	})
	if err != nil {
		return nil, err
	}

	service.emitter.Emit(domainRealtime.CodeConversationUpdated, phone, conv)
	return conv, nil
}

func (service *serviceConversation) Messages(ctx context.Context, request domainConversation.MessagesRequest) (domainConversation.MessagesResponse, error) {
	msgs, total, err := service.repo.ListMessages(ctx, request.Phone, request.Limit, request.Offset)
	if err != nil {
		return domainConversation.MessagesResponse{}, err
	}
	return domainConversation.MessagesResponse{
		Data: msgs,
		Pagination: domainConversation.PaginationResponse{
			Limit:  request.Limit,
			Offset: request.Offset,
			Total:  total,
		},
	}, nil
}

// Reply sends an agent-authored message through the gateway and persists
// the outcome. The stored external id doubles as replay protection when
// the gateway echoes our own message back through the webhook.
func (service *serviceConversation) Reply(ctx context.Context, request domainConversation.ReplyRequest) (*domainChatStorage.Message, error) {
	if err := validations.ValidateReply(ctx, &request); err != nil {
		return nil, err
	}

	conv, err := service.Get(ctx, request.Phone)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &domainChatStorage.Message{
		Phone:     conv.Phone,
		Sender:    domainChatStorage.SenderAgent,
		Status:    "sending",
		CreatedAt: now,
	}
	if request.Text != "" {
		text := request.Text
		msg.Text = &text
	}
	if request.MediaURL != "" {
		mediaType := request.MediaType
		mediaURL := request.MediaURL
		msg.MediaType = &mediaType
		msg.MediaURL = &mediaURL
	}
	if err := service.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	var sendResp domainGateway.SendResponse
	var sendErr error
	if request.MediaURL != "" {
		sendResp, sendErr = service.gateway.SendMedia(ctx, domainGateway.SendMediaRequest{
			Number:    conv.Phone,
			MediaType: request.MediaType,
			MediaURL:  media.PublicURL(request.MediaURL),
			Caption:   request.Text,
		})
	} else {
		sendResp, sendErr = service.gateway.SendText(ctx, conv.Phone, request.Text)
	}
	if sendErr != nil {
		if err := service.repo.UpdateMessageStatus(ctx, msg.ID, "failed", nil); err != nil {
			logrus.WithError(err).Warn("[CONVERSATION] Failed to mark message as failed")
		}
		return nil, sendErr
	}

	msg.Status = "delivered"
	if sendResp.MessageID != "" {
		externalID := sendResp.MessageID
		msg.ExternalID = &externalID
	}
	if err := service.repo.UpdateMessageStatus(ctx, msg.ID, msg.Status, msg.ExternalID); err != nil {
		logrus.WithError(err).Warn("[CONVERSATION] Failed to record delivery outcome")
	}

	if err := service.repo.UpdateLastMessage(ctx, conv.Phone, previewText(request.Text, request.MediaType), now); err != nil {
		logrus.WithError(err).Warn("[CONVERSATION] Failed to update preview after reply")
	}
	if err := service.repo.MarkRead(ctx, conv.Phone); err != nil {
		logrus.WithError(err).Warn("[CONVERSATION] Failed to clear unread after reply")
	}

	// The echo of a send without a gateway id can only be matched by content.
	if sendResp.MessageID == "" {
		service.dedup.Register(echodedup.Fingerprint(conv.Phone, request.MediaType, request.Text))
	}

	service.emitter.Emit(domainRealtime.CodeNewMessage, conv.Phone, map[string]any{
		"phone":        conv.Phone,
		"message":      msg,
		"name":         conv.Name,
		"last_message": previewText(request.Text, request.MediaType),
		"isNew":        false,
	})

	go service.automation.Notify(context.Background(), domainAutomation.Payload{
		Phone:             conv.Phone,
		Name:              request.AgentName,
		Message:           request.Text,
		TempID:            uuid.NewString(),
		ConversationState: conv.State,
		Timestamp:         now.Format(time.RFC3339),
		MediaType:         request.MediaType,
		MediaURL:          request.MediaURL,
	})

	return msg, nil
}

func (service *serviceConversation) MarkRead(ctx context.Context, phone string) error {
	if err := service.repo.MarkRead(ctx, phone); err != nil {
		return err
	}
	service.emitter.Emit(domainRealtime.CodeConversationUpdated, phone, map[string]any{
		"phone":        phone,
		"unread_count": 0,
	})
	return nil
}

// ToggleAI flips the automation flag. Enabling always lands in ai_active
// and disabling in agent_active; the next inbound message reads exactly
// this state when deciding whether to call the automation workflow.
func (service *serviceConversation) ToggleAI(ctx context.Context, request domainConversation.ToggleAIRequest) (*domainChatStorage.Conversation, error) {
	conv, err := service.repo.SetAIEnabled(ctx, request.Phone, request.Enabled)
	if err != nil {
		return nil, err
	}

	service.emitter.Emit(domainRealtime.CodeStateChanged, conv.Phone, map[string]any{
		"phone":      conv.Phone,
		"ai_enabled": conv.AIEnabled,
		"state":      conv.State,
	})

	go service.automation.Notify(context.Background(), domainAutomation.Payload{
		Phone:             conv.Phone,
		Message:           "conversation_state_changed",
		TempID:            uuid.NewString(),
		ConversationState: conv.State,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	})

	return conv, nil
}

func (service *serviceConversation) Archive(ctx context.Context, phone string) error {
	if err := service.repo.ArchiveConversation(ctx, phone); err != nil {
		return err
	}
	service.emitter.Emit(domainRealtime.CodeConversationUpdated, phone, map[string]any{
		"phone":  phone,
		"status": domainChatStorage.StatusArchived,
	})
	return nil
}

func (service *serviceConversation) AssignAgent(ctx context.Context, phone string, agentID *uint) error {
	if err := service.repo.AssignAgent(ctx, phone, agentID); err != nil {
		return err
	}
	service.emitter.Emit(domainRealtime.CodeConversationUpdated, phone, map[string]any{
		"phone":             phone,
		"assigned_agent_id": agentID,
	})
	return nil
}

func (service *serviceConversation) AssignTag(ctx context.Context, phone string, tagID uint) error {
	return service.repo.AssignTag(ctx, phone, tagID)
}

func (service *serviceConversation) RemoveTag(ctx context.Context, phone string, tagID uint) error {
	return service.repo.RemoveTag(ctx, phone, tagID)
}
